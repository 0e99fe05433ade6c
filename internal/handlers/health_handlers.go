package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tokenforge/tokenforge-api/internal/client/bundler"
)

type HealthHandler struct {
	bundler *bundler.BundlerClient
}

func NewHealthHandler(bundlerClient *bundler.BundlerClient) *HealthHandler {
	return &HealthHandler{bundler: bundlerClient}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Bundler string `json:"bundler,omitempty"`
}

// Health godoc
// @Summary      Health check
// @Description  Checks if the server is running. With deep=true it also probes the bundler.
// @Tags         health
// @Accept       json
// @Produce      json
// @Param        deep  query  bool  false  "Also check the bundler"
// @Success      200  {object}  HealthResponse   "Returns health status"
// @Router       /health [get]
// @exclude
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok"}

	if c.Query("deep") == "true" && h.bundler != nil {
		if err := h.bundler.HealthCheck(c.Request.Context()); err != nil {
			resp.Bundler = "unavailable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp.Bundler = "ok"
	}

	c.JSON(http.StatusOK, resp)
}
