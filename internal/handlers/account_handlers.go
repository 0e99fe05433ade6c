package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tokenforge/tokenforge-api/internal/db"
)

// AccountHandler exposes the caller's smart-account record.
type AccountHandler struct {
	common *CommonServices
}

func NewAccountHandler(common *CommonServices) *AccountHandler {
	return &AccountHandler{common: common}
}

// SmartAccountResponse represents the standardized API response for smart accounts
type SmartAccountResponse struct {
	ID             string `json:"id"`
	Object         string `json:"object"`
	OwnerAddress   string `json:"owner_address"`
	AccountAddress string `json:"account_address"`
	Network        string `json:"network"`
	Deployed       bool   `json:"deployed"`
	Created        int64  `json:"created"`
	Updated        int64  `json:"updated"`
}

func timestamptzUnix(t pgtype.Timestamptz) int64 {
	if !t.Valid {
		return 0
	}
	return t.Time.Unix()
}

func toSmartAccountResponse(a db.SmartAccount) SmartAccountResponse {
	return SmartAccountResponse{
		ID:             a.ID.String(),
		Object:         "smart_account",
		OwnerAddress:   a.OwnerAddress,
		AccountAddress: a.AccountAddress,
		Network:        a.Network,
		Deployed:       a.Deployed,
		Created:        timestamptzUnix(a.CreatedAt),
		Updated:        timestamptzUnix(a.UpdatedAt),
	}
}

// GetMe godoc
// @Summary Get the caller's smart account
// @Description Get the smart-account record for the authenticated user on the active network
// @Tags accounts
// @Accept json
// @Produce json
// @Success 200 {object} SmartAccountResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "No smart account yet"
// @Security BearerAuth
// @Router /accounts/me [get]
func (h *AccountHandler) GetMe(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	account, err := h.common.db.GetSmartAccountByUser(c.Request.Context(), db.GetSmartAccountByUserParams{
		UserID:  userID,
		Network: h.common.initializer.Network().Name,
	})
	if err != nil {
		handleDBError(c, err, "No smart account found, call /session/ensure-ready first")
		return
	}

	sendSuccess(c, http.StatusOK, toSmartAccountResponse(account))
}
