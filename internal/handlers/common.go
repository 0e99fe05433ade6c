package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/tokenforge/tokenforge-api/internal/client/privy"
	"github.com/tokenforge/tokenforge-api/internal/coordinator"
	"github.com/tokenforge/tokenforge-api/internal/db"
	"github.com/tokenforge/tokenforge-api/internal/logger"
	"github.com/tokenforge/tokenforge-api/internal/smartaccount"
)

// CommonServices holds common dependencies used across handlers
type CommonServices struct {
	db           db.Querier
	privy        *privy.PrivyClient
	coordinators *coordinator.Manager
	initializer  *smartaccount.Initializer
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewCommonServices creates a new instance of CommonServices
func NewCommonServices(
	db db.Querier,
	privy *privy.PrivyClient,
	coordinators *coordinator.Manager,
	initializer *smartaccount.Initializer,
) *CommonServices {
	return &CommonServices{
		db:           db,
		privy:        privy,
		coordinators: coordinators,
		initializer:  initializer,
	}
}

// sendError is a helper function that combines logging and error response
// It logs the error with the given message and sends a JSON error response
func sendError(c *gin.Context, statusCode int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, ErrorResponse{Error: message})
}

// handleDBError is a helper function that handles database errors and returns appropriate HTTP status codes
func handleDBError(c *gin.Context, err error, notFoundMsg string) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		sendError(c, http.StatusNotFound, notFoundMsg, err)
	default:
		sendError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

// sendSuccess is a helper function that sends a success response
func sendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// sendList is a helper function that sends a paginated list response
func sendList(c *gin.Context, items interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   items,
	})
}

// readinessStatusCode maps a readiness error code to the HTTP status the
// session endpoints return for it.
func readinessStatusCode(code coordinator.Code) int {
	switch code {
	case coordinator.CodeNotAuthenticated:
		return http.StatusUnauthorized
	case coordinator.CodeWalletTimeout:
		return http.StatusGatewayTimeout
	case coordinator.CodeWalletUnavailable:
		// Not a failure: the session is parked until a wallet shows up.
		return http.StatusAccepted
	case coordinator.CodeInitializationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// requireUserID extracts the authenticated user ID set by the auth middleware.
func requireUserID(c *gin.Context) (string, bool) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "No authentication provided",
			Code:  string(coordinator.CodeNotAuthenticated),
		})
		c.Abort()
		return "", false
	}
	return userID, true
}
