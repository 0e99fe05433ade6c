package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tokenforge/tokenforge-api/internal/coordinator"
	"github.com/tokenforge/tokenforge-api/internal/db"
	"github.com/tokenforge/tokenforge-api/internal/logger"
)

// SessionHandler exposes the smart-account readiness flow over HTTP.
type SessionHandler struct {
	common *CommonServices
}

// NewSessionHandler creates a new SessionHandler instance
func NewSessionHandler(common *CommonServices) *SessionHandler {
	return &SessionHandler{common: common}
}

// SessionStateResponse is the readiness state returned by the session endpoints.
type SessionStateResponse struct {
	Status         string                `json:"status"`
	AccountAddress string                `json:"account_address,omitempty"`
	Network        string                `json:"network,omitempty"`
	Error          *ReadinessErrorDetail `json:"error,omitempty"`
}

// ReadinessErrorDetail carries the readiness error code and message.
type ReadinessErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *SessionHandler) stateResponse(snap coordinator.Snapshot) SessionStateResponse {
	resp := SessionStateResponse{
		Status:         string(snap.Status),
		AccountAddress: snap.AccountAddress,
	}
	if snap.AccountAddress != "" {
		resp.Network = h.common.initializer.Network().Name
	}
	if snap.Error != nil {
		resp.Error = &ReadinessErrorDetail{
			Code:    string(snap.Error.Code),
			Message: snap.Error.Message,
		}
	}
	return resp
}

// refreshAuthState pulls the provider's current view of the session and feeds
// it to the user's coordinator, driving the passive watcher lifecycle.
func (h *SessionHandler) refreshAuthState(ctx context.Context, userID string) (*coordinator.Coordinator, error) {
	session, err := h.common.privy.GetSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session state: %w", err)
	}

	coord := h.common.coordinators.ForUser(userID)
	coord.OnAuthStateChange(coordinator.AuthState{
		Authenticated: session.Data.Authenticated,
		Ready:         session.Data.Ready,
		Wallets:       session.Data.Wallets,
	})
	return coord, nil
}

// persistSmartAccount records the counterfactual account address. Best-effort:
// the readiness result does not depend on it.
func (h *SessionHandler) persistSmartAccount(ctx context.Context, userID string, coord *coordinator.Coordinator) {
	handle := coord.Handle()
	if handle == nil {
		return
	}

	_, err := h.common.db.CreateSmartAccount(ctx, db.CreateSmartAccountParams{
		UserID:         userID,
		OwnerAddress:   handle.Client.Owner.Hex(),
		AccountAddress: handle.Address.Hex(),
		Network:        h.common.initializer.Network().Name,
		Deployed:       false,
	})
	if err != nil {
		logger.Error("Failed to persist smart account",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("account", handle.Address.Hex()),
		)
	}
}

// EnsureReady godoc
// @Summary Ensure the session's smart account is ready
// @Description Refreshes the auth provider session state and drives smart-account initialization, waiting up to the wallet bound for an embedded wallet to appear before initializing.
// @Tags session
// @Accept json
// @Produce json
// @Success 200 {object} SessionStateResponse
// @Success 202 {object} SessionStateResponse "Waiting for an embedded wallet"
// @Failure 401 {object} SessionStateResponse
// @Failure 502 {object} ErrorResponse
// @Failure 504 {object} SessionStateResponse "Timed out waiting for a wallet"
// @Security BearerAuth
// @Router /session/ensure-ready [post]
func (h *SessionHandler) EnsureReady(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	coord, err := h.refreshAuthState(c.Request.Context(), userID)
	if err != nil {
		sendError(c, http.StatusBadGateway, "Failed to refresh session state", err)
		return
	}

	_, err = coord.EnsureReady(c.Request.Context())
	if err != nil {
		h.respondReadinessError(c, coord, err)
		return
	}

	h.persistSmartAccount(c.Request.Context(), userID, coord)
	sendSuccess(c, http.StatusOK, h.stateResponse(coord.Snapshot()))
}

// Retry godoc
// @Summary Retry smart-account readiness after an error
// @Description Clears error state. With a wallet present this initializes immediately; otherwise a fresh wallet watcher is started and the call returns the waiting state.
// @Tags session
// @Accept json
// @Produce json
// @Success 200 {object} SessionStateResponse
// @Success 202 {object} SessionStateResponse
// @Failure 401 {object} SessionStateResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /session/retry [post]
func (h *SessionHandler) Retry(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	coord, err := h.refreshAuthState(c.Request.Context(), userID)
	if err != nil {
		sendError(c, http.StatusBadGateway, "Failed to refresh session state", err)
		return
	}

	coord.Retry(c.Request.Context())

	snap := coord.Snapshot()
	if snap.Status == coordinator.StatusReady {
		h.persistSmartAccount(c.Request.Context(), userID, coord)
		sendSuccess(c, http.StatusOK, h.stateResponse(snap))
		return
	}
	if snap.Error != nil {
		c.JSON(readinessStatusCode(snap.Error.Code), h.stateResponse(snap))
		return
	}
	sendSuccess(c, http.StatusAccepted, h.stateResponse(snap))
}

// GetStatus godoc
// @Summary Get the session's readiness status
// @Description Returns the current readiness state without driving initialization.
// @Tags session
// @Accept json
// @Produce json
// @Success 200 {object} SessionStateResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /session/status [get]
func (h *SessionHandler) GetStatus(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	coord := h.common.coordinators.ForUser(userID)
	sendSuccess(c, http.StatusOK, h.stateResponse(coord.Snapshot()))
}

// RefreshAuth godoc
// @Summary Refresh the session's auth state
// @Description Re-reads the auth provider session and applies it to the readiness flow. A revoked session releases the smart-account handle and cancels any pending wallet watcher.
// @Tags session
// @Accept json
// @Produce json
// @Success 200 {object} SessionStateResponse
// @Failure 401 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /auth/refresh [post]
func (h *SessionHandler) RefreshAuth(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	session, err := h.common.privy.GetSession(c.Request.Context(), userID)
	if err != nil {
		sendError(c, http.StatusBadGateway, "Failed to refresh session state", err)
		return
	}

	if !session.Data.Authenticated {
		// Session revoked: tear the coordinator down entirely.
		h.common.coordinators.Evict(userID)
		sendSuccess(c, http.StatusOK, SessionStateResponse{
			Status: string(coordinator.StatusIdle),
		})
		return
	}

	coord := h.common.coordinators.ForUser(userID)
	coord.OnAuthStateChange(coordinator.AuthState{
		Authenticated: session.Data.Authenticated,
		Ready:         session.Data.Ready,
		Wallets:       session.Data.Wallets,
	})
	sendSuccess(c, http.StatusOK, h.stateResponse(coord.Snapshot()))
}

// respondReadinessError renders a coordinator error with its HTTP mapping and
// the current snapshot, so clients always see the resulting status.
func (h *SessionHandler) respondReadinessError(c *gin.Context, coord *coordinator.Coordinator, err error) {
	var rerr *coordinator.ReadinessError
	if !errors.As(err, &rerr) {
		sendError(c, http.StatusInternalServerError, "Readiness check failed", err)
		return
	}

	if rerr.NonFatal() {
		logger.Debug("Session parked waiting for embedded wallet",
			zap.String("path", c.Request.URL.Path),
		)
	} else {
		logger.Warn("Readiness check failed",
			zap.String("code", string(rerr.Code)),
			zap.String("message", rerr.Message),
		)
	}

	resp := h.stateResponse(coord.Snapshot())
	if resp.Error == nil {
		// Non-fatal errors are returned without being recorded in the snapshot.
		resp.Error = &ReadinessErrorDetail{
			Code:    string(rerr.Code),
			Message: rerr.Message,
		}
	}
	c.JSON(readinessStatusCode(rerr.Code), resp)
}
