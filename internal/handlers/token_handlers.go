package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tokenforge/tokenforge-api/internal/db"
)

// TokenHandler handles ERC-20 deployment operations executed through the
// user's smart account.
type TokenHandler struct {
	common    *CommonServices
	processor *DeploymentProcessor
}

// NewTokenHandler creates a new TokenHandler instance
func NewTokenHandler(common *CommonServices, processor *DeploymentProcessor) *TokenHandler {
	return &TokenHandler{common: common, processor: processor}
}

// DeployTokenRequest represents the request body for deploying a token
type DeployTokenRequest struct {
	Name          string `json:"name" binding:"required,max=64"`
	Symbol        string `json:"symbol" binding:"required,max=16"`
	Decimals      int16  `json:"decimals" binding:"gte=0,lte=18"`
	InitialSupply string `json:"initial_supply" binding:"required"`
}

// TokenDeploymentResponse represents the standardized API response for deployments
type TokenDeploymentResponse struct {
	ID             string  `json:"id"`
	Object         string  `json:"object"`
	AccountAddress string  `json:"account_address"`
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	Decimals       int16   `json:"decimals"`
	InitialSupply  string  `json:"initial_supply"`
	Network        string  `json:"network"`
	Status         string  `json:"status"`
	UserOpHash     *string `json:"user_op_hash,omitempty"`
	TxHash         *string `json:"tx_hash,omitempty"`
	TokenAddress   *string `json:"token_address,omitempty"`
	ErrorMessage   *string `json:"error_message,omitempty"`
	CreatedAt      int64   `json:"created_at"`
	UpdatedAt      int64   `json:"updated_at"`
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func toTokenDeploymentResponse(d db.TokenDeployment) TokenDeploymentResponse {
	supply := ""
	if d.InitialSupply.Valid && d.InitialSupply.Int != nil {
		if v, err := d.InitialSupply.Value(); err == nil {
			if s, ok := v.(string); ok {
				supply = s
			}
		}
	}

	return TokenDeploymentResponse{
		ID:             d.ID.String(),
		Object:         "token_deployment",
		AccountAddress: d.AccountAddress,
		Name:           d.TokenName,
		Symbol:         d.TokenSymbol,
		Decimals:       d.Decimals,
		InitialSupply:  supply,
		Network:        d.Network,
		Status:         string(d.Status),
		UserOpHash:     textPtr(d.UserOpHash),
		TxHash:         textPtr(d.TxHash),
		TokenAddress:   textPtr(d.TokenAddress),
		ErrorMessage:   textPtr(d.ErrorMessage),
		CreatedAt:      d.CreatedAt.Time.Unix(),
		UpdatedAt:      d.UpdatedAt.Time.Unix(),
	}
}

// DeployToken godoc
// @Summary Deploy an ERC-20 token
// @Description Queues a token deployment executed as a sponsored user operation from the caller's smart account. The smart account must be ready.
// @Tags tokens
// @Accept json
// @Produce json
// @Param request body DeployTokenRequest true "Token parameters"
// @Success 202 {object} TokenDeploymentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Smart account not ready"
// @Failure 503 {object} ErrorResponse "Deployment queue full"
// @Security BearerAuth
// @Router /tokens/deploy [post]
func (h *TokenHandler) DeployToken(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req DeployTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var supply pgtype.Numeric
	if err := supply.Scan(req.InitialSupply); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid initial supply", err)
		return
	}

	coord := h.common.coordinators.ForUser(userID)
	handle := coord.Handle()
	if handle == nil {
		sendError(c, http.StatusConflict, "Smart account not ready, call /session/ensure-ready first",
			fmt.Errorf("no smart account handle for user"))
		return
	}

	deployment, err := h.common.db.CreateTokenDeployment(c.Request.Context(), db.CreateTokenDeploymentParams{
		UserID:         userID,
		AccountAddress: handle.Address.Hex(),
		TokenName:      req.Name,
		TokenSymbol:    req.Symbol,
		Decimals:       req.Decimals,
		InitialSupply:  supply,
		Network:        h.common.initializer.Network().Name,
	})
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to record deployment", err)
		return
	}

	if err := h.processor.QueueDeployment(DeploymentTask{
		DeploymentID: deployment.ID,
		UserID:       userID,
	}); err != nil {
		sendError(c, http.StatusServiceUnavailable, "Deployment queue full, try again later", err)
		return
	}

	sendSuccess(c, http.StatusAccepted, toTokenDeploymentResponse(deployment))
}

// GetDeployment godoc
// @Summary Get a token deployment
// @Description Get deployment status and results by deployment ID
// @Tags tokens
// @Accept json
// @Produce json
// @Param deployment_id path string true "Deployment ID"
// @Success 200 {object} TokenDeploymentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tokens/deployments/{deployment_id} [get]
func (h *TokenHandler) GetDeployment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	deploymentID := c.Param("deployment_id")
	parsedUUID, err := uuid.Parse(deploymentID)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid deployment ID format", err)
		return
	}

	deployment, err := h.common.db.GetTokenDeployment(c.Request.Context(), parsedUUID)
	if err != nil {
		handleDBError(c, err, "Deployment not found")
		return
	}

	// Deployments are scoped to their owner.
	if deployment.UserID != userID {
		sendError(c, http.StatusNotFound, "Deployment not found",
			fmt.Errorf("deployment %s does not belong to requesting user", deploymentID))
		return
	}

	sendSuccess(c, http.StatusOK, toTokenDeploymentResponse(deployment))
}

// ListDeployments godoc
// @Summary List token deployments
// @Description List the caller's token deployments, newest first
// @Tags tokens
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /tokens/deployments [get]
func (h *TokenHandler) ListDeployments(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	deployments, err := h.common.db.ListTokenDeploymentsByUser(c.Request.Context(), userID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to list deployments", err)
		return
	}

	responses := make([]TokenDeploymentResponse, 0, len(deployments))
	for _, d := range deployments {
		responses = append(responses, toTokenDeploymentResponse(d))
	}
	sendList(c, responses)
}
