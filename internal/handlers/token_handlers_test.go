package handlers

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/tokenforge/tokenforge-api/internal/client/bundler"
	"github.com/tokenforge/tokenforge-api/internal/client/privy"
	"github.com/tokenforge/tokenforge-api/internal/coordinator"
	"github.com/tokenforge/tokenforge-api/internal/db"
	"github.com/tokenforge/tokenforge-api/internal/db/mocks"
	"github.com/tokenforge/tokenforge-api/internal/events"
	"github.com/tokenforge/tokenforge-api/internal/smartaccount"
)

func newTokenTestEnv(t *testing.T) *TokenHandler {
	return newTokenTestEnvWithDB(t, db.New(stubDBTX{}))
}

func newTokenTestEnvWithDB(t *testing.T, querier db.Querier) *TokenHandler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bundlerClient, err := bundler.NewBundlerClient(bundler.BundlerClientConfig{
		BundlerURL: "http://localhost:4337",
		Entrypoint: common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"),
	})
	require.NoError(t, err)

	initializer, err := smartaccount.NewInitializer(map[string]smartaccount.NetworkConfig{
		smartaccount.NetworkTestnet: {
			Name:    smartaccount.NetworkTestnet,
			ChainID: big.NewInt(11155111),
			NodeURL: "http://localhost:8545",
		},
	}, smartaccount.NetworkTestnet, bundlerClient, zap.NewNop())
	require.NoError(t, err)

	coordinators := coordinator.NewManager(stubAccountInitializer{}, zap.NewNop())

	services := NewCommonServices(querier, &privy.PrivyClient{}, coordinators, initializer)
	processor := NewDeploymentProcessor(querier, coordinators, initializer, bundlerClient, events.NoopPublisher{}, nil, 1, 1)
	return NewTokenHandler(services, processor)
}

func performJSONRequest(handler gin.HandlerFunc, method, path string, userID string, body interface{}) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	c.Request = httptest.NewRequest(method, path, &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	if userID != "" {
		c.Set("userID", userID)
	}
	handler(c)
	return w
}

func TestDeployTokenRejectsInvalidBody(t *testing.T) {
	h := newTokenTestEnv(t)

	w := performJSONRequest(h.DeployToken, http.MethodPost, "/tokens/deploy", testUserID, map[string]interface{}{
		"name": "Token Without Symbol",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeployTokenRejectsInvalidSupply(t *testing.T) {
	h := newTokenTestEnv(t)

	w := performJSONRequest(h.DeployToken, http.MethodPost, "/tokens/deploy", testUserID, DeployTokenRequest{
		Name:          "Token",
		Symbol:        "TKN",
		Decimals:      18,
		InitialSupply: "not-a-number",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeployTokenRequiresReadyAccount(t *testing.T) {
	h := newTokenTestEnv(t)

	w := performJSONRequest(h.DeployToken, http.MethodPost, "/tokens/deploy", testUserID, DeployTokenRequest{
		Name:          "Token",
		Symbol:        "TKN",
		Decimals:      18,
		InitialSupply: "1000000",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetDeploymentRejectsInvalidID(t *testing.T) {
	h := newTokenTestEnv(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/tokens/deployments/nope", nil)
	c.Set("userID", testUserID)
	c.Params = gin.Params{{Key: "deployment_id", Value: "nope"}}
	h.GetDeployment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeployTokenRequiresAuth(t *testing.T) {
	h := newTokenTestEnv(t)

	w := performJSONRequest(h.DeployToken, http.MethodPost, "/tokens/deploy", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func getDeployment(h *TokenHandler, deploymentID, userID string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/tokens/deployments/"+deploymentID, nil)
	if userID != "" {
		c.Set("userID", userID)
	}
	c.Params = gin.Params{{Key: "deployment_id", Value: deploymentID}}
	h.GetDeployment(c)
	return w
}

func TestGetDeploymentReturnsOwnedDeployment(t *testing.T) {
	querier := mocks.NewMockQuerierForTest(t)
	h := newTokenTestEnvWithDB(t, querier)

	deploymentID := uuid.New()
	var supply pgtype.Numeric
	require.NoError(t, supply.Scan("1000000"))

	querier.EXPECT().
		GetTokenDeployment(gomock.Any(), deploymentID).
		Return(db.TokenDeployment{
			ID:             deploymentID,
			UserID:         testUserID,
			AccountAddress: testAccountAddr.Hex(),
			TokenName:      "Forge Token",
			TokenSymbol:    "FRG",
			Decimals:       18,
			InitialSupply:  supply,
			Network:        smartaccount.NetworkTestnet,
			Status:         db.DeploymentStatusConfirmed,
			TokenAddress:   pgtype.Text{String: "0x4444444444444444444444444444444444444444", Valid: true},
		}, nil)

	w := getDeployment(h, deploymentID.String(), testUserID)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TokenDeploymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "confirmed", resp.Status)
	assert.Equal(t, "1000000", resp.InitialSupply)
	require.NotNil(t, resp.TokenAddress)
	assert.Equal(t, "0x4444444444444444444444444444444444444444", *resp.TokenAddress)
}

func TestGetDeploymentHidesOtherUsersDeployments(t *testing.T) {
	querier := mocks.NewMockQuerierForTest(t)
	h := newTokenTestEnvWithDB(t, querier)

	deploymentID := uuid.New()
	querier.EXPECT().
		GetTokenDeployment(gomock.Any(), deploymentID).
		Return(db.TokenDeployment{
			ID:     deploymentID,
			UserID: "did:privy:someone-else",
		}, nil)

	w := getDeployment(h, deploymentID.String(), testUserID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListDeploymentsReturnsList(t *testing.T) {
	querier := mocks.NewMockQuerierForTest(t)
	h := newTokenTestEnvWithDB(t, querier)

	querier.EXPECT().
		ListTokenDeploymentsByUser(gomock.Any(), testUserID).
		Return([]db.TokenDeployment{
			{ID: uuid.New(), UserID: testUserID, Status: db.DeploymentStatusPending},
			{ID: uuid.New(), UserID: testUserID, Status: db.DeploymentStatusConfirmed},
		}, nil)

	w := performJSONRequest(h.ListDeployments, http.MethodGet, "/tokens/deployments", testUserID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Object string                    `json:"object"`
		Data   []TokenDeploymentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "list", resp.Object)
	assert.Len(t, resp.Data, 2)
}
