package bundler

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenforge/tokenforge-api/internal/logger"
	"github.com/tokenforge/tokenforge-api/internal/userop"
)

func init() {
	logger.InitLogger()
}

var testEntrypoint = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")

// rpcHandler answers JSON-RPC calls with canned results per method.
func rpcHandler(t *testing.T, results map[string]interface{}) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64        `json:"id"`
			Method string        `json:"method"`
			Params []interface{} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, ok := results[req.Method]
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"error":   map[string]interface{}{"code": -32601, "message": "method not found"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*BundlerClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewBundlerClient(BundlerClientConfig{
		BundlerURL: server.URL,
		Entrypoint: testEntrypoint,
	})
	require.NoError(t, err)
	return client, server
}

func testOperation(signed bool) *userop.UserOperation {
	op := &userop.UserOperation{
		Sender:   common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Nonce:    big.NewInt(0),
		CallData: []byte{0x01},
	}
	if signed {
		op.Signature = []byte{0x02}
	}
	return op
}

func TestNewBundlerClientValidatesConfig(t *testing.T) {
	_, err := NewBundlerClient(BundlerClientConfig{Entrypoint: testEntrypoint})
	assert.Error(t, err)

	_, err = NewBundlerClient(BundlerClientConfig{BundlerURL: "http://localhost:4337"})
	assert.Error(t, err)
}

func TestSupportedEntryPoints(t *testing.T) {
	client, _ := newTestClient(t, rpcHandler(t, map[string]interface{}{
		"eth_supportedEntryPoints": []string{testEntrypoint.Hex()},
	}))

	entrypoints, err := client.SupportedEntryPoints(context.Background())
	require.NoError(t, err)
	require.Len(t, entrypoints, 1)
	assert.Equal(t, testEntrypoint, entrypoints[0])
}

func TestSponsorUserOperation(t *testing.T) {
	client, _ := newTestClient(t, rpcHandler(t, map[string]interface{}{
		"pm_sponsorUserOperation": map[string]string{
			"paymasterAndData":     "0x1234",
			"preVerificationGas":   "0xc350",
			"verificationGasLimit": "0x30d40",
			"callGasLimit":         "0x186a0",
		},
	}))

	result, err := client.SponsorUserOperation(context.Background(), testOperation(false))
	require.NoError(t, err)
	assert.Equal(t, "0x1234", result.PaymasterAndData)
	assert.Equal(t, "0x186a0", result.CallGasLimit)
}

func TestSponsorUserOperationDeclined(t *testing.T) {
	client, _ := newTestClient(t, rpcHandler(t, map[string]interface{}{
		"pm_sponsorUserOperation": map[string]string{"paymasterAndData": "0x"},
	}))

	_, err := client.SponsorUserOperation(context.Background(), testOperation(false))
	assert.ErrorContains(t, err, "declined")
}

func TestSendUserOperationRequiresSignature(t *testing.T) {
	client, _ := newTestClient(t, rpcHandler(t, nil))

	_, err := client.SendUserOperation(context.Background(), testOperation(false))
	assert.ErrorContains(t, err, "signed")
}

func TestSendUserOperation(t *testing.T) {
	wantHash := common.HexToHash("0xabcdef0000000000000000000000000000000000000000000000000000000000")
	client, _ := newTestClient(t, rpcHandler(t, map[string]interface{}{
		"eth_sendUserOperation": wantHash.Hex(),
	}))

	hash, err := client.SendUserOperation(context.Background(), testOperation(true))
	require.NoError(t, err)
	assert.Equal(t, wantHash, hash)
}

func TestSendUserOperationRPCError(t *testing.T) {
	client, _ := newTestClient(t, rpcHandler(t, nil))

	_, err := client.SendUserOperation(context.Background(), testOperation(true))
	assert.ErrorContains(t, err, "method not found")
}

func TestGetUserOperationReceiptNotMined(t *testing.T) {
	client, _ := newTestClient(t, rpcHandler(t, map[string]interface{}{
		"eth_getUserOperationReceipt": nil,
	}))

	receipt, err := client.GetUserOperationReceipt(context.Background(), common.Hash{})
	require.NoError(t, err)
	assert.Nil(t, receipt)
}

func TestGetUserOperationReceiptMined(t *testing.T) {
	client, _ := newTestClient(t, rpcHandler(t, map[string]interface{}{
		"eth_getUserOperationReceipt": map[string]interface{}{
			"userOpHash": "0x01",
			"success":    true,
			"receipt": map[string]interface{}{
				"transactionHash": "0x02",
			},
		},
	}))

	receipt, err := client.GetUserOperationReceipt(context.Background(), common.Hash{})
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.True(t, receipt.Success)
	assert.Equal(t, "0x02", receipt.Receipt.TransactionHash)
}

func TestValidateOperationRejectsEmptyOperation(t *testing.T) {
	client, _ := newTestClient(t, rpcHandler(t, nil))

	_, err := client.SponsorUserOperation(context.Background(), nil)
	assert.Error(t, err)

	_, err = client.SponsorUserOperation(context.Background(), &userop.UserOperation{
		Sender: common.HexToAddress("0x2222222222222222222222222222222222222222"),
	})
	assert.ErrorContains(t, err, "callData or initCode")
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy endpoint", func(t *testing.T) {
		client, _ := newTestClient(t, rpcHandler(t, map[string]interface{}{
			"eth_supportedEntryPoints": []string{testEntrypoint.Hex()},
		}))
		assert.NoError(t, client.HealthCheck(context.Background()))
	})

	t.Run("rpc rejection still proves liveness", func(t *testing.T) {
		client, _ := newTestClient(t, rpcHandler(t, nil))
		assert.NoError(t, client.HealthCheck(context.Background()))
	})

	t.Run("gateway failure is unavailable", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		assert.Error(t, client.HealthCheck(context.Background()))
	})

	t.Run("unreachable endpoint is unavailable", func(t *testing.T) {
		client, server := newTestClient(t, rpcHandler(t, nil))
		server.Close()
		assert.Error(t, client.HealthCheck(context.Background()))
	})
}
