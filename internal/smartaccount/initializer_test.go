package smartaccount

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tokenforge/tokenforge-api/internal/client/bundler"
)

var (
	testOwner   = "0x1111111111111111111111111111111111111111"
	testAccount = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testFactory = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

// fakeNode answers eth_call with the given 32-byte result.
func fakeNode(t *testing.T, callResult []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "eth_call", req.Method)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  hexutil.Encode(callResult),
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestInitializer(t *testing.T, nodeURL string) *Initializer {
	t.Helper()

	bundlerClient, err := bundler.NewBundlerClient(bundler.BundlerClientConfig{
		BundlerURL: "http://localhost:4337",
		Entrypoint: common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"),
	})
	require.NoError(t, err)

	init, err := NewInitializer(map[string]NetworkConfig{
		NetworkTestnet: {
			Name:           NetworkTestnet,
			ChainID:        big.NewInt(11155111),
			NodeURL:        nodeURL,
			AccountFactory: testFactory,
		},
	}, NetworkTestnet, bundlerClient, zap.NewNop())
	require.NoError(t, err)
	return init
}

func TestNewInitializerValidation(t *testing.T) {
	bundlerClient, err := bundler.NewBundlerClient(bundler.BundlerClientConfig{
		BundlerURL: "http://localhost:4337",
		Entrypoint: common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"),
	})
	require.NoError(t, err)

	networks := map[string]NetworkConfig{
		NetworkTestnet: {Name: NetworkTestnet},
	}

	_, err = NewInitializer(networks, "devnet", bundlerClient, zap.NewNop())
	assert.ErrorContains(t, err, "invalid network preference")

	_, err = NewInitializer(networks, NetworkMainnet, bundlerClient, zap.NewNop())
	assert.ErrorContains(t, err, "no network configured")

	_, err = NewInitializer(networks, NetworkTestnet, nil, zap.NewNop())
	assert.ErrorContains(t, err, "bundler client is required")
}

func TestInitializeDerivesCounterfactualAddress(t *testing.T) {
	node := fakeNode(t, common.LeftPadBytes(testAccount.Bytes(), 32))
	init := newTestInitializer(t, node.URL)

	handle, err := init.Initialize(context.Background(), testOwner)
	require.NoError(t, err)
	defer handle.Client.Close()

	assert.Equal(t, testAccount, handle.Address)
	assert.Equal(t, common.HexToAddress(testOwner), handle.Client.Owner)
	assert.Zero(t, big.NewInt(11155111).Cmp(handle.Client.ChainID))
}

func TestInitializeRejectsInvalidOwner(t *testing.T) {
	init := newTestInitializer(t, "http://localhost:8545")

	_, err := init.Initialize(context.Background(), "not-an-address")
	assert.ErrorContains(t, err, "invalid owner wallet address")
}

func TestInitializeRejectsZeroAccountAddress(t *testing.T) {
	node := fakeNode(t, make([]byte, 32))
	init := newTestInitializer(t, node.URL)

	_, err := init.Initialize(context.Background(), testOwner)
	assert.ErrorContains(t, err, "zero account address")
}

func TestInitCodeStartsWithFactory(t *testing.T) {
	init := newTestInitializer(t, "http://localhost:8545")

	initCode, err := init.InitCode(common.HexToAddress(testOwner))
	require.NoError(t, err)
	assert.Equal(t, testFactory.Bytes(), initCode[:20])
}
