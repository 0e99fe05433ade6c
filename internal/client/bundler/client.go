package bundler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"

	httpClient "github.com/tokenforge/tokenforge-api/internal/client/http"
	"github.com/tokenforge/tokenforge-api/internal/userop"
)

// BundlerClient handles communication with an ERC-4337 bundler and its
// paymaster RPC. Operations are submitted as JSON-RPC calls; sponsorship
// is requested through the pm_ namespace on the same endpoint.
type BundlerClient struct {
	httpClient *httpClient.HTTPClient
	entrypoint common.Address
	rpcTimeout time.Duration
	nextID     atomic.Uint64
}

type BundlerClientConfig struct {
	BundlerURL string
	Entrypoint common.Address
	RPCTimeout time.Duration
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// RPCError is a JSON-RPC level rejection from the bundler. Distinct from
// transport failures: the endpoint answered, it just refused the call.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("bundler rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// SponsorshipResult carries the paymaster fields to merge into a user operation
// before submission.
type SponsorshipResult struct {
	PaymasterAndData     string `json:"paymasterAndData"`
	PreVerificationGas   string `json:"preVerificationGas"`
	VerificationGasLimit string `json:"verificationGasLimit"`
	CallGasLimit         string `json:"callGasLimit"`
}

// UserOperationReceipt is the bundler's receipt for a mined user operation.
type UserOperationReceipt struct {
	UserOpHash    string `json:"userOpHash"`
	Sender        string `json:"sender"`
	Nonce         string `json:"nonce"`
	ActualGasUsed string `json:"actualGasUsed"`
	ActualGasCost string `json:"actualGasCost"`
	Success       bool   `json:"success"`
	Reason        string `json:"reason"`
	Receipt       struct {
		TransactionHash string `json:"transactionHash"`
		BlockNumber     string `json:"blockNumber"`
		GasUsed         string `json:"gasUsed"`
	} `json:"receipt"`
}

// NewBundlerClient creates a new client for the bundler RPC endpoint.
func NewBundlerClient(config BundlerClientConfig) (*BundlerClient, error) {
	if config.BundlerURL == "" {
		return nil, fmt.Errorf("bundler URL is required")
	}
	if config.Entrypoint == (common.Address{}) {
		return nil, fmt.Errorf("entrypoint address is required")
	}

	timeout := config.RPCTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	client := httpClient.NewHTTPClient(
		httpClient.WithBaseURL(config.BundlerURL),
		httpClient.WithTimeout(timeout),
	)

	return &BundlerClient{
		httpClient: client,
		entrypoint: config.Entrypoint,
		rpcTimeout: timeout,
	}, nil
}

// Entrypoint returns the entrypoint address this client submits against.
func (c *BundlerClient) Entrypoint() common.Address {
	return c.entrypoint
}

// call performs a single JSON-RPC request against the bundler endpoint.
func (c *BundlerClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.rpcTimeout)
	defer cancel()

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	resp, err := c.httpClient.Post(ctx, "/", req)
	if err != nil {
		return fmt.Errorf("bundler request failed: %w", err)
	}

	var rpcResp rpcResponse
	if err := c.httpClient.ProcessJSONResponse(resp, &rpcResp); err != nil {
		return fmt.Errorf("failed to process bundler response: %w", err)
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if result != nil {
		if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
			return nil
		}
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}

	return nil
}

// SupportedEntryPoints returns the entrypoint contracts the bundler accepts.
func (c *BundlerClient) SupportedEntryPoints(ctx context.Context) ([]common.Address, error) {
	var raw []string
	if err := c.call(ctx, "eth_supportedEntryPoints", []interface{}{}, &raw); err != nil {
		return nil, err
	}

	entrypoints := make([]common.Address, 0, len(raw))
	for _, s := range raw {
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("bundler returned invalid entrypoint address: %s", s)
		}
		entrypoints = append(entrypoints, common.HexToAddress(s))
	}
	return entrypoints, nil
}

// SponsorUserOperation asks the paymaster to sponsor the given operation.
// The returned fields must be merged into the operation before signing.
func (c *BundlerClient) SponsorUserOperation(ctx context.Context, op *userop.UserOperation) (*SponsorshipResult, error) {
	if err := c.validateOperation(op); err != nil {
		return nil, err
	}

	var result SponsorshipResult
	err := c.call(ctx, "pm_sponsorUserOperation", []interface{}{op, c.entrypoint.Hex()}, &result)
	if err != nil {
		return nil, fmt.Errorf("sponsorship request failed: %w", err)
	}
	if result.PaymasterAndData == "" || result.PaymasterAndData == "0x" {
		return nil, fmt.Errorf("paymaster declined to sponsor operation")
	}
	return &result, nil
}

// SendUserOperation submits the operation to the bundler and returns the userOp hash.
func (c *BundlerClient) SendUserOperation(ctx context.Context, op *userop.UserOperation) (common.Hash, error) {
	if err := c.validateOperation(op); err != nil {
		return common.Hash{}, err
	}
	if len(op.Signature) == 0 {
		return common.Hash{}, fmt.Errorf("user operation must be signed before submission")
	}

	var hashHex string
	err := c.call(ctx, "eth_sendUserOperation", []interface{}{op, c.entrypoint.Hex()}, &hashHex)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to send user operation: %w", err)
	}
	if hashHex == "" {
		return common.Hash{}, fmt.Errorf("bundler returned empty user operation hash")
	}
	return common.HexToHash(hashHex), nil
}

// GetUserOperationReceipt fetches the receipt for a submitted operation.
// A nil receipt with nil error means the operation is not yet mined.
func (c *BundlerClient) GetUserOperationReceipt(ctx context.Context, userOpHash common.Hash) (*UserOperationReceipt, error) {
	var receipt UserOperationReceipt
	err := c.call(ctx, "eth_getUserOperationReceipt", []interface{}{userOpHash.Hex()}, &receipt)
	if err != nil {
		return nil, err
	}
	if receipt.UserOpHash == "" {
		return nil, nil
	}
	return &receipt, nil
}

// validateOperation checks the fields the bundler will reject anyway, so the
// error surfaces before a network round trip.
func (c *BundlerClient) validateOperation(op *userop.UserOperation) error {
	if op == nil {
		return fmt.Errorf("user operation is required")
	}
	if op.Sender == (common.Address{}) {
		return fmt.Errorf("user operation sender is required")
	}
	if len(op.CallData) == 0 && len(op.InitCode) == 0 {
		return fmt.Errorf("user operation must carry callData or initCode")
	}
	return nil
}

// HealthCheck checks if the bundler endpoint is reachable by requesting its
// supported entrypoints with a short timeout. An RPC-level rejection still
// means the service is alive; only transport failures count as unavailable.
func (c *BundlerClient) HealthCheck(ctx context.Context) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var raw []string
	err := c.call(timeoutCtx, "eth_supportedEntryPoints", []interface{}{}, &raw)
	if err == nil {
		return nil
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return nil
	}

	var httpErr *httpClient.HTTPError
	if errors.As(err, &httpErr) {
		// The endpoint answered; an HTTP-level error still proves liveness
		// unless it is a gateway failure.
		if httpErr.StatusCode < 502 || httpErr.StatusCode > 504 {
			return nil
		}
	}

	return fmt.Errorf("bundler unavailable: %w", err)
}
