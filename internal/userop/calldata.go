package userop

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Minimal ABI fragments for the contracts the service interacts with.
// The account factory and account follow the reference ERC-4337 SimpleAccount
// layout; the token factory deploys OpenZeppelin-style mintable ERC-20s.
const (
	accountFactoryABI = `[
		{"type":"function","name":"createAccount","stateMutability":"nonpayable","inputs":[{"name":"owner","type":"address"},{"name":"salt","type":"uint256"}],"outputs":[{"name":"ret","type":"address"}]},
		{"type":"function","name":"getAddress","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"salt","type":"uint256"}],"outputs":[{"name":"","type":"address"}]}
	]`

	accountABI = `[
		{"type":"function","name":"execute","stateMutability":"nonpayable","inputs":[{"name":"dest","type":"address"},{"name":"value","type":"uint256"},{"name":"func","type":"bytes"}],"outputs":[]}
	]`

	tokenFactoryABI = `[
		{"type":"function","name":"deployToken","stateMutability":"nonpayable","inputs":[{"name":"name","type":"string"},{"name":"symbol","type":"string"},{"name":"decimals","type":"uint8"},{"name":"initialSupply","type":"uint256"},{"name":"owner","type":"address"}],"outputs":[{"name":"token","type":"address"}]}
	]`

	entrypointABI = `[
		{"type":"function","name":"getNonce","stateMutability":"view","inputs":[{"name":"sender","type":"address"},{"name":"key","type":"uint192"}],"outputs":[{"name":"nonce","type":"uint256"}]}
	]`
)

var (
	parsedAccountFactoryABI = mustParseABI(accountFactoryABI)
	parsedAccountABI        = mustParseABI(accountABI)
	parsedTokenFactoryABI   = mustParseABI(tokenFactoryABI)
	parsedEntrypointABI     = mustParseABI(entrypointABI)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("invalid embedded ABI: " + err.Error())
	}
	return parsed
}

// AccountInitCode builds the initCode for a counterfactual account:
// factory address followed by the createAccount(owner, salt) call.
func AccountInitCode(factory, owner common.Address, salt *big.Int) ([]byte, error) {
	call, err := parsedAccountFactoryABI.Pack("createAccount", owner, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to pack createAccount: %w", err)
	}
	return append(factory.Bytes(), call...), nil
}

// ExecuteCallData wraps an inner contract call in the account's execute method.
func ExecuteCallData(dest common.Address, value *big.Int, innerCall []byte) ([]byte, error) {
	if value == nil {
		value = new(big.Int)
	}
	callData, err := parsedAccountABI.Pack("execute", dest, value, innerCall)
	if err != nil {
		return nil, fmt.Errorf("failed to pack execute: %w", err)
	}
	return callData, nil
}

// DeployTokenCallData builds the token factory call deploying a new ERC-20.
func DeployTokenCallData(name, symbol string, decimals uint8, initialSupply *big.Int, owner common.Address) ([]byte, error) {
	if name == "" || symbol == "" {
		return nil, fmt.Errorf("token name and symbol are required")
	}
	if initialSupply == nil || initialSupply.Sign() < 0 {
		return nil, fmt.Errorf("initial supply must be non-negative")
	}
	callData, err := parsedTokenFactoryABI.Pack("deployToken", name, symbol, decimals, initialSupply, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to pack deployToken: %w", err)
	}
	return callData, nil
}

// GetAddressCallData builds the factory getAddress(owner, salt) call used to
// compute the counterfactual account address on the node.
func GetAddressCallData(owner common.Address, salt *big.Int) ([]byte, error) {
	callData, err := parsedAccountFactoryABI.Pack("getAddress", owner, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to pack getAddress: %w", err)
	}
	return callData, nil
}

// UnpackAddressResult decodes a single address return value, as returned by
// factory getAddress and deployToken calls.
func UnpackAddressResult(data []byte) (common.Address, error) {
	if len(data) < 32 {
		return common.Address{}, fmt.Errorf("result too short: %d bytes", len(data))
	}
	return common.BytesToAddress(data[12:32]), nil
}

// GetNonceCallData builds the entrypoint getNonce(sender, key) call. Key zero
// is the default sequential nonce space.
func GetNonceCallData(sender common.Address, key *big.Int) ([]byte, error) {
	if key == nil {
		key = new(big.Int)
	}
	callData, err := parsedEntrypointABI.Pack("getNonce", sender, key)
	if err != nil {
		return nil, fmt.Errorf("failed to pack getNonce: %w", err)
	}
	return callData, nil
}

// UnpackBigResult decodes a single uint256 return value.
func UnpackBigResult(data []byte) (*big.Int, error) {
	if len(data) < 32 {
		return nil, fmt.Errorf("result too short: %d bytes", len(data))
	}
	return new(big.Int).SetBytes(data[:32]), nil
}
