package userop

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// UserOperation is an ERC-4337 v0.6 user operation. Gas and fee fields are
// kept as big.Int; JSON marshaling uses the hex quantity encoding bundlers expect.
type UserOperation struct {
	Sender               common.Address `json:"sender"`
	Nonce                *big.Int       `json:"nonce"`
	InitCode             []byte         `json:"initCode"`
	CallData             []byte         `json:"callData"`
	CallGasLimit         *big.Int       `json:"callGasLimit"`
	VerificationGasLimit *big.Int       `json:"verificationGasLimit"`
	PreVerificationGas   *big.Int       `json:"preVerificationGas"`
	MaxFeePerGas         *big.Int       `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *big.Int       `json:"maxPriorityFeePerGas"`
	PaymasterAndData     []byte         `json:"paymasterAndData"`
	Signature            []byte         `json:"signature"`
}

// userOperationJSON is the wire form used by bundler JSON-RPC endpoints.
type userOperationJSON struct {
	Sender               string `json:"sender"`
	Nonce                string `json:"nonce"`
	InitCode             string `json:"initCode"`
	CallData             string `json:"callData"`
	CallGasLimit         string `json:"callGasLimit"`
	VerificationGasLimit string `json:"verificationGasLimit"`
	PreVerificationGas   string `json:"preVerificationGas"`
	MaxFeePerGas         string `json:"maxFeePerGas"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
	PaymasterAndData     string `json:"paymasterAndData"`
	Signature            string `json:"signature"`
}

// MarshalJSON encodes the operation with hex quantities and hex data fields.
func (op *UserOperation) MarshalJSON() ([]byte, error) {
	out := userOperationJSON{
		Sender:               op.Sender.Hex(),
		Nonce:                hexutil.EncodeBig(orZero(op.Nonce)),
		InitCode:             hexutil.Encode(op.InitCode),
		CallData:             hexutil.Encode(op.CallData),
		CallGasLimit:         hexutil.EncodeBig(orZero(op.CallGasLimit)),
		VerificationGasLimit: hexutil.EncodeBig(orZero(op.VerificationGasLimit)),
		PreVerificationGas:   hexutil.EncodeBig(orZero(op.PreVerificationGas)),
		MaxFeePerGas:         hexutil.EncodeBig(orZero(op.MaxFeePerGas)),
		MaxPriorityFeePerGas: hexutil.EncodeBig(orZero(op.MaxPriorityFeePerGas)),
		PaymasterAndData:     hexutil.Encode(op.PaymasterAndData),
		Signature:            hexutil.Encode(op.Signature),
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the bundler wire form back into the operation.
func (op *UserOperation) UnmarshalJSON(data []byte) error {
	var in userOperationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	if !common.IsHexAddress(in.Sender) {
		return fmt.Errorf("invalid sender address: %s", in.Sender)
	}
	op.Sender = common.HexToAddress(in.Sender)

	var err error
	if op.Nonce, err = decodeBig(in.Nonce); err != nil {
		return fmt.Errorf("invalid nonce: %w", err)
	}
	if op.CallGasLimit, err = decodeBig(in.CallGasLimit); err != nil {
		return fmt.Errorf("invalid callGasLimit: %w", err)
	}
	if op.VerificationGasLimit, err = decodeBig(in.VerificationGasLimit); err != nil {
		return fmt.Errorf("invalid verificationGasLimit: %w", err)
	}
	if op.PreVerificationGas, err = decodeBig(in.PreVerificationGas); err != nil {
		return fmt.Errorf("invalid preVerificationGas: %w", err)
	}
	if op.MaxFeePerGas, err = decodeBig(in.MaxFeePerGas); err != nil {
		return fmt.Errorf("invalid maxFeePerGas: %w", err)
	}
	if op.MaxPriorityFeePerGas, err = decodeBig(in.MaxPriorityFeePerGas); err != nil {
		return fmt.Errorf("invalid maxPriorityFeePerGas: %w", err)
	}
	if op.InitCode, err = decodeBytes(in.InitCode); err != nil {
		return fmt.Errorf("invalid initCode: %w", err)
	}
	if op.CallData, err = decodeBytes(in.CallData); err != nil {
		return fmt.Errorf("invalid callData: %w", err)
	}
	if op.PaymasterAndData, err = decodeBytes(in.PaymasterAndData); err != nil {
		return fmt.Errorf("invalid paymasterAndData: %w", err)
	}
	if op.Signature, err = decodeBytes(in.Signature); err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}

	return nil
}

var (
	addressT, _ = abi.NewType("address", "", nil)
	uint256T, _ = abi.NewType("uint256", "", nil)
	bytes32T, _ = abi.NewType("bytes32", "", nil)

	packArgs = abi.Arguments{
		{Type: addressT}, // sender
		{Type: uint256T}, // nonce
		{Type: bytes32T}, // keccak(initCode)
		{Type: bytes32T}, // keccak(callData)
		{Type: uint256T}, // callGasLimit
		{Type: uint256T}, // verificationGasLimit
		{Type: uint256T}, // preVerificationGas
		{Type: uint256T}, // maxFeePerGas
		{Type: uint256T}, // maxPriorityFeePerGas
		{Type: bytes32T}, // keccak(paymasterAndData)
	}

	hashArgs = abi.Arguments{
		{Type: bytes32T}, // keccak(packed op)
		{Type: addressT}, // entrypoint
		{Type: uint256T}, // chain ID
	}
)

// Pack encodes the operation in the form hashed by the entrypoint
// (signature excluded, dynamic fields hashed).
func (op *UserOperation) Pack() ([]byte, error) {
	return packArgs.Pack(
		op.Sender,
		orZero(op.Nonce),
		common.BytesToHash(crypto.Keccak256(op.InitCode)),
		common.BytesToHash(crypto.Keccak256(op.CallData)),
		orZero(op.CallGasLimit),
		orZero(op.VerificationGasLimit),
		orZero(op.PreVerificationGas),
		orZero(op.MaxFeePerGas),
		orZero(op.MaxPriorityFeePerGas),
		common.BytesToHash(crypto.Keccak256(op.PaymasterAndData)),
	)
}

// Hash computes the userOp hash bound to the given entrypoint and chain.
// This is the value bundlers return from eth_sendUserOperation.
func (op *UserOperation) Hash(entrypoint common.Address, chainID *big.Int) (common.Hash, error) {
	packed, err := op.Pack()
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack user operation: %w", err)
	}

	encoded, err := hashArgs.Pack(
		common.BytesToHash(crypto.Keccak256(packed)),
		entrypoint,
		chainID,
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode user operation hash input: %w", err)
	}

	return common.BytesToHash(crypto.Keccak256(encoded)), nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func decodeBig(s string) (*big.Int, error) {
	if s == "" || s == "0x" {
		return new(big.Int), nil
	}
	return hexutil.DecodeBig(s)
}

func decodeBytes(s string) ([]byte, error) {
	if s == "" || s == "0x" {
		return []byte{}, nil
	}
	return hexutil.Decode(s)
}
