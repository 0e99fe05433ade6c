package userop

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOperation() *UserOperation {
	return &UserOperation{
		Sender:               common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Nonce:                big.NewInt(7),
		InitCode:             []byte{0xde, 0xad},
		CallData:             []byte{0xbe, 0xef},
		CallGasLimit:         big.NewInt(100000),
		VerificationGasLimit: big.NewInt(200000),
		PreVerificationGas:   big.NewInt(50000),
		MaxFeePerGas:         big.NewInt(2000000000),
		MaxPriorityFeePerGas: big.NewInt(1000000000),
		PaymasterAndData:     []byte{0x01},
		Signature:            []byte{0x02},
	}
}

func TestUserOperationJSONRoundTrip(t *testing.T) {
	op := sampleOperation()

	data, err := json.Marshal(op)
	require.NoError(t, err)

	// Bundlers expect hex quantities, not decimal numbers.
	var wire map[string]string
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, "0x7", wire["nonce"])
	assert.Equal(t, "0xdead", wire["initCode"])

	var decoded UserOperation
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, op.Sender, decoded.Sender)
	assert.Zero(t, op.Nonce.Cmp(decoded.Nonce))
	assert.Equal(t, op.CallData, decoded.CallData)
	assert.Equal(t, op.Signature, decoded.Signature)
}

func TestUnmarshalTreatsEmptyHexAsZero(t *testing.T) {
	var op UserOperation
	err := json.Unmarshal([]byte(`{
		"sender": "0x2222222222222222222222222222222222222222",
		"nonce": "0x",
		"initCode": "0x",
		"callData": "0xbeef",
		"callGasLimit": "",
		"verificationGasLimit": "0x0",
		"preVerificationGas": "0x0",
		"maxFeePerGas": "0x0",
		"maxPriorityFeePerGas": "0x0",
		"paymasterAndData": "0x",
		"signature": "0x"
	}`), &op)
	require.NoError(t, err)
	assert.Zero(t, op.Nonce.Sign())
	assert.Empty(t, op.InitCode)
	assert.Equal(t, []byte{0xbe, 0xef}, op.CallData)
}

func TestUnmarshalRejectsInvalidSender(t *testing.T) {
	var op UserOperation
	err := json.Unmarshal([]byte(`{"sender": "not-an-address"}`), &op)
	assert.Error(t, err)
}

func TestHashIsDeterministic(t *testing.T) {
	entrypoint := common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")
	chainID := big.NewInt(11155111)

	a, err := sampleOperation().Hash(entrypoint, chainID)
	require.NoError(t, err)
	b, err := sampleOperation().Hash(entrypoint, chainID)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHashBindsEntrypointAndChain(t *testing.T) {
	op := sampleOperation()
	entrypoint := common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")

	base, err := op.Hash(entrypoint, big.NewInt(1))
	require.NoError(t, err)

	otherChain, err := op.Hash(entrypoint, big.NewInt(11155111))
	require.NoError(t, err)
	assert.NotEqual(t, base, otherChain)

	otherEntrypoint, err := op.Hash(common.HexToAddress("0x0000000000000000000000000000000000000001"), big.NewInt(1))
	require.NoError(t, err)
	assert.NotEqual(t, base, otherEntrypoint)
}

func TestPackExcludesSignature(t *testing.T) {
	op := sampleOperation()

	packed, err := op.Pack()
	require.NoError(t, err)

	op.Signature = []byte{0xff, 0xff, 0xff}
	repacked, err := op.Pack()
	require.NoError(t, err)
	assert.Equal(t, packed, repacked)
}

func TestPackHashesDynamicFields(t *testing.T) {
	op := sampleOperation()
	packed, err := op.Pack()
	require.NoError(t, err)

	// Word 3 (offset 64) carries keccak(initCode), not the raw bytes.
	expected := crypto.Keccak256(op.InitCode)
	assert.Equal(t, expected, packed[64:96])
}
