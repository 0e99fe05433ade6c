package handlers

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenforge/tokenforge-api/internal/client/bundler"
	"github.com/tokenforge/tokenforge-api/internal/smartaccount"
	"github.com/tokenforge/tokenforge-api/internal/userop"
)

func numericFromString(t *testing.T, s string) pgtype.Numeric {
	t.Helper()
	var n pgtype.Numeric
	require.NoError(t, n.Scan(s))
	return n
}

func TestNumericToBigInt(t *testing.T) {
	supply, err := numericToBigInt(numericFromString(t, "1000000"))
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(1000000).Cmp(supply))

	// Positive exponents scale up.
	scaled, err := numericToBigInt(pgtype.Numeric{Int: big.NewInt(5), Exp: 3, Valid: true})
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(5000).Cmp(scaled))

	// Fractional supplies are rejected.
	_, err = numericToBigInt(numericFromString(t, "10.5"))
	assert.Error(t, err)

	_, err = numericToBigInt(pgtype.Numeric{})
	assert.Error(t, err)
}

func TestApplySponsorship(t *testing.T) {
	op := &userop.UserOperation{}
	err := applySponsorship(op, &bundler.SponsorshipResult{
		PaymasterAndData:     "0x1234",
		PreVerificationGas:   "0xc350",
		VerificationGasLimit: "0x30d40",
		CallGasLimit:         "0x186a0",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34}, op.PaymasterAndData)
	assert.Zero(t, big.NewInt(50000).Cmp(op.PreVerificationGas))
	assert.Zero(t, big.NewInt(200000).Cmp(op.VerificationGasLimit))
	assert.Zero(t, big.NewInt(100000).Cmp(op.CallGasLimit))
}

func TestApplySponsorshipRejectsInvalidHex(t *testing.T) {
	err := applySponsorship(&userop.UserOperation{}, &bundler.SponsorshipResult{
		PaymasterAndData: "not-hex",
	})
	assert.Error(t, err)
}

func TestSignOperationProducesRecoverableSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	bundlerClient, err := bundler.NewBundlerClient(bundler.BundlerClientConfig{
		BundlerURL: "http://localhost:4337",
		Entrypoint: common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"),
	})
	require.NoError(t, err)

	dp := &DeploymentProcessor{bundlerClient: bundlerClient, signer: key}
	handle := &smartaccount.Handle{
		Client: &smartaccount.AccountClient{ChainID: big.NewInt(11155111)},
	}

	op := &userop.UserOperation{
		Sender:   common.HexToAddress("0x2222222222222222222222222222222222222222"),
		CallData: []byte{0x01},
	}
	require.NoError(t, dp.signOperation(op, handle))
	require.Len(t, op.Signature, 65)
	assert.Contains(t, []byte{27, 28}, op.Signature[64])

	// The account contract recovers the signer from the eth_sign digest.
	opHash, err := op.Hash(bundlerClient.Entrypoint(), handle.Client.ChainID)
	require.NoError(t, err)

	recoverable := make([]byte, 65)
	copy(recoverable, op.Signature)
	recoverable[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash(opHash.Bytes()), recoverable)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), crypto.PubkeyToAddress(*pub))
}

func TestSignOperationRequiresKey(t *testing.T) {
	dp := &DeploymentProcessor{}
	err := dp.signOperation(&userop.UserOperation{}, &smartaccount.Handle{
		Client: &smartaccount.AccountClient{ChainID: big.NewInt(1)},
	})
	assert.Error(t, err)
}
