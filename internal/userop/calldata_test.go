package userop

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

func TestAccountInitCodeLayout(t *testing.T) {
	factory := common.HexToAddress("0x3333333333333333333333333333333333333333")
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")

	initCode, err := AccountInitCode(factory, owner, big.NewInt(0))
	require.NoError(t, err)

	// factory address, then the createAccount call
	assert.Equal(t, factory.Bytes(), initCode[:20])
	assert.Equal(t, selector("createAccount(address,uint256)"), initCode[20:24])
}

func TestExecuteCallDataSelector(t *testing.T) {
	dest := common.HexToAddress("0x4444444444444444444444444444444444444444")

	callData, err := ExecuteCallData(dest, nil, []byte{0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, selector("execute(address,uint256,bytes)"), callData[:4])
}

func TestDeployTokenCallDataValidation(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")

	_, err := DeployTokenCallData("", "TKN", 18, big.NewInt(1), owner)
	assert.Error(t, err)

	_, err = DeployTokenCallData("Token", "", 18, big.NewInt(1), owner)
	assert.Error(t, err)

	_, err = DeployTokenCallData("Token", "TKN", 18, big.NewInt(-1), owner)
	assert.Error(t, err)

	callData, err := DeployTokenCallData("Token", "TKN", 18, big.NewInt(1000000), owner)
	require.NoError(t, err)
	assert.Equal(t, selector("deployToken(string,string,uint8,uint256,address)"), callData[:4])
}

func TestGetAddressCallDataRoundTrip(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")

	callData, err := GetAddressCallData(owner, big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, selector("getAddress(address,uint256)"), callData[:4])

	// A node returns the address left-padded to a 32-byte word.
	account := common.HexToAddress("0x2222222222222222222222222222222222222222")
	word := common.LeftPadBytes(account.Bytes(), 32)
	decoded, err := UnpackAddressResult(word)
	require.NoError(t, err)
	assert.Equal(t, account, decoded)
}

func TestUnpackAddressResultRejectsShortData(t *testing.T) {
	_, err := UnpackAddressResult([]byte{0x01})
	assert.Error(t, err)
}

func TestGetNonceCallData(t *testing.T) {
	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")

	callData, err := GetNonceCallData(sender, nil)
	require.NoError(t, err)
	assert.Equal(t, selector("getNonce(address,uint192)"), callData[:4])

	value := new(big.Int).SetUint64(42)
	word := common.LeftPadBytes(value.Bytes(), 32)
	decoded, err := UnpackBigResult(word)
	require.NoError(t, err)
	assert.Zero(t, value.Cmp(decoded))
}
