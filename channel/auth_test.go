package channel

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcpay/arcpay/types"
)

func TestChallengeTypedData(t *testing.T) {
	wallet := common.HexToAddress("0x1111111111111111111111111111111111111111")
	participant := common.HexToAddress("0x2222222222222222222222222222222222222222")

	td := challengeTypedData("arcpay", "challenge-1", wallet, participant, 1700000000, []types.Allowance{
		{Asset: "usdc", Amount: "0"},
	})

	assert.Equal(t, "Policy", td.PrimaryType)
	assert.Equal(t, "arcpay", td.Domain.Name)
	assert.Equal(t, "challenge-1", td.Message["challenge"])
	assert.Equal(t, authScope, td.Message["scope"])
	assert.Equal(t, wallet.Hex(), td.Message["wallet"])
	assert.Equal(t, participant.Hex(), td.Message["participant"])

	// The statement must hash cleanly; a malformed type set fails here.
	_, _, err := apitypes.TypedDataAndHash(td)
	require.NoError(t, err)
}

func TestChallengeTypedDataEmptyAllowanceAmount(t *testing.T) {
	td := challengeTypedData("arcpay", "c", common.Address{}, common.Address{}, 1, []types.Allowance{
		{Asset: "usdc"},
	})

	_, _, err := apitypes.TypedDataAndHash(td)
	require.NoError(t, err)
}

func TestSessionSignerRecoverable(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	payload := []byte(`{"id":1,"method":"transfer"}`)
	sigHex, err := sessionSigner(key)(payload)
	require.NoError(t, err)

	sig, err := hexutil.Decode(sigHex)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	sig[64] -= 27

	pub, err := crypto.SigToPub(crypto.Keccak256(payload), sig)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), crypto.PubkeyToAddress(*pub))
}
