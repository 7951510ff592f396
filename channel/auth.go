package channel

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/arcpay/arcpay/types"
	"github.com/arcpay/arcpay/wsrpc"
)

// authScope is the permission scope the session key is granted.
const authScope = "transfer"

// challengeTypedData builds the domain-separated authentication statement
// the user's wallet signs over the server challenge. Binding the wallet
// address, the ephemeral participant key, the expiry and the allowance list
// into the signed payload is what authorizes the session key to act for the
// wallet.
func challengeTypedData(appName, challenge string, wallet, participant common.Address, expire int64, allowances []types.Allowance) apitypes.TypedData {
	msgAllowances := make([]interface{}, 0, len(allowances))
	for _, a := range allowances {
		amount := a.Amount
		if amount == "" {
			amount = "0"
		}
		msgAllowances = append(msgAllowances, map[string]interface{}{
			"asset":  a.Asset,
			"amount": amount,
		})
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
			},
			"Policy": {
				{Name: "challenge", Type: "string"},
				{Name: "scope", Type: "string"},
				{Name: "wallet", Type: "address"},
				{Name: "participant", Type: "address"},
				{Name: "expire", Type: "uint256"},
				{Name: "allowances", Type: "Allowance[]"},
			},
			"Allowance": {
				{Name: "asset", Type: "string"},
				{Name: "amount", Type: "uint256"},
			},
		},
		PrimaryType: "Policy",
		Domain: apitypes.TypedDataDomain{
			Name: appName,
		},
		Message: apitypes.TypedDataMessage{
			"challenge":   challenge,
			"scope":       authScope,
			"wallet":      wallet.Hex(),
			"participant": participant.Hex(),
			"expire":      math.NewHexOrDecimal256(expire),
			"allowances":  msgAllowances,
		},
	}
}

// sessionSigner signs outgoing frames with the ephemeral session key so
// transfers never prompt the user's wallet.
func sessionSigner(key *ecdsa.PrivateKey) wsrpc.Signer {
	return func(payload []byte) (string, error) {
		sig, err := crypto.Sign(crypto.Keccak256(payload), key)
		if err != nil {
			return "", err
		}
		sig[64] += 27
		return hexutil.Encode(sig), nil
	}
}
