package types

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// USDCDecimals is the minor-unit precision of the stablecoin moved by the
// pipeline.
const USDCDecimals int32 = 6

// ToMinorUnits converts a user-facing decimal amount string into the
// token's integer minor-unit representation. Excess precision is truncated
// toward zero, never rounded up, so the on-chain amount can only be less
// than or equal to what the user typed.
func ToMinorUnits(amount string, decimals int32) (*big.Int, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	if dec.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	return dec.Shift(decimals).Truncate(0).BigInt(), nil
}

// FromMinorUnits formats an integer minor-unit amount back into a decimal
// string.
func FromMinorUnits(amount *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(amount, -decimals).String()
}
