package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		decimals int32
		want     string
	}{
		{"whole", "10", 6, "10000000"},
		{"fraction", "1.5", 6, "1500000"},
		{"full precision", "0.123456", 6, "123456"},
		{"zero", "0", 6, "0"},
		{"two decimals", "1.5", 2, "150"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToMinorUnits(tc.amount, tc.decimals)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestToMinorUnitsTruncatesExcessPrecision(t *testing.T) {
	// Excess digits are dropped, never rounded up.
	got, err := ToMinorUnits("0.1234567", 6)
	require.NoError(t, err)
	assert.Equal(t, "123456", got.String())

	got, err = ToMinorUnits("1.9999999", 6)
	require.NoError(t, err)
	assert.Equal(t, "1999999", got.String())
}

func TestToMinorUnitsRejectsBadInput(t *testing.T) {
	_, err := ToMinorUnits("", 6)
	assert.Error(t, err)

	_, err = ToMinorUnits("abc", 6)
	assert.Error(t, err)

	_, err = ToMinorUnits("-1", 6)
	assert.Error(t, err)
}

func TestFromMinorUnits(t *testing.T) {
	assert.Equal(t, "1.5", FromMinorUnits(big.NewInt(1500000), 6))
	assert.Equal(t, "0.000001", FromMinorUnits(big.NewInt(1), 6))
	assert.Equal(t, "0", FromMinorUnits(big.NewInt(0), 6))
}
