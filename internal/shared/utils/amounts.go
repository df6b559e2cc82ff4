package utils

import (
	"fmt"
	"math/big"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// ParseAmount parses a positive base-10 integer amount in base units.
// Amounts routinely exceed int64 (18-decimal tokens), so the parse is
// arbitrary precision.
func ParseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a base-10 integer: %q", s)
	}
	if v.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive: %q", s)
	}
	return v, nil
}

// ToUnits converts a base-unit amount into token units, so 1e18 base units
// become 1 at 18 decimals.
func ToUnits(amount *big.Int, decimals int32) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -decimals)
}

// UnitsFloat converts a base-unit amount to a float64 token amount for
// metric fields, accepting the precision loss.
func UnitsFloat(amount *big.Int, decimals int32) float64 {
	return ToUnits(amount, decimals).InexactFloat64()
}

// FormatUnits renders a base-unit amount as an exact decimal string.
func FormatUnits(amount *big.Int, decimals int32) string {
	return ToUnits(amount, decimals).String()
}

// HumanUnits renders a base-unit amount with thousands grouping and up to
// six fractional digits, for console output.
func HumanUnits(amount *big.Int, decimals int32) string {
	return humanize.CommafWithDigits(UnitsFloat(amount, decimals), 6)
}
