package arbitrage

import "math/big"

var (
	one = big.NewInt(1)

	// priceUnit is the 1e18 fixed-point unit implied prices are quoted in.
	priceUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	// scaleTarget is the magnitude reserves are normalized down to before
	// the closed form is evaluated, leaving headroom for the reserve
	// product under fixed-width arithmetic.
	scaleTarget = big.NewInt(1_000_000)
)

// ScaleFactor returns the common divisor that brings the largest of the
// given values down to about 1e6: values at or below 1e6 need no scaling and
// yield 1, otherwise the factor is max/1e6 rounded down, never below 1.
func ScaleFactor(values ...*big.Int) *big.Int {
	max := new(big.Int)
	for _, v := range values {
		if v != nil && max.Cmp(v) < 0 {
			max.Set(v)
		}
	}
	if max.Cmp(scaleTarget) <= 0 {
		return big.NewInt(1)
	}
	factor := max.Quo(max, scaleTarget)
	if factor.Sign() == 0 {
		factor.Set(one)
	}
	return factor
}

// Sqrt returns the integer square root floor(sqrt(x)) computed with Newton's
// method seeded at (x+1)/2. The iterate decreases strictly until it crosses
// the root, so the last value before it stops decreasing is the floor.
// Non-positive input yields zero.
func Sqrt(x *big.Int) *big.Int {
	if x == nil || x.Sign() <= 0 {
		return new(big.Int)
	}

	z := new(big.Int).Add(x, one)
	z.Rsh(z, 1)
	y := new(big.Int).Set(x)

	t := new(big.Int)
	for z.Cmp(y) < 0 {
		y.Set(z)
		t.Quo(x, z)
		t.Add(t, z)
		z.Rsh(t, 1)
	}
	return y
}
