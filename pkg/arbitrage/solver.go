package arbitrage

import (
	"math/big"

	"github.com/triantafd/advanced-defi-2024/pkg/constantproduct"
)

// Opportunity is the outcome of evaluating one two-pool configuration.
// AmountIn is the optimal src amount to spend on the buy leg, BuyLegOut the
// bridging amount it purchases, Profit the simulated round-trip gain floored
// at zero. When Profitable is false the amounts are zero and must not be
// traded on.
type Opportunity struct {
	BuyOnA     bool
	AmountIn   *big.Int
	BuyLegOut  *big.Int
	Profit     *big.Int
	Profitable bool
}

// Solver derives the profit-maximizing input for a buy-then-sell round trip
// across two constant-product pools quoting the same pair.
//
// By default the four reserve legs are scale-normalized to about 1e6 before
// the closed form is evaluated and the result is scaled back up, which
// reproduces the rounding of fixed-width 256-bit implementations.
// FullPrecision evaluates the closed form on the raw reserves instead.
type Solver struct {
	Fee           constantproduct.FeeRatio
	FullPrecision bool
}

// NewSolver returns a scaled-arithmetic solver for the given fee ratio.
func NewSolver(fee constantproduct.FeeRatio) *Solver {
	return &Solver{Fee: fee}
}

// OptimalAmountIn returns the input amount that maximizes the round-trip
// profit of buying on buy and selling on sell, and whether a profitable
// positive input exists at all. The stationary point of the profit function
// works out to
//
//	amount = (gNum*gDen*sqrt(xA*yA*xB*yB) - yA*xB*gDen^2) / (gNum*xB*gDen + gNum^2*xA)
//
// with yA,xA the buy pool's (src, dst) reserves, yB,xB the sell pool's and
// g = gNum/gDen the fee ratio. ok is false when the pools quote no
// exploitable gap or a reserve vanishes under scaling; the returned amount
// is zero in that case and must be ignored.
func (s *Solver) OptimalAmountIn(buy, sell PoolReserves) (*big.Int, bool) {
	if buy.Src == nil || buy.Dst == nil || sell.Src == nil || sell.Dst == nil {
		return new(big.Int), false
	}
	if s.Fee.Num == nil || s.Fee.Den == nil || s.Fee.Num.Sign() <= 0 || s.Fee.Den.Sign() <= 0 {
		return new(big.Int), false
	}

	scale := one
	if !s.FullPrecision {
		scale = ScaleFactor(buy.Dst, buy.Src, sell.Dst, sell.Src)
	}

	xa := new(big.Int).Quo(buy.Dst, scale)
	ya := new(big.Int).Quo(buy.Src, scale)
	xb := new(big.Int).Quo(sell.Dst, scale)
	yb := new(big.Int).Quo(sell.Src, scale)
	if xa.Sign() <= 0 || ya.Sign() <= 0 || xb.Sign() <= 0 || yb.Sign() <= 0 {
		return new(big.Int), false
	}

	yaxb := new(big.Int).Mul(ya, xb)

	prod := new(big.Int).Mul(xa, ya)
	prod.Mul(prod, xb)
	prod.Mul(prod, yb)
	root := Sqrt(prod)

	neg := new(big.Int).Mul(yaxb, s.Fee.Den)
	neg.Mul(neg, s.Fee.Den)

	pos := new(big.Int).Mul(s.Fee.Num, s.Fee.Den)
	pos.Mul(pos, root)

	if pos.Cmp(neg) <= 0 {
		return new(big.Int), false
	}
	numerator := pos.Sub(pos, neg)

	denominator := new(big.Int).Mul(s.Fee.Num, xb)
	denominator.Mul(denominator, s.Fee.Den)
	t := new(big.Int).Mul(s.Fee.Num, s.Fee.Num)
	t.Mul(t, xa)
	denominator.Add(denominator, t)
	if denominator.Sign() == 0 {
		return new(big.Int), false
	}

	amount := numerator.Quo(numerator, denominator)
	return amount.Mul(amount, scale), true
}

// Evaluate runs the full analysis for two pools quoting the same pair:
// direction selection by implied price, the closed-form solve, and a
// simulation of both swap legs to price the trade.
func (s *Solver) Evaluate(a, b PoolReserves) Opportunity {
	buyOnA := SelectDirection(a, b)
	buy, sell := a, b
	if !buyOnA {
		buy, sell = b, a
	}

	opp := Opportunity{
		BuyOnA:    buyOnA,
		AmountIn:  new(big.Int),
		BuyLegOut: new(big.Int),
		Profit:    new(big.Int),
	}

	amount, ok := s.OptimalAmountIn(buy, sell)
	if !ok || amount.Sign() <= 0 {
		return opp
	}
	opp.AmountIn = amount

	opp.BuyLegOut = constantproduct.GetAmountOut(amount, buy.Src, buy.Dst, s.Fee)
	back := constantproduct.GetAmountOut(opp.BuyLegOut, sell.Dst, sell.Src, s.Fee)

	profit := new(big.Int).Sub(back, amount)
	if profit.Sign() > 0 {
		opp.Profit = profit
		opp.Profitable = true
	}
	return opp
}
