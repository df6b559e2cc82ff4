package constantproduct

import (
	"fmt"
	"math/big"
)

var (
	ErrInvalidFeeRatio = fmt.Errorf("invalid fee ratio")

	one = big.NewInt(1)
)

// FeeRatio is the fraction of the input amount that remains after the pool
// fee is charged: Num/Den. Canonical Uniswap V2 pairs keep 997/1000.
type FeeRatio struct {
	Num *big.Int
	Den *big.Int
}

// DefaultFee is the canonical 0.3% input-side fee.
var DefaultFee = FeeRatio{Num: big.NewInt(997), Den: big.NewInt(1000)}

// NewFeeRatio validates and builds a FeeRatio. Ratios outside (0, 1] are
// rejected; num == den models a fee-free pool.
func NewFeeRatio(num, den uint64) (FeeRatio, error) {
	if num == 0 || den == 0 || num > den {
		return FeeRatio{}, fmt.Errorf("%w: %d/%d", ErrInvalidFeeRatio, num, den)
	}
	return FeeRatio{
		Num: new(big.Int).SetUint64(num),
		Den: new(big.Int).SetUint64(den),
	}, nil
}

func (f FeeRatio) valid() bool {
	return f.Num != nil && f.Den != nil && f.Num.Sign() > 0 && f.Den.Sign() > 0
}

// GetAmountOut returns the amount a constant-product pool pays out for
// amountIn, with the fee charged on the input side:
//
//	amountOut = amountIn*feeNum*reserveOut / (reserveIn*feeDen + amountIn*feeNum)
//
// The numerator is multiplied out in full before the single floor division,
// matching the on-chain computation bit for bit. Degenerate inputs (nil,
// zero or negative operands) yield zero instead of dividing by zero.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int, fee FeeRatio) *big.Int {
	if amountIn == nil || reserveIn == nil || reserveOut == nil || !fee.valid() {
		return new(big.Int)
	}
	if amountIn.Sign() <= 0 || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return new(big.Int)
	}

	inWithFee := new(big.Int).Mul(amountIn, fee.Num)

	denominator := new(big.Int).Mul(reserveIn, fee.Den)
	denominator.Add(denominator, inWithFee)

	amountOut := new(big.Int).Mul(inWithFee, reserveOut)
	return amountOut.Quo(amountOut, denominator)
}

// GetAmountIn returns the smallest input amount that buys amountOut from the
// pool, the inverse of GetAmountOut with the usual +1 rounding adjustment:
//
//	amountIn = reserveIn*amountOut*feeDen / ((reserveOut - amountOut)*feeNum) + 1
//
// Zero is returned when amountOut would drain the output reserve or any
// operand is degenerate.
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int, fee FeeRatio) *big.Int {
	if amountOut == nil || reserveIn == nil || reserveOut == nil || !fee.valid() {
		return new(big.Int)
	}
	if amountOut.Sign() <= 0 || reserveIn.Sign() <= 0 || reserveOut.Cmp(amountOut) <= 0 {
		return new(big.Int)
	}

	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, fee.Den)

	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, fee.Num)

	amountIn := numerator.Quo(numerator, denominator)
	return amountIn.Add(amountIn, one)
}

// Quote converts amountA into the equivalent amount of the other asset at
// the current reserve ratio, with no fee applied.
func Quote(amountA, reserveA, reserveB *big.Int) *big.Int {
	if amountA == nil || reserveA == nil || reserveB == nil {
		return new(big.Int)
	}
	if amountA.Sign() <= 0 || reserveA.Sign() <= 0 || reserveB.Sign() <= 0 {
		return new(big.Int)
	}

	q := new(big.Int).Mul(amountA, reserveB)
	return q.Quo(q, reserveA)
}
