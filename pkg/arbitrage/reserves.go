package arbitrage

import "math/big"

// PoolReserves is a point-in-time snapshot of one pool's reserves for the
// traded pair. Src is the reserve of the asset the round trip spends and
// collects, Dst the reserve of the bridging asset. Snapshots are never
// mutated by the solver.
type PoolReserves struct {
	Src *big.Int
	Dst *big.Int
}

// ImpliedPrice quotes the pool's price of the bridging asset in src units as
// an 18-decimal fixed-point number: Src*1e18/Dst. Degenerate reserves yield
// zero.
func (r PoolReserves) ImpliedPrice() *big.Int {
	if r.Src == nil || r.Dst == nil || r.Src.Sign() <= 0 || r.Dst.Sign() <= 0 {
		return new(big.Int)
	}
	p := new(big.Int).Mul(r.Src, priceUnit)
	return p.Quo(p, r.Dst)
}

// SelectDirection reports whether pool a quotes the strictly lower implied
// price and is therefore the buy leg of the round trip. Equal prices select
// pool b, so the choice is deterministic either way.
func SelectDirection(a, b PoolReserves) bool {
	return a.ImpliedPrice().Cmp(b.ImpliedPrice()) < 0
}
