package arbitrage

import (
	"math/big"
	"testing"
)

func TestSqrtPerfectSquares(t *testing.T) {
	for n := int64(0); n <= 1_000; n++ {
		x := big.NewInt(n * n)
		if got := Sqrt(x); got.Cmp(big.NewInt(n)) != 0 {
			t.Fatalf("Sqrt(%d^2) = %s, want %d", n, got, n)
		}
	}

	for _, n := range []int64{31_623, 999_983, 1_000_000} {
		x := new(big.Int).Mul(big.NewInt(n), big.NewInt(n))
		if got := Sqrt(x); got.Cmp(big.NewInt(n)) != 0 {
			t.Fatalf("Sqrt(%d^2) = %s, want %d", n, got, n)
		}
	}
}

func TestSqrtFloorBounds(t *testing.T) {
	inputs := []*big.Int{
		big.NewInt(2),
		big.NewInt(3),
		big.NewInt(5),
		big.NewInt(8),
		big.NewInt(99),
		big.NewInt(101),
		big.NewInt(999_999_999_999),
		new(big.Int).SetUint64(1<<63 + 12345),
		new(big.Int).Exp(big.NewInt(10), big.NewInt(30), nil),
		new(big.Int).Sub(new(big.Int).Exp(big.NewInt(10), big.NewInt(41), nil), big.NewInt(7)),
	}

	for _, x := range inputs {
		z := Sqrt(x)

		lower := new(big.Int).Mul(z, z)
		if lower.Cmp(x) > 0 {
			t.Fatalf("Sqrt(%s) = %s overshoots: %s > %s", x, z, lower, x)
		}

		next := new(big.Int).Add(z, big.NewInt(1))
		upper := new(big.Int).Mul(next, next)
		if upper.Cmp(x) <= 0 {
			t.Fatalf("Sqrt(%s) = %s undershoots: (%s)^2 <= %s", x, z, next, x)
		}

		if ref := new(big.Int).Sqrt(x); z.Cmp(ref) != 0 {
			t.Fatalf("Sqrt(%s) = %s disagrees with big.Int reference %s", x, z, ref)
		}
	}
}

func TestSqrtDegenerate(t *testing.T) {
	if got := Sqrt(nil); got.Sign() != 0 {
		t.Fatalf("Sqrt(nil) = %s, want 0", got)
	}
	if got := Sqrt(big.NewInt(0)); got.Sign() != 0 {
		t.Fatalf("Sqrt(0) = %s, want 0", got)
	}
	if got := Sqrt(big.NewInt(-4)); got.Sign() != 0 {
		t.Fatalf("Sqrt(-4) = %s, want 0", got)
	}
	if got := Sqrt(big.NewInt(1)); got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("Sqrt(1) = %s, want 1", got)
	}
}

func TestScaleFactor(t *testing.T) {
	cases := []struct {
		name   string
		values []int64
		want   int64
	}{
		{"all_small", []int64{5, 10, 999}, 1},
		{"exactly_target", []int64{1_000_000, 12}, 1},
		{"just_above_target", []int64{1_000_001}, 1},
		{"double_target", []int64{2_000_000}, 2},
		{"below_double", []int64{1_999_999}, 1},
		{"large", []int64{50_000_000_000_000}, 50_000_000},
		{"max_wins", []int64{1, 3_000_000, 2_999_999}, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values := make([]*big.Int, len(tc.values))
			for i, v := range tc.values {
				values[i] = big.NewInt(v)
			}
			got := ScaleFactor(values...)
			if got.Cmp(big.NewInt(tc.want)) != 0 {
				t.Fatalf("got %s, want %d", got, tc.want)
			}
		})
	}

	if got := ScaleFactor(); got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("no values: got %s, want 1", got)
	}
	if got := ScaleFactor(nil, big.NewInt(7)); got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("nil value: got %s, want 1", got)
	}
}

func TestScaleFactorDoesNotMutateInputs(t *testing.T) {
	a := big.NewInt(2_000_000)
	b := big.NewInt(300)

	ScaleFactor(a, b)

	if a.Int64() != 2_000_000 || b.Int64() != 300 {
		t.Fatalf("inputs mutated: %s %s", a, b)
	}
}
