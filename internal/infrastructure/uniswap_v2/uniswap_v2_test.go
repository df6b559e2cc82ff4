package uniswap_v2

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var (
	poolAddr  = common.HexToAddress("0x0d4a11d5EEaaC28EC3F61d100daF4d40471f1852")
	tokenWETH = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	tokenUSDT = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	tokenDAI  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

// fakeChain serves canned storage words. Unknown pools and slots read as
// zero words, like an empty account on a real node.
type fakeChain struct {
	blockNumber uint64
	storage     map[common.Address]map[common.Hash][]byte
	readErr     error
}

func (f *fakeChain) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	return f.blockNumber, nil
}

func (f *fakeChain) ReadContractStorage(ctx context.Context, contractAddress common.Address, storageKey common.Hash, blockNumber *big.Int) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if word, ok := f.storage[contractAddress][storageKey]; ok {
		return word, nil
	}
	return make([]byte, 32), nil
}

func (f *fakeChain) Close() error { return nil }

func (f *fakeChain) ConnectionCount() int { return 1 }

func (f *fakeChain) CheckConnectionsHealth(ctx context.Context) []bool { return []bool{true} }

func slotKey(slot uint64) common.Hash {
	var key common.Hash
	key[31] = byte(slot)
	return key
}

func addressWord(addr common.Address) []byte {
	return common.LeftPadBytes(addr.Bytes(), 32)
}

func reservesWord(reserve0, reserve1 *big.Int, timestamp uint64) []byte {
	v := new(big.Int).SetUint64(timestamp)
	v.Lsh(v, 112).Or(v, reserve1)
	v.Lsh(v, 112).Or(v, reserve0)
	return common.LeftPadBytes(v.Bytes(), 32)
}

func pairStorage(token0, token1 common.Address, reserve0, reserve1 *big.Int) map[common.Address]map[common.Hash][]byte {
	return map[common.Address]map[common.Hash][]byte{
		poolAddr: {
			slotKey(Token0StorageSlot):   addressWord(token0),
			slotKey(Token1StorageSlot):   addressWord(token1),
			slotKey(ReservesStorageSlot): reservesWord(reserve0, reserve1, 1_700_000_000),
		},
	}
}

func TestLoadPairState(t *testing.T) {
	reserve0 := big.NewInt(123_456_789)
	reserve1 := new(big.Int).Lsh(big.NewInt(1), 100)

	chain := &fakeChain{
		blockNumber: 21_000_000,
		storage:     pairStorage(tokenWETH, tokenUSDT, reserve0, reserve1),
	}
	client := NewPairClient(chain, zap.NewNop())

	state, err := client.LoadPairState(context.Background(), poolAddr, nil)
	if err != nil {
		t.Fatalf("LoadPairState failed: %v", err)
	}

	if state.Token0 != tokenWETH {
		t.Errorf("token0 = %s, want %s", state.Token0.Hex(), tokenWETH.Hex())
	}
	if state.Token1 != tokenUSDT {
		t.Errorf("token1 = %s, want %s", state.Token1.Hex(), tokenUSDT.Hex())
	}
	if state.Reserve0.Cmp(reserve0) != 0 {
		t.Errorf("reserve0 = %s, want %s", state.Reserve0, reserve0)
	}
	if state.Reserve1.Cmp(reserve1) != 0 {
		t.Errorf("reserve1 = %s, want %s", state.Reserve1, reserve1)
	}
}

func TestLoadPairStateUnknownPool(t *testing.T) {
	chain := &fakeChain{storage: pairStorage(tokenWETH, tokenUSDT, big.NewInt(1), big.NewInt(1))}
	client := NewPairClient(chain, zap.NewNop())

	unknown := common.HexToAddress("0x0000000000000000000000000000000000001337")
	_, err := client.LoadPairState(context.Background(), unknown, nil)
	if !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("expected ErrPoolNotFound, got %v", err)
	}
}

func TestLoadPairStateEmptyReserves(t *testing.T) {
	chain := &fakeChain{storage: pairStorage(tokenWETH, tokenUSDT, big.NewInt(0), big.NewInt(0))}
	client := NewPairClient(chain, zap.NewNop())

	_, err := client.LoadPairState(context.Background(), poolAddr, nil)
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
}

func TestLoadPairStateReadFailure(t *testing.T) {
	chain := &fakeChain{readErr: errors.New("connection reset")}
	client := NewPairClient(chain, zap.NewNop())

	_, err := client.LoadPairState(context.Background(), poolAddr, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "failed to read token0") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGetLatestBlockNumber(t *testing.T) {
	chain := &fakeChain{blockNumber: 21_000_000}
	client := NewPairClient(chain, zap.NewNop())

	blockNum, err := client.GetLatestBlockNumber(context.Background())
	if err != nil {
		t.Fatalf("GetLatestBlockNumber failed: %v", err)
	}
	if blockNum != 21_000_000 {
		t.Errorf("block number = %d, want 21000000", blockNum)
	}
}

func TestReservesFor(t *testing.T) {
	state := &PairState{
		Token0:   tokenWETH,
		Token1:   tokenUSDT,
		Reserve0: big.NewInt(100),
		Reserve1: big.NewInt(200),
	}

	t.Run("forward", func(t *testing.T) {
		reserveIn, reserveOut, err := state.ReservesFor(tokenWETH, tokenUSDT)
		if err != nil {
			t.Fatalf("ReservesFor failed: %v", err)
		}
		if reserveIn.Int64() != 100 || reserveOut.Int64() != 200 {
			t.Errorf("got (%s, %s), want (100, 200)", reserveIn, reserveOut)
		}
	})

	t.Run("reverse", func(t *testing.T) {
		reserveIn, reserveOut, err := state.ReservesFor(tokenUSDT, tokenWETH)
		if err != nil {
			t.Fatalf("ReservesFor failed: %v", err)
		}
		if reserveIn.Int64() != 200 || reserveOut.Int64() != 100 {
			t.Errorf("got (%s, %s), want (200, 100)", reserveIn, reserveOut)
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		_, _, err := state.ReservesFor(tokenWETH, tokenDAI)
		if !errors.Is(err, ErrTokenPairMismatch) {
			t.Fatalf("expected ErrTokenPairMismatch, got %v", err)
		}
	})

	t.Run("same_token", func(t *testing.T) {
		_, _, err := state.ReservesFor(tokenWETH, tokenWETH)
		if !errors.Is(err, ErrTokenPairMismatch) {
			t.Fatalf("expected ErrTokenPairMismatch, got %v", err)
		}
	})
}

func TestUnpackReserves(t *testing.T) {
	maxUint112 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 112), big.NewInt(1))

	tests := []struct {
		name     string
		reserve0 *big.Int
		reserve1 *big.Int
	}{
		{"small", big.NewInt(42), big.NewInt(1337)},
		{"wide", new(big.Int).Lsh(big.NewInt(3), 90), new(big.Int).Lsh(big.NewInt(7), 100)},
		{"max_lanes", maxUint112, maxUint112},
		{"zero", big.NewInt(0), big.NewInt(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word := reservesWord(tt.reserve0, tt.reserve1, uint64(^uint32(0)))
			reserve0, reserve1 := unpackReserves(word)
			if reserve0.Cmp(tt.reserve0) != 0 {
				t.Errorf("reserve0 = %s, want %s", reserve0, tt.reserve0)
			}
			if reserve1.Cmp(tt.reserve1) != 0 {
				t.Errorf("reserve1 = %s, want %s", reserve1, tt.reserve1)
			}
		})
	}
}
