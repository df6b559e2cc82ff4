package uniswap_v2

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/triantafd/advanced-defi-2024/internal/infrastructure/ethereum"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Uniswap V2 pair contracts keep token0, token1 and the packed reserves at
// fixed storage slots, so a pair snapshot is three eth_getStorageAt calls
// and needs no ABI.
const (
	Token0StorageSlot   = 6
	Token1StorageSlot   = 7
	ReservesStorageSlot = 8
)

var (
	ZeroAddress = common.Address{}

	// mask112 isolates one uint112 lane of the packed reserves word.
	mask112 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 112), big.NewInt(1))
)

var (
	ErrPoolNotFound          = fmt.Errorf("Pool not found")
	ErrInsufficientLiquidity = fmt.Errorf("Insufficient liquidity in pool")
	ErrTokenPairMismatch     = fmt.Errorf("Token pair does not match pool")
)

// PairState is one pair's tokens and reserves at a single block.
type PairState struct {
	Token0   common.Address
	Token1   common.Address
	Reserve0 *big.Int
	Reserve1 *big.Int
}

// ReservesFor orients the reserves as (reserveIn, reserveOut) for a swap
// spending src for dst. It fails when the pair trades different tokens.
func (s *PairState) ReservesFor(src, dst common.Address) (*big.Int, *big.Int, error) {
	switch {
	case bytes.Equal(src[:], s.Token0[:]) && bytes.Equal(dst[:], s.Token1[:]):
		return s.Reserve0, s.Reserve1, nil
	case bytes.Equal(src[:], s.Token1[:]) && bytes.Equal(dst[:], s.Token0[:]):
		return s.Reserve1, s.Reserve0, nil
	default:
		return nil, nil, fmt.Errorf("%w: src=%s dst=%s token0=%s token1=%s",
			ErrTokenPairMismatch, src.Hex(), dst.Hex(), s.Token0.Hex(), s.Token1.Hex())
	}
}

// PairClient reads Uniswap V2 pair state from contract storage
type PairClient interface {
	// GetLatestBlockNumber returns the number of the latest block
	GetLatestBlockNumber(ctx context.Context) (uint64, error)

	// LoadPairState reads tokens and reserves of one pair at the given
	// block, or at the head when blockNum is nil
	LoadPairState(ctx context.Context, pool common.Address, blockNum *big.Int) (*PairState, error)
}

// PairClientImpl implements PairClient over the pooled RPC client
type PairClientImpl struct {
	client ethereum.Client
	logger *zap.Logger
}

// NewPairClient creates a pair state reader backed by client
func NewPairClient(client ethereum.Client, logger *zap.Logger) PairClient {
	return &PairClientImpl{
		client: client,
		logger: logger,
	}
}

// GetLatestBlockNumber returns the number of the latest block
func (c *PairClientImpl) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.client.GetLatestBlockNumber(ctx)
}

// LoadPairState reads tokens and reserves of one pair. A pair with a zero
// token address is treated as missing, a pair with an empty side as
// unusable for swaps.
func (c *PairClientImpl) LoadPairState(ctx context.Context, pool common.Address, blockNum *big.Int) (*PairState, error) {
	token0Data, err := c.readSlot(ctx, pool, blockNum, Token0StorageSlot)
	if err != nil {
		return nil, fmt.Errorf("failed to read token0: %w", err)
	}
	token0 := common.BytesToAddress(token0Data)

	token1Data, err := c.readSlot(ctx, pool, blockNum, Token1StorageSlot)
	if err != nil {
		return nil, fmt.Errorf("failed to read token1: %w", err)
	}
	token1 := common.BytesToAddress(token1Data)

	if bytes.Equal(token0[:], ZeroAddress[:]) || bytes.Equal(token1[:], ZeroAddress[:]) {
		return nil, fmt.Errorf("%w for pool %s", ErrPoolNotFound, pool.Hex())
	}

	reserveData, err := c.readSlot(ctx, pool, blockNum, ReservesStorageSlot)
	if err != nil {
		return nil, fmt.Errorf("failed to read reserves: %w", err)
	}
	reserve0, reserve1 := unpackReserves(reserveData)

	if reserve0.Sign() == 0 || reserve1.Sign() == 0 {
		return nil, fmt.Errorf("%w for pool %s", ErrInsufficientLiquidity, pool.Hex())
	}

	c.logger.Debug("Loaded pair state",
		zap.String("pool", pool.Hex()),
		zap.String("token0", token0.Hex()),
		zap.String("token1", token1.Hex()),
		zap.String("reserve0", reserve0.String()),
		zap.String("reserve1", reserve1.String()))

	return &PairState{
		Token0:   token0,
		Token1:   token1,
		Reserve0: reserve0,
		Reserve1: reserve1,
	}, nil
}

func (c *PairClientImpl) readSlot(ctx context.Context, pool common.Address, blockNum *big.Int, slot uint64) ([]byte, error) {
	var key common.Hash
	key[31] = byte(slot)
	return c.client.ReadContractStorage(ctx, pool, key, blockNum)
}

// unpackReserves splits the pair's packed storage word. From the low bits
// up the layout is reserve0 (112 bits), reserve1 (112 bits) and the last
// update timestamp (32 bits).
func unpackReserves(word []byte) (reserve0, reserve1 *big.Int) {
	v := new(big.Int).SetBytes(word)
	reserve0 = new(big.Int).And(v, mask112)
	reserve1 = v.Rsh(v, 112).And(v, mask112)
	return reserve0, reserve1
}
