package usecases

import (
	"context"
	"fmt"
	"math/big"

	"github.com/triantafd/advanced-defi-2024/internal/infrastructure/uniswap_v2"
	apperrors "github.com/triantafd/advanced-defi-2024/internal/shared/errors"
	"github.com/triantafd/advanced-defi-2024/pkg/arbitrage"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// ArbitrageResult reports one sized round trip between two pools quoting the
// same token pair. When Profitable is false the amounts are zero and the
// remaining fields only describe which direction was examined.
type ArbitrageResult struct {
	BuyPool     common.Address
	SellPool    common.Address
	SrcToken    common.Address
	DstToken    common.Address
	BuyOnA      bool
	AmountIn    *big.Int
	BuyLegOut   *big.Int
	Profit      *big.Int
	Profitable  bool
	BlockNumber uint64
}

// ArbitrageService defines the interface for arbitrage search operations
type ArbitrageService interface {
	// FindOpportunity sizes the optimal src round trip between two pools
	// trading the same token pair, based on the latest blockchain state
	FindOpportunity(ctx context.Context, poolA, poolB, srcToken, dstToken string) (*ArbitrageResult, error)
}

// ArbitrageServiceImpl implements arbitrage search operations
type ArbitrageServiceImpl struct {
	pairClient uniswap_v2.PairClient
	solver     *arbitrage.Solver
	logger     *zap.Logger
}

// NewArbitrageService creates a new arbitrage service
func NewArbitrageService(
	pairClient uniswap_v2.PairClient,
	solver *arbitrage.Solver,
	logger *zap.Logger,
) ArbitrageService {
	return &ArbitrageServiceImpl{
		pairClient: pairClient,
		solver:     solver,
		logger:     logger,
	}
}

// FindOpportunity sizes the optimal src round trip between two pools trading
// the same token pair. Both pools are read at the same block so their quotes
// are consistent with each other.
func (s *ArbitrageServiceImpl) FindOpportunity(ctx context.Context, poolA, poolB, srcToken, dstToken string) (*ArbitrageResult, error) {
	addrA, err := parseAddress("pool A address", poolA)
	if err != nil {
		return nil, err
	}
	addrB, err := parseAddress("pool B address", poolB)
	if err != nil {
		return nil, err
	}
	src, err := parseAddress("source token address", srcToken)
	if err != nil {
		return nil, err
	}
	dst, err := parseAddress("destination token address", dstToken)
	if err != nil {
		return nil, err
	}

	if addrA == addrB {
		return nil, fmt.Errorf("%w: pools must be distinct", apperrors.ErrBusinessRule)
	}
	if src == dst {
		return nil, fmt.Errorf("%w: source and destination tokens cannot be the same", apperrors.ErrBusinessRule)
	}

	s.logger.Info("Processing arbitrage search request",
		zap.String("pool_a", poolA),
		zap.String("pool_b", poolB),
		zap.String("src_token", srcToken),
		zap.String("dst_token", dstToken),
	)

	blockNumber, err := s.pairClient.GetLatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to connect to blockchain network: %v", apperrors.ErrExternalService, err)
	}
	blockNum := new(big.Int).SetUint64(blockNumber)

	reservesA, err := s.poolReserves(ctx, addrA, src, dst, blockNum)
	if err != nil {
		return nil, err
	}
	reservesB, err := s.poolReserves(ctx, addrB, src, dst, blockNum)
	if err != nil {
		return nil, err
	}

	opp := s.solver.Evaluate(reservesA, reservesB)

	result := &ArbitrageResult{
		BuyPool:     addrA,
		SellPool:    addrB,
		SrcToken:    src,
		DstToken:    dst,
		BuyOnA:      opp.BuyOnA,
		AmountIn:    opp.AmountIn,
		BuyLegOut:   opp.BuyLegOut,
		Profit:      opp.Profit,
		Profitable:  opp.Profitable,
		BlockNumber: blockNumber,
	}
	if !opp.BuyOnA {
		result.BuyPool, result.SellPool = addrB, addrA
	}

	s.logger.Info("Arbitrage search completed",
		zap.Bool("profitable", opp.Profitable),
		zap.String("amount_in", opp.AmountIn.String()),
		zap.String("profit", opp.Profit.String()),
		zap.Uint64("block", blockNumber),
	)

	return result, nil
}

// poolReserves loads one pair at blockNum and orients its reserves for the
// src round trip.
func (s *ArbitrageServiceImpl) poolReserves(ctx context.Context, pool, src, dst common.Address, blockNum *big.Int) (arbitrage.PoolReserves, error) {
	state, err := s.pairClient.LoadPairState(ctx, pool, blockNum)
	if err != nil {
		return arbitrage.PoolReserves{}, wrapPairError(err)
	}

	reserveIn, reserveOut, err := state.ReservesFor(src, dst)
	if err != nil {
		return arbitrage.PoolReserves{}, fmt.Errorf("%w: %v", apperrors.ErrBusinessRule, err)
	}

	return arbitrage.PoolReserves{Src: reserveIn, Dst: reserveOut}, nil
}
