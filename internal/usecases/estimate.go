package usecases

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/triantafd/advanced-defi-2024/internal/infrastructure/uniswap_v2"
	apperrors "github.com/triantafd/advanced-defi-2024/internal/shared/errors"
	"github.com/triantafd/advanced-defi-2024/pkg/constantproduct"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// EstimateService defines the interface for swap estimation operations
type EstimateService interface {
	// EstimateSwapAmount calculates the estimated destination amount for a
	// Uniswap V2 swap based on the latest blockchain state
	EstimateSwapAmount(ctx context.Context, poolAddress, srcToken, dstToken string, srcAmount *big.Int) (*big.Int, error)
}

// EstimateServiceImpl implements swap estimation operations
type EstimateServiceImpl struct {
	pairClient uniswap_v2.PairClient
	fee        constantproduct.FeeRatio
	logger     *zap.Logger
}

// NewEstimateService creates a new estimate service
func NewEstimateService(
	pairClient uniswap_v2.PairClient,
	fee constantproduct.FeeRatio,
	logger *zap.Logger,
) EstimateService {
	return &EstimateServiceImpl{
		pairClient: pairClient,
		fee:        fee,
		logger:     logger,
	}
}

// EstimateSwapAmount calculates the estimated destination amount for a
// Uniswap V2 swap based on the latest blockchain state
func (s *EstimateServiceImpl) EstimateSwapAmount(ctx context.Context, poolAddress, srcToken, dstToken string, srcAmount *big.Int) (*big.Int, error) {
	if srcAmount == nil || srcAmount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: source amount must be positive", apperrors.ErrValidation)
	}

	pool, err := parseAddress("pool address", poolAddress)
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

	if src == dst {
		return nil, fmt.Errorf("%w: source and destination tokens cannot be the same", apperrors.ErrBusinessRule)
	}

	s.logger.Info("Processing swap estimation request",
		zap.String("pool", poolAddress),
		zap.String("src_token", srcToken),
		zap.String("dst_token", dstToken),
		zap.String("src_amount", srcAmount.String()),
	)

	blockNumber, err := s.pairClient.GetLatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to connect to blockchain network: %v", apperrors.ErrExternalService, err)
	}
	blockNum := new(big.Int).SetUint64(blockNumber)

	state, err := s.pairClient.LoadPairState(ctx, pool, blockNum)
	if err != nil {
		return nil, wrapPairError(err)
	}

	reserveIn, reserveOut, err := state.ReservesFor(src, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrBusinessRule, err)
	}

	return constantproduct.GetAmountOut(srcAmount, reserveIn, reserveOut, s.fee), nil
}

// parseAddress validates one request address field.
func parseAddress(field, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, fmt.Errorf("%w: %s is required", apperrors.ErrValidation, field)
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%w: invalid %s format: %s", apperrors.ErrValidation, field, value)
	}
	return common.HexToAddress(value), nil
}

// wrapPairError translates pair reader failures into application errors.
func wrapPairError(err error) error {
	switch {
	case errors.Is(err, uniswap_v2.ErrPoolNotFound):
		return fmt.Errorf("%w: %v", apperrors.ErrNotFound, err)
	case errors.Is(err, uniswap_v2.ErrInsufficientLiquidity):
		return fmt.Errorf("%w: %v", apperrors.ErrBusinessRule, err)
	default:
		return fmt.Errorf("%w: unable to read pool state: %v", apperrors.ErrExternalService, err)
	}
}
