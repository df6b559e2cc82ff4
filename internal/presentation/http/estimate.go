package http

import (
	"fmt"
	"math/big"
	"time"

	"github.com/triantafd/advanced-defi-2024/internal/shared/config"
	apperrors "github.com/triantafd/advanced-defi-2024/internal/shared/errors"
	"github.com/triantafd/advanced-defi-2024/internal/shared/utils"
	"github.com/triantafd/advanced-defi-2024/internal/usecases"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type EstimateHandler struct {
	estimateService usecases.EstimateService
	logger          *zap.Logger
	config          *config.Config
}

// GetRateLimitConfig implements RateLimitable interface
func (h *EstimateHandler) GetRateLimitConfig() HTTPRateLimitConfig {
	return HTTPRateLimitConfig{
		RequestsPerMinute: h.config.RateLimit.RequestsPerMinute,
	}
}

func NewEstimateHandler(estimateService usecases.EstimateService, logger *zap.Logger, config *config.Config) *EstimateHandler {
	return &EstimateHandler{
		estimateService: estimateService,
		logger:          logger,
		config:          config,
	}
}

// EstimateSwapAmount handles the /estimate endpoint
func (h *EstimateHandler) EstimateSwapAmount(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	poolAddress, srcToken, dstToken, srcAmount, err := h.parseEstimateParams(ctx)
	if err != nil {
		handleError(ctx, h.logger, err)
		return
	}

	dstAmount, err := h.estimateService.EstimateSwapAmount(ctx, poolAddress, srcToken, dstToken, srcAmount)
	if err != nil {
		handleError(ctx, h.logger, err)
		return
	}

	h.logger.Info("Estimate completed", zap.Duration("duration", time.Since(startTime)))

	ctx.SetContentType("text/plain")
	ctx.SetBodyString(dstAmount.String())
}

func (h *EstimateHandler) parseEstimateParams(ctx *fasthttp.RequestCtx) (string, string, string, *big.Int, error) {
	poolValue, err := requiredParam(ctx, "pool", "pool parameter")
	if err != nil {
		return "", "", "", nil, err
	}

	srcValue, err := requiredParam(ctx, "src", "source token parameter")
	if err != nil {
		return "", "", "", nil, err
	}

	dstValue, err := requiredParam(ctx, "dst", "destination token parameter")
	if err != nil {
		return "", "", "", nil, err
	}

	srcAmountValue, err := requiredParam(ctx, "src_amount", "source amount parameter")
	if err != nil {
		return "", "", "", nil, err
	}

	// Amounts of 18-decimal tokens do not fit in int64, so the parse is
	// arbitrary precision.
	srcAmount, err := utils.ParseAmount(srcAmountValue)
	if err != nil {
		return "", "", "", nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	return poolValue, srcValue, dstValue, srcAmount, nil
}

func requiredParam(ctx *fasthttp.RequestCtx, name, what string) (string, error) {
	value := ctx.QueryArgs().Peek(name)
	if len(value) == 0 {
		return "", fmt.Errorf("%w: %s is required", apperrors.ErrValidation, what)
	}
	return string(value), nil
}
