package http

import (
	"encoding/json"
	"time"

	"github.com/triantafd/advanced-defi-2024/internal/shared/config"
	"github.com/triantafd/advanced-defi-2024/internal/usecases"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// ArbitrageResponse is the JSON body of a successful /arbitrage call.
// Amounts are decimal strings in base units of their token.
type ArbitrageResponse struct {
	BuyPool     string `json:"buy_pool"`
	SellPool    string `json:"sell_pool"`
	SrcToken    string `json:"src_token"`
	DstToken    string `json:"dst_token"`
	BuyOnA      bool   `json:"buy_on_a"`
	AmountIn    string `json:"amount_in"`
	BuyLegOut   string `json:"buy_leg_out"`
	Profit      string `json:"profit"`
	Profitable  bool   `json:"profitable"`
	BlockNumber uint64 `json:"block_number"`
}

type ArbitrageHandler struct {
	arbitrageService usecases.ArbitrageService
	logger           *zap.Logger
	config           *config.Config
}

// GetRateLimitConfig implements RateLimitable interface
func (h *ArbitrageHandler) GetRateLimitConfig() HTTPRateLimitConfig {
	return HTTPRateLimitConfig{
		RequestsPerMinute: h.config.RateLimit.RequestsPerMinute,
	}
}

func NewArbitrageHandler(arbitrageService usecases.ArbitrageService, logger *zap.Logger, config *config.Config) *ArbitrageHandler {
	return &ArbitrageHandler{
		arbitrageService: arbitrageService,
		logger:           logger,
		config:           config,
	}
}

// FindArbitrage handles the /arbitrage endpoint
func (h *ArbitrageHandler) FindArbitrage(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	poolA, poolB, srcToken, dstToken, err := h.parseArbitrageParams(ctx)
	if err != nil {
		handleError(ctx, h.logger, err)
		return
	}

	result, err := h.arbitrageService.FindOpportunity(ctx, poolA, poolB, srcToken, dstToken)
	if err != nil {
		handleError(ctx, h.logger, err)
		return
	}

	h.logger.Info("Arbitrage completed",
		zap.Duration("duration", time.Since(startTime)),
		zap.Bool("profitable", result.Profitable))

	resp := ArbitrageResponse{
		BuyPool:     result.BuyPool.Hex(),
		SellPool:    result.SellPool.Hex(),
		SrcToken:    result.SrcToken.Hex(),
		DstToken:    result.DstToken.Hex(),
		BuyOnA:      result.BuyOnA,
		AmountIn:    result.AmountIn.String(),
		BuyLegOut:   result.BuyLegOut.String(),
		Profit:      result.Profit.String(),
		Profitable:  result.Profitable,
		BlockNumber: result.BlockNumber,
	}

	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(resp)
}

func (h *ArbitrageHandler) parseArbitrageParams(ctx *fasthttp.RequestCtx) (string, string, string, string, error) {
	poolA, err := requiredParam(ctx, "pool_a", "pool_a parameter")
	if err != nil {
		return "", "", "", "", err
	}

	poolB, err := requiredParam(ctx, "pool_b", "pool_b parameter")
	if err != nil {
		return "", "", "", "", err
	}

	srcToken, err := requiredParam(ctx, "src", "source token parameter")
	if err != nil {
		return "", "", "", "", err
	}

	dstToken, err := requiredParam(ctx, "dst", "destination token parameter")
	if err != nil {
		return "", "", "", "", err
	}

	return poolA, poolB, srcToken, dstToken, nil
}
