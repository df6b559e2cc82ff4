package telemetry

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"

	"github.com/triantafd/advanced-defi-2024/internal/shared/config"
	"github.com/triantafd/advanced-defi-2024/internal/shared/utils"
	"github.com/triantafd/advanced-defi-2024/internal/usecases"
)

// pointWriter is the slice of the InfluxDB async write API the reporter
// needs.
type pointWriter interface {
	WritePoint(point *write.Point)
	Flush()
}

// Reporter pushes arbitrage evaluations to InfluxDB. A nil *Reporter is
// valid and drops everything, so callers carry no telemetry conditionals.
type Reporter struct {
	client influxdb2.Client
	writer pointWriter
	logger *zap.Logger
}

// NewReporter connects to InfluxDB per cfg. It returns nil when no URL is
// configured, which disables reporting.
func NewReporter(cfg config.TelemetryConfig, logger *zap.Logger) *Reporter {
	if cfg.InfluxURL == "" {
		return nil
	}

	client := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	writeAPI := client.WriteAPI(cfg.InfluxOrg, cfg.InfluxBucket)

	// The async write API surfaces failures on a channel that closes with
	// the client.
	go func() {
		for err := range writeAPI.Errors() {
			logger.Warn("Telemetry write failed", zap.Error(err))
		}
	}()

	logger.Info("Telemetry reporter connected",
		zap.String("url", cfg.InfluxURL),
		zap.String("org", cfg.InfluxOrg),
		zap.String("bucket", cfg.InfluxBucket))

	return &Reporter{
		client: client,
		writer: writeAPI,
		logger: logger,
	}
}

// ReportOpportunity records one arbitrage evaluation. Amounts are converted
// to floats with the given token decimals; src amounts and profit are in the
// source token, the buy leg output in the destination token.
func (r *Reporter) ReportOpportunity(result *usecases.ArbitrageResult, srcDecimals, dstDecimals int32, timestamp time.Time) {
	if r == nil {
		return
	}

	tags := map[string]string{
		"pair":      result.SrcToken.Hex() + "/" + result.DstToken.Hex(),
		"buy_pool":  result.BuyPool.Hex(),
		"sell_pool": result.SellPool.Hex(),
	}
	fields := map[string]interface{}{
		"profitable":  result.Profitable,
		"amount_in":   utils.UnitsFloat(result.AmountIn, srcDecimals),
		"buy_leg_out": utils.UnitsFloat(result.BuyLegOut, dstDecimals),
		"profit":      utils.UnitsFloat(result.Profit, srcDecimals),
		"block":       result.BlockNumber,
	}

	point := write.NewPoint("arbitrage", tags, fields, timestamp)
	r.writer.WritePoint(point)
}

// Close flushes buffered points and shuts the client down.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	r.writer.Flush()
	r.client.Close()
	r.logger.Info("Telemetry reporter closed")
}
