package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/triantafd/advanced-defi-2024/internal/infrastructure/ethereum"
	"github.com/triantafd/advanced-defi-2024/internal/infrastructure/uniswap_v2"
	"github.com/triantafd/advanced-defi-2024/internal/shared/config"
	"github.com/triantafd/advanced-defi-2024/internal/shared/logger"
	"github.com/triantafd/advanced-defi-2024/internal/shared/utils"
	"github.com/triantafd/advanced-defi-2024/internal/telemetry"
	"github.com/triantafd/advanced-defi-2024/internal/usecases"
	"github.com/triantafd/advanced-defi-2024/pkg/arbitrage"
	"github.com/triantafd/advanced-defi-2024/pkg/constantproduct"
)

const evaluateTimeout = 15 * time.Second

func main() {

	var (
		rpcURL string
		poolA  string
		poolB  string
		src    string
		dst    string

		feeNum        uint64
		feeDen        uint64
		fullPrecision bool
		srcDecimals   int32
		dstDecimals   int32

		watch    bool
		interval time.Duration

		influxURL    string
		influxToken  string
		influxOrg    string
		influxBucket string

		verbose bool
	)

	pflag.StringVarP(&rpcURL, "rpc-url", "r", os.Getenv("ETHEREUM_RPC_URL"), "Ethereum JSON-RPC endpoint")
	pflag.StringVarP(&poolA, "pool-a", "a", "", "address of the first pool")
	pflag.StringVarP(&poolB, "pool-b", "b", "", "address of the second pool")
	pflag.StringVarP(&src, "src", "s", "", "address of the source token the round trip is sized in")
	pflag.StringVarP(&dst, "dst", "d", "", "address of the destination token")

	pflag.Uint64Var(&feeNum, "fee-num", 997, "swap fee ratio numerator")
	pflag.Uint64Var(&feeDen, "fee-den", 1000, "swap fee ratio denominator")
	pflag.BoolVar(&fullPrecision, "full-precision", false, "solve on raw reserves without scale normalization")
	pflag.Int32Var(&srcDecimals, "src-decimals", 18, "decimals of the source token, for display")
	pflag.Int32Var(&dstDecimals, "dst-decimals", 18, "decimals of the destination token, for display")

	pflag.BoolVarP(&watch, "watch", "w", false, "keep evaluating as new blocks arrive")
	pflag.DurationVar(&interval, "interval", 12*time.Second, "polling interval in watch mode")

	pflag.StringVar(&influxURL, "influx-url", "", "InfluxDB URL for opportunity telemetry")
	pflag.StringVar(&influxToken, "influx-token", os.Getenv("INFLUX_TOKEN"), "InfluxDB API token")
	pflag.StringVar(&influxOrg, "influx-org", "", "InfluxDB organization")
	pflag.StringVar(&influxBucket, "influx-bucket", "", "InfluxDB bucket")

	pflag.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	pflag.Parse()

	log := logger.NewCLILogger(verbose)
	defer log.Sync()

	if rpcURL == "" {
		fmt.Fprintln(os.Stderr, "an Ethereum RPC endpoint is required, pass --rpc-url or set ETHEREUM_RPC_URL")
		os.Exit(1)
	}
	if poolA == "" || poolB == "" || src == "" || dst == "" {
		fmt.Fprintln(os.Stderr, "two pool addresses and a token pair are required, pass --pool-a, --pool-b, --src and --dst")
		pflag.Usage()
		os.Exit(1)
	}

	fee, err := constantproduct.NewFeeRatio(feeNum, feeDen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid fee ratio: %v\n", err)
		os.Exit(1)
	}

	ethClient, err := ethereum.NewClient(rpcURL, 1, log)
	if err != nil {
		log.Fatal("Failed to connect", zap.Error(err))
	}
	defer ethClient.Close()

	pairClient := uniswap_v2.NewPairClient(ethClient, log)

	solver := arbitrage.NewSolver(fee)
	solver.FullPrecision = fullPrecision

	service := usecases.NewArbitrageService(pairClient, solver, log)

	reporter := telemetry.NewReporter(config.TelemetryConfig{
		InfluxURL:    influxURL,
		InfluxToken:  influxToken,
		InfluxOrg:    influxOrg,
		InfluxBucket: influxBucket,
	}, log)
	defer reporter.Close()

	evaluate := func() (*usecases.ArbitrageResult, error) {
		ctx, cancel := context.WithTimeout(context.Background(), evaluateTimeout)
		defer cancel()

		result, err := service.FindOpportunity(ctx, poolA, poolB, src, dst)
		if err != nil {
			return nil, err
		}
		reporter.ReportOpportunity(result, srcDecimals, dstDecimals, time.Now())
		return result, nil
	}

	if !watch {
		result, err := evaluate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		printResult(result, srcDecimals, dstDecimals)
		return
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("Watching for arbitrage", zap.Duration("interval", interval))

	var lastBlock uint64
	for {
		ctx, cancel := context.WithTimeout(context.Background(), evaluateTimeout)
		blockNumber, err := pairClient.GetLatestBlockNumber(ctx)
		cancel()

		switch {
		case err != nil:
			log.Warn("Failed to fetch block number", zap.Error(err))
		case blockNumber == lastBlock:
			log.Debug("No new block", zap.Uint64("block", blockNumber))
		default:
			result, err := evaluate()
			if err != nil {
				log.Warn("Evaluation failed", zap.Error(err))
				break
			}
			lastBlock = result.BlockNumber
			printResult(result, srcDecimals, dstDecimals)
		}

		select {
		case <-sig:
			log.Info("Stopping watch")
			return
		case <-ticker.C:
		}
	}
}

func printResult(result *usecases.ArbitrageResult, srcDecimals, dstDecimals int32) {
	if !result.Profitable {
		fmt.Printf("block %d: no profitable arbitrage between the pools\n", result.BlockNumber)
		return
	}

	fmt.Printf("block %d: buy on %s, sell on %s\n",
		result.BlockNumber, result.BuyPool.Hex(), result.SellPool.Hex())
	fmt.Printf("  amount in    %s (%s base units)\n",
		utils.HumanUnits(result.AmountIn, srcDecimals), result.AmountIn)
	fmt.Printf("  buy leg out  %s (%s base units)\n",
		utils.HumanUnits(result.BuyLegOut, dstDecimals), result.BuyLegOut)
	fmt.Printf("  profit       %s (%s base units)\n",
		utils.HumanUnits(result.Profit, srcDecimals), result.Profit)
}
