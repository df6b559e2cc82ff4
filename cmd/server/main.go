package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/triantafd/advanced-defi-2024/internal/infrastructure/ethereum"
	"github.com/triantafd/advanced-defi-2024/internal/infrastructure/uniswap_v2"
	"github.com/triantafd/advanced-defi-2024/internal/presentation/http"
	"github.com/triantafd/advanced-defi-2024/internal/shared/config"
	"github.com/triantafd/advanced-defi-2024/internal/shared/logger"
	"github.com/triantafd/advanced-defi-2024/internal/usecases"
	"github.com/triantafd/advanced-defi-2024/pkg/arbitrage"
	"github.com/triantafd/advanced-defi-2024/pkg/constantproduct"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	fee, err := constantproduct.NewFeeRatio(cfg.Arbitrage.FeeNumerator, cfg.Arbitrage.FeeDenominator)
	if err != nil {
		log.Fatal("Failed to build fee ratio", zap.Error(err))
	}

	ethClient, err := ethereum.NewClient(cfg.Blockchain.EthereumRPCURL, cfg.Blockchain.ConnectionPoolSize, log)
	if err != nil {
		log.Fatal("Failed to create Ethereum connection pool", zap.Error(err))
	}
	defer ethClient.Close()

	pairClient := uniswap_v2.NewPairClient(ethClient, log)

	solver := arbitrage.NewSolver(fee)
	solver.FullPrecision = cfg.Arbitrage.FullPrecision

	estimateService := usecases.NewEstimateService(pairClient, fee, log)
	arbitrageService := usecases.NewArbitrageService(pairClient, solver, log)

	estimateHandler := http.NewEstimateHandler(estimateService, log, cfg)
	arbitrageHandler := http.NewArbitrageHandler(arbitrageService, log, cfg)

	router := setupRouter(estimateHandler, arbitrageHandler, log)

	server := &fasthttp.Server{
		Handler: router,
	}

	serverError := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(cfg.Server.Address); err != nil {
			serverError <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	shuttingDown := make(chan struct{})
	healthCheckDone := make(chan struct{})
	go func() {
		defer close(healthCheckDone)
		ticker := time.NewTicker(cfg.Server.HealthCheckPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				health := ethClient.CheckConnectionsHealth(ctx)
				cancel()

				healthyCount := 0
				for _, isHealthy := range health {
					if isHealthy {
						healthyCount++
					}
				}

				log.Info("Ethereum connection pool health check",
					zap.Int("healthy", healthyCount),
					zap.Int("total", ethClient.ConnectionCount()),
					zap.Float64("health_percentage", float64(healthyCount)/float64(ethClient.ConnectionCount())*100))
			case <-shuttingDown:
				log.Info("Health check goroutine stopping")
				return
			}
		}
	}()

	select {
	case <-quit:
		log.Info("Received shutdown signal, starting graceful shutdown")
	case err := <-serverError:
		log.Error("Server error occurred", zap.Error(err))
		log.Info("Starting graceful shutdown due to server error")
	}
	close(shuttingDown)

	log.Info("Stopping server from accepting new connections")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", zap.Error(err))
	} else {
		log.Info("Server shutdown completed successfully")
	}

	select {
	case <-healthCheckDone:
		log.Info("Health check goroutine finished")
	case <-time.After(5 * time.Second):
		log.Warn("Health check goroutine did not finish within timeout")
	}

	log.Info("Closing Ethereum connection pool")
	if err := ethClient.Close(); err != nil {
		log.Error("Error closing Ethereum connection pool", zap.Error(err))
	}
}

func setupRouter(estimateHandler *http.EstimateHandler, arbitrageHandler *http.ArbitrageHandler, logger *zap.Logger) fasthttp.RequestHandler {
	// Middleware is applied once per route so rate limit counters survive
	// across requests.
	estimateRoute := http.ApplyMiddleware(estimateHandler.EstimateSwapAmount, logger, estimateHandler)
	arbitrageRoute := http.ApplyMiddleware(arbitrageHandler.FindArbitrage, logger, arbitrageHandler)

	return func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/estimate":
			estimateRoute(ctx)
		case "/arbitrage":
			arbitrageRoute(ctx)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			ctx.SetBodyString("Not Found")
		}
	}
}
