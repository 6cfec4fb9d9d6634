// Command folio runs a periodic LLM-driven portfolio rebalancer.
// Each cycle it loads the last portfolio state from an append-only CSV
// ledger, collects market data, asks the configured model for a target
// allocation, reconciles it so total value is conserved, and appends the
// new state to the ledger.
//
// Usage:
//
//	folio setup                  (interactive config wizard)
//	folio --config config.yaml
//
// Required environment variables:
//
//	LLM_API_KEY                  key for the chat-completion API
//	For Hyperliquid: HYPERLIQUID_PRIVATE_KEY
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vadiminshakov/folio/config"
	"github.com/vadiminshakov/folio/internal"
	"github.com/vadiminshakov/folio/internal/clients"
	"github.com/vadiminshakov/folio/internal/services/market/collector"
	"github.com/vadiminshakov/folio/internal/services/promptbuilder"
	"github.com/vadiminshakov/folio/internal/setup"
	"github.com/vadiminshakov/folio/internal/storage/decisions"
	"github.com/vadiminshakov/folio/internal/storage/ledger"
	"github.com/vadiminshakov/folio/pkg/retrier"
	"go.uber.org/zap"
)

const hyperliquidMainnetAPI = "https://api.hyperliquid.xyz"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	configPath := flag.String("config", "config.yaml", "path to yaml config")
	flag.Parse()

	conf, err := config.Get(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	provider, err := buildKlineProvider(conf)
	if err != nil {
		logger.Fatal("failed to create market data provider", zap.Error(err))
	}

	fetchRetrier := retrier.New(
		retrier.WithMaxRetries(3),
		retrier.WithInterval(2*time.Second),
	)
	marketData := collector.New(provider, conf.Assets, conf.Quote, conf.KlineInterval, conf.Lookback, fetchRetrier, logger)

	store := ledger.New(conf.LedgerPath, conf.Assets, conf.BootstrapCash, logger)

	audit, err := decisions.NewWALStore(conf.DecisionWALDir)
	if err != nil {
		logger.Fatal("failed to open decision audit store", zap.Error(err))
	}
	defer audit.Close()

	oracle := clients.NewOpenAICompatibleClient(conf.LLMAPIURL, conf.LLMAPIKey, conf.Model)
	prompts := promptbuilder.New(conf.Assets, conf.Quote, logger)

	pipeline := internal.NewPipeline(conf.Assets, store, marketData, oracle, prompts, audit, conf.Model, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	supervise(ctx, pipeline, conf, logger)
}

// supervise invokes the pipeline at a fixed cadence, one run at a time,
// each bounded by the configured timeout. Because no partial state is ever
// persisted mid-run, a deadline kill leaves the ledger untouched and the
// next tick starts clean from the last good record.
func supervise(ctx context.Context, pipeline *internal.Pipeline, conf config.Config, logger *zap.Logger) {
	logger.Info("starting rebalance supervisor",
		zap.Strings("assets", conf.Assets),
		zap.Duration("interval", conf.RunInterval),
		zap.Duration("timeout", conf.RunTimeout))

	ticker := time.NewTicker(conf.RunInterval)
	defer ticker.Stop()

	runOnce(ctx, pipeline, conf.RunTimeout, logger)

	for {
		select {
		case <-ctx.Done():
			logger.Info("supervisor stopped")
			return
		case <-ticker.C:
			runOnce(ctx, pipeline, conf.RunTimeout, logger)
		}
	}
}

func runOnce(ctx context.Context, pipeline *internal.Pipeline, timeout time.Duration, logger *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	outcome, err := pipeline.Run(runCtx)
	elapsed := time.Since(started)

	// failures are terminal for the run, never for the supervisor
	if err != nil {
		logger.Error("run failed", zap.String("outcome", string(outcome)),
			zap.Duration("elapsed", elapsed), zap.Error(err))
		return
	}

	logger.Info("run finished", zap.String("outcome", string(outcome)),
		zap.Duration("elapsed", elapsed))
}

func buildKlineProvider(conf config.Config) (collector.KlineProvider, error) {
	switch conf.Platform {
	case "binance":
		return collector.NewBinanceKlineProvider(clients.NewBinanceClient(
			os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_API_SECRET"))), nil
	case "bybit":
		return collector.NewBybitKlineProvider(clients.NewBybitClient(
			os.Getenv("BYBIT_API_KEY"), os.Getenv("BYBIT_API_SECRET"))), nil
	case "hyperliquid":
		hl, err := clients.NewHyperliquidClient(os.Getenv("HYPERLIQUID_PRIVATE_KEY"), hyperliquidMainnetAPI)
		if err != nil {
			return nil, err
		}
		return collector.NewHyperliquidKlineProvider(hl.Exchange().Info(), conf.Quote), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", conf.Platform)
	}
}
