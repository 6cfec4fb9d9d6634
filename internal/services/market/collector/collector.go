// Package collector gathers candle history for the tracked assets and
// derives the price context used for portfolio valuation.
package collector

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/folio/internal/domain"
	"github.com/vadiminshakov/folio/pkg/retrier"
	"go.uber.org/zap"
)

const fetchTimeout = 30 * time.Second

// ErrNoData marks a collection round in which no tracked asset produced any
// candles. A run with no fresh data must not act on stale reasoning.
var ErrNoData = errors.New("no market data for any tracked asset")

// KlineProvider fetches candle history for one exchange symbol.
type KlineProvider interface {
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]domain.MarketCandle, error)
}

// MarketSnapshot is the result of one collection round: per-asset candle
// series and the latest close of each as its current price.
type MarketSnapshot struct {
	Series map[string][]domain.MarketCandle
	Prices domain.PriceContext
}

// Collector fetches candles per tracked asset, isolating per-symbol
// failures: one asset failing (after the retry budget) drops that asset from
// the snapshot without aborting the others.
type Collector struct {
	provider KlineProvider
	assets   []string
	quote    string
	interval string
	lookback int
	retrier  *retrier.Retrier
	logger   *zap.Logger
}

// New creates a collector for the given assets quoted in quote, fetching
// lookback candles of the given interval per asset.
func New(
	provider KlineProvider,
	assets []string,
	quote string,
	interval string,
	lookback int,
	r *retrier.Retrier,
	logger *zap.Logger,
) *Collector {
	return &Collector{
		provider: provider,
		assets:   append([]string(nil), assets...),
		quote:    quote,
		interval: interval,
		lookback: lookback,
		retrier:  r,
		logger:   logger,
	}
}

// Collect fetches candle series for every tracked asset sequentially.
// Each symbol gets the full retry budget before being dropped. Returns
// ErrNoData when every symbol failed or returned nothing.
func (c *Collector) Collect(ctx context.Context) (*MarketSnapshot, error) {
	snapshot := &MarketSnapshot{
		Series: make(map[string][]domain.MarketCandle, len(c.assets)),
		Prices: make(domain.PriceContext, len(c.assets)),
	}

	for _, asset := range c.assets {
		candles, err := c.fetchAsset(ctx, asset)
		if err != nil {
			c.logger.Warn("dropping asset from this round",
				zap.String("asset", asset), zap.Error(err))
			continue
		}

		snapshot.Series[asset] = candles
		snapshot.Prices[asset] = latestClose(candles)
	}

	if len(snapshot.Prices) == 0 {
		return nil, ErrNoData
	}

	return snapshot, nil
}

func (c *Collector) fetchAsset(ctx context.Context, asset string) ([]domain.MarketCandle, error) {
	symbol := asset + c.quote

	candles, err := retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) ([]domain.MarketCandle, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		return c.provider.GetKlines(fetchCtx, symbol, c.interval, c.lookback)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetch klines for %s", symbol)
	}
	if len(candles) == 0 {
		return nil, errors.Errorf("no candles returned for %s", symbol)
	}

	return candles, nil
}

func latestClose(candles []domain.MarketCandle) decimal.Decimal {
	return candles[len(candles)-1].Close
}
