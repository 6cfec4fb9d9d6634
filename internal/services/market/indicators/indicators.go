// Package indicators derives technical context from candle history using the
// cinar/indicator library. The values are advisory input for the oracle
// prompt, never part of the reconciliation math.
package indicators

import (
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/folio/internal/domain"
)

const (
	emaPeriod = 20
	rsiPeriod = 14
)

// minCandles is the minimum history needed for a meaningful summary.
const minCandles = emaPeriod + rsiPeriod

// Summary holds the latest indicator values for one asset.
type Summary struct {
	// EMA20 is the 20-period Exponential Moving Average of closes.
	EMA20 decimal.Decimal
	// RSI14 is the 14-period Relative Strength Index (0-100).
	RSI14 decimal.Decimal
}

// Summarize computes the latest EMA20 and RSI14 from the candle series.
func Summarize(candles []domain.MarketCandle) (Summary, error) {
	if len(candles) < minCandles {
		return Summary{}, fmt.Errorf("not enough candles: need %d, got %d", minCandles, len(candles))
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close.InexactFloat64()
	}

	ema := trend.NewEmaWithPeriod[float64](emaPeriod)
	emaValues := helper.ChanToSlice(ema.Compute(helper.SliceToChan(closes)))
	if len(emaValues) == 0 {
		return Summary{}, fmt.Errorf("EMA computation produced no values")
	}

	rsi := momentum.NewRsiWithPeriod[float64](rsiPeriod)
	rsiValues := helper.ChanToSlice(rsi.Compute(helper.SliceToChan(closes)))
	if len(rsiValues) == 0 {
		return Summary{}, fmt.Errorf("RSI computation produced no values")
	}

	return Summary{
		EMA20: decimal.NewFromFloat(emaValues[len(emaValues)-1]),
		RSI14: decimal.NewFromFloat(rsiValues[len(rsiValues)-1]),
	}, nil
}
