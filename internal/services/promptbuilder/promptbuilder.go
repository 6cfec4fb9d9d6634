// Package promptbuilder formats holdings, prices and market history into
// token-efficient prompts for the allocation oracle.
package promptbuilder

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/folio/internal/domain"
	"github.com/vadiminshakov/folio/internal/services/market/collector"
	"github.com/vadiminshakov/folio/internal/services/market/indicators"
	"go.uber.org/zap"
)

// maxCandlesInPrompt caps how much raw history goes into the prompt.
const maxCandlesInPrompt = 24

// PromptBuilder renders the user prompt for one pipeline run.
type PromptBuilder struct {
	assets []string
	quote  string
	logger *zap.Logger
}

// New creates a prompt builder for the tracked assets.
func New(assets []string, quote string, logger *zap.Logger) *PromptBuilder {
	return &PromptBuilder{
		assets: append([]string(nil), assets...),
		quote:  quote,
		logger: logger,
	}
}

// BuildUserPrompt embeds the current portfolio, prices, and per-asset market
// context as human-readable text. Assets missing from the market snapshot
// are shown as unavailable so the model does not allocate into them blindly.
func (b *PromptBuilder) BuildUserPrompt(snap domain.Snapshot, totalValue decimal.Decimal, market *collector.MarketSnapshot) string {
	var sb strings.Builder

	sb.WriteString("## ACCOUNT\n")
	fmt.Fprintf(&sb, "Total value: %s %s\n", totalValue.StringFixed(2), b.quote)
	fmt.Fprintf(&sb, "Cash: %s %s\n", snap.Cash.StringFixed(2), b.quote)
	for _, sym := range b.assets {
		qty := snap.Quantity(sym)
		if price, ok := market.Prices.Price(sym); ok {
			fmt.Fprintf(&sb, "%s: qty %s, price %s, value %s\n",
				sym, qty.String(), price.String(), qty.Mul(price).StringFixed(2))
		} else {
			fmt.Fprintf(&sb, "%s: qty %s, price unavailable this round\n", sym, qty.String())
		}
	}

	sb.WriteString("\n## MARKET\n")
	for _, sym := range b.assets {
		series, ok := market.Series[sym]
		if !ok {
			fmt.Fprintf(&sb, "%s: no data this round, allocate 0\n", sym)
			continue
		}
		b.writeAssetContext(&sb, sym, series)
	}

	sb.WriteString("\nRespond with the JSON allocation object only.\n")

	return sb.String()
}

func (b *PromptBuilder) writeAssetContext(sb *strings.Builder, sym string, series []domain.MarketCandle) {
	fmt.Fprintf(sb, "%s (%d candles):\n", sym, len(series))

	if summary, err := indicators.Summarize(series); err == nil {
		fmt.Fprintf(sb, "  EMA20=%s RSI14=%s\n",
			summary.EMA20.StringFixed(2), summary.RSI14.StringFixed(1))
	} else {
		b.logger.Debug("indicator summary unavailable", zap.String("asset", sym), zap.Error(err))
	}

	tail := series
	if len(tail) > maxCandlesInPrompt {
		tail = tail[len(tail)-maxCandlesInPrompt:]
	}

	closes := make([]string, len(tail))
	for i, c := range tail {
		closes[i] = c.Close.String()
	}
	fmt.Fprintf(sb, "  closes: %s\n", strings.Join(closes, " "))
}
