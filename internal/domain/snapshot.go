package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceContext maps asset symbols to their current quote price.
// It is produced by the market data collector and never mutated downstream.
type PriceContext map[string]decimal.Decimal

// Price returns the price for the symbol and whether it is positive.
// Assets priced at zero or missing are treated as unpriced.
func (p PriceContext) Price(symbol string) (decimal.Decimal, bool) {
	price, ok := p[symbol]
	if !ok || !price.IsPositive() {
		return decimal.Decimal{}, false
	}
	return price, true
}

// Snapshot is the portfolio state at one point in time: a cash balance and
// per-asset quantities. Snapshots are value types and never mutated in place;
// each pipeline run derives a fresh one from the ledger and builds a new one
// for persistence.
type Snapshot struct {
	Cash     decimal.Decimal
	Holdings map[string]decimal.Decimal
}

// NewSnapshot builds a snapshot, copying the holdings map.
func NewSnapshot(cash decimal.Decimal, holdings map[string]decimal.Decimal) Snapshot {
	h := make(map[string]decimal.Decimal, len(holdings))
	for sym, qty := range holdings {
		h[sym] = qty
	}
	return Snapshot{Cash: cash, Holdings: h}
}

// BootstrapSnapshot returns the fixed initial state: the configured cash
// balance and zero of every tracked asset.
func BootstrapSnapshot(cash decimal.Decimal, assets []string) Snapshot {
	holdings := make(map[string]decimal.Decimal, len(assets))
	for _, sym := range assets {
		holdings[sym] = decimal.Zero
	}
	return Snapshot{Cash: cash, Holdings: holdings}
}

// Quantity returns the held quantity for the symbol, zero if untracked.
func (s Snapshot) Quantity(symbol string) decimal.Decimal {
	return s.Holdings[symbol]
}

// TotalValue computes cash plus the quote value of every priced holding.
// Holdings without a positive price contribute nothing; callers that need
// a trustworthy valuation must check HeldUnpriced first.
func (s Snapshot) TotalValue(prices PriceContext) decimal.Decimal {
	total := s.Cash
	for sym, qty := range s.Holdings {
		price, ok := prices.Price(sym)
		if !ok {
			continue
		}
		total = total.Add(qty.Mul(price))
	}
	return total
}

// HeldUnpriced returns the symbols with a positive quantity but no positive
// price in the context. A non-empty result means TotalValue would undervalue
// the portfolio.
func (s Snapshot) HeldUnpriced(prices PriceContext) []string {
	var missing []string
	for sym, qty := range s.Holdings {
		if !qty.IsPositive() {
			continue
		}
		if _, ok := prices.Price(sym); !ok {
			missing = append(missing, sym)
		}
	}
	return missing
}

// Validate checks the snapshot invariant: cash and every quantity are
// non-negative.
func (s Snapshot) Validate() error {
	if s.Cash.IsNegative() {
		return fmt.Errorf("negative cash balance: %s", s.Cash)
	}
	for sym, qty := range s.Holdings {
		if qty.IsNegative() {
			return fmt.Errorf("negative quantity for %s: %s", sym, qty)
		}
	}
	return nil
}
