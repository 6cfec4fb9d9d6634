// Package rebalance reconciles an untrusted target allocation against the
// portfolio's real value and converts the result into asset quantities.
// The oracle is not trusted to do correct arithmetic or to know the true
// account size; only the relative shape of its allocation is preserved.
package rebalance

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/folio/internal/domain"
)

// ErrInvalidDecision marks a well-formed but directionless proposal
// (all targets zero). Callers must treat it as "hold the current position",
// never as "liquidate everything".
var ErrInvalidDecision = errors.New("invalid decision: zero-sum proposal")

// ErrUnpricedAsset marks a positive target value for an asset that has no
// positive price, making quantity conversion impossible.
var ErrUnpricedAsset = errors.New("unpriced asset")

// Tolerance is the relative numerical tolerance for value conservation:
// |sum(normalized) - totalValue| < Tolerance * totalValue.
var Tolerance = decimal.NewFromFloat(1e-6)

// Normalize rescales the raw allocation so its values sum exactly to
// totalValue. Negative fields are floored at zero first, then every field is
// multiplied by totalValue/requestedTotal. The rescale is uniform and linear:
// it keeps the oracle's relative preferences while forcing the absolute sum
// to match the real portfolio value, so no value can be created or destroyed.
func Normalize(raw domain.Allocation, totalValue decimal.Decimal) (domain.Allocation, error) {
	clamped := make(domain.Allocation, len(raw))
	for key, value := range raw {
		if value.IsNegative() {
			value = decimal.Zero
		}
		clamped[key] = value
	}

	requested := clamped.Total()
	if requested.IsZero() {
		return nil, ErrInvalidDecision
	}

	normalized := make(domain.Allocation, len(clamped))
	for key, value := range clamped {
		// multiply before dividing to keep precision on small fractions
		normalized[key] = value.Mul(totalValue).Div(requested)
	}

	return normalized, nil
}

// ToSnapshot converts a normalized USD-value allocation into a portfolio
// snapshot using current prices. The cash leg maps one-to-one to the cash
// balance; each risk asset's quantity is its target value divided by its
// price. A zero target is always satisfiable regardless of price
// availability; a positive target without a positive price fails with
// ErrUnpricedAsset.
func ToSnapshot(decision domain.Allocation, prices domain.PriceContext) (domain.Snapshot, error) {
	holdings := make(map[string]decimal.Decimal, len(decision))
	cash := decimal.Zero

	for key, value := range decision {
		if key == domain.CashKey {
			cash = value
			continue
		}

		if value.IsZero() {
			holdings[key] = decimal.Zero
			continue
		}

		price, ok := prices.Price(key)
		if !ok {
			return domain.Snapshot{}, errors.Wrapf(ErrUnpricedAsset, "%s has target value %s but no positive price", key, value)
		}

		holdings[key] = value.Div(price)
	}

	return domain.Snapshot{Cash: cash, Holdings: holdings}, nil
}

// WithinTolerance reports whether got is within the relative conservation
// tolerance of want.
func WithinTolerance(got, want decimal.Decimal) bool {
	diff := got.Sub(want).Abs()
	if want.IsZero() {
		return diff.IsZero()
	}
	return diff.LessThan(Tolerance.Mul(want.Abs()))
}
