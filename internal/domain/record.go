package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LogRecord is one immutable entry of the portfolio ledger: the snapshot
// committed by a run, the prices used to produce it, and the portfolio value
// at commit time. TotalValue is redundant with Holdings+Prices and is kept
// for audit and display only; it is never read back as authoritative state.
type LogRecord struct {
	Timestamp  time.Time
	TotalValue decimal.Decimal
	Holdings   Snapshot
	Prices     PriceContext
}

// DecisionEvent captures one oracle round trip for the audit trail.
type DecisionEvent struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"ts"`
	Model     string    `json:"model,omitempty"`
	Response  string    `json:"response"`
	Outcome   string    `json:"outcome"`
}
