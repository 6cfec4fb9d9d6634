package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/folio/internal/domain"
	"github.com/vadiminshakov/folio/internal/services/market/collector"
	"github.com/vadiminshakov/folio/internal/services/promptbuilder"
	"github.com/vadiminshakov/folio/internal/services/rebalance"
	"go.uber.org/zap"
)

// Outcome is the terminal state of one pipeline run.
type Outcome string

const (
	// OutcomeSucceeded means a new record was appended to the ledger.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeSkippedNoData means no usable market data arrived; the prior
	// state stays authoritative.
	OutcomeSkippedNoData Outcome = "skipped_no_data"
	// OutcomeSkippedInvalidDecision means the oracle proposal was
	// directionless (zero-sum); the prior state stays authoritative.
	OutcomeSkippedInvalidDecision Outcome = "skipped_invalid_decision"
	// OutcomeFailed means a collaborator or persistence failure; nothing
	// was committed.
	OutcomeFailed Outcome = "failed"
)

type oracle interface {
	Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type marketCollector interface {
	Collect(ctx context.Context) (*collector.MarketSnapshot, error)
}

type stateStore interface {
	LoadLatest() domain.Snapshot
	Append(rec domain.LogRecord) error
}

type decisionAuditor interface {
	Save(event domain.DecisionEvent) error
}

// Pipeline runs one complete decision cycle: derive state, collect market
// data, ask the oracle, reconcile, convert, persist. Every non-succeeded
// outcome leaves the ledger exactly as it was; nothing is ever partially
// committed, so an abrupt kill mid-run is always safe.
//
// Pipeline is not safe for concurrent runs against the same ledger; the
// supervisor must serialize invocations.
type Pipeline struct {
	assets    []string
	store     stateStore
	collector marketCollector
	oracle    oracle
	prompts   *promptbuilder.PromptBuilder
	audit     decisionAuditor
	model     string
	logger    *zap.Logger
}

// NewPipeline wires the pipeline from its collaborators. audit may be nil;
// the audit trail is best effort and never affects the run outcome.
func NewPipeline(
	assets []string,
	store stateStore,
	marketData marketCollector,
	oracleClient oracle,
	prompts *promptbuilder.PromptBuilder,
	audit decisionAuditor,
	model string,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		assets:    append([]string(nil), assets...),
		store:     store,
		collector: marketData,
		oracle:    oracleClient,
		prompts:   prompts,
		audit:     audit,
		model:     model,
		logger:    logger,
	}
}

// Run executes one decision cycle and returns its terminal outcome.
// Skips are expected operating conditions and return a nil error; only
// OutcomeFailed carries the underlying error.
func (p *Pipeline) Run(ctx context.Context) (Outcome, error) {
	runID := uuid.New().String()
	logger := p.logger.With(zap.String("run_id", runID))

	snap := p.store.LoadLatest()

	market, err := p.collector.Collect(ctx)
	if err != nil {
		logger.Warn("no market data, skipping run", zap.Error(err))
		return OutcomeSkippedNoData, nil
	}

	if missing := snap.HeldUnpriced(market.Prices); len(missing) > 0 {
		// valuing held assets with stale or absent prices would let the
		// run silently destroy value, so it does not act at all
		logger.Warn("held assets have no price this round, skipping run",
			zap.Strings("assets", missing))
		return OutcomeSkippedNoData, nil
	}

	totalValue := snap.TotalValue(market.Prices)
	logger.Info("portfolio valued",
		zap.String("total_value", totalValue.StringFixed(2)),
		zap.Int("priced_assets", len(market.Prices)))

	response, err := p.oracle.Chat(ctx, promptbuilder.SystemPrompt(p.assets), p.prompts.BuildUserPrompt(snap, totalValue, market))
	if err != nil {
		logger.Error("oracle call failed", zap.Error(err))
		return OutcomeFailed, errors.Wrap(err, "oracle call failed")
	}

	outcome, err := p.decideAndCommit(logger, market, totalValue, response)

	p.recordAudit(logger, runID, response, outcome)

	return outcome, err
}

// decideAndCommit runs the reconciliation core on the oracle response.
func (p *Pipeline) decideAndCommit(
	logger *zap.Logger,
	market *collector.MarketSnapshot,
	total decimal.Decimal,
	response string,
) (Outcome, error) {
	raw, err := domain.ParseAllocation(response, p.assets)
	if err != nil {
		logger.Error("oracle response is not a usable allocation",
			zap.Error(err), zap.String("response", response))
		return OutcomeFailed, errors.Wrap(err, "parse oracle response")
	}

	normalized, err := rebalance.Normalize(raw, total)
	if err != nil {
		if errors.Is(err, rebalance.ErrInvalidDecision) {
			// "hold" is the safe default: the prior snapshot stays
			// authoritative for the next run
			logger.Warn("zero-sum proposal, holding current position")
			return OutcomeSkippedInvalidDecision, nil
		}
		return OutcomeFailed, errors.Wrap(err, "normalize allocation")
	}

	next, err := rebalance.ToSnapshot(normalized, market.Prices)
	if err != nil {
		logger.Error("cannot convert allocation to holdings", zap.Error(err))
		return OutcomeFailed, errors.Wrap(err, "convert allocation")
	}

	record := domain.LogRecord{
		Timestamp:  time.Now(),
		TotalValue: total,
		Holdings:   next,
		Prices:     market.Prices,
	}

	if err := p.store.Append(record); err != nil {
		// the in-memory snapshot is discarded, never retried: the next
		// run re-derives state from the last good ledger row
		logger.Error("ledger append failed", zap.Error(err))
		return OutcomeFailed, errors.Wrap(err, "append ledger record")
	}

	logger.Info("rebalance committed",
		zap.String("total_value", total.StringFixed(2)),
		zap.String("cash", next.Cash.StringFixed(2)))

	return OutcomeSucceeded, nil
}

func (p *Pipeline) recordAudit(logger *zap.Logger, runID, response string, outcome Outcome) {
	if p.audit == nil {
		return
	}

	event := domain.DecisionEvent{
		RunID:     runID,
		Timestamp: time.Now(),
		Model:     p.model,
		Response:  response,
		Outcome:   string(outcome),
	}
	if err := p.audit.Save(event); err != nil {
		logger.Warn("failed to record decision audit event", zap.Error(err))
	}
}
