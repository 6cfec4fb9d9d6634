// Package ledger persists portfolio state as an append-only CSV file.
// The ledger is the single source of truth between runs: the current
// snapshot is always the last row, and append is the only mutation the file
// ever undergoes. The column layout is derived from the configured asset
// list, so the file schema follows configuration rather than a fixed struct.
package ledger

import (
	"encoding/csv"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/folio/internal/domain"
	"go.uber.org/zap"
)

const timestampLayout = time.RFC3339

// Ledger reads and appends portfolio log records.
//
// Precondition: the ledger must never be used by two concurrent runs against
// the same file. LoadLatest-then-Append is a read-modify-append with no
// locking; serialization is enforced by the supervisor, which runs one
// pipeline at a time.
type Ledger struct {
	path          string
	assets        []string
	bootstrapCash decimal.Decimal
	logger        *zap.Logger
}

// New creates a ledger over the CSV file at path for the given tracked
// assets. bootstrapCash seeds the snapshot returned when the file is missing
// or unusable.
func New(path string, assets []string, bootstrapCash decimal.Decimal, logger *zap.Logger) *Ledger {
	return &Ledger{
		path:          path,
		assets:        append([]string(nil), assets...),
		bootstrapCash: bootstrapCash,
		logger:        logger,
	}
}

// header returns the fixed column order:
// timestamp, total_value, <asset>_holding..., cash_value, <asset>_price...
func (l *Ledger) header() []string {
	cols := make([]string, 0, 3+2*len(l.assets))
	cols = append(cols, "timestamp", "total_value")
	for _, sym := range l.assets {
		cols = append(cols, sym+"_holding")
	}
	cols = append(cols, "cash_value")
	for _, sym := range l.assets {
		cols = append(cols, sym+"_price")
	}
	return cols
}

// bootstrap returns the configured initial snapshot.
func (l *Ledger) bootstrap() domain.Snapshot {
	return domain.BootstrapSnapshot(l.bootstrapCash, l.assets)
}

// LoadLatest derives the current snapshot from the last ledger row.
// A missing, unreadable, or structurally empty file is a recoverable
// condition and yields the bootstrap snapshot with a warning. A present but
// malformed last row yields the same fallback, logged as an error; a single
// bad field discards the whole row, never a partial snapshot.
func (l *Ledger) LoadLatest() domain.Snapshot {
	f, err := os.Open(l.path)
	if err != nil {
		l.logger.Warn("ledger not readable, starting from bootstrap state",
			zap.String("path", l.path), zap.Error(err))
		return l.bootstrap()
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var last []string
	rows := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			l.logger.Error("ledger is corrupt, starting from bootstrap state",
				zap.String("path", l.path), zap.Error(err))
			return l.bootstrap()
		}
		rows++
		last = row
	}

	if rows < 2 {
		l.logger.Warn("ledger has no records, starting from bootstrap state",
			zap.String("path", l.path))
		return l.bootstrap()
	}

	snap, err := l.parseRow(last)
	if err != nil {
		l.logger.Error("last ledger record is malformed, starting from bootstrap state",
			zap.String("path", l.path), zap.Error(err))
		return l.bootstrap()
	}

	return snap
}

// parseRow decodes one data row into a snapshot, validating the invariant
// that every quantity is a non-negative number.
func (l *Ledger) parseRow(row []string) (domain.Snapshot, error) {
	expected := 3 + 2*len(l.assets)
	if len(row) != expected {
		return domain.Snapshot{}, errors.Errorf("expected %d fields, got %d", expected, len(row))
	}

	holdings := make(map[string]decimal.Decimal, len(l.assets))
	for i, sym := range l.assets {
		qty, err := decimal.NewFromString(row[2+i])
		if err != nil {
			return domain.Snapshot{}, errors.Wrapf(err, "holding field for %s", sym)
		}
		holdings[sym] = qty
	}

	cash, err := decimal.NewFromString(row[2+len(l.assets)])
	if err != nil {
		return domain.Snapshot{}, errors.Wrap(err, "cash field")
	}

	snap := domain.Snapshot{Cash: cash, Holdings: holdings}
	if err := snap.Validate(); err != nil {
		return domain.Snapshot{}, err
	}

	return snap, nil
}

// Append commits one record as a new row, creating the file and writing the
// header first if the ledger does not exist yet. Prior rows are never
// touched. Any I/O failure is returned to the caller; the record is then
// considered lost and the next run re-derives state from the last good row.
func (l *Ledger) Append(rec domain.LogRecord) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open ledger for append")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "stat ledger")
	}

	writer := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := writer.Write(l.header()); err != nil {
			return errors.Wrap(err, "write ledger header")
		}
	}

	if err := writer.Write(l.formatRow(rec)); err != nil {
		return errors.Wrap(err, "write ledger record")
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, "flush ledger record")
	}

	if err := f.Sync(); err != nil {
		return errors.Wrap(err, "sync ledger")
	}

	return nil
}

func (l *Ledger) formatRow(rec domain.LogRecord) []string {
	row := make([]string, 0, 3+2*len(l.assets))
	row = append(row, rec.Timestamp.UTC().Format(timestampLayout), rec.TotalValue.String())
	for _, sym := range l.assets {
		row = append(row, rec.Holdings.Quantity(sym).String())
	}
	row = append(row, rec.Holdings.Cash.String())
	for _, sym := range l.assets {
		row = append(row, rec.Prices[sym].String())
	}
	return row
}
