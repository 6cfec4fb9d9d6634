package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/folio/internal/domain"
	"go.uber.org/zap"
)

var testAssets = []string{"BTC", "ETH", "SOL"}

func newTestLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio_log.csv")
	return New(path, testAssets, decimal.NewFromInt(10000), zap.NewNop()), path
}

func testRecord(cash string) domain.LogRecord {
	holdings := domain.Snapshot{
		Cash: decimal.RequireFromString(cash),
		Holdings: map[string]decimal.Decimal{
			"BTC": decimal.RequireFromString("0.1"),
			"ETH": decimal.RequireFromString("0.5"),
			"SOL": decimal.Zero,
		},
	}
	prices := domain.PriceContext{
		"BTC": decimal.NewFromInt(60000),
		"ETH": decimal.NewFromInt(3000),
		"SOL": decimal.NewFromInt(150),
	}
	return domain.LogRecord{
		Timestamp:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		TotalValue: holdings.TotalValue(prices),
		Holdings:   holdings,
		Prices:     prices,
	}
}

func TestLoadLatestMissingFileReturnsBootstrap(t *testing.T) {
	l, _ := newTestLedger(t)

	// repeated calls must return the exact same bootstrap state
	for i := 0; i < 3; i++ {
		snap := l.LoadLatest()
		require.True(t, snap.Cash.Equal(decimal.NewFromInt(10000)))
		require.Len(t, snap.Holdings, len(testAssets))
		for _, sym := range testAssets {
			require.True(t, snap.Quantity(sym).IsZero())
		}
	}
}

func TestAppendCreatesFileWithHeaderOnce(t *testing.T) {
	l, path := newTestLedger(t)

	require.NoError(t, l.Append(testRecord("3000")))
	require.NoError(t, l.Append(testRecord("4000")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := splitLines(t, data)
	require.Len(t, lines, 3, "header plus two records")
	require.Equal(t,
		"timestamp,total_value,BTC_holding,ETH_holding,SOL_holding,cash_value,BTC_price,ETH_price,SOL_price",
		lines[0])
}

func TestAppendThenLoadLatestRoundTrip(t *testing.T) {
	l, _ := newTestLedger(t)

	rec := testRecord("3000")
	require.NoError(t, l.Append(rec))

	snap := l.LoadLatest()
	require.True(t, snap.Cash.Equal(rec.Holdings.Cash))
	for _, sym := range testAssets {
		require.True(t, snap.Quantity(sym).Equal(rec.Holdings.Quantity(sym)),
			"%s: got %s, want %s", sym, snap.Quantity(sym), rec.Holdings.Quantity(sym))
	}
}

func TestAppendOnlyGrowthKeepsPriorRecordsByteIdentical(t *testing.T) {
	l, path := newTestLedger(t)

	require.NoError(t, l.Append(testRecord("1000")))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, l.Append(testRecord("2000")))
	require.NoError(t, l.Append(testRecord("3000")))

	after, err := os.ReadFile(path)
	require.NoError(t, err)

	require.Equal(t, string(before), string(after[:len(before)]),
		"existing bytes must never be rewritten")
	require.Len(t, splitLines(t, after), 4)
}

func TestLoadLatestHeaderOnlyReturnsBootstrap(t *testing.T) {
	l, path := newTestLedger(t)

	require.NoError(t, os.WriteFile(path,
		[]byte("timestamp,total_value,BTC_holding,ETH_holding,SOL_holding,cash_value,BTC_price,ETH_price,SOL_price\n"), 0o644))

	snap := l.LoadLatest()
	require.True(t, snap.Cash.Equal(decimal.NewFromInt(10000)))
}

func TestLoadLatestMalformedLastRowReturnsBootstrap(t *testing.T) {
	cases := []struct {
		name string
		row  string
	}{
		{"non-numeric holding", "2026-05-01T12:00:00Z,10000,abc,0.5,0,3000,60000,3000,150"},
		{"missing fields", "2026-05-01T12:00:00Z,10000,0.1"},
		{"negative quantity", "2026-05-01T12:00:00Z,10000,-0.1,0.5,0,3000,60000,3000,150"},
		{"non-numeric cash", "2026-05-01T12:00:00Z,10000,0.1,0.5,0,oops,60000,3000,150"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, path := newTestLedger(t)
			content := "timestamp,total_value,BTC_holding,ETH_holding,SOL_holding,cash_value,BTC_price,ETH_price,SOL_price\n" +
				tc.row + "\n"
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			// a single bad field discards the whole row, no partial snapshot
			snap := l.LoadLatest()
			require.True(t, snap.Cash.Equal(decimal.NewFromInt(10000)))
			for _, sym := range testAssets {
				require.True(t, snap.Quantity(sym).IsZero())
			}
		})
	}
}

func TestLoadLatestReadsLastRecordOfMany(t *testing.T) {
	l, _ := newTestLedger(t)

	require.NoError(t, l.Append(testRecord("1111")))
	require.NoError(t, l.Append(testRecord("2222")))
	require.NoError(t, l.Append(testRecord("9999")))

	snap := l.LoadLatest()
	require.True(t, snap.Cash.Equal(decimal.NewFromInt(9999)))
}

func TestAppendToUnwritablePathFails(t *testing.T) {
	dir := t.TempDir()
	l := New(filepath.Join(dir, "missing", "portfolio_log.csv"), testAssets, decimal.NewFromInt(10000), zap.NewNop())

	require.Error(t, l.Append(testRecord("1000")))
}

func splitLines(t *testing.T, data []byte) []string {
	t.Helper()
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}
	return lines
}
