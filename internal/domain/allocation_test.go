package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testAssets = []string{"BTC", "ETH", "SOL"}

func TestParseAllocationPlainJSON(t *testing.T) {
	raw := `{"BTC": 6000, "ETH": 1000, "SOL": 0, "cash": 3000}`

	alloc, err := ParseAllocation(raw, testAssets)
	require.NoError(t, err)

	require.True(t, alloc["BTC"].Equal(decimal.NewFromInt(6000)))
	require.True(t, alloc["ETH"].Equal(decimal.NewFromInt(1000)))
	require.True(t, alloc["SOL"].IsZero())
	require.True(t, alloc[CashKey].Equal(decimal.NewFromInt(3000)))
}

func TestParseAllocationStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"BTC\": 5000, \"ETH\": 2000, \"SOL\": 0, \"cash\": 3000}\n```"

	alloc, err := ParseAllocation(raw, testAssets)
	require.NoError(t, err)
	require.True(t, alloc["BTC"].Equal(decimal.NewFromInt(5000)))
	require.True(t, alloc[CashKey].Equal(decimal.NewFromInt(3000)))
}

func TestParseAllocationExtractsObjectFromProse(t *testing.T) {
	raw := "Based on the current market conditions I propose:\n" +
		`{"BTC": 4000, "ETH": 3000, "SOL": 1000, "cash": 2000}` +
		"\nThis keeps some dry powder."

	alloc, err := ParseAllocation(raw, testAssets)
	require.NoError(t, err)
	require.True(t, alloc["SOL"].Equal(decimal.NewFromInt(1000)))
}

func TestParseAllocationMissingAssetsDefaultToZero(t *testing.T) {
	raw := `{"BTC": 9000, "cash": 1000}`

	alloc, err := ParseAllocation(raw, testAssets)
	require.NoError(t, err)
	require.True(t, alloc["ETH"].IsZero())
	require.True(t, alloc["SOL"].IsZero())
}

func TestParseAllocationCoercesNoisyValues(t *testing.T) {
	raw := `{"BTC": "6,000", "ETH": "$1000", "SOL": "plenty", "cash": 3000}`

	alloc, err := ParseAllocation(raw, testAssets)
	require.NoError(t, err)

	require.True(t, alloc["BTC"].Equal(decimal.NewFromInt(6000)), "got %s", alloc["BTC"])
	require.True(t, alloc["ETH"].Equal(decimal.NewFromInt(1000)), "got %s", alloc["ETH"])
	require.True(t, alloc["SOL"].IsZero(), "unparseable value must coerce to zero")
}

func TestParseAllocationCaseInsensitiveKeys(t *testing.T) {
	raw := `{"btc": 7000, "CASH": 3000}`

	alloc, err := ParseAllocation(raw, testAssets)
	require.NoError(t, err)
	require.True(t, alloc["BTC"].Equal(decimal.NewFromInt(7000)))
	require.True(t, alloc[CashKey].Equal(decimal.NewFromInt(3000)))
}

func TestParseAllocationNoJSONObject(t *testing.T) {
	_, err := ParseAllocation("I cannot make a decision right now.", testAssets)
	require.Error(t, err)

	_, err = ParseAllocation("", testAssets)
	require.Error(t, err)

	_, err = ParseAllocation(`[1, 2, 3]`, testAssets)
	require.Error(t, err)
}

func TestParseAllocationNestedBracesInStrings(t *testing.T) {
	raw := `{"BTC": 5000, "ETH": 0, "SOL": 0, "cash": 5000, "note": "keep {50%} liquid"}`

	alloc, err := ParseAllocation(raw, testAssets)
	require.NoError(t, err)
	require.True(t, alloc["BTC"].Equal(decimal.NewFromInt(5000)))
}
