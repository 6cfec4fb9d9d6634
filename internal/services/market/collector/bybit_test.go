package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConvertIntervalToBybit(t *testing.T) {
	cases := []struct {
		interval string
		want     string
	}{
		{"1m", "1"},
		{"5m", "5"},
		{"15m", "15"},
		{"1h", "60"},
		{"4h", "240"},
		{"1d", "D"},
	}

	for _, tc := range cases {
		t.Run(tc.interval, func(t *testing.T) {
			got, err := convertIntervalToBybit(tc.interval)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestConvertIntervalToBybitRejectsUnsupported(t *testing.T) {
	for _, interval := range []string{"", "1", "m", "1x", "1w", "2d"} {
		t.Run("invalid "+interval, func(t *testing.T) {
			_, err := convertIntervalToBybit(interval)
			require.Error(t, err)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := parseTimestamp("1672531200000")
	require.NoError(t, err)
	require.Equal(t, time.UnixMilli(1672531200000), got)

	_, err = parseTimestamp("")
	require.Error(t, err)
	_, err = parseTimestamp("abc")
	require.Error(t, err)
}
