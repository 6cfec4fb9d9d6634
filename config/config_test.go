package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "platform: binance\n")

	conf, err := Get(path)
	require.NoError(t, err)

	require.Equal(t, "binance", conf.Platform)
	require.Equal(t, []string{"BTC", "ETH", "SOL"}, conf.Assets)
	require.Equal(t, "USDT", conf.Quote)
	require.Equal(t, "portfolio_log.csv", conf.LedgerPath)
	require.Equal(t, 16*time.Minute, conf.RunInterval)
	require.Equal(t, 5*time.Minute, conf.RunTimeout)
	require.Equal(t, "15m", conf.KlineInterval)
	require.Equal(t, 96, conf.Lookback)
	require.True(t, conf.BootstrapCash.Equal(decimal.NewFromInt(10000)))
}

func TestGetParsesFullConfig(t *testing.T) {
	path := writeConfig(t, `platform: bybit
assets: [btc, eth]
quote: USDC
ledger_path: /tmp/ledger.csv
bootstrap_cash: "2500.50"
run_interval: 30m
run_timeout: 10m
kline_interval: 1h
lookback_periods: 48
model: some/model
`)

	conf, err := Get(path)
	require.NoError(t, err)

	require.Equal(t, "bybit", conf.Platform)
	require.Equal(t, []string{"BTC", "ETH"}, conf.Assets, "symbols are upper-cased")
	require.Equal(t, "USDC", conf.Quote)
	require.True(t, conf.BootstrapCash.Equal(decimal.RequireFromString("2500.50")))
	require.Equal(t, 30*time.Minute, conf.RunInterval)
	require.Equal(t, 10*time.Minute, conf.RunTimeout)
	require.Equal(t, "1h", conf.KlineInterval)
	require.Equal(t, 48, conf.Lookback)
	require.Equal(t, "some/model", conf.Model)
}

func TestGetAPIKeyComesFromEnvironment(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-test-key")
	path := writeConfig(t, "platform: binance\n")

	conf, err := Get(path)
	require.NoError(t, err)
	require.Equal(t, "sk-test-key", conf.LLMAPIKey)
}

func TestGetRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"unknown platform", "platform: kraken\n"},
		{"missing platform", "assets: [BTC]\n"},
		{"duplicate assets", "platform: binance\nassets: [BTC, btc]\n"},
		{"bad duration", "platform: binance\nrun_interval: soon\n"},
		{"timeout not shorter than interval", "platform: binance\nrun_interval: 5m\nrun_timeout: 5m\n"},
		{"negative bootstrap cash", "platform: binance\nbootstrap_cash: \"-100\"\n"},
		{"negative lookback", "platform: binance\nlookback_periods: -5\n"},
		{"non-decimal bootstrap cash", "platform: binance\nbootstrap_cash: lots\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Get(writeConfig(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestGetMissingFile(t *testing.T) {
	_, err := Get(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
