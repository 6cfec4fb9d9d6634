// Package config loads runtime configuration from a YAML file, with
// API credentials taken from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the YAML file omits a field.
var (
	defaultAssets        = []string{"BTC", "ETH", "SOL"}
	defaultBootstrapCash = decimal.NewFromInt(10000)
)

const (
	defaultQuote          = "USDT"
	defaultLedgerPath     = "portfolio_log.csv"
	defaultDecisionWALDir = "./wal/decisions"
	defaultRunInterval    = 16 * time.Minute
	defaultRunTimeout     = 5 * time.Minute
	defaultKlineInterval  = "15m"
	defaultLookback       = 96 // 24h of 15m candles
	defaultLLMAPIURL      = "https://openrouter.ai/api/v1/chat/completions"
	defaultModel          = "deepseek/deepseek-chat-v3.1"
)

// Config holds everything one rebalancer instance needs.
type Config struct {
	Platform       string
	Assets         []string
	Quote          string
	LedgerPath     string
	DecisionWALDir string
	BootstrapCash  decimal.Decimal
	RunInterval    time.Duration
	RunTimeout     time.Duration
	KlineInterval  string
	Lookback       int
	LLMAPIURL      string
	LLMAPIKey      string
	Model          string
}

type configTmp struct {
	Platform         string   `yaml:"platform"`
	Assets           []string `yaml:"assets,omitempty"`
	Quote            string   `yaml:"quote,omitempty"`
	LedgerPath       string   `yaml:"ledger_path,omitempty"`
	DecisionWALDir   string   `yaml:"decision_wal_dir,omitempty"`
	BootstrapCashStr string   `yaml:"bootstrap_cash,omitempty"`
	RunIntervalStr   string   `yaml:"run_interval,omitempty"`
	RunTimeoutStr    string   `yaml:"run_timeout,omitempty"`
	KlineInterval    string   `yaml:"kline_interval,omitempty"`
	Lookback         int      `yaml:"lookback_periods,omitempty"`
	LLMAPIURL        string   `yaml:"llm_api_url,omitempty"`
	Model            string   `yaml:"model,omitempty"`
}

func parseDuration(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("incorrect '%s' param in yaml config (must be a duration like 16m): %w", name, err)
	}
	return d, nil
}

// Get reads the YAML config at path and fills defaults. The LLM API key is
// read from the LLM_API_KEY environment variable, never from the file.
func Get(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	runInterval, err := parseDuration("run_interval", tmp.RunIntervalStr)
	if err != nil {
		return Config{}, err
	}
	runTimeout, err := parseDuration("run_timeout", tmp.RunTimeoutStr)
	if err != nil {
		return Config{}, err
	}

	conf := Config{
		Platform:       strings.ToLower(strings.TrimSpace(tmp.Platform)),
		Assets:         tmp.Assets,
		Quote:          tmp.Quote,
		LedgerPath:     tmp.LedgerPath,
		DecisionWALDir: tmp.DecisionWALDir,
		BootstrapCash:  defaultBootstrapCash,
		RunInterval:    runInterval,
		RunTimeout:     runTimeout,
		KlineInterval:  tmp.KlineInterval,
		Lookback:       tmp.Lookback,
		LLMAPIURL:      tmp.LLMAPIURL,
		LLMAPIKey:      os.Getenv("LLM_API_KEY"),
		Model:          tmp.Model,
	}

	if tmp.BootstrapCashStr != "" {
		cash, err := decimal.NewFromString(tmp.BootstrapCashStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'bootstrap_cash' param in yaml config (must be a decimal): %w", err)
		}
		if cash.IsNegative() {
			return Config{}, fmt.Errorf("'bootstrap_cash' must be non-negative, got %s", cash)
		}
		conf.BootstrapCash = cash
	}

	applyDefaults(&conf)

	if err := validate(conf); err != nil {
		return Config{}, err
	}

	return conf, nil
}

func applyDefaults(conf *Config) {
	if len(conf.Assets) == 0 {
		conf.Assets = append([]string(nil), defaultAssets...)
	}
	for i, sym := range conf.Assets {
		conf.Assets[i] = strings.ToUpper(strings.TrimSpace(sym))
	}
	if conf.Quote == "" {
		conf.Quote = defaultQuote
	}
	if conf.LedgerPath == "" {
		conf.LedgerPath = defaultLedgerPath
	}
	if conf.DecisionWALDir == "" {
		conf.DecisionWALDir = defaultDecisionWALDir
	}
	if conf.RunInterval == 0 {
		conf.RunInterval = defaultRunInterval
	}
	if conf.RunTimeout == 0 {
		conf.RunTimeout = defaultRunTimeout
	}
	if conf.KlineInterval == "" {
		conf.KlineInterval = defaultKlineInterval
	}
	if conf.Lookback == 0 {
		conf.Lookback = defaultLookback
	}
	if conf.LLMAPIURL == "" {
		conf.LLMAPIURL = defaultLLMAPIURL
	}
	if conf.Model == "" {
		conf.Model = defaultModel
	}
}

func validate(conf Config) error {
	switch conf.Platform {
	case "binance", "bybit", "hyperliquid":
	default:
		return fmt.Errorf("unsupported platform: %q (expected binance, bybit or hyperliquid)", conf.Platform)
	}

	seen := make(map[string]struct{}, len(conf.Assets))
	for _, sym := range conf.Assets {
		if sym == "" {
			return fmt.Errorf("empty asset symbol in config")
		}
		if _, dup := seen[sym]; dup {
			return fmt.Errorf("duplicate asset symbol in config: %s", sym)
		}
		seen[sym] = struct{}{}
	}

	if conf.RunTimeout >= conf.RunInterval {
		return fmt.Errorf("run_timeout (%s) must be shorter than run_interval (%s)", conf.RunTimeout, conf.RunInterval)
	}
	if conf.Lookback < 0 {
		return fmt.Errorf("lookback_periods must be non-negative, got %d", conf.Lookback)
	}

	return nil
}
