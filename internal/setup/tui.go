// Package setup provides the interactive terminal configuration wizard.
package setup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

type wizardConfig struct {
	Platform      string   `yaml:"platform"`
	Assets        []string `yaml:"assets"`
	Quote         string   `yaml:"quote"`
	LedgerPath    string   `yaml:"ledger_path"`
	BootstrapCash string   `yaml:"bootstrap_cash"`
	RunInterval   string   `yaml:"run_interval"`
	RunTimeout    string   `yaml:"run_timeout"`
	KlineInterval string   `yaml:"kline_interval"`
	LLMAPIURL     string   `yaml:"llm_api_url"`
	Model         string   `yaml:"model"`
}

// RunTUI launches the terminal configuration wizard and writes config.yaml.
func RunTUI() error {
	var (
		platform      string
		assetsStr     string
		quote         string
		ledgerPath    string
		cashStr       string
		intervalStr   string
		timeoutStr    string
		klineInterval string
		apiURL        string
		model         string
		confirm       bool
	)

	// defaults
	assetsStr = "BTC, ETH, SOL"
	quote = "USDT"
	ledgerPath = "portfolio_log.csv"
	cashStr = "10000"
	intervalStr = "16m"
	timeoutStr = "5m"
	klineInterval = "15m"
	apiURL = "https://openrouter.ai/api/v1/chat/completions"
	model = "deepseek/deepseek-chat-v3.1"

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FOLIO CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Set up your rebalancer in a few steps.\n"))

	fmt.Println(stepStyle.Render("STEP 1: PLATFORM"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Market Data Platform").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Hyperliquid", "hyperliquid"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FOLIO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: PORTFOLIO"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Tracked Assets").
				Description("Comma-separated base symbols (e.g. BTC, ETH, SOL)").
				Value(&assetsStr).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("asset list cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Quote Currency").
				Description("Currency assets are priced in (e.g. USDT)").
				Value(&quote),
			huh.NewInput().
				Title("Bootstrap Cash").
				Description("Initial cash balance when the ledger is empty").
				Value(&cashStr).
				Validate(func(s string) error {
					v, err := decimal.NewFromString(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("must be a decimal number")
					}
					if v.IsNegative() {
						return fmt.Errorf("must be non-negative")
					}
					return nil
				}),
			huh.NewInput().
				Title("Ledger Path").
				Description("Append-only CSV file for portfolio history").
				Value(&ledgerPath),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FOLIO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: TIMING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Run Interval").
				Description("How often to run the pipeline (e.g. 16m)").
				Value(&intervalStr).
				Validate(validateDuration),
			huh.NewInput().
				Title("Run Timeout").
				Description("Hard per-run deadline, shorter than the interval (e.g. 5m)").
				Value(&timeoutStr).
				Validate(validateDuration),
			huh.NewInput().
				Title("Kline Interval").
				Description("Candle size for market history (e.g. 15m)").
				Value(&klineInterval),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FOLIO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: ORACLE"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("LLM API URL").
				Value(&apiURL),
			huh.NewInput().
				Title("Model Name").
				Value(&model),
			huh.NewNote().
				Title("API Key").
				Description("Set the LLM_API_KEY environment variable before running; keys are not stored in config.yaml."),
		),
	).Run()
	if err != nil {
		return err
	}

	assets := splitAssets(assetsStr)

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FOLIO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 5: CONFIRM"))
	summary := fmt.Sprintf("platform: %s\nassets: %s\nquote: %s\nledger: %s\ncash: %s\nevery: %s (timeout %s)\nmodel: %s",
		platform, strings.Join(assets, ", "), quote, ledgerPath, cashStr, intervalStr, timeoutStr, model)
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Write config.yaml?").
				Description(summary).
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		fmt.Println("Aborted, nothing written.")
		return nil
	}

	out, err := yaml.Marshal(wizardConfig{
		Platform:      platform,
		Assets:        assets,
		Quote:         strings.ToUpper(strings.TrimSpace(quote)),
		LedgerPath:    ledgerPath,
		BootstrapCash: strings.TrimSpace(cashStr),
		RunInterval:   intervalStr,
		RunTimeout:    timeoutStr,
		KlineInterval: klineInterval,
		LLMAPIURL:     apiURL,
		Model:         model,
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile("config.yaml", out, 0o644); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render("\nconfig.yaml written. Run: folio --config config.yaml"))
	return nil
}

func validateDuration(s string) error {
	_, err := time.ParseDuration(s)
	return err
}

func splitAssets(s string) []string {
	parts := strings.Split(s, ",")
	assets := make([]string, 0, len(parts))
	for _, p := range parts {
		sym := strings.ToUpper(strings.TrimSpace(p))
		if sym != "" {
			assets = append(assets, sym)
		}
	}
	return assets
}
