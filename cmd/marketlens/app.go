package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"MarketLens/internal/collector"
	"MarketLens/internal/config"
	"MarketLens/internal/logger"
	"MarketLens/internal/model"
	"MarketLens/internal/notifier"
	"MarketLens/internal/recorder"
)

// app holds what every subcommand needs.
type app struct {
	cfg      *config.Config
	fetcher  collector.Fetcher
	recorder recorder.Recorder
	registry *prometheus.Registry
}

func loadApp() (*app, error) {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	if err := logger.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("provider", fetcher.Name()).Msg("data source ready")

	reg := prometheus.NewRegistry()
	rec, err := recorder.NewPrometheusRecorder(reg)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return &app{cfg: cfg, fetcher: fetcher, recorder: rec, registry: reg}, nil
}

func newFetcher(cfg *config.Config) (collector.Fetcher, error) {
	ds := cfg.DataSource
	switch ds.Provider {
	case "yahoo":
		return collector.NewYahooFetcher(ds.BaseURL, cfg.Proxy, ds.RateLimit), nil
	case "rest":
		return collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy), nil
	case "mock":
		return &collector.MockFetcher{}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", ds.Provider)
	}
}

func (a *app) telegram() (*notifier.TelegramNotifier, error) {
	if !a.cfg.TelegramEnabled() {
		return nil, errors.New("telegram.bot_token and telegram.chat_id are required")
	}
	return notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy), nil
}

func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}

// exitStatus reports a pipeline error and picks the exit status for it.
func exitStatus(err error) subcommands.ExitStatus {
	var (
		invalid      *model.InvalidRangeError
		insufficient *model.InsufficientDataError
	)
	switch {
	case errors.As(err, &invalid):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	case errors.As(err, &insufficient):
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return subcommands.ExitFailure
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
}
