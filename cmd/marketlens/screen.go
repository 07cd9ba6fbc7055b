package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"

	"MarketLens/internal/pipeline"
	"MarketLens/internal/render"
)

type screenCmd struct {
	tickers  string
	start    string
	end      string
	charts   string
	telegram bool
}

func (*screenCmd) Name() string     { return "screen" }
func (*screenCmd) Synopsis() string { return "rank tickers by annualized return over volatility" }
func (*screenCmd) Usage() string {
	return `marketlens screen [-tickers AAPL,MSFT] [-start 2023-01-01] [-end <date>] [-charts dir] [-telegram]

  Downloads daily prices, computes annualized return, volatility and their
  ratio per ticker, and prints the ranked table.
`
}

func (c *screenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tickers, "tickers", "", "Comma-separated tickers (defaults to screener.default_tickers)")
	f.StringVar(&c.start, "start", "", "Start date, inclusive (defaults to screener.default_start)")
	f.StringVar(&c.end, "end", "", "End date, exclusive (defaults to today)")
	f.StringVar(&c.charts, "charts", "", "Directory to write the PNG charts to")
	f.BoolVar(&c.telegram, "telegram", false, "Send the report to Telegram")
}

func (c *screenCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	tickers := c.tickers
	if tickers == "" {
		tickers = a.cfg.Screener.DefaultTickers
	}
	startStr := c.start
	if startStr == "" {
		startStr = a.cfg.Screener.DefaultStart
	}
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -start: %v\n", err)
		return subcommands.ExitUsageError
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	if c.end != "" {
		if end, err = time.Parse("2006-01-02", c.end); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -end: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	s := pipeline.NewScreener(a.fetcher, a.recorder, a.cfg.Screener.PeriodsPerYear)
	res, err := s.Run(ctx, pipeline.ParseTickers(tickers), start, end)
	if err != nil {
		return exitStatus(err)
	}

	md := render.ScreenerMarkdown(res)
	printMarkdown(md)

	var charts []render.Chart
	if c.charts != "" || c.telegram {
		if charts, err = render.ScreenerCharts(res); err != nil {
			return exitStatus(err)
		}
	}
	if c.charts != "" {
		if err := writeCharts(c.charts, charts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	if c.telegram {
		tn, err := a.telegram()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		if err := tn.SendWithRetry(ctx, md, 3); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		for _, ch := range charts {
			if err := tn.SendPhotoWithRetry(ctx, ch.Title, ch.PNG, 3); err != nil {
				log.Warn().Err(err).Str("chart", ch.Name).Msg("send chart failed")
			}
		}
	}
	return subcommands.ExitSuccess
}

func writeCharts(dir string, charts []render.Chart) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	for _, ch := range charts {
		p := filepath.Join(dir, ch.Name+".png")
		if err := os.WriteFile(p, ch.PNG, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", p, err)
		}
		log.Info().Str("path", p).Msg("chart written")
	}
	return nil
}
