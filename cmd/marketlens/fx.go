package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"

	"MarketLens/internal/model"
	"MarketLens/internal/pipeline"
	"MarketLens/internal/render"
)

type fxCmd struct {
	pair     string
	days     int
	chart    string
	telegram bool
}

func (*fxCmd) Name() string     { return "fx" }
func (*fxCmd) Synopsis() string { return "show a currency's HKD rate with its 30-day moving average" }
func (*fxCmd) Usage() string {
	return `marketlens fx [-pair USD|CNY|EUR|JPY] [-days 30..365] [-chart file.png] [-telegram]

  Downloads the trailing daily rate against HKD and prints the latest value.
`
}

func (c *fxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.pair, "pair", "", "Base currency (defaults to fx.default_pair)")
	f.IntVar(&c.days, "days", 0, "Number of past days (defaults to fx.default_days)")
	f.StringVar(&c.chart, "chart", "", "File to write the PNG chart to")
	f.BoolVar(&c.telegram, "telegram", false, "Send the report to Telegram")
}

func (c *fxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	base := strings.ToUpper(c.pair)
	if base == "" {
		base = a.cfg.FX.DefaultPair
	}
	pair, ok := model.LookupPair(base)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unsupported pair %q\n", c.pair)
		return subcommands.ExitUsageError
	}
	days := c.days
	if days == 0 {
		days = a.cfg.FX.DefaultDays
	}

	res, err := pipeline.NewFX(a.fetcher, a.recorder).Run(ctx, pair.Symbol(), days)
	if err != nil {
		return exitStatus(err)
	}

	md := render.FXMarkdown(res, pair.Label())
	printMarkdown(md)

	var png []byte
	if c.chart != "" || c.telegram {
		if png, err = render.FXChart(res, pair.Label()); err != nil {
			return exitStatus(err)
		}
	}
	if c.chart != "" {
		if err := os.WriteFile(c.chart, png, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: write chart: %v\n", err)
			return subcommands.ExitFailure
		}
		log.Info().Str("path", c.chart).Msg("chart written")
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
		if err := tn.SendPhotoWithRetry(ctx, render.FXTitle(pair.Label()), png, 3); err != nil {
			log.Warn().Err(err).Msg("send chart failed")
		}
	}
	return subcommands.ExitSuccess
}
