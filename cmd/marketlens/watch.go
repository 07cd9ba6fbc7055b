package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"

	"MarketLens/internal/pipeline"
	"MarketLens/internal/scheduler"
)

type watchCmd struct {
	runOnStart bool
	commands   bool
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "push scheduled reports to Telegram and answer chat commands" }
func (*watchCmd) Usage() string {
	return `marketlens watch [-now] [-commands=true]

  Runs the screener and FX reports on schedule.screener_cron and
  schedule.fx_cron and sends them to Telegram. Stops on SIGINT or SIGTERM.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.runOnStart, "now", os.Getenv("RUN_ON_START") == "true", "Run both reports once at start")
	f.BoolVar(&c.commands, "commands", true, "Answer /screen and /fx chat commands")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	tn, err := a.telegram()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	start, err := time.Parse("2006-01-02", a.cfg.Screener.DefaultStart)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: screener.default_start: %v\n", err)
		return subcommands.ExitFailure
	}

	sched := scheduler.NewScheduler(ctx,
		pipeline.NewScreener(a.fetcher, a.recorder, a.cfg.Screener.PeriodsPerYear),
		pipeline.NewFX(a.fetcher, a.recorder),
		tn,
		scheduler.Jobs{
			Tickers: a.cfg.Screener.DefaultTickers,
			Start:   start,
			Pair:    a.cfg.FX.DefaultPair,
			Days:    a.cfg.FX.DefaultDays,
		},
	)
	if err := sched.RegisterAll(a.cfg.Schedule.ScreenerCron, a.cfg.Schedule.FXCron); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	sched.Start()
	defer sched.Stop()

	if c.commands {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}
	if c.runOnStart {
		go func() {
			sched.RunScreenerNow()
			sched.RunFXNow()
		}()
	}

	log.Info().Msg("watching; press Ctrl+C to stop")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping")
	return subcommands.ExitSuccess
}
