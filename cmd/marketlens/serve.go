package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"MarketLens/internal/pipeline"
	"MarketLens/internal/server"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the screener and FX API over HTTP" }
func (*serveCmd) Usage() string {
	return `marketlens serve [-addr host:port]

  Starts the HTTP API. Stops on SIGINT or SIGTERM.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address (defaults to server.host:server.port)")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	addr := c.addr
	if addr == "" {
		addr = a.cfg.Addr()
	}
	h := server.NewHandler(
		pipeline.NewScreener(a.fetcher, a.recorder, a.cfg.Screener.PeriodsPerYear),
		pipeline.NewFX(a.fetcher, a.recorder),
		server.Defaults{
			Tickers: a.cfg.Screener.DefaultTickers,
			Start:   a.cfg.Screener.DefaultStart,
			Pair:    a.cfg.FX.DefaultPair,
			Days:    a.cfg.FX.DefaultDays,
		},
	)
	srv := server.New(h, a.registry, server.Options{
		Addr:         addr,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	})
	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
