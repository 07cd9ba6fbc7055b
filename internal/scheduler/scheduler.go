// Package scheduler pushes screener and FX reports on cron schedules and
// answers Telegram commands while the watch mode runs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"MarketLens/internal/model"
	"MarketLens/internal/pipeline"
	"MarketLens/internal/render"
)

// Sender delivers reports.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
	SendPhotoWithRetry(ctx context.Context, caption string, png []byte, maxRetries int) error
}

// Jobs holds the parameters used by scheduled runs and bare commands.
type Jobs struct {
	Tickers string
	Start   time.Time
	Pair    string
	Days    int
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Screener *pipeline.Screener
	FX       *pipeline.FX
	Notifier Sender
	Jobs     Jobs
	Ctx      context.Context
	now      func() time.Time
}

// NewScheduler creates a new Scheduler. Cron specs carry a seconds field.
func NewScheduler(ctx context.Context, screener *pipeline.Screener, fx *pipeline.FX, sender Sender, jobs Jobs) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		Screener: screener,
		FX:       fx,
		Notifier: sender,
		Jobs:     jobs,
		Ctx:      ctx,
		now:      time.Now,
	}
}

// RegisterAll registers the screener and FX report tasks. An expression of "" or "off" disables its task.
func (s *Scheduler) RegisterAll(screenerCron, fxCron string) error {
	if enabled(screenerCron) {
		if _, err := s.Cron.AddFunc(screenerCron, s.RunScreenerNow); err != nil {
			return fmt.Errorf("register screener task: %w", err)
		}
	}
	if enabled(fxCron) {
		if _, err := s.Cron.AddFunc(fxCron, s.RunFXNow); err != nil {
			return fmt.Errorf("register fx task: %w", err)
		}
	}
	return nil
}

// logChartError logs a chart that could not be drawn. Too few points is a warning.
func logChartError(err error, msg string) {
	var insufficient *model.InsufficientDataError
	if errors.As(err, &insufficient) {
		log.Warn().Err(err).Msg(msg)
		return
	}
	log.Error().Err(err).Msg(msg)
}

func enabled(expr string) bool {
	return expr != "" && expr != "off"
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("tasks", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunScreenerNow runs the screener with the job defaults and pushes the report and charts.
func (s *Scheduler) RunScreenerNow() {
	log.Info().Msg("running screener task")
	res, err := s.screen(s.Jobs.Tickers)
	if err != nil {
		s.trySend(fmt.Sprintf("Screener run failed: %v", err))
		return
	}
	s.trySend(render.ScreenerMarkdown(res))

	charts, err := render.ScreenerCharts(res)
	if err != nil {
		logChartError(err, "render screener charts")
		return
	}
	for _, ch := range charts {
		if err := s.Notifier.SendPhotoWithRetry(s.Ctx, ch.Title, ch.PNG, 3); err != nil {
			log.Error().Err(err).Str("chart", ch.Name).Msg("send chart")
		}
	}
}

// RunFXNow runs the FX viewer with the job defaults and pushes the report and chart.
func (s *Scheduler) RunFXNow() {
	log.Info().Msg("running fx task")
	res, pair, err := s.rate(s.Jobs.Pair, s.Jobs.Days)
	if err != nil {
		s.trySend(fmt.Sprintf("FX run failed: %v", err))
		return
	}
	s.trySend(render.FXMarkdown(res, pair.Label()))

	png, err := render.FXChart(res, pair.Label())
	if err != nil {
		logChartError(err, "render fx chart")
		return
	}
	if err := s.Notifier.SendPhotoWithRetry(s.Ctx, render.FXTitle(pair.Label()), png, 3); err != nil {
		log.Error().Err(err).Msg("send chart")
	}
}

// HandleCommand processes a user command and returns a reply.
//
//	/screen [TICKERS]  ranked screener table
//	/fx [PAIR] [DAYS]  latest rate and moving average
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return usage
	}

	switch fields[0] {
	case "/screen":
		tickers := s.Jobs.Tickers
		if len(fields) > 1 {
			tickers = strings.Join(fields[1:], ",")
		}
		res, err := s.screen(tickers)
		if err != nil {
			return fmt.Sprintf("Screener run failed: %v", err)
		}
		return render.ScreenerMarkdown(res)
	case "/fx":
		base, days := s.Jobs.Pair, s.Jobs.Days
		if len(fields) > 1 {
			base = strings.ToUpper(fields[1])
		}
		if len(fields) > 2 {
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				return fmt.Sprintf("invalid day count %q", fields[2])
			}
			days = n
		}
		res, pair, err := s.rate(base, days)
		if err != nil {
			return fmt.Sprintf("FX run failed: %v", err)
		}
		return render.FXMarkdown(res, pair.Label())
	default:
		return usage
	}
}

const usage = "Available commands:\n• /screen [AAPL,MSFT,...]\n• /fx [USD|CNY|EUR|JPY] [30-365]"

func (s *Scheduler) screen(tickers string) (*pipeline.ScreenerResult, error) {
	end := s.now().UTC().Truncate(24 * time.Hour)
	return s.Screener.Run(s.Ctx, pipeline.ParseTickers(tickers), s.Jobs.Start, end)
}

func (s *Scheduler) rate(base string, days int) (*pipeline.FxResult, model.CurrencyPair, error) {
	pair, ok := model.LookupPair(base)
	if !ok {
		return nil, pair, model.NewInvalidRange("unsupported pair %q", base)
	}
	res, err := s.FX.Run(s.Ctx, pair.Symbol(), days)
	return res, pair, err
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
