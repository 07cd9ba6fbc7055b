package pipeline

import (
	"context"
	"time"

	"MarketLens/internal/calculator"
	"MarketLens/internal/collector"
	"MarketLens/internal/model"
	"MarketLens/internal/normalizer"
	"MarketLens/internal/recorder"
)

// Screener computes ranked risk/return statistics for a set of tickers.
type Screener struct {
	base
	PeriodsPerYear int
}

// NewScreener creates a Screener. A nil recorder disables metrics.
func NewScreener(f collector.Fetcher, rec recorder.Recorder, periodsPerYear int) *Screener {
	if periodsPerYear <= 0 {
		periodsPerYear = calculator.TradingDaysPerYear
	}
	return &Screener{base: newBase(f, rec), PeriodsPerYear: periodsPerYear}
}

// ScreenerResult is the output of one screening run.
type ScreenerResult struct {
	Tickers    []string
	Start      time.Time
	End        time.Time
	Metrics    []model.MetricsRow // ranked, best ratio first
	Returns    *model.ReturnSeries
	Cumulative *model.CumulativeSeries
}

// Display returns the ranked metrics rounded for presentation.
func (r *ScreenerResult) Display() []model.DisplayRow {
	rows := make([]model.DisplayRow, len(r.Metrics))
	for i, m := range r.Metrics {
		rows[i] = m.Rounded()
	}
	return rows
}

// Run screens tickers over [start, end).
func (s *Screener) Run(ctx context.Context, tickers []string, start, end time.Time) (res *ScreenerResult, err error) {
	began := time.Now()
	defer func() {
		n := 0
		if res != nil {
			n = len(res.Metrics)
		}
		s.finish(recorder.PipelineScreener, began, n, err)
	}()

	if len(tickers) == 0 {
		return nil, model.NewInvalidRange("please enter at least one ticker")
	}
	if !start.Before(end) {
		return nil, model.NewInvalidRange("start date must be earlier than end date")
	}

	table, err := s.fetch(recorder.PipelineScreener, func() (*model.PriceTable, error) {
		return s.fetcher.FetchHistory(ctx, tickers, start, end)
	})
	if err != nil {
		return nil, err
	}

	frame, err := normalizer.Normalize(table, model.FieldAdjClose, model.FieldClose)
	if err != nil {
		return nil, err
	}

	rows, rs, err := calculator.Compute(frame, s.PeriodsPerYear)
	if err != nil {
		return nil, err
	}

	return &ScreenerResult{
		Tickers:    tickers,
		Start:      start,
		End:        end,
		Metrics:    calculator.Rank(rows),
		Returns:    rs,
		Cumulative: calculator.CumulativeReturn(rs),
	}, nil
}
