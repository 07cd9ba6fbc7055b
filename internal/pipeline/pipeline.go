// Package pipeline runs the screener and exchange-rate analyses end to end.
//
// Each run validates its request, fetches once from the provider, and either
// returns a complete result or a typed error from the model package. Nothing is
// retried and no partial result accompanies an error.
package pipeline

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"MarketLens/internal/collector"
	"MarketLens/internal/model"
	"MarketLens/internal/recorder"
)

// ParseTickers splits comma-separated input into upper-cased tickers.
// Empty entries are dropped; duplicates are kept.
func ParseTickers(input string) []string {
	var tickers []string
	for _, part := range strings.Split(input, ",") {
		if t := strings.ToUpper(strings.TrimSpace(part)); t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
}

// Outcome classifies a run error for metrics.
func Outcome(err error) string {
	var (
		invalid      *model.InvalidRangeError
		source       *model.DataSourceError
		insufficient *model.InsufficientDataError
	)
	switch {
	case err == nil:
		return recorder.OutcomeOK
	case errors.As(err, &invalid):
		return recorder.OutcomeInvalidRange
	case errors.As(err, &source):
		return recorder.OutcomeDataSource
	case errors.As(err, &insufficient):
		return recorder.OutcomeInsufficient
	default:
		return recorder.OutcomeError
	}
}

type base struct {
	fetcher  collector.Fetcher
	recorder recorder.Recorder
}

func newBase(f collector.Fetcher, rec recorder.Recorder) base {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return base{fetcher: f, recorder: rec}
}

// fetch runs one provider call, turning any failure into a DataSourceError.
func (b base) fetch(pipeline string, call func() (*model.PriceTable, error)) (*model.PriceTable, error) {
	start := time.Now()
	table, err := call()
	b.recorder.RecordFetch(&recorder.FetchEvent{
		Provider: b.fetcher.Name(),
		Pipeline: pipeline,
		Failed:   err != nil,
		Duration: time.Since(start),
	})
	if err != nil {
		log.Error().Err(err).Str("pipeline", pipeline).Str("provider", b.fetcher.Name()).Msg("fetch failed")
		return nil, &model.DataSourceError{Source: b.fetcher.Name(), Err: err}
	}
	return table, nil
}

func (b base) finish(pipeline string, began time.Time, instruments int, err error) {
	outcome := Outcome(err)
	b.recorder.RecordRun(&recorder.RunEvent{
		Pipeline:    pipeline,
		Outcome:     outcome,
		Instruments: instruments,
		Duration:    time.Since(began),
	})
	evt := log.Info()
	if err != nil {
		evt = log.Warn().Err(err)
	}
	evt.Str("pipeline", pipeline).Str("outcome", outcome).Dur("elapsed", time.Since(began)).Msg("pipeline run finished")
}
