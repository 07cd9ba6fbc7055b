package recorder

import "time"

// Pipeline names.
const (
	PipelineScreener = "screener"
	PipelineFX       = "fx"
)

// Run outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeInvalidRange = "invalid_range"
	OutcomeDataSource   = "data_source"
	OutcomeInsufficient = "insufficient_data"
	OutcomeError        = "error"
)

// RunEvent describes one completed pipeline run.
type RunEvent struct {
	Pipeline    string
	Outcome     string
	Instruments int
	Duration    time.Duration
}

// FetchEvent describes one call to the market data provider.
type FetchEvent struct {
	Provider string
	Pipeline string
	Failed   bool
	Duration time.Duration
}

// Recorder observes pipeline activity.
type Recorder interface {
	RecordRun(evt *RunEvent)
	RecordFetch(evt *FetchEvent)
	RecordRate(pair string, rate float64)
}
