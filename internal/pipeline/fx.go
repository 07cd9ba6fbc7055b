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

// Bounds of the trailing day count accepted by the FX viewer.
const (
	MinFXDays = 30
	MaxFXDays = 365
)

// FX fetches one currency pair and overlays a moving average.
type FX struct {
	base
	Window int
}

// NewFX creates an FX pipeline with the standard 30-point window.
func NewFX(f collector.Fetcher, rec recorder.Recorder) *FX {
	return &FX{base: newBase(f, rec), Window: calculator.FXWindow}
}

// FxResult is the output of one exchange-rate run.
type FxResult struct {
	Symbol        string
	Days          int
	Dates         []time.Time
	Rates         []float64
	MovingAverage []float64 // NaN until a full window is available
	LatestRate    float64
}

// Run fetches the trailing pastDays of quotes for pairSymbol.
func (f *FX) Run(ctx context.Context, pairSymbol string, pastDays int) (res *FxResult, err error) {
	began := time.Now()
	defer func() { f.finish(recorder.PipelineFX, began, 1, err) }()

	if pairSymbol == "" {
		return nil, model.NewInvalidRange("currency pair is required")
	}
	if pastDays < MinFXDays || pastDays > MaxFXDays {
		return nil, model.NewInvalidRange("days must be between %d and %d, got %d", MinFXDays, MaxFXDays, pastDays)
	}

	table, err := f.fetch(recorder.PipelineFX, func() (*model.PriceTable, error) {
		return f.fetcher.FetchRecent(ctx, pairSymbol, pastDays, true)
	})
	if err != nil {
		return nil, err
	}

	frame, err := normalizer.Normalize(table, model.FieldClose, model.FieldAdjClose)
	if err != nil {
		return nil, model.NewInsufficientData("no valid data for %s", pairSymbol)
	}

	res = &FxResult{Symbol: pairSymbol, Days: pastDays}
	for i, v := range frame.Prices[0] {
		if model.IsMissing(v) {
			continue
		}
		res.Dates = append(res.Dates, frame.Dates[i])
		res.Rates = append(res.Rates, v)
	}
	if len(res.Rates) == 0 {
		return nil, model.NewInsufficientData("no valid data for %s", pairSymbol)
	}

	res.MovingAverage, err = calculator.MovingAverage(res.Rates, f.Window)
	if err != nil {
		return nil, err
	}
	res.LatestRate = res.Rates[len(res.Rates)-1]
	f.recorder.RecordRate(pairSymbol, res.LatestRate)
	return res, nil
}
