package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketLens/internal/calculator"
	"MarketLens/internal/collector"
	"MarketLens/internal/model"
	"MarketLens/internal/recorder"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type countingRecorder struct {
	runs    []*recorder.RunEvent
	fetches []*recorder.FetchEvent
	rates   map[string]float64
}

func (c *countingRecorder) RecordRun(evt *recorder.RunEvent)     { c.runs = append(c.runs, evt) }
func (c *countingRecorder) RecordFetch(evt *recorder.FetchEvent) { c.fetches = append(c.fetches, evt) }
func (c *countingRecorder) RecordRate(pair string, rate float64) {
	if c.rates == nil {
		c.rates = make(map[string]float64)
	}
	c.rates[pair] = rate
}

func TestParseTickers(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, ParseTickers("AAPL, MSFT, TSLA"))
	assert.Equal(t, []string{"AAPL", "MSFT"}, ParseTickers(" aapl,, msft ,"))
	assert.Equal(t, []string{"AAPL", "AAPL"}, ParseTickers("AAPL,aapl"))
	assert.Empty(t, ParseTickers(" , "))
}

func TestScreener_Run(t *testing.T) {
	mock := &collector.MockFetcher{}
	rec := &countingRecorder{}
	s := NewScreener(mock, rec, 0)

	res, err := s.Run(context.Background(), []string{"AAPL", "MSFT", "TSLA"}, date(2023, 1, 1), date(2023, 6, 30))
	require.NoError(t, err)
	require.Len(t, res.Metrics, 3)
	assert.Equal(t, 1, mock.Calls)
	assert.Equal(t, calculator.TradingDaysPerYear, s.PeriodsPerYear)

	for i := 1; i < len(res.Metrics); i++ {
		assert.GreaterOrEqual(t, res.Metrics[i-1].RiskAdjusted, res.Metrics[i].RiskAdjusted)
	}
	assert.Equal(t, res.Returns.Len(), len(res.Cumulative.Dates))

	display := res.Display()
	require.Len(t, display, 3)
	assert.Equal(t, res.Metrics[0].Symbol, display[0].Ticker)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, recorder.OutcomeOK, rec.runs[0].Outcome)
	assert.Equal(t, 3, rec.runs[0].Instruments)
	require.Len(t, rec.fetches, 1)
	assert.False(t, rec.fetches[0].Failed)
}

func TestScreener_InvalidRangeSkipsFetch(t *testing.T) {
	mock := &collector.MockFetcher{}
	s := NewScreener(mock, nil, 252)

	d := date(2024, 1, 1)
	_, err := s.Run(context.Background(), []string{"AAPL"}, d, d)
	var invalid *model.InvalidRangeError
	require.ErrorAs(t, err, &invalid)

	_, err = s.Run(context.Background(), []string{"AAPL"}, d, d.AddDate(0, 0, -1))
	require.ErrorAs(t, err, &invalid)

	_, err = s.Run(context.Background(), nil, d, d.AddDate(0, 1, 0))
	require.ErrorAs(t, err, &invalid)

	assert.Equal(t, 0, mock.Calls)
}

func TestScreener_DataSourceError(t *testing.T) {
	cause := errors.New("connection refused")
	rec := &countingRecorder{}
	s := NewScreener(&collector.MockFetcher{Err: cause}, rec, 252)

	_, err := s.Run(context.Background(), []string{"AAPL"}, date(2023, 1, 1), date(2023, 6, 1))
	var source *model.DataSourceError
	require.ErrorAs(t, err, &source)
	assert.Equal(t, "mock", source.Source)
	assert.ErrorIs(t, err, cause)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, recorder.OutcomeDataSource, rec.runs[0].Outcome)
	assert.True(t, rec.fetches[0].Failed)
}

func TestScreener_AllMissingIsInsufficient(t *testing.T) {
	dates := []time.Time{date(2024, 1, 2), date(2024, 1, 3), date(2024, 1, 4)}
	nan := math.NaN()
	table := model.NewPriceTable(model.ShapeFieldByInstrument, dates)
	table.Set(model.FieldClose, "ZZZZ", []float64{nan, nan, nan})

	s := NewScreener(&collector.MockFetcher{Table: table}, nil, 252)
	_, err := s.Run(context.Background(), []string{"ZZZZ"}, date(2024, 1, 1), date(2024, 2, 1))
	var insufficient *model.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, recorder.OutcomeInsufficient, Outcome(err))
}

func TestFX_Run(t *testing.T) {
	mock := &collector.MockFetcher{Price: 7.8}
	rec := &countingRecorder{}
	fx := NewFX(mock, rec)

	res, err := fx.Run(context.Background(), "USDHKD=X", 180)
	require.NoError(t, err)
	require.Len(t, res.Rates, 180)
	assert.Len(t, res.MovingAverage, 180)
	assert.Equal(t, 151, calculator.DefinedCount(res.MovingAverage))
	assert.Equal(t, res.Rates[len(res.Rates)-1], res.LatestRate)
	assert.Equal(t, res.LatestRate, rec.rates["USDHKD=X"])
	assert.Equal(t, 1, mock.Calls)
}

func TestFX_DaysOutOfRange(t *testing.T) {
	mock := &collector.MockFetcher{}
	fx := NewFX(mock, nil)

	for _, days := range []int{0, 29, 366} {
		_, err := fx.Run(context.Background(), "USDHKD=X", days)
		var invalid *model.InvalidRangeError
		assert.ErrorAs(t, err, &invalid, "days=%d", days)
	}
	for _, days := range []int{30, 365} {
		_, err := fx.Run(context.Background(), "USDHKD=X", days)
		assert.NoError(t, err, "days=%d", days)
	}
	assert.Equal(t, 2, mock.Calls)
}

func TestFX_NoValidData(t *testing.T) {
	nan := math.NaN()
	table := model.NewPriceTable(model.ShapeFlat, []time.Time{date(2024, 1, 2), date(2024, 1, 3)})
	table.Set(model.FieldClose, "", []float64{nan, nan})

	_, err := NewFX(&collector.MockFetcher{Table: table}, nil).Run(context.Background(), "JPYHKD=X", 60)
	var insufficient *model.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Contains(t, err.Error(), "JPYHKD=X")
}

func TestFX_ShortSeriesHasNoAverage(t *testing.T) {
	dates := make([]time.Time, 10)
	rates := make([]float64, 10)
	for i := range dates {
		dates[i] = date(2024, 1, 1).AddDate(0, 0, i)
		rates[i] = 7.8 + float64(i)*0.001
	}
	table := model.NewPriceTable(model.ShapeFlat, dates)
	table.Set(model.FieldClose, "", rates)

	res, err := NewFX(&collector.MockFetcher{Table: table}, nil).Run(context.Background(), "USDHKD=X", 30)
	require.NoError(t, err)
	assert.Equal(t, 0, calculator.DefinedCount(res.MovingAverage))
	assert.Equal(t, rates[9], res.LatestRate)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, recorder.OutcomeOK, Outcome(nil))
	assert.Equal(t, recorder.OutcomeInvalidRange, Outcome(model.NewInvalidRange("x")))
	assert.Equal(t, recorder.OutcomeError, Outcome(errors.New("boom")))
}
