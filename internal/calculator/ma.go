package calculator

import (
	"errors"

	"MarketLens/internal/model"
)

// FXWindow is the moving average window of the exchange-rate viewer.
const FXWindow = 30

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// MovingAverage returns the trailing SMA at every position of values.
// The first window-1 positions have no full window and are NaN.
func MovingAverage(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = model.Missing()
			continue
		}
		ma, err := CalculateSMA(values[:i+1], window)
		if err != nil {
			return nil, err
		}
		out[i] = ma
	}
	return out, nil
}

// DefinedCount counts the non-NaN values of a series.
func DefinedCount(values []float64) int {
	n := 0
	for _, v := range values {
		if !model.IsMissing(v) {
			n++
		}
	}
	return n
}
