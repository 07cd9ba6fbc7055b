package calculator

import (
	"math"

	"MarketLens/internal/model"
)

// Returns computes period-over-period returns for every symbol of the frame.
//
// A row is kept only if the return is defined for every symbol, so a day missing
// for one instrument is removed for all of them. The sample size, and with it the
// statistics, is therefore shared across the instruments of one request.
func Returns(frame *model.PriceFrame) (*model.ReturnSeries, error) {
	if frame == nil || frame.Len() < 2 {
		return nil, model.NewInsufficientData("insufficient data: need at least 2 observations")
	}

	rs := &model.ReturnSeries{
		Symbols: frame.Symbols,
		Returns: make([][]float64, len(frame.Symbols)),
	}
	row := make([]float64, len(frame.Symbols))

	for t := 1; t < frame.Len(); t++ {
		complete := true
		for i, prices := range frame.Prices {
			r := periodReturn(prices[t-1], prices[t])
			if math.IsNaN(r) {
				complete = false
				break
			}
			row[i] = r
		}
		if !complete {
			continue
		}
		if rs.Len() == 0 {
			rs.Base = frame.Dates[t-1]
		}
		rs.Dates = append(rs.Dates, frame.Dates[t])
		for i := range row {
			rs.Returns[i] = append(rs.Returns[i], row[i])
		}
	}

	if rs.Len() == 0 {
		return nil, model.NewInsufficientData("insufficient data: no period with a complete set of prices")
	}
	return rs, nil
}

// periodReturn returns NaN when the return is undefined.
func periodReturn(prev, cur float64) float64 {
	r := cur/prev - 1
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return math.NaN()
	}
	return r
}
