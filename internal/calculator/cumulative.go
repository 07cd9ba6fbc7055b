package calculator

import "MarketLens/internal/model"

// CumulativeReturn compounds each return series into percent growth from a 0% baseline.
// The first value is the first period's return; no leading zero is added.
func CumulativeReturn(rs *model.ReturnSeries) *model.CumulativeSeries {
	cs := &model.CumulativeSeries{
		Base:    rs.Base,
		Dates:   rs.Dates,
		Symbols: rs.Symbols,
		Values:  make([][]float64, len(rs.Symbols)),
	}
	for i, returns := range rs.Returns {
		growth := 1.0
		values := make([]float64, len(returns))
		for t, r := range returns {
			growth *= 1 + r
			values[t] = (growth - 1) * 100
		}
		cs.Values[i] = values
	}
	return cs
}
