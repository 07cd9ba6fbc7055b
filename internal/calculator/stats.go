package calculator

import (
	"math"
	"sort"

	"MarketLens/internal/model"
)

// TradingDaysPerYear is the default annualization factor for daily data.
const TradingDaysPerYear = 252

// minVolatility is the annualized volatility (in percent) at or below which the
// risk-adjusted ratio is reported as 0.
const minVolatility = 1e-6

// Compute derives one MetricsRow per instrument from a price frame. The return
// series is returned as well for building derived series.
func Compute(frame *model.PriceFrame, periodsPerYear int) ([]model.MetricsRow, *model.ReturnSeries, error) {
	rs, err := Returns(frame)
	if err != nil {
		return nil, nil, err
	}
	return Statistics(rs, periodsPerYear), rs, nil
}

// Statistics annualizes mean and sample standard deviation of each return series.
func Statistics(rs *model.ReturnSeries, periodsPerYear int) []model.MetricsRow {
	if periodsPerYear <= 0 {
		periodsPerYear = TradingDaysPerYear
	}
	ppy := float64(periodsPerYear)

	rows := make([]model.MetricsRow, len(rs.Symbols))
	for i, sym := range rs.Symbols {
		mean, std := meanStd(rs.Returns[i])
		ret := mean * ppy * 100
		vol := std * math.Sqrt(ppy) * 100
		rows[i] = model.MetricsRow{
			Symbol:           sym,
			AnnualReturn:     ret,
			AnnualVolatility: vol,
			RiskAdjusted:     RiskAdjustedRatio(ret, vol),
		}
	}
	return rows
}

// RiskAdjustedRatio divides return by volatility, or returns 0 when volatility
// does not exceed 1e-6. No risk-free rate is subtracted.
func RiskAdjustedRatio(annualReturn, annualVolatility float64) float64 {
	if annualVolatility > minVolatility {
		return annualReturn / annualVolatility
	}
	return 0
}

// Rank sorts rows by risk-adjusted ratio, highest first. Ties keep input order.
func Rank(rows []model.MetricsRow) []model.MetricsRow {
	ranked := make([]model.MetricsRow, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RiskAdjusted > ranked[j].RiskAdjusted
	})
	return ranked
}

// meanStd returns the mean and the N-1 sample standard deviation.
// A single value has no sample deviation; 0 is returned.
func meanStd(values []float64) (mean, std float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)
	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n-1))
}
