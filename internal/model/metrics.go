package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// ReturnSeries holds period-over-period fractional returns. Dates[i] is the
// end date of period i. Every row is defined for every symbol.
type ReturnSeries struct {
	Base    time.Time // price date the first period starts from
	Dates   []time.Time
	Symbols []string
	Returns [][]float64 // Returns[i] belongs to Symbols[i]
}

// Len returns the number of periods.
func (r *ReturnSeries) Len() int { return len(r.Dates) }

// MetricsRow holds the annualized statistics of one instrument.
//
// RiskAdjusted is annualized return divided by annualized volatility. It is
// shown as "Sharpe Ratio" but subtracts no risk-free rate.
type MetricsRow struct {
	Symbol           string
	AnnualReturn     float64 // percent
	AnnualVolatility float64 // percent
	RiskAdjusted     float64
}

// DisplayRow is a MetricsRow rounded for presentation.
type DisplayRow struct {
	Ticker           string  `json:"ticker"`
	AnnualReturn     float64 `json:"annualized_return_pct"`
	AnnualVolatility float64 `json:"annualized_volatility_pct"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
}

// CumulativeSeries holds compounded returns in percent, aligned to the dates
// of the ReturnSeries it was built from. The 0% baseline is implied at Base.
type CumulativeSeries struct {
	Base    time.Time
	Dates   []time.Time
	Symbols []string
	Values  [][]float64
}

// Rounded returns the row rounded to 2 decimals for display.
func (r MetricsRow) Rounded() DisplayRow {
	return DisplayRow{
		Ticker:           r.Symbol,
		AnnualReturn:     round2(r.AnnualReturn),
		AnnualVolatility: round2(r.AnnualVolatility),
		SharpeRatio:      round2(r.RiskAdjusted),
	}
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
