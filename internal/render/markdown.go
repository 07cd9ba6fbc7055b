package render

import (
	"fmt"
	"math"
	"strings"

	"MarketLens/internal/pipeline"
)

// ScreenerMarkdown formats the ranked metrics table of a screening run.
func ScreenerMarkdown(res *pipeline.ScreenerResult) string {
	var b strings.Builder

	b.WriteString("# Stock Screener\n\n")
	b.WriteString(fmt.Sprintf("Period: %s to %s | Tickers: %s\n\n",
		res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"), strings.Join(res.Tickers, ", ")))

	b.WriteString("| Ticker | Annualized Return (%) | Annualized Volatility (%) | Sharpe Ratio |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for _, r := range res.Display() {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			r.Ticker, number(r.AnnualReturn, 2), number(r.AnnualVolatility, 2), number(r.SharpeRatio, 2)))
	}

	if n := len(res.Cumulative.Dates); n > 0 {
		b.WriteString("\n## Cumulative Return (%)\n\n")
		for i, sym := range res.Cumulative.Symbols {
			b.WriteString(fmt.Sprintf("- %s: %s\n", sym, number(res.Cumulative.Values[i][n-1], 2)))
		}
	}
	return b.String()
}

// FXMarkdown formats the latest rate and moving average of an FX run.
func FXMarkdown(res *pipeline.FxResult, label string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# %s Exchange Rate\n\n", label))
	b.WriteString(fmt.Sprintf("**Current Rate (%s): %.4f HKD**\n\n", label, res.LatestRate))
	b.WriteString(fmt.Sprintf("- Observations: %d (past %d days)\n", len(res.Rates), res.Days))
	if n := len(res.Dates); n > 0 {
		b.WriteString(fmt.Sprintf("- Range: %s to %s\n", res.Dates[0].Format("2006-01-02"), res.Dates[n-1].Format("2006-01-02")))
	}
	if n := len(res.MovingAverage); n > 0 {
		b.WriteString(fmt.Sprintf("- 30-Day MA: %s\n", number(res.MovingAverage[n-1], 4)))
	}
	return b.String()
}

func number(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, v)
}
