// Package render draws the PNG charts and Markdown reports of both pipelines.
package render

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"MarketLens/internal/model"
	"MarketLens/internal/pipeline"
)

var (
	colorBlue   = drawing.ColorFromHex("4169e1") // royalblue
	colorRed    = drawing.ColorFromHex("ff6347") // tomato
	colorOrange = drawing.ColorFromHex("ffa500")
	colorBorder = drawing.ColorFromHex("2f4f4f")

	// Ticker line colours, cycled.
	palette = []drawing.Color{
		drawing.ColorFromHex("1f77b4"),
		drawing.ColorFromHex("ff7f0e"),
		drawing.ColorFromHex("2ca02c"),
		drawing.ColorFromHex("d62728"),
		drawing.ColorFromHex("9467bd"),
		drawing.ColorFromHex("8c564b"),
		drawing.ColorFromHex("e377c2"),
		drawing.ColorFromHex("7f7f7f"),
	}
)

const (
	chartWidth  = 900
	chartHeight = 500
)

const (
	titleCumulative       = "Cumulative Return Trend Over Time"
	titleReturnVolatility = "Return vs Volatility by Ticker"
	titleRiskReturn       = "Risk vs Return (Size/Color by Sharpe Ratio)"
)

// CumulativeChart renders one line per ticker of compounded return in percent.
// Each line starts from the 0% baseline when the series carries its base date.
func CumulativeChart(cs *model.CumulativeSeries) ([]byte, error) {
	dates, values := cumulativePoints(cs)
	if len(dates) < 2 {
		return nil, model.NewInsufficientData("cumulative chart needs at least 2 data points, got %d", len(dates))
	}

	series := make([]chart.Series, 0, len(cs.Symbols))
	var all []float64
	for i, sym := range cs.Symbols {
		series = append(series, chart.TimeSeries{
			Name: sym,
			Style: chart.Style{
				StrokeColor: palette[i%len(palette)],
				StrokeWidth: 2,
			},
			XValues: dates,
			YValues: values[i],
		})
		all = append(all, values[i]...)
	}

	graph := chart.Chart{
		Title:  titleCumulative,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: dateFormatter("Jan 06"),
		},
		YAxis: chart.YAxis{
			Name:           "Cumulative Return (%)",
			Range:          paddedRange(all...),
			ValueFormatter: percentFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	return renderPNG(graph)
}

// ReturnVolatilityChart renders return and volatility bars side by side per ticker.
// Return bars are blue when non-negative and red otherwise; volatility bars are orange.
func ReturnVolatilityChart(rows []model.MetricsRow) ([]byte, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no metrics to chart")
	}

	bars := make([]chart.Value, 0, 2*len(rows))
	values := []float64{0}
	for _, r := range rows {
		retColor := colorBlue
		if r.AnnualReturn < 0 {
			retColor = colorRed
		}
		bars = append(bars,
			chart.Value{
				Label: fmt.Sprintf("%s ret", r.Symbol),
				Value: r.AnnualReturn,
				Style: chart.Style{FillColor: retColor, StrokeColor: retColor},
			},
			chart.Value{
				Label: fmt.Sprintf("%s vol", r.Symbol),
				Value: r.AnnualVolatility,
				Style: chart.Style{FillColor: colorOrange, StrokeColor: colorOrange},
			},
		)
		values = append(values, r.AnnualReturn, r.AnnualVolatility)
	}

	graph := chart.BarChart{
		Title:        titleReturnVolatility,
		Width:        chartWidth,
		Height:       chartHeight,
		BarWidth:     40,
		UseBaseValue: true,
		BaseValue:    0,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range:          paddedRange(values...),
			ValueFormatter: percentFormatter,
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// RiskReturnChart renders volatility against return, one labelled dot per ticker.
// Dot size grows with the ratio magnitude and colour runs green to red as the ratio rises.
func RiskReturnChart(rows []model.MetricsRow) ([]byte, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no metrics to chart")
	}

	xs := make([]float64, len(rows))
	ys := make([]float64, len(rows))
	ratios := make([]float64, len(rows))
	labels := make([]chart.Value2, len(rows))
	for i, r := range rows {
		xs[i] = r.AnnualVolatility
		ys[i] = r.AnnualReturn
		ratios[i] = r.RiskAdjusted
		labels[i] = chart.Value2{XValue: xs[i], YValue: ys[i], Label: r.Symbol}
	}
	lo, hi := bounds(ratios)

	scatter := chart.ContinuousSeries{
		Name: "Sharpe Ratio",
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			StrokeColor: colorBorder,
			DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
				return dotSize(ratios[index])
			},
			DotColorProvider: func(_, _ chart.Range, index int, _, _ float64) drawing.Color {
				return ratioColor(ratios[index], lo, hi)
			},
		},
		XValues: xs,
		YValues: ys,
	}

	graph := chart.Chart{
		Title:  titleRiskReturn,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name:           "Annualized Volatility (%)",
			Range:          paddedRange(xs...),
			ValueFormatter: percentFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Annualized Return (%)",
			Range:          paddedRange(ys...),
			ValueFormatter: percentFormatter,
		},
		Series: []chart.Series{
			scatter,
			chart.AnnotationSeries{Annotations: labels},
		},
	}
	return renderPNG(graph)
}

// FXChart renders the rate line with its dashed moving average.
func FXChart(res *pipeline.FxResult, label string) ([]byte, error) {
	if res == nil || len(res.Rates) < 2 {
		n := 0
		if res != nil {
			n = len(res.Rates)
		}
		return nil, model.NewInsufficientData("exchange rate chart needs at least 2 data points, got %d", n)
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name: fmt.Sprintf("%s Rate", label),
			Style: chart.Style{
				StrokeColor: colorBlue,
				StrokeWidth: 2,
			},
			XValues: res.Dates,
			YValues: res.Rates,
		},
	}

	// The average is undefined until the first full window.
	first := len(res.MovingAverage)
	for i, v := range res.MovingAverage {
		if !model.IsMissing(v) {
			first = i
			break
		}
	}
	if len(res.MovingAverage)-first >= 2 {
		series = append(series, chart.TimeSeries{
			Name: "30-Day MA",
			Style: chart.Style{
				StrokeColor:     colorOrange,
				StrokeWidth:     1,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: res.Dates[first:],
			YValues: res.MovingAverage[first:],
		})
	}

	graph := chart.Chart{
		Title:  FXTitle(label),
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: dateFormatter("Jan 02"),
		},
		YAxis: chart.YAxis{
			Name:  "Exchange Rate",
			Range: paddedRange(res.Rates...),
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.4f", f)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	return renderPNG(graph)
}

// FXTitle returns the exchange rate chart title, also used as its caption.
func FXTitle(label string) string {
	return fmt.Sprintf("%s Exchange Rate Trend", label)
}

func renderPNG(graph chart.Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// cumulativePoints prepends the 0% baseline at cs.Base when it is set.
func cumulativePoints(cs *model.CumulativeSeries) ([]time.Time, [][]float64) {
	if cs == nil || len(cs.Dates) == 0 {
		return nil, nil
	}
	if cs.Base.IsZero() {
		return cs.Dates, cs.Values
	}
	dates := append([]time.Time{cs.Base}, cs.Dates...)
	values := make([][]float64, len(cs.Values))
	for i, v := range cs.Values {
		values[i] = append([]float64{0}, v...)
	}
	return dates, values
}

func dateFormatter(layout string) chart.ValueFormatter {
	return func(v interface{}) string {
		if t, ok := v.(float64); ok {
			return chart.TimeFromFloat64(t).In(time.UTC).Format(layout)
		}
		return ""
	}
}

func percentFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f%%", f)
	}
	return ""
}

// paddedRange returns an axis range around the finite values with 10% headroom.
// A flat or empty set still gets a non-zero span.
func paddedRange(values ...float64) *chart.ContinuousRange {
	lo, hi := bounds(values)
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.1, 1)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

func dotSize(ratio float64) float64 {
	return math.Min(6+6*math.Abs(ratio), 24)
}

// ratioColor maps ratio onto green, yellow, red between lo and hi.
func ratioColor(ratio, lo, hi float64) drawing.Color {
	t := 0.5
	if hi > lo {
		t = (ratio - lo) / (hi - lo)
	}
	green := drawing.ColorFromHex("1a9850")
	yellow := drawing.ColorFromHex("ffffbf")
	red := drawing.ColorFromHex("d73027")
	if t < 0.5 {
		return blend(green, yellow, t*2)
	}
	return blend(yellow, red, (t-0.5)*2)
}

func blend(a, b drawing.Color, t float64) drawing.Color {
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 204}
}

// Chart is a rendered PNG with its file name stem and caption.
type Chart struct {
	Name  string
	Title string
	PNG   []byte
}

// ScreenerCharts renders all three screener charts.
func ScreenerCharts(res *pipeline.ScreenerResult) ([]Chart, error) {
	specs := []struct {
		name, title string
		draw        func() ([]byte, error)
	}{
		{"cumulative", titleCumulative, func() ([]byte, error) { return CumulativeChart(res.Cumulative) }},
		{"return-volatility", titleReturnVolatility, func() ([]byte, error) { return ReturnVolatilityChart(res.Metrics) }},
		{"risk-return", titleRiskReturn, func() ([]byte, error) { return RiskReturnChart(res.Metrics) }},
	}

	charts := make([]Chart, 0, len(specs))
	for _, s := range specs {
		png, err := s.draw()
		if err != nil {
			return nil, fmt.Errorf("render %s chart: %w", s.name, err)
		}
		charts = append(charts, Chart{Name: s.name, Title: s.title, PNG: png})
	}
	return charts, nil
}
