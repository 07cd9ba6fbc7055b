package collector

import (
	"sort"
	"time"

	"MarketLens/internal/model"
)

// BuildTable aligns per-symbol bars on the union of their dates.
// Dates a symbol has no bar for are NaN in every field of that symbol.
func BuildTable(shape model.Shape, symbols []string, bars map[string][]model.OHLCV, autoAdjust bool) *model.PriceTable {
	dates := unionDates(bars)
	index := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}

	table := model.NewPriceTable(shape, dates)
	hasAdj := false
	for _, sym := range symbols {
		for _, b := range bars[sym] {
			if !model.IsMissing(b.AdjClose) {
				hasAdj = true
				break
			}
		}
	}

	for _, sym := range symbols {
		key := sym
		if shape == model.ShapeFlat {
			key = ""
		}
		open, high, low, cls, adj, vol := column(len(dates)), column(len(dates)), column(len(dates)),
			column(len(dates)), column(len(dates)), column(len(dates))

		for _, b := range bars[sym] {
			i := index[day(b.Time)]
			open[i], high[i], low[i], cls[i], adj[i], vol[i] = b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume
			if autoAdjust && !model.IsMissing(b.AdjClose) && b.Close != 0 {
				ratio := b.AdjClose / b.Close
				open[i], high[i], low[i], cls[i] = b.Open*ratio, b.High*ratio, b.Low*ratio, b.AdjClose
			}
		}

		table.Set(model.FieldOpen, key, open)
		table.Set(model.FieldHigh, key, high)
		table.Set(model.FieldLow, key, low)
		table.Set(model.FieldClose, key, cls)
		if hasAdj && !autoAdjust {
			table.Set(model.FieldAdjClose, key, adj)
		}
		table.Set(model.FieldVolume, key, vol)
	}
	return table
}

func unionDates(bars map[string][]model.OHLCV) []time.Time {
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, list := range bars {
		for _, b := range list {
			d := day(b.Time)
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func column(n int) []float64 {
	c := make([]float64, n)
	for i := range c {
		c[i] = model.Missing()
	}
	return c
}

// day truncates t to its calendar date in its own location, expressed in UTC.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
