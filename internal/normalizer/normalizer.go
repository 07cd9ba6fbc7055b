// Package normalizer reduces a provider price table to one price per instrument.
package normalizer

import (
	"MarketLens/internal/model"
)

// Normalize selects a single price column per instrument.
//
// For a field-by-instrument table the preferred field is used when that field
// exists, otherwise the fallback. For a flat table the last column is a further
// fallback. Undefined values are kept.
func Normalize(table *model.PriceTable, preferred, fallback string) (*model.PriceFrame, error) {
	if table == nil || table.Len() == 0 {
		return nil, model.NewInsufficientData("insufficient data: provider returned no rows")
	}

	field, ok := selectField(table, preferred, fallback)
	if !ok {
		return nil, model.NewInsufficientData("insufficient data: neither %q nor %q present", preferred, fallback)
	}

	frame := &model.PriceFrame{Dates: table.Dates}
	defined := false
	for _, inst := range table.Instruments {
		values, ok := table.Column(field, inst)
		if !ok {
			continue
		}
		prices := make([]float64, table.Len())
		for i := range prices {
			prices[i] = model.Missing()
			if i < len(values) {
				prices[i] = values[i]
			}
			if !model.IsMissing(prices[i]) {
				defined = true
			}
		}
		frame.Symbols = append(frame.Symbols, inst)
		frame.Prices = append(frame.Prices, prices)
	}

	if !defined {
		return nil, model.NewInsufficientData("insufficient data: no valid %s prices", field)
	}
	return frame, nil
}

func selectField(table *model.PriceTable, preferred, fallback string) (string, bool) {
	switch {
	case table.HasField(preferred):
		return preferred, true
	case table.HasField(fallback):
		return fallback, true
	case table.Shape == model.ShapeFlat && len(table.Fields) > 0:
		return table.Fields[len(table.Fields)-1], true
	default:
		return "", false
	}
}
