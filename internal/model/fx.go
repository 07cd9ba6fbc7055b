package model

import "fmt"

// QuoteCurrency is the currency every supported pair is quoted in.
const QuoteCurrency = "HKD"

// CurrencyPair is a base currency quoted in HKD.
type CurrencyPair struct {
	Base string `json:"base"`
}

// CurrencyPairs lists the supported pairs in display order.
var CurrencyPairs = []CurrencyPair{
	{Base: "USD"},
	{Base: "CNY"},
	{Base: "EUR"},
	{Base: "JPY"},
}

// LookupPair returns the supported pair for a base currency.
func LookupPair(base string) (CurrencyPair, bool) {
	for _, p := range CurrencyPairs {
		if p.Base == base {
			return p, true
		}
	}
	return CurrencyPair{}, false
}

// Symbol returns the provider symbol, e.g. "USDHKD=X".
func (p CurrencyPair) Symbol() string {
	return fmt.Sprintf("%s%s=X", p.Base, QuoteCurrency)
}

// Label returns the display label, e.g. "USD → HKD".
func (p CurrencyPair) Label() string {
	return fmt.Sprintf("%s → %s", p.Base, QuoteCurrency)
}
