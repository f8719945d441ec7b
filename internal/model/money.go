package model

import "math"

// Currency tags every price and amount in the registry. There is no
// conversion between currencies — the tag travels with the record as-is.
type Currency string

const (
	EUR Currency = "EUR"
	USD Currency = "USD"
	PEN Currency = "PEN"
)

// Currencies lists every accepted currency, in the order the admin UI
// presents them.
var Currencies = []Currency{EUR, USD, PEN}

// Valid reports whether c is one of the accepted currencies.
func (c Currency) Valid() bool {
	switch c {
	case EUR, USD, PEN:
		return true
	}
	return false
}

// PurchaseLink points at a shop page where a gift can be bought.
// Links are order-preserving: they are shown in the order the admin
// entered them.
type PurchaseLink struct {
	SiteName string `json:"siteName"`
	URL      string `json:"url"`
}

// RoundAmount rounds a price or contribution amount to 2 decimal places.
//
// Amounts are stored as floats, and float arithmetic drifts: 0.1 + 0.2 is
// 0.30000000000000004. Every amount is passed through RoundAmount before it
// crosses a component boundary so callers never see the drift.
func RoundAmount(x float64) float64 {
	return math.Round(x*100) / 100
}
