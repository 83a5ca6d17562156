// market/instrument.go
package market

import (
	"fmt"
	"math"
)

// Instrument holds the per-instrument constants sizing and pricing
// depend on. PipLocation is the base-10 exponent of one pip (-4 for
// most pairs, -2 for JPY-quoted pairs). PipValuePerLot is the account
// currency value of one pip on one standard lot (100,000 units).
type Instrument struct {
	Name             string
	BaseCurrency     string
	QuoteCurrency    string
	PipLocation      int
	DisplayPrecision int
	PipValuePerLot   float64
	MinimumTradeSize float64
}

// PipSize returns the price increment of one pip.
func (i Instrument) PipSize() float64 {
	return math.Pow(10, float64(i.PipLocation))
}

// RoundPrice rounds a price to the instrument's quoting precision.
func (i Instrument) RoundPrice(p float64) float64 {
	scale := math.Pow(10, float64(i.DisplayPrecision))
	return math.Round(p*scale) / scale
}

// UnitsPerLot is the size of one standard lot in base-currency units.
const UnitsPerLot = 100_000

var Instruments = map[string]Instrument{
	"EUR_USD": {
		Name:             "EUR_USD",
		BaseCurrency:     "EUR",
		QuoteCurrency:    "USD",
		PipLocation:      -4,
		DisplayPrecision: 5,
		PipValuePerLot:   10,
		MinimumTradeSize: 1,
	},
	"GBP_USD": {
		Name:             "GBP_USD",
		BaseCurrency:     "GBP",
		QuoteCurrency:    "USD",
		PipLocation:      -4,
		DisplayPrecision: 5,
		PipValuePerLot:   10,
		MinimumTradeSize: 1,
	},
	"AUD_USD": {
		Name:             "AUD_USD",
		BaseCurrency:     "AUD",
		QuoteCurrency:    "USD",
		PipLocation:      -4,
		DisplayPrecision: 5,
		PipValuePerLot:   10,
		MinimumTradeSize: 1,
	},
	"USD_JPY": {
		Name:             "USD_JPY",
		BaseCurrency:     "USD",
		QuoteCurrency:    "JPY",
		PipLocation:      -2,
		DisplayPrecision: 3,
		// 1000 JPY per pip per lot, converted at an indicative rate.
		// Exact conversion needs a live JPY_USD quote; this constant is
		// deliberately supplied per instrument instead of assuming 10.
		PipValuePerLot:   6.6,
		MinimumTradeSize: 1,
	},
}

// Lookup resolves an instrument by name.
func Lookup(name string) (Instrument, error) {
	inst, ok := Instruments[name]
	if !ok {
		return Instrument{}, fmt.Errorf("unknown instrument: %s", name)
	}
	return inst, nil
}
