// Package risk computes risk-based position sizes.
//
// The size comes from the amount the trader is willing to lose if the
// stop is hit, not from account equity: riskAmount spread over the
// effective stop distance gives a per-pip risk, which the instrument's
// pip value per standard lot converts into lots.
package risk

import (
	"errors"
	"math"

	"github.com/rustyeddy/fxengine/market"
)

var (
	// ErrInvalidParameters means stopLossPips or riskAmount is not a
	// positive number. Sizing is undefined; nothing was submitted.
	ErrInvalidParameters = errors.New("risk: stop pips and risk amount must be positive")

	// ErrQuoteUnavailable means no usable quote was supplied.
	ErrQuoteUnavailable = errors.New("risk: quote unavailable")
)

// Inputs are the sizing parameters for one trade.
type Inputs struct {
	Direction    market.Direction
	StopLossPips float64
	RiskAmount   float64 // account currency
}

// Result carries the computed size plus the intermediate figures,
// which are worth journaling alongside the order.
type Result struct {
	Units         int
	Lots          float64
	SpreadPips    float64
	EffectiveStop float64 // stop pips + spread pips
	RiskPerPip    float64
}

// Compute sizes a position so that riskAmount is lost if price moves
// stopLossPips against the entry. The spread is debited against the
// stop distance regardless of direction, so a wider spread always
// yields a smaller size. Units are floored toward zero and signed by
// direction; a result of 0 units is valid and left to the caller to
// surface.
func Compute(in Inputs, tick market.Tick, inst market.Instrument) (Result, error) {
	if in.StopLossPips <= 0 || in.RiskAmount <= 0 {
		return Result{}, ErrInvalidParameters
	}
	if tick.IsZero() {
		return Result{}, ErrQuoteUnavailable
	}

	spreadPips := tick.SpreadPips(inst)
	effectiveStop := in.StopLossPips + spreadPips
	// A crossed quote (ask below bid) has a negative spread that can
	// swallow the whole stop distance; sizing against it is undefined.
	if effectiveStop <= 0 {
		return Result{}, ErrQuoteUnavailable
	}
	riskPerPip := in.RiskAmount / effectiveStop
	lots := riskPerPip / inst.PipValuePerLot

	units := int(math.Floor(lots*market.UnitsPerLot)) * in.Direction.Sign()

	return Result{
		Units:         units,
		Lots:          lots,
		SpreadPips:    spreadPips,
		EffectiveStop: effectiveStop,
		RiskPerPip:    riskPerPip,
	}, nil
}
