package market

import (
	"context"
	"time"
)

// Tick is a bid/ask snapshot for one instrument. Ticks are transient:
// they are re-fetched per use and never persisted.
type Tick struct {
	Instrument string
	Time       time.Time
	Bid        float64
	Ask        float64
}

// IsZero reports whether the tick carries no usable prices.
func (t Tick) IsZero() bool {
	return t.Bid == 0 && t.Ask == 0
}

func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}

// SpreadPips converts the current spread into pips for the instrument.
func (t Tick) SpreadPips(inst Instrument) float64 {
	return t.Spread() / inst.PipSize()
}

type TickSource interface {
	GetTick(ctx context.Context, instrument string) (Tick, error)
}
