// order/intent.go
package order

import (
	"fmt"

	"github.com/rustyeddy/fxengine/market"
)

// TradeIntent is what the trader asked for, before any quote is
// fetched: which instrument, which way, how much to risk, and where
// the exits go in pips. Intents are treated as immutable once handed
// to the builder.
type TradeIntent struct {
	Instrument      string           `json:"instrument" yaml:"instrument"`
	Direction       market.Direction `json:"direction" yaml:"direction"`
	RiskAmount      float64          `json:"risk_amount" yaml:"risk_amount"`
	StopLossPips    float64          `json:"stop_loss_pips" yaml:"stop_loss_pips"`
	TakeProfitPips  float64          `json:"take_profit_pips" yaml:"take_profit_pips"`
	MoveToBreakEven bool             `json:"move_to_break_even,omitempty" yaml:"move_to_break_even,omitempty"`
	BreakEvenPips   float64          `json:"break_even_pips,omitempty" yaml:"break_even_pips,omitempty"`
}

// Validate rejects an intent before any quote, persistence or broker
// side effect happens.
func (in TradeIntent) Validate() error {
	if in.Instrument == "" {
		return fmt.Errorf("intent: instrument is required")
	}
	if _, err := market.Lookup(in.Instrument); err != nil {
		return fmt.Errorf("intent: %w", err)
	}
	if in.Direction != market.Long && in.Direction != market.Short {
		return fmt.Errorf("intent: direction must be long or short")
	}
	if in.RiskAmount <= 0 {
		return fmt.Errorf("intent: risk_amount must be positive")
	}
	if in.StopLossPips <= 0 {
		return fmt.Errorf("intent: stop_loss_pips must be positive")
	}
	if in.TakeProfitPips <= 0 {
		return fmt.Errorf("intent: take_profit_pips must be positive")
	}
	if in.MoveToBreakEven && in.BreakEvenPips <= 0 {
		return fmt.Errorf("intent: break_even_pips must be positive when move_to_break_even is set")
	}
	return nil
}
