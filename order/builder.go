package order

import (
	"github.com/rustyeddy/fxengine/market"
)

// TimeInForce is the lifetime policy of an order or exit leg.
type TimeInForce string

const (
	// FOK fills completely and immediately or is rejected. Used on the
	// entry so a partial fill can never leave an unsized position.
	FOK TimeInForce = "FOK"
	// GTC keeps a leg active until explicitly cancelled. Used on the
	// stop-loss and take-profit legs.
	GTC TimeInForce = "GTC"
)

// Leg is an exit order attached to the entry.
type Leg struct {
	Price       float64
	TimeInForce TimeInForce
}

// Request is a ready-to-send bracket order: a market entry with stop
// and target legs attached. Never mutated after construction.
type Request struct {
	Instrument  string
	Units       int // signed: >0 long, <0 short
	EntryTIF    TimeInForce
	StopLoss    Leg
	TakeProfit  Leg
	entryQuoted float64
}

// EntryQuoted is the quote-side price the request was built against
// (ask for longs, bid for shorts). The actual fill price comes from
// the broker.
func (r Request) EntryQuoted() float64 { return r.entryQuoted }

// Build turns an intent plus the signed unit size into a bracket
// request priced off the given tick: entry at ask (long) or bid
// (short), stop stopLossPips away on the losing side, target
// takeProfitPips away on the winning side, all rounded to the
// instrument's quoting precision.
func Build(in TradeIntent, units int, tick market.Tick, inst market.Instrument) Request {
	pip := inst.PipSize()

	entry := tick.Ask
	if in.Direction == market.Short {
		entry = tick.Bid
	}

	sign := float64(in.Direction.Sign())
	stop := inst.RoundPrice(entry - sign*in.StopLossPips*pip)
	target := inst.RoundPrice(entry + sign*in.TakeProfitPips*pip)

	return Request{
		Instrument:  in.Instrument,
		Units:       units,
		EntryTIF:    FOK,
		StopLoss:    Leg{Price: stop, TimeInForce: GTC},
		TakeProfit:  Leg{Price: target, TimeInForce: GTC},
		entryQuoted: entry,
	}
}
