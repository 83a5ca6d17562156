// Package sim is an in-memory broker used by tests and dry runs. It
// fills every FOK entry at the current ask/bid, keeps trades mutable
// through stop modification and close, and can be scripted to fail.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/fxengine/broker"
	"github.com/rustyeddy/fxengine/internal/id"
	"github.com/rustyeddy/fxengine/market"
	"github.com/rustyeddy/fxengine/order"
)

// Trade is an open simulated position.
type Trade struct {
	ID         string
	Instrument string
	Units      int
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	OpenTime   time.Time
	Open       bool
}

type Engine struct {
	mu     sync.Mutex
	ticks  map[string]market.Tick
	trades map[string]*Trade

	// Scripted failures for tests. Each submit consumes one queued
	// rejection; quoteErr and modifyErr fail every call until cleared.
	rejections []string
	quoteErr   error
	modifyErr  error
}

var _ broker.Gateway = (*Engine)(nil)

func NewEngine() *Engine {
	return &Engine{
		ticks:  make(map[string]market.Tick),
		trades: make(map[string]*Trade),
	}
}

// SetTick installs the current price for an instrument.
func (e *Engine) SetTick(t market.Tick) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t.Time.IsZero() {
		t.Time = time.Now()
	}
	e.ticks[t.Instrument] = t
}

// RejectNext queues a rejection for the next submitted order.
func (e *Engine) RejectNext(reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rejections = append(e.rejections, reason)
}

// FailQuotes makes every GetTick return err until called with nil.
func (e *Engine) FailQuotes(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.quoteErr = err
}

// FailModify makes every ModifyTradeStop return err until called with nil.
func (e *Engine) FailModify(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modifyErr = err
}

func (e *Engine) GetTick(ctx context.Context, instrument string) (market.Tick, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.quoteErr != nil {
		return market.Tick{}, &broker.GatewayError{Op: "getTick", Err: e.quoteErr}
	}
	t, ok := e.ticks[instrument]
	if !ok {
		return market.Tick{}, broker.ErrQuoteUnavailable
	}
	return t, nil
}

func (e *Engine) SubmitOrder(ctx context.Context, req order.Request) (broker.Fill, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.rejections) > 0 {
		reason := e.rejections[0]
		e.rejections = e.rejections[1:]
		return broker.Fill{}, &broker.RejectedError{Reason: reason}
	}

	t, ok := e.ticks[req.Instrument]
	if !ok {
		return broker.Fill{}, broker.ErrQuoteUnavailable
	}

	fillPrice := t.Ask
	if req.Units < 0 {
		fillPrice = t.Bid
	}

	trade := &Trade{
		ID:         id.New(),
		Instrument: req.Instrument,
		Units:      req.Units,
		EntryPrice: fillPrice,
		StopLoss:   req.StopLoss.Price,
		TakeProfit: req.TakeProfit.Price,
		OpenTime:   t.Time,
		Open:       true,
	}
	e.trades[trade.ID] = trade

	return broker.Fill{
		TradeID:    trade.ID,
		Instrument: trade.Instrument,
		Units:      trade.Units,
		Price:      fillPrice,
		Time:       t.Time,
	}, nil
}

func (e *Engine) ModifyTradeStop(ctx context.Context, tradeID string, stopPrice float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.modifyErr != nil {
		return &broker.GatewayError{Op: "modifyTradeStop", Err: e.modifyErr}
	}
	t, ok := e.trades[tradeID]
	if !ok || !t.Open {
		return &broker.GatewayError{Op: "modifyTradeStop", Err: fmt.Errorf("no open trade %s", tradeID)}
	}
	t.StopLoss = stopPrice
	return nil
}

func (e *Engine) CloseTrade(ctx context.Context, tradeID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.trades[tradeID]
	if !ok || !t.Open {
		return &broker.GatewayError{Op: "closeTrade", Err: fmt.Errorf("no open trade %s", tradeID)}
	}
	t.Open = false
	return nil
}

// Trade returns a copy of the trade, for assertions.
func (e *Engine) Trade(tradeID string) (Trade, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.trades[tradeID]
	if !ok {
		return Trade{}, false
	}
	return *t, true
}

// OpenTrades returns copies of all open trades.
func (e *Engine) OpenTrades() []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Trade
	for _, t := range e.trades {
		if t.Open {
			out = append(out, *t)
		}
	}
	return out
}
