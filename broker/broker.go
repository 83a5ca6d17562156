package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/fxengine/market"
	"github.com/rustyeddy/fxengine/order"
)

// Gateway is the engine's view of the broker: quotes in, orders out,
// plus the two mutations the break-even monitor and the operator need.
// The gateway is fire-and-report; the broker's ledger stays
// authoritative.
type Gateway interface {
	GetTick(ctx context.Context, instrument string) (market.Tick, error)
	SubmitOrder(ctx context.Context, req order.Request) (Fill, error)
	ModifyTradeStop(ctx context.Context, tradeID string, stopPrice float64) error
	CloseTrade(ctx context.Context, tradeID string) error
}

// Fill confirms an entry execution.
type Fill struct {
	TradeID    string
	Instrument string
	Units      int
	Price      float64
	Time       time.Time
}

// ErrQuoteUnavailable means the broker had no current price for the
// instrument. Transient; the caller may retry the whole intent.
var ErrQuoteUnavailable = errors.New("broker: quote unavailable")

// GatewayError is a network, auth or broker-side failure. In a batch
// it is recorded against the one intent involved and never aborts the
// siblings.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("broker %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// RejectedError is the broker declining an order outright (the FOK
// entry could not fill, margin was insufficient, and so on).
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("order rejected: %s", e.Reason)
}
