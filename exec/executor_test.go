package exec

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxengine/broker/sim"
	"github.com/rustyeddy/fxengine/journal"
	"github.com/rustyeddy/fxengine/market"
	"github.com/rustyeddy/fxengine/monitor"
	"github.com/rustyeddy/fxengine/order"
)

type captureJournal struct {
	mu     sync.Mutex
	orders []journal.OrderRecord
}

func (j *captureJournal) RecordOrder(r journal.OrderRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.orders = append(j.orders, r)
	return nil
}

func (j *captureJournal) RecordBreakEven(journal.BreakEvenRecord) error { return nil }
func (j *captureJournal) Close() error                                 { return nil }

func (j *captureJournal) count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.orders)
}

func eurusdTick(bid, ask float64) market.Tick {
	return market.Tick{Instrument: "EUR_USD", Bid: bid, Ask: ask, Time: time.Now()}
}

func testIntent() order.TradeIntent {
	return order.TradeIntent{
		Instrument:     "EUR_USD",
		Direction:      market.Long,
		RiskAmount:     10,
		StopLossPips:   25,
		TakeProfitPips: 50,
	}
}

func TestExecuteSingle_Fill(t *testing.T) {
	eng := sim.NewEngine()
	eng.SetTick(eurusdTick(1.10000, 1.10015))
	j := &captureJournal{}
	ex := New(eng, Options{Journal: j})

	out := ex.ExecuteSingle(context.Background(), testIntent())

	require.True(t, out.OK())
	assert.Equal(t, 3773, out.Units)
	assert.InDelta(t, 1.10015, out.Price, 1e-9)
	require.NotEmpty(t, out.TradeID)

	trade, ok := eng.Trade(out.TradeID)
	require.True(t, ok)
	assert.Equal(t, 3773, trade.Units)
	assert.InDelta(t, 1.09765, trade.StopLoss, 1e-9)
	assert.InDelta(t, 1.10515, trade.TakeProfit, 1e-9)

	require.Equal(t, 1, j.count())
	assert.Equal(t, "filled", j.orders[0].Status)
	assert.Equal(t, out.TradeID, j.orders[0].TradeID)
}

func TestExecuteSingle_InvalidIntent(t *testing.T) {
	eng := sim.NewEngine() // no prices: any broker call would fail loudly
	ex := New(eng, Options{})

	bad := testIntent()
	bad.RiskAmount = -1

	out := ex.ExecuteSingle(context.Background(), bad)
	assert.False(t, out.OK())
	assert.Contains(t, out.Reason, "risk_amount")
	assert.Empty(t, eng.OpenTrades(), "validation must precede any side effect")
}

func TestExecuteSingle_QuoteUnavailable(t *testing.T) {
	eng := sim.NewEngine()
	ex := New(eng, Options{})

	out := ex.ExecuteSingle(context.Background(), testIntent())
	assert.False(t, out.OK())
	assert.Contains(t, out.Reason, "quote unavailable")
}

func TestExecuteSingle_Rejection(t *testing.T) {
	eng := sim.NewEngine()
	eng.SetTick(eurusdTick(1.10000, 1.10015))
	eng.RejectNext("INSUFFICIENT_MARGIN")
	ex := New(eng, Options{})

	out := ex.ExecuteSingle(context.Background(), testIntent())
	assert.False(t, out.OK())
	assert.Equal(t, "INSUFFICIENT_MARGIN", out.Reason)
}

func TestExecuteSingle_ZeroUnitsNotSubmitted(t *testing.T) {
	eng := sim.NewEngine()
	eng.SetTick(eurusdTick(1.10000, 1.10015))
	ex := New(eng, Options{})

	tiny := testIntent()
	tiny.RiskAmount = 0.01
	tiny.StopLossPips = 500

	out := ex.ExecuteSingle(context.Background(), tiny)
	assert.False(t, out.OK())
	assert.Equal(t, "computed position size is zero", out.Reason)
	assert.Empty(t, eng.OpenTrades())
}

func TestExecuteBatch_PartialFailure(t *testing.T) {
	eng := sim.NewEngine()
	eng.SetTick(eurusdTick(1.10000, 1.10015))
	eng.SetTick(market.Tick{Instrument: "GBP_USD", Bid: 1.25000, Ask: 1.25020, Time: time.Now()})
	// No AUD_USD tick: that intent fails with QuoteUnavailable.
	ex := New(eng, Options{})

	intents := []order.TradeIntent{
		testIntent(),
		{Instrument: "GBP_USD", Direction: market.Short, RiskAmount: 20, StopLossPips: 30, TakeProfitPips: 60},
		{Instrument: "AUD_USD", Direction: market.Long, RiskAmount: 10, StopLossPips: 20, TakeProfitPips: 40},
	}

	res := ex.ExecuteBatch(context.Background(), intents)

	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Outcomes, 3)

	// Outcomes stay aligned with their intents.
	assert.True(t, res.Outcomes[0].OK())
	assert.True(t, res.Outcomes[1].OK())
	assert.False(t, res.Outcomes[2].OK())
	assert.Contains(t, res.Outcomes[2].Reason, "quote unavailable")

	assert.Len(t, eng.OpenTrades(), 2)
}

func TestExecuteBatch_AllFailuresDoNotRaise(t *testing.T) {
	eng := sim.NewEngine() // no prices at all
	ex := New(eng, Options{})

	intents := []order.TradeIntent{testIntent(), testIntent(), testIntent(), testIntent()}
	res := ex.ExecuteBatch(context.Background(), intents)

	assert.Equal(t, 0, res.Succeeded)
	assert.Equal(t, 4, res.Failed)
	for _, out := range res.Outcomes {
		assert.False(t, out.OK())
		assert.NotEmpty(t, out.Reason)
	}
}

func TestExecuteSingle_SpawnsBreakEvenWatch(t *testing.T) {
	eng := sim.NewEngine()
	eng.SetTick(eurusdTick(1.10000, 1.10015))

	mons := monitor.NewGroup(eng, monitor.Options{Interval: time.Hour})
	defer mons.Close()
	ex := New(eng, Options{Monitors: mons})

	in := testIntent()
	in.MoveToBreakEven = true
	in.BreakEvenPips = 15

	out := ex.ExecuteSingle(context.Background(), in)
	require.True(t, out.OK())

	// The watch runs in the background; the execute call already returned.
	assert.Equal(t, 1, mons.ActiveCount())
}

func TestExecuteSingle_NoWatchWithoutFlag(t *testing.T) {
	eng := sim.NewEngine()
	eng.SetTick(eurusdTick(1.10000, 1.10015))

	mons := monitor.NewGroup(eng, monitor.Options{Interval: time.Hour})
	defer mons.Close()
	ex := New(eng, Options{Monitors: mons})

	out := ex.ExecuteSingle(context.Background(), testIntent())
	require.True(t, out.OK())
	assert.Equal(t, 0, mons.ActiveCount())
}
