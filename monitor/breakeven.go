// Package monitor watches filled trades and moves each one's stop-loss
// to its entry price once the position is sufficiently in profit,
// eliminating downside risk on that trade. One watch per trade; the
// stop is moved at most once and the watch then terminates.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rustyeddy/fxengine/broker"
	"github.com/rustyeddy/fxengine/market"
	"github.com/rustyeddy/fxengine/metrics"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

// Watch is one break-even task for one filled trade.
type Watch struct {
	TradeID       string
	Instrument    string
	Direction     market.Direction
	EntryPrice    float64
	ThresholdPips float64
	Status        Status
}

// Listener observes watch terminations. Aborts carry the error that
// stopped the watch; they are reported here and nowhere else retried.
type Listener interface {
	BreakEvenCompleted(Watch)
	BreakEvenAborted(Watch, error)
}

// Group runs break-even watches as independent background goroutines.
// A watch polls its instrument's quote on a fixed interval and stops
// on the first completed stop move or the first error; neither outcome
// affects sibling watches.
type Group struct {
	gateway  broker.Gateway
	interval time.Duration
	listener Listener
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	active map[string]bool // tradeID -> watch running
}

type Options struct {
	Interval time.Duration // poll interval, defaults to 1s
	Listener Listener
	Logger   *slog.Logger
}

func NewGroup(gw broker.Gateway, opts Options) *Group {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Group{
		gateway:  gw,
		interval: opts.Interval,
		listener: opts.Listener,
		log:      opts.Logger,
		ctx:      ctx,
		cancel:   cancel,
		active:   make(map[string]bool),
	}
}

// Start spawns a watch for a filled trade. It reports false if a watch
// for that trade is already active; at most one runs per trade id.
func (g *Group) Start(w Watch) bool {
	g.mu.Lock()
	if g.active[w.TradeID] {
		g.mu.Unlock()
		return false
	}
	g.active[w.TradeID] = true
	g.mu.Unlock()

	w.Status = StatusActive
	g.wg.Add(1)
	go g.run(w)
	return true
}

// Close stops all watches and waits for their goroutines to exit.
func (g *Group) Close() {
	g.cancel()
	g.wg.Wait()
}

// Wait blocks until every running watch terminates on its own.
func (g *Group) Wait() {
	g.wg.Wait()
}

// ActiveCount reports how many watches are currently running.
func (g *Group) ActiveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}

func (g *Group) run(w Watch) {
	defer g.wg.Done()
	defer func() {
		g.mu.Lock()
		delete(g.active, w.TradeID)
		g.mu.Unlock()
	}()

	inst, err := market.Lookup(w.Instrument)
	if err != nil {
		g.abort(w, err)
		return
	}
	pip := inst.PipSize()

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.ctx.Done():
			return
		case <-ticker.C:
		}

		tick, err := g.gateway.GetTick(g.ctx, w.Instrument)
		if err != nil {
			g.abort(w, err)
			return
		}

		// Profit is measured at the price the position could close at
		// right now: bid for longs, ask for shorts.
		var profitPips float64
		if w.Direction == market.Long {
			profitPips = (tick.Bid - w.EntryPrice) / pip
		} else {
			profitPips = (w.EntryPrice - tick.Ask) / pip
		}

		if profitPips < w.ThresholdPips {
			continue
		}

		if err := g.gateway.ModifyTradeStop(g.ctx, w.TradeID, w.EntryPrice); err != nil {
			g.abort(w, err)
			return
		}

		w.Status = StatusCompleted
		g.log.Info("stop moved to break-even",
			"trade", w.TradeID, "instrument", w.Instrument,
			"entry", w.EntryPrice, "profit_pips", profitPips)
		metrics.BreakEvenCompleted()
		if g.listener != nil {
			g.listener.BreakEvenCompleted(w)
		}
		return
	}
}

// abort stops the watch on its first error. The error is reported and
// swallowed: a missed break-even never blocks other trades or
// monitors, and the watch is not retried.
func (g *Group) abort(w Watch, err error) {
	w.Status = StatusAborted
	g.log.Warn("break-even watch aborted",
		"trade", w.TradeID, "instrument", w.Instrument, "error", err)
	metrics.BreakEvenAborted()
	if g.listener != nil {
		g.listener.BreakEvenAborted(w, err)
	}
}
