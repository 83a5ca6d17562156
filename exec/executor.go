// Package exec turns trade intents into broker submissions: quote,
// size, build, submit, report. Batch execution is fan-out with
// per-intent outcomes; one instrument's bad quote or rejection never
// blocks the others.
package exec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/fxengine/broker"
	"github.com/rustyeddy/fxengine/internal/id"
	"github.com/rustyeddy/fxengine/journal"
	"github.com/rustyeddy/fxengine/market"
	"github.com/rustyeddy/fxengine/metrics"
	"github.com/rustyeddy/fxengine/monitor"
	"github.com/rustyeddy/fxengine/order"
	"github.com/rustyeddy/fxengine/risk"
)

type OutcomeStatus string

const (
	Filled   OutcomeStatus = "filled"
	Rejected OutcomeStatus = "rejected"
)

// Outcome is the per-intent result of one submission attempt.
type Outcome struct {
	Intent  order.TradeIntent
	Status  OutcomeStatus
	TradeID string // set when filled
	Units   int    // signed size actually sent
	Price   float64
	Reason  string // set when rejected
}

func (o Outcome) OK() bool { return o.Status == Filled }

// BatchResult aggregates a batch's outcomes. Succeeded+Failed always
// equals the number of intents submitted.
type BatchResult struct {
	Outcomes  []Outcome
	Succeeded int
	Failed    int
}

type Executor struct {
	gateway  broker.Gateway
	monitors *monitor.Group
	journal  journal.Journal
	log      *slog.Logger
	limit    int
}

type Options struct {
	Monitors *monitor.Group  // optional; break-even flags are ignored without it
	Journal  journal.Journal // optional
	Logger   *slog.Logger
	// BatchConcurrency bounds concurrent submissions within one batch.
	BatchConcurrency int
}

func New(gw broker.Gateway, opts Options) *Executor {
	if opts.Journal == nil {
		opts.Journal = journal.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 4
	}
	return &Executor{
		gateway:  gw,
		monitors: opts.Monitors,
		journal:  opts.Journal,
		log:      opts.Logger,
		limit:    opts.BatchConcurrency,
	}
}

// ExecuteSingle quotes, sizes, builds and submits one intent.
// Validation happens before any side effect; a rejected intent leaves
// no residue anywhere. Errors come back inside the Outcome, not as a
// Go error: the caller decides what a rejection means.
func (e *Executor) ExecuteSingle(ctx context.Context, intent order.TradeIntent) Outcome {
	return e.execute(ctx, "", intent)
}

func (e *Executor) execute(ctx context.Context, taskID string, intent order.TradeIntent) Outcome {
	if err := intent.Validate(); err != nil {
		return e.reject(taskID, intent, err.Error())
	}
	inst, err := market.Lookup(intent.Instrument)
	if err != nil {
		return e.reject(taskID, intent, err.Error())
	}

	tick, err := e.gateway.GetTick(ctx, intent.Instrument)
	if err != nil {
		return e.reject(taskID, intent, reasonFor(err))
	}

	sized, err := risk.Compute(risk.Inputs{
		Direction:    intent.Direction,
		StopLossPips: intent.StopLossPips,
		RiskAmount:   intent.RiskAmount,
	}, tick, inst)
	if err != nil {
		return e.reject(taskID, intent, reasonFor(err))
	}
	if sized.Units == 0 {
		// Valid result, but submitting zero units is meaningless; make
		// it visible instead of bouncing it off the broker.
		e.log.Warn("computed position size is zero; not submitting",
			"instrument", intent.Instrument,
			"risk_amount", intent.RiskAmount,
			"effective_stop_pips", sized.EffectiveStop)
		return e.reject(taskID, intent, "computed position size is zero")
	}
	if math.Abs(float64(sized.Units)) < inst.MinimumTradeSize {
		return e.reject(taskID, intent,
			fmt.Sprintf("size %d below instrument minimum %.0f", sized.Units, inst.MinimumTradeSize))
	}

	req := order.Build(intent, sized.Units, tick, inst)

	fill, err := e.gateway.SubmitOrder(ctx, req)
	if err != nil {
		e.log.Warn("order rejected",
			"instrument", intent.Instrument, "units", req.Units, "error", err)
		out := e.reject(taskID, intent, reasonFor(err))
		out.Units = req.Units
		return out
	}

	e.log.Info("order filled",
		"instrument", fill.Instrument, "trade", fill.TradeID,
		"units", fill.Units, "price", fill.Price)
	metrics.OrderFilled()

	e.record(journal.OrderRecord{
		ID:          id.New(),
		TaskID:      taskID,
		Instrument:  intent.Instrument,
		Direction:   string(intent.Direction),
		Units:       fill.Units,
		RiskAmount:  intent.RiskAmount,
		EntryPrice:  fill.Price,
		StopLoss:    req.StopLoss.Price,
		TakeProfit:  req.TakeProfit.Price,
		Status:      string(Filled),
		TradeID:     fill.TradeID,
		SubmittedAt: time.Now(),
	})

	if intent.MoveToBreakEven && e.monitors != nil {
		// Fire-and-forget: the watch runs in the background and the
		// execute call returns as soon as the submission is done.
		e.monitors.Start(monitor.Watch{
			TradeID:       fill.TradeID,
			Instrument:    fill.Instrument,
			Direction:     intent.Direction,
			EntryPrice:    fill.Price,
			ThresholdPips: intent.BreakEvenPips,
		})
	}

	return Outcome{
		Intent:  intent,
		Status:  Filled,
		TradeID: fill.TradeID,
		Units:   fill.Units,
		Price:   fill.Price,
	}
}

// ExecuteBatch submits every intent, each independently quoted and
// sized. With N intents and M failures the result has exactly N−M
// successes; the batch itself never fails as a whole.
func (e *Executor) ExecuteBatch(ctx context.Context, intents []order.TradeIntent) BatchResult {
	return e.executeBatch(ctx, "", intents)
}

func (e *Executor) executeBatch(ctx context.Context, taskID string, intents []order.TradeIntent) BatchResult {
	outcomes := make([]Outcome, len(intents))

	g := new(errgroup.Group)
	g.SetLimit(e.limit)
	for i, intent := range intents {
		i, intent := i, intent
		g.Go(func() error {
			outcomes[i] = e.execute(ctx, taskID, intent)
			return nil
		})
	}
	// Workers never return an error; Wait is only a join point.
	_ = g.Wait()

	res := BatchResult{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.OK() {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}
	metrics.BatchSize(len(intents))
	e.log.Info("batch executed",
		"intents", len(intents), "succeeded", res.Succeeded, "failed", res.Failed)
	return res
}

// HandleTask adapts the executor to the scheduler's handler shape. A
// one-intent task runs as a single submission, anything larger as a
// batch.
func (e *Executor) HandleTask(ctx context.Context, taskID string, intents []order.TradeIntent) {
	if len(intents) == 1 {
		e.execute(ctx, taskID, intents[0])
		return
	}
	e.executeBatch(ctx, taskID, intents)
}

func (e *Executor) reject(taskID string, intent order.TradeIntent, reason string) Outcome {
	metrics.OrderRejected()
	e.record(journal.OrderRecord{
		ID:          id.New(),
		TaskID:      taskID,
		Instrument:  intent.Instrument,
		Direction:   string(intent.Direction),
		RiskAmount:  intent.RiskAmount,
		Status:      string(Rejected),
		Reason:      reason,
		SubmittedAt: time.Now(),
	})
	return Outcome{Intent: intent, Status: Rejected, Reason: reason}
}

func (e *Executor) record(rec journal.OrderRecord) {
	if err := e.journal.RecordOrder(rec); err != nil {
		e.log.Error("journal order", "error", err)
	}
}

func reasonFor(err error) string {
	var rej *broker.RejectedError
	if errors.As(err, &rej) {
		return rej.Reason
	}
	return err.Error()
}
