// Package sched defers trade submissions to a future instant and makes
// them survive process restarts. A task is persisted before its timer
// is armed, so a crash between the two leaves a recoverable record
// rather than a silently lost intent.
package sched

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rustyeddy/fxengine/internal/id"
	"github.com/rustyeddy/fxengine/metrics"
	"github.com/rustyeddy/fxengine/order"
)

// ErrPastFireTime means the requested fire time is not strictly in the
// future. Nothing was persisted.
var ErrPastFireTime = errors.New("sched: fire time must be in the future")

// RecoveryPolicy decides what happens to a task whose fire time
// elapsed while the process was down.
type RecoveryPolicy string

const (
	// RefireExpired fires the task immediately on recovery. Execution
	// of an explicit future intent is at-least-once.
	RefireExpired RecoveryPolicy = "refire"
	// MarkMissed drops the task without firing and reports it.
	MarkMissed RecoveryPolicy = "mark-missed"
)

// Handler receives a fired task's intents. In the rare window where a
// task executed but its store delete failed, the task re-fires on the
// next recovery, so handlers must tolerate a repeat invocation.
type Handler func(ctx context.Context, taskID string, intents []order.TradeIntent)

type Scheduler struct {
	store   Store
	clock   Clock
	handler Handler
	policy  RecoveryPolicy
	log     *slog.Logger

	mu    sync.Mutex
	tasks map[string]*pending
}

type pending struct {
	task  Task
	timer Timer
}

type Options struct {
	Clock  Clock          // defaults to the real clock
	Policy RecoveryPolicy // defaults to RefireExpired
	Logger *slog.Logger
}

func New(store Store, handler Handler, opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = NewClock()
	}
	if opts.Policy == "" {
		opts.Policy = RefireExpired
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Scheduler{
		store:   store,
		clock:   opts.Clock,
		handler: handler,
		policy:  opts.Policy,
		log:     opts.Logger,
		tasks:   make(map[string]*pending),
	}
}

// Schedule validates the intents, persists a pending task and arms its
// timer, in that order. It returns the task id usable for Cancel.
func (s *Scheduler) Schedule(ctx context.Context, intents []order.TradeIntent, fireAt time.Time) (string, error) {
	if len(intents) == 0 {
		return "", fmt.Errorf("sched: no intents")
	}
	for i, in := range intents {
		if err := in.Validate(); err != nil {
			return "", fmt.Errorf("sched: intent %d: %w", i, err)
		}
	}

	now := s.clock.Now()
	if !fireAt.After(now) {
		return "", ErrPastFireTime
	}

	t := Task{
		ID:        id.New(),
		Intents:   intents,
		FireAt:    fireAt,
		Status:    StatusPending,
		CreatedAt: now,
	}

	// Persist before arming: a crash here leaves a recoverable record,
	// never an armed-but-unpersisted timer.
	if err := s.store.Put(ctx, t); err != nil {
		return "", fmt.Errorf("sched: persist task: %w", err)
	}
	s.arm(t, fireAt.Sub(now))

	s.log.Info("task scheduled",
		"task", t.ID, "intents", len(intents), "fire_at", fireAt)
	metrics.TaskScheduled()
	return t.ID, nil
}

func (s *Scheduler) arm(t Task, delay time.Duration) {
	p := &pending{task: t}
	s.mu.Lock()
	s.tasks[t.ID] = p
	p.timer = s.clock.AfterFunc(delay, func() { s.fire(t.ID) })
	s.mu.Unlock()
}

// Cancel transitions a pending task to cancelled and reports whether
// it did. False means the task already fired, was already cancelled,
// was never known, or its record could not be removed; cancelling
// twice is a no-op. A cancel can never undo an already-submitted
// order, and a cancel only succeeds once the record is gone: a task
// reported cancelled can never fire again, in this process or after a
// restart.
func (s *Scheduler) Cancel(ctx context.Context, taskID string) bool {
	s.mu.Lock()
	p, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.tasks, taskID)
	if p.timer != nil {
		p.timer.Stop()
	}
	s.mu.Unlock()

	if _, err := s.store.Delete(ctx, taskID); err != nil {
		// The record is still pending and would re-fire on the next
		// recovery. Re-arm and fail the cancel, leaving the task
		// scheduled exactly as before.
		s.log.Error("delete cancelled task; cancel failed", "task", taskID, "error", err)
		s.arm(p.task, p.task.FireAt.Sub(s.clock.Now()))
		return false
	}
	s.log.Info("task cancelled", "task", taskID)
	metrics.TaskCancelled()
	return true
}

// fire runs when a task's timer expires. The order is deliberate:
// execute, transition to fired, then delete the store record. If the
// delete fails the task re-fires on the next recovery, making
// execution at-least-once in that failure window.
func (s *Scheduler) fire(taskID string) {
	s.mu.Lock()
	p, ok := s.tasks[taskID]
	if !ok {
		// Lost the race against Cancel.
		s.mu.Unlock()
		return
	}
	delete(s.tasks, taskID)
	s.mu.Unlock()

	ctx := context.Background()

	// A cancel from another process shows up as the record being gone;
	// treat that as a cancellation, not an error. If the Get itself
	// errors the task fires anyway: an unreadable store must not drop
	// an explicit intent, so firing degrades to best-effort.
	if _, ok, err := s.store.Get(ctx, taskID); err == nil && !ok {
		s.log.Info("task record gone before firing; treating as cancelled", "task", taskID)
		return
	}

	s.log.Info("task firing", "task", taskID, "intents", len(p.task.Intents))
	s.handler(ctx, taskID, p.task.Intents)
	metrics.TaskFired()

	if _, err := s.store.Delete(ctx, taskID); err != nil {
		s.log.Error("delete fired task; it will re-fire on next recovery",
			"task", taskID, "error", err)
	}
}

// Recover loads every persisted pending task, re-arming timers for
// future fire times and applying the recovery policy to ones that
// elapsed while the process was down. Safe to call repeatedly: tasks
// already armed in this process are skipped, so a daemon can rescan
// the store to pick up tasks other processes persisted. A task
// observed mid-fire may be re-armed, keeping execution at-least-once.
func (s *Scheduler) Recover(ctx context.Context) error {
	tasks, err := s.store.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("sched: list pending tasks: %w", err)
	}

	now := s.clock.Now()
	for _, t := range tasks {
		if s.armed(t.ID) {
			continue
		}
		if remaining := t.FireAt.Sub(now); remaining > 0 {
			s.arm(t, remaining)
			s.log.Info("task recovered", "task", t.ID, "fires_in", remaining)
			continue
		}

		switch s.policy {
		case MarkMissed:
			if _, err := s.store.Delete(ctx, t.ID); err != nil {
				s.log.Error("delete missed task", "task", t.ID, "error", err)
				continue
			}
			s.log.Warn("task missed while offline; not fired",
				"task", t.ID, "fire_at", t.FireAt)
			metrics.TaskMissed()
		default: // RefireExpired
			s.log.Info("task elapsed while offline; firing now",
				"task", t.ID, "fire_at", t.FireAt)
			s.arm(t, 0)
		}
	}
	return nil
}

func (s *Scheduler) armed(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[taskID]
	return ok
}

// PendingTasks lists the tasks currently armed in this process.
func (s *Scheduler) PendingTasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, 0, len(s.tasks))
	for _, p := range s.tasks {
		out = append(out, p.task)
	}
	return out
}
