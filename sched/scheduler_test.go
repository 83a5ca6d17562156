package sched

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxengine/market"
	"github.com/rustyeddy/fxengine/order"
)

// fakeClock runs timer callbacks synchronously from Advance, never
// from AfterFunc itself.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

type capturedFire struct {
	taskID  string
	intents []order.TradeIntent
}

type captureHandler struct {
	mu    sync.Mutex
	fires []capturedFire
}

func (h *captureHandler) handle(ctx context.Context, taskID string, intents []order.TradeIntent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fires = append(h.fires, capturedFire{taskID: taskID, intents: intents})
}

func (h *captureHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.fires)
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

func newTestScheduler(t *testing.T, policy RecoveryPolicy) (*Scheduler, *MemStore, *fakeClock, *captureHandler) {
	t.Helper()
	store := NewMemStore()
	clock := newFakeClock()
	h := &captureHandler{}
	s := New(store, h.handle, Options{Clock: clock, Policy: policy})
	return s, store, clock, h
}

func TestSchedule_FiresAtTime(t *testing.T) {
	ctx := context.Background()
	s, store, clock, h := newTestScheduler(t, RefireExpired)

	id, err := s.Schedule(ctx, []order.TradeIntent{testIntent()}, clock.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// Persisted immediately, before firing.
	_, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(59 * time.Minute)
	assert.Equal(t, 0, h.count())

	clock.Advance(time.Minute)
	require.Equal(t, 1, h.count())
	assert.Equal(t, id, h.fires[0].taskID)
	assert.Len(t, h.fires[0].intents, 1)

	// Record removed after firing.
	_, ok, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSchedule_PastFireTime(t *testing.T) {
	ctx := context.Background()
	s, store, clock, _ := newTestScheduler(t, RefireExpired)

	_, err := s.Schedule(ctx, []order.TradeIntent{testIntent()}, clock.Now().Add(-time.Second))
	assert.ErrorIs(t, err, ErrPastFireTime)

	_, err = s.Schedule(ctx, []order.TradeIntent{testIntent()}, clock.Now())
	assert.ErrorIs(t, err, ErrPastFireTime)

	// No residue.
	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSchedule_InvalidIntentLeavesNoRecord(t *testing.T) {
	ctx := context.Background()
	s, store, clock, _ := newTestScheduler(t, RefireExpired)

	bad := testIntent()
	bad.RiskAmount = -5

	_, err := s.Schedule(ctx, []order.TradeIntent{bad}, clock.Now().Add(time.Hour))
	require.Error(t, err)

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCancel_BeforeFire(t *testing.T) {
	ctx := context.Background()
	s, store, clock, h := newTestScheduler(t, RefireExpired)

	id, err := s.Schedule(ctx, []order.TradeIntent{testIntent()}, clock.Now().Add(time.Hour))
	require.NoError(t, err)

	assert.True(t, s.Cancel(ctx, id))
	// Cancelling twice: second is a no-op, not an error.
	assert.False(t, s.Cancel(ctx, id))

	clock.Advance(2 * time.Hour)
	assert.Equal(t, 0, h.count(), "cancelled task must never reach the executor")

	_, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCancel_AfterFire(t *testing.T) {
	ctx := context.Background()
	s, _, clock, h := newTestScheduler(t, RefireExpired)

	id, err := s.Schedule(ctx, []order.TradeIntent{testIntent()}, clock.Now().Add(time.Minute))
	require.NoError(t, err)

	clock.Advance(time.Minute)
	require.Equal(t, 1, h.count())

	assert.False(t, s.Cancel(ctx, id))
}

func TestCancel_Unknown(t *testing.T) {
	s, _, _, _ := newTestScheduler(t, RefireExpired)
	assert.False(t, s.Cancel(context.Background(), "no-such-task"))
}

func TestRecover_FutureTaskRearms(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	clock := newFakeClock()

	// A task persisted by a previous process.
	require.NoError(t, store.Put(ctx, Task{
		ID:        "task-1",
		Intents:   []order.TradeIntent{testIntent()},
		FireAt:    clock.Now().Add(30 * time.Minute),
		Status:    StatusPending,
		CreatedAt: clock.Now().Add(-time.Hour),
	}))

	h := &captureHandler{}
	s := New(store, h.handle, Options{Clock: clock, Policy: RefireExpired})
	require.NoError(t, s.Recover(ctx))

	assert.Len(t, s.PendingTasks(), 1)
	assert.Equal(t, 0, h.count())

	clock.Advance(30 * time.Minute)
	assert.Equal(t, 1, h.count())
}

func TestRecover_ElapsedTaskRefires(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	clock := newFakeClock()

	require.NoError(t, store.Put(ctx, Task{
		ID:        "task-late",
		Intents:   []order.TradeIntent{testIntent()},
		FireAt:    clock.Now().Add(-10 * time.Minute),
		Status:    StatusPending,
		CreatedAt: clock.Now().Add(-time.Hour),
	}))

	h := &captureHandler{}
	s := New(store, h.handle, Options{Clock: clock, Policy: RefireExpired})
	require.NoError(t, s.Recover(ctx))

	// Elapsed while offline: fired immediately rather than dropped.
	clock.Advance(0)
	require.Equal(t, 1, h.count())
	assert.Equal(t, "task-late", h.fires[0].taskID)

	_, ok, err := store.Get(ctx, "task-late")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecover_RescanArmsNewTasksWithoutDuplicating(t *testing.T) {
	ctx := context.Background()
	s, store, clock, h := newTestScheduler(t, RefireExpired)

	id, err := s.Schedule(ctx, []order.TradeIntent{testIntent()}, clock.Now().Add(time.Hour))
	require.NoError(t, err)

	// Another process persisted a task into the shared store; only a
	// rescan can arm it here.
	require.NoError(t, store.Put(ctx, Task{
		ID:        "task-ext",
		Intents:   []order.TradeIntent{testIntent()},
		FireAt:    clock.Now().Add(30 * time.Minute),
		Status:    StatusPending,
		CreatedAt: clock.Now(),
	}))

	require.NoError(t, s.Recover(ctx))
	require.NoError(t, s.Recover(ctx))
	assert.Len(t, s.PendingTasks(), 2, "repeat rescans never duplicate armed tasks")

	clock.Advance(2 * time.Hour)
	require.Equal(t, 2, h.count())
	fired := map[string]bool{}
	for _, f := range h.fires {
		fired[f.taskID] = true
	}
	assert.True(t, fired[id])
	assert.True(t, fired["task-ext"])
}

func TestRecover_MarkMissedDropsWithoutFiring(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	clock := newFakeClock()

	require.NoError(t, store.Put(ctx, Task{
		ID:        "task-missed",
		Intents:   []order.TradeIntent{testIntent()},
		FireAt:    clock.Now().Add(-10 * time.Minute),
		Status:    StatusPending,
		CreatedAt: clock.Now().Add(-time.Hour),
	}))

	h := &captureHandler{}
	s := New(store, h.handle, Options{Clock: clock, Policy: MarkMissed})
	require.NoError(t, s.Recover(ctx))

	clock.Advance(time.Hour)
	assert.Equal(t, 0, h.count())

	_, ok, err := store.Get(ctx, "task-missed")
	require.NoError(t, err)
	assert.False(t, ok)
}

// flakyDeleteStore fails the next n Delete calls.
type flakyDeleteStore struct {
	*MemStore
	mu   sync.Mutex
	fail int
}

func (f *flakyDeleteStore) Delete(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	if f.fail > 0 {
		f.fail--
		f.mu.Unlock()
		return false, errors.New("disk full")
	}
	f.mu.Unlock()
	return f.MemStore.Delete(ctx, id)
}

func TestCancel_StoreDeleteFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyDeleteStore{MemStore: NewMemStore(), fail: 1}
	clock := newFakeClock()
	h := &captureHandler{}
	s := New(store, h.handle, Options{Clock: clock, Policy: RefireExpired})

	id, err := s.Schedule(ctx, []order.TradeIntent{testIntent()}, clock.Now().Add(time.Hour))
	require.NoError(t, err)

	// The record could not be removed, so the cancel did not happen:
	// reporting success here would let the task fire after a restart.
	assert.False(t, s.Cancel(ctx, id))

	// Still scheduled, record intact, fires at the original time.
	assert.Len(t, s.PendingTasks(), 1)
	_, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(time.Hour)
	assert.Equal(t, 1, h.count())

	_, ok, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "record removed after firing")
}

func TestCancel_RetryAfterDeleteFailureSucceeds(t *testing.T) {
	ctx := context.Background()
	store := &flakyDeleteStore{MemStore: NewMemStore(), fail: 1}
	clock := newFakeClock()
	h := &captureHandler{}
	s := New(store, h.handle, Options{Clock: clock, Policy: RefireExpired})

	id, err := s.Schedule(ctx, []order.TradeIntent{testIntent()}, clock.Now().Add(time.Hour))
	require.NoError(t, err)

	require.False(t, s.Cancel(ctx, id))
	assert.True(t, s.Cancel(ctx, id), "store recovered; cancel now sticks")

	clock.Advance(2 * time.Hour)
	assert.Equal(t, 0, h.count(), "cancelled task must never reach the executor")

	_, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFire_RecordGoneIsCancellation(t *testing.T) {
	ctx := context.Background()
	s, store, clock, h := newTestScheduler(t, RefireExpired)

	id, err := s.Schedule(ctx, []order.TradeIntent{testIntent()}, clock.Now().Add(time.Minute))
	require.NoError(t, err)

	// Another process cancelled via the shared store.
	_, err = store.Delete(ctx, id)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	assert.Equal(t, 0, h.count())
}

func TestSchedule_BatchPayload(t *testing.T) {
	ctx := context.Background()
	s, _, clock, h := newTestScheduler(t, RefireExpired)

	intents := []order.TradeIntent{testIntent(), testIntent(), testIntent()}
	_, err := s.Schedule(ctx, intents, clock.Now().Add(time.Minute))
	require.NoError(t, err)

	clock.Advance(time.Minute)
	require.Equal(t, 1, h.count())
	assert.Len(t, h.fires[0].intents, 3)
}
