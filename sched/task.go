// sched/task.go
package sched

import (
	"time"

	"github.com/rustyeddy/fxengine/order"
)

// Status is the lifecycle of a scheduled task. Pending is the only
// non-terminal state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusFired     Status = "fired"
	StatusCancelled Status = "cancelled"
)

// Task is a deferred submission of one or more trade intents. Tasks
// are owned exclusively by the Scheduler: persisted on creation and
// removed exactly once when they reach a terminal state. Timer handles
// are never part of the task; they die with the process and are
// re-derived from the clock on recovery.
type Task struct {
	ID        string
	Intents   []order.TradeIntent
	FireAt    time.Time
	Status    Status
	CreatedAt time.Time
}
