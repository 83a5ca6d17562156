// journal/journal.go
package journal

import "time"

// OrderRecord is one submission outcome: what was asked for, what was
// sent, and what the broker said. The journal is observability only;
// the broker's ledger stays authoritative.
type OrderRecord struct {
	ID          string // ULID, time-sortable
	TaskID      string // scheduled task that fired this, if any
	Instrument  string
	Direction   string
	Units       int
	RiskAmount  float64
	EntryPrice  float64
	StopLoss    float64
	TakeProfit  float64
	Status      string // filled | rejected
	TradeID     string
	Reason      string
	SubmittedAt time.Time
}

// BreakEvenRecord is one terminal break-even watch event.
type BreakEvenRecord struct {
	ID         string
	TradeID    string
	Instrument string
	Result     string // completed | aborted
	Detail     string // error text on abort
	At         time.Time
}

type Journal interface {
	RecordOrder(OrderRecord) error
	RecordBreakEven(BreakEvenRecord) error
	Close() error
}

// Noop discards everything. Used when no journal is configured.
type Noop struct{}

func (Noop) RecordOrder(OrderRecord) error         { return nil }
func (Noop) RecordBreakEven(BreakEvenRecord) error { return nil }
func (Noop) Close() error                          { return nil }
