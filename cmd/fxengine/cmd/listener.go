package cmd

import (
	"time"

	"github.com/rustyeddy/fxengine/internal/id"
	"github.com/rustyeddy/fxengine/journal"
	"github.com/rustyeddy/fxengine/monitor"
)

// journalListener records terminal break-even events. Journal failures
// are already logged by the journal's caller side; here they are
// dropped so an observability hiccup never touches a watch.
type journalListener struct {
	j journal.Journal
}

func (l journalListener) BreakEvenCompleted(w monitor.Watch) {
	_ = l.j.RecordBreakEven(journal.BreakEvenRecord{
		ID:         id.New(),
		TradeID:    w.TradeID,
		Instrument: w.Instrument,
		Result:     string(monitor.StatusCompleted),
		At:         time.Now(),
	})
}

func (l journalListener) BreakEvenAborted(w monitor.Watch, err error) {
	_ = l.j.RecordBreakEven(journal.BreakEvenRecord{
		ID:         id.New(),
		TradeID:    w.TradeID,
		Instrument: w.Instrument,
		Result:     string(monitor.StatusAborted),
		Detail:     err.Error(),
		At:         time.Now(),
	})
}
