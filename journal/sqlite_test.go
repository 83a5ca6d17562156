package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxengine/internal/id"
)

func newTestJournal(t *testing.T) *SQLite {
	t.Helper()
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func orderAt(at time.Time) OrderRecord {
	return OrderRecord{
		ID:          id.New(),
		Instrument:  "EUR_USD",
		Direction:   "long",
		Units:       3773,
		RiskAmount:  10,
		EntryPrice:  1.10015,
		StopLoss:    1.09765,
		TakeProfit:  1.10515,
		Status:      "filled",
		TradeID:     "t-100",
		SubmittedAt: at,
	}
}

func TestRecordOrder_Roundtrip(t *testing.T) {
	j := newTestJournal(t)

	want := orderAt(time.Now().UTC().Truncate(time.Second))
	want.TaskID = "task-1"
	require.NoError(t, j.RecordOrder(want))

	got, err := j.GetOrder(want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.TaskID, got.TaskID)
	assert.Equal(t, want.Instrument, got.Instrument)
	assert.Equal(t, want.Units, got.Units)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.TradeID, got.TradeID)
	assert.InDelta(t, want.EntryPrice, got.EntryPrice, 1e-9)
	assert.InDelta(t, want.StopLoss, got.StopLoss, 1e-9)
	assert.True(t, want.SubmittedAt.Equal(got.SubmittedAt))
}

func TestGetOrder_Missing(t *testing.T) {
	j := newTestJournal(t)

	_, err := j.GetOrder("no-such-id")
	assert.ErrorContains(t, err, "not found")
}

func TestRecordOrder_Rejection(t *testing.T) {
	j := newTestJournal(t)

	rec := orderAt(time.Now().UTC())
	rec.Status = "rejected"
	rec.TradeID = ""
	rec.Reason = "INSUFFICIENT_MARGIN"
	require.NoError(t, j.RecordOrder(rec))

	got, err := j.GetOrder(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "rejected", got.Status)
	assert.Equal(t, "INSUFFICIENT_MARGIN", got.Reason)
	assert.Empty(t, got.TradeID)
}

func TestListOrdersBetween(t *testing.T) {
	j := newTestJournal(t)

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for _, off := range []time.Duration{-time.Hour, 0, 30 * time.Minute, 2 * time.Hour} {
		require.NoError(t, j.RecordOrder(orderAt(base.Add(off))))
	}

	got, err := j.ListOrdersBetween(base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2, "half-open window keeps only the in-range rows")
	assert.True(t, got[0].SubmittedAt.Before(got[1].SubmittedAt), "ordered by submission time")
}

func TestListOrdersByInstrument(t *testing.T) {
	j := newTestJournal(t)

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	older := orderAt(base)
	newer := orderAt(base.Add(time.Hour))
	other := orderAt(base)
	other.Instrument = "GBP_USD"
	for _, r := range []OrderRecord{older, newer, other} {
		require.NoError(t, j.RecordOrder(r))
	}

	got, err := j.ListOrdersByInstrument("EUR_USD")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID, "newest first")
	assert.Equal(t, older.ID, got[1].ID)
}

func TestRecordBreakEven_Roundtrip(t *testing.T) {
	j := newTestJournal(t)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, j.RecordBreakEven(BreakEvenRecord{
		ID: id.New(), TradeID: "t-1", Instrument: "EUR_USD",
		Result: "completed", At: at,
	}))
	require.NoError(t, j.RecordBreakEven(BreakEvenRecord{
		ID: id.New(), TradeID: "t-1", Instrument: "EUR_USD",
		Result: "aborted", Detail: "quote stream down", At: at.Add(time.Minute),
	}))
	require.NoError(t, j.RecordBreakEven(BreakEvenRecord{
		ID: id.New(), TradeID: "t-2", Instrument: "GBP_USD",
		Result: "completed", At: at,
	}))

	got, err := j.ListBreakEvenByTrade("t-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "completed", got[0].Result)
	assert.Equal(t, "aborted", got[1].Result)
	assert.Equal(t, "quote stream down", got[1].Detail)
}

func TestNoopJournal(t *testing.T) {
	var j Journal = Noop{}
	assert.NoError(t, j.RecordOrder(OrderRecord{}))
	assert.NoError(t, j.RecordBreakEven(BreakEvenRecord{}))
	assert.NoError(t, j.Close())
}
