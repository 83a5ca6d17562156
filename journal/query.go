package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetOrder returns a single order record by ID.
func (j *SQLite) GetOrder(id string) (OrderRecord, error) {
	row := j.db.QueryRow(`
		SELECT id, task_id, instrument, direction, units, risk_amount, entry_price, stop_loss, take_profit, status, trade_id, reason, submitted_at
		FROM orders
		WHERE id = ?`, id)

	rec, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return OrderRecord{}, fmt.Errorf("order %q not found", id)
	}
	return rec, err
}

// ListOrdersBetween returns orders submitted within [start, end).
func (j *SQLite) ListOrdersBetween(start, end time.Time) ([]OrderRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, task_id, instrument, direction, units, risk_amount, entry_price, stop_loss, take_profit, status, trade_id, reason, submitted_at
		FROM orders
		WHERE submitted_at >= ? AND submitted_at < ?
		ORDER BY submitted_at ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		rec, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListOrdersByInstrument returns every order for one instrument,
// newest first.
func (j *SQLite) ListOrdersByInstrument(instrument string) ([]OrderRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, task_id, instrument, direction, units, risk_amount, entry_price, stop_loss, take_profit, status, trade_id, reason, submitted_at
		FROM orders
		WHERE instrument = ?
		ORDER BY submitted_at DESC`, instrument)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		rec, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListBreakEvenByTrade returns break-even events for one trade.
func (j *SQLite) ListBreakEvenByTrade(tradeID string) ([]BreakEvenRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, trade_id, instrument, result, detail, at
		FROM breakeven_events
		WHERE trade_id = ?
		ORDER BY at ASC`, tradeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BreakEvenRecord
	for rows.Next() {
		var rec BreakEvenRecord
		if err := rows.Scan(&rec.ID, &rec.TradeID, &rec.Instrument, &rec.Result, &rec.Detail, &rec.At); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(r rowScanner) (OrderRecord, error) {
	var rec OrderRecord
	err := r.Scan(
		&rec.ID,
		&rec.TaskID,
		&rec.Instrument,
		&rec.Direction,
		&rec.Units,
		&rec.RiskAmount,
		&rec.EntryPrice,
		&rec.StopLoss,
		&rec.TakeProfit,
		&rec.Status,
		&rec.TradeID,
		&rec.Reason,
		&rec.SubmittedAt,
	)
	return rec, err
}
