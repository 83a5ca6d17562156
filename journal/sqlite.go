package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordOrder(r OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
		(id, task_id, instrument, direction, units, risk_amount, entry_price, stop_loss, take_profit, status, trade_id, reason, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.TaskID, r.Instrument, r.Direction, r.Units, r.RiskAmount,
		r.EntryPrice, r.StopLoss, r.TakeProfit, r.Status, r.TradeID, r.Reason, r.SubmittedAt,
	)
	return err
}

func (j *SQLite) RecordBreakEven(r BreakEvenRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO breakeven_events
		(id, trade_id, instrument, result, detail, at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.TradeID, r.Instrument, r.Result, r.Detail, r.At,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
