package sched

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/fxengine/order"
)

const schema = `
CREATE TABLE IF NOT EXISTS scheduled_tasks (
	id TEXT PRIMARY KEY,
	intents TEXT NOT NULL,
	fire_at DATETIME NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scheduled_tasks_fire_at ON scheduled_tasks(fire_at);
`

// SQLiteStore persists pending tasks so deferred submissions survive
// process restarts. Terminal tasks are deleted, not archived; the
// journal records what actually happened.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, t Task) error {
	payload, err := json.Marshal(t.Intents)
	if err != nil {
		return fmt.Errorf("encode intents: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO scheduled_tasks
		(id, intents, fire_at, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID, string(payload), t.FireAt.UTC(), string(t.Status), t.CreatedAt.UTC(),
	)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Task, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, intents, fire_at, status, created_at
		FROM scheduled_tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return Task{}, false, nil
	}
	if err != nil {
		return Task{}, false, err
	}
	return t, true, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_tasks WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListPending(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, intents, fire_at, status, created_at
		FROM scheduled_tasks
		WHERE status = ?
		ORDER BY fire_at`, string(StatusPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (Task, error) {
	var (
		t       Task
		payload string
		status  string
		fireAt  time.Time
		created time.Time
	)
	if err := r.Scan(&t.ID, &payload, &fireAt, &status, &created); err != nil {
		return Task{}, err
	}
	var intents []order.TradeIntent
	if err := json.Unmarshal([]byte(payload), &intents); err != nil {
		return Task{}, fmt.Errorf("decode intents for task %s: %w", t.ID, err)
	}
	t.Intents = intents
	t.FireAt = fireAt
	t.Status = Status(status)
	t.CreatedAt = created
	return t, nil
}
