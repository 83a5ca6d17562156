// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL DEFAULT '',
	instrument TEXT NOT NULL,
	direction TEXT NOT NULL,
	units INTEGER NOT NULL,
	risk_amount REAL NOT NULL,
	entry_price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	take_profit REAL NOT NULL,
	status TEXT NOT NULL,
	trade_id TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL DEFAULT '',
	submitted_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_submitted_at ON orders(submitted_at);
CREATE INDEX IF NOT EXISTS idx_orders_instrument ON orders(instrument);

CREATE TABLE IF NOT EXISTS breakeven_events (
	id TEXT PRIMARY KEY,
	trade_id TEXT NOT NULL,
	instrument TEXT NOT NULL,
	result TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_breakeven_trade ON breakeven_events(trade_id);
`
