package store

const Schema = `
CREATE TABLE IF NOT EXISTS operations (
	operation_id TEXT PRIMARY KEY,
	status TEXT NOT NULL DEFAULT 'open',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	ticket INTEGER PRIMARY KEY,
	position_id INTEGER NOT NULL,
	operation_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	volume REAL NOT NULL,
	price_open REAL NOT NULL,
	status TEXT NOT NULL DEFAULT 'open',
	close_reason TEXT NOT NULL DEFAULT '',
	opened_at DATETIME NOT NULL,
	closed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
CREATE INDEX IF NOT EXISTS idx_trades_operation ON trades(operation_id);

CREATE TABLE IF NOT EXISTS incidents (
	incident_id TEXT PRIMARY KEY,
	operation_id TEXT NOT NULL,
	ticket INTEGER NOT NULL,
	position_id INTEGER NOT NULL,
	opened_at DATETIME NOT NULL,
	classification TEXT NOT NULL,
	close_reason TEXT NOT NULL DEFAULT '',
	account_login INTEGER NOT NULL DEFAULT 0,
	account_server TEXT NOT NULL DEFAULT '',
	balance REAL NOT NULL DEFAULT 0,
	equity REAL NOT NULL DEFAULT 0,
	margin REAL NOT NULL DEFAULT 0,
	margin_free REAL NOT NULL DEFAULT 0,
	positions_total INTEGER NOT NULL DEFAULT 0,
	window_from DATETIME NOT NULL,
	window_to DATETIME NOT NULL,
	payload TEXT NOT NULL DEFAULT '{}',
	detected_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_incidents_detected ON incidents(detected_at);

CREATE TABLE IF NOT EXISTS audit_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id INTEGER NOT NULL DEFAULT 0,
	deal_id INTEGER NOT NULL DEFAULT 0,
	kind TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_order ON audit_events(order_id);
CREATE INDEX IF NOT EXISTS idx_audit_deal ON audit_events(deal_id);
`
