package store

import (
	"database/sql"
	"fmt"
	"time"

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
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) InsertOperation(op Operation) error {
	if op.Status == "" {
		op.Status = OperationOpen
	}
	_, err := s.db.Exec(`
		INSERT INTO operations (operation_id, status, created_at)
		VALUES (?, ?, ?)`,
		op.OperationID, op.Status, op.CreatedAt,
	)
	return err
}

func (s *SQLite) InsertTrade(t Trade) error {
	if t.Status == "" {
		t.Status = StatusOpen
	}
	_, err := s.db.Exec(`
		INSERT INTO trades
		(ticket, position_id, operation_id, symbol, side, volume, price_open, status, close_reason, opened_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Ticket, t.PositionID, t.OperationID, t.Symbol, t.Side,
		t.Volume, t.PriceOpen, t.Status, t.CloseReason, t.OpenedAt, t.ClosedAt,
	)
	return err
}

func (s *SQLite) InsertAuditEvent(ev AuditEvent) error {
	_, err := s.db.Exec(`
		INSERT INTO audit_events (order_id, deal_id, kind, created_at)
		VALUES (?, ?, ?, ?)`,
		ev.OrderID, ev.DealID, ev.Kind, ev.CreatedAt,
	)
	return err
}

// CloseTradeWithIncident terminalizes one open leg and records its incident
// in a single transaction, then re-derives the owning operation's status.
// The trade update and the incident insert commit together or not at all: a
// leg must never read closed without its audit record existing.
func (s *SQLite) CloseTradeWithIncident(ticket int64, status, closeReason string, closedAt time.Time, inc Incident) error {
	return s.closeTrade(ticket, status, closeReason, closedAt, &inc)
}

// CloseTrade terminalizes one open leg without an incident record. Used by
// the manual-close sweep, where the terminal itself is the evidence.
func (s *SQLite) CloseTrade(ticket int64, status, closeReason string, closedAt time.Time) error {
	return s.closeTrade(ticket, status, closeReason, closedAt, nil)
}

func (s *SQLite) closeTrade(ticket int64, status, closeReason string, closedAt time.Time, inc *Incident) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE trades
		SET status = ?, close_reason = ?, closed_at = ?
		WHERE ticket = ? AND status = ?`,
		status, closeReason, closedAt, ticket, StatusOpen,
	)
	if err != nil {
		return fmt.Errorf("update trade %d: %w", ticket, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("trade %d is not open", ticket)
	}

	var operationID string
	if err := tx.QueryRow(`SELECT operation_id FROM trades WHERE ticket = ?`, ticket).Scan(&operationID); err != nil {
		return fmt.Errorf("lookup operation for trade %d: %w", ticket, err)
	}

	if inc != nil {
		_, err = tx.Exec(`
			INSERT INTO incidents
			(incident_id, operation_id, ticket, position_id, opened_at, classification, close_reason,
			 account_login, account_server, balance, equity, margin, margin_free,
			 positions_total, window_from, window_to, payload, detected_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inc.IncidentID, inc.OperationID, inc.Ticket, inc.PositionID, inc.OpenedAt,
			inc.Classification, inc.CloseReason,
			inc.AccountLogin, inc.AccountServer, inc.Balance, inc.Equity, inc.Margin, inc.MarginFree,
			inc.PositionsTotal, inc.WindowFrom, inc.WindowTo, inc.Payload, inc.DetectedAt,
		)
		if err != nil {
			return fmt.Errorf("insert incident for trade %d: %w", ticket, err)
		}
	}

	// Operation is closed exactly when no legs remain open. Derived inside
	// the same transaction so the invariant holds at every commit point.
	var open int
	err = tx.QueryRow(`SELECT COUNT(*) FROM trades WHERE operation_id = ? AND status = ?`,
		operationID, StatusOpen).Scan(&open)
	if err != nil {
		return fmt.Errorf("count open legs for operation %s: %w", operationID, err)
	}
	if open == 0 {
		if _, err := tx.Exec(`UPDATE operations SET status = ? WHERE operation_id = ?`,
			OperationClosed, operationID); err != nil {
			return fmt.Errorf("close operation %s: %w", operationID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
