package store

import (
	"database/sql"
	"fmt"
	"time"
)

const tradeColumns = `ticket, position_id, operation_id, symbol, side, volume, price_open, status, close_reason, opened_at, closed_at`

func scanTrade(row interface{ Scan(...any) error }) (Trade, error) {
	var t Trade
	var closedAt sql.NullTime
	err := row.Scan(
		&t.Ticket,
		&t.PositionID,
		&t.OperationID,
		&t.Symbol,
		&t.Side,
		&t.Volume,
		&t.PriceOpen,
		&t.Status,
		&t.CloseReason,
		&t.OpenedAt,
		&closedAt,
	)
	if err != nil {
		return Trade{}, err
	}
	if closedAt.Valid {
		ct := closedAt.Time
		t.ClosedAt = &ct
	}
	return t, nil
}

// GetTrade returns a single trade leg by ticket.
func (s *SQLite) GetTrade(ticket int64) (Trade, error) {
	row := s.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE ticket = ?`, ticket)
	t, err := scanTrade(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Trade{}, fmt.Errorf("trade %d not found", ticket)
		}
		return Trade{}, err
	}
	return t, nil
}

// GetOperation returns one operation by id.
func (s *SQLite) GetOperation(operationID string) (Operation, error) {
	var op Operation
	row := s.db.QueryRow(`SELECT operation_id, status, created_at FROM operations WHERE operation_id = ?`, operationID)
	if err := row.Scan(&op.OperationID, &op.Status, &op.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Operation{}, fmt.Errorf("operation %q not found", operationID)
		}
		return Operation{}, err
	}
	return op, nil
}

// OpenTrades returns every leg still marked open, oldest first. A non-empty
// operationID narrows the result to that operation's legs.
func (s *SQLite) OpenTrades(operationID string) ([]Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE status = ?`
	args := []any{StatusOpen}
	if operationID != "" {
		query += ` AND operation_id = ?`
		args = append(args, operationID)
	}
	query += ` ORDER BY opened_at ASC, ticket ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListIncidentsBetween returns incidents detected within [start, end),
// newest first.
func (s *SQLite) ListIncidentsBetween(start, end time.Time) ([]Incident, error) {
	rows, err := s.db.Query(`
		SELECT incident_id, operation_id, ticket, position_id, opened_at, classification, close_reason,
		       account_login, account_server, balance, equity, margin, margin_free,
		       positions_total, window_from, window_to, payload, detected_at
		FROM incidents
		WHERE detected_at >= ? AND detected_at < ?
		ORDER BY detected_at DESC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Incident
	for rows.Next() {
		var inc Incident
		if err := rows.Scan(
			&inc.IncidentID,
			&inc.OperationID,
			&inc.Ticket,
			&inc.PositionID,
			&inc.OpenedAt,
			&inc.Classification,
			&inc.CloseReason,
			&inc.AccountLogin,
			&inc.AccountServer,
			&inc.Balance,
			&inc.Equity,
			&inc.Margin,
			&inc.MarginFree,
			&inc.PositionsTotal,
			&inc.WindowFrom,
			&inc.WindowTo,
			&inc.Payload,
			&inc.DetectedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// HasAuditEvent reports whether a locally recorded audit event references
// the given order or deal. Zero identifiers are treated as absent.
func (s *SQLite) HasAuditEvent(orderID, dealID int64) (bool, error) {
	if orderID == 0 && dealID == 0 {
		return false, nil
	}

	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM audit_events
		WHERE (? != 0 AND order_id = ?) OR (? != 0 AND deal_id = ?)`,
		orderID, orderID, dealID, dealID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
