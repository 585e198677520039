// Package store persists trade legs, operations and the reset-incident
// audit trail in SQLite.
package store

import "time"

// Trade leg statuses. Everything except StatusOpen is terminal.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
	StatusReset  = "reset"
	StatusManual = "closed_manual"
)

// Operation statuses.
const (
	OperationOpen   = "open"
	OperationClosed = "closed"
)

// Trade is one broker position leg tracked locally.
type Trade struct {
	Ticket      int64
	PositionID  int64
	OperationID string
	Symbol      string
	Side        string
	Volume      float64
	PriceOpen   float64
	Status      string
	CloseReason string
	OpenedAt    time.Time
	ClosedAt    *time.Time
}

// Terminal reports whether the leg has reached a final status.
func (t Trade) Terminal() bool {
	return t.Status != StatusOpen
}

// Operation groups one or more legs opened together. It is closed exactly
// when every leg is terminal.
type Operation struct {
	OperationID string
	Status      string
	CreatedAt   time.Time
}

// Incident is the append-only audit record written alongside every
// reconciliation status change. Never updated or deleted.
type Incident struct {
	IncidentID     string
	OperationID    string
	Ticket         int64
	PositionID     int64
	OpenedAt       time.Time
	Classification string
	CloseReason    string
	AccountLogin   int64
	AccountServer  string
	Balance        float64
	Equity         float64
	Margin         float64
	MarginFree     float64
	PositionsTotal int
	WindowFrom     time.Time
	WindowTo       time.Time
	Payload        string
	DetectedAt     time.Time
}

// AuditEvent is a locally recorded order/deal event written by the order
// execution path. The reconciler only reads these, to corroborate
// expert-initiated closes.
type AuditEvent struct {
	ID        int64
	OrderID   int64
	DealID    int64
	Kind      string
	CreatedAt time.Time
}
