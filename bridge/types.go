package bridge

import "time"

// Deal entry directions as reported by the terminal.
const (
	DealEntryIn  = 0
	DealEntryOut = 1
)

// Deal reason codes as reported by the terminal.
const (
	DealReasonClient = 0
	DealReasonMobile = 1
	DealReasonWeb    = 2
	DealReasonExpert = 3
	DealReasonSL     = 4
	DealReasonTP     = 5
	DealReasonSO     = 6
)

// Position is one live position reported by the bridge.
type Position struct {
	Ticket     int64  `json:"ticket"`
	PositionID int64  `json:"position_id"`
	Symbol     string `json:"symbol"`
}

// Deal is one historical fill/close event reported by the bridge.
type Deal struct {
	Deal       int64     `json:"deal"`
	Order      int64     `json:"order"`
	PositionID int64     `json:"position_id"`
	Ticket     int64     `json:"ticket"`
	Symbol     string    `json:"symbol"`
	Entry      int       `json:"entry"`
	Reason     int       `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}

// Out reports whether the deal closed (fully or partially) a position.
func (d Deal) Out() bool {
	return d.Entry == DealEntryOut
}

// Account is the account snapshot reported by the bridge.
type Account struct {
	Login      int64   `json:"login"`
	Server     string  `json:"server"`
	Balance    float64 `json:"balance"`
	Equity     float64 `json:"equity"`
	Margin     float64 `json:"margin"`
	MarginFree float64 `json:"margin_free"`
	MarginMode int     `json:"margin_mode"`
}
