package recon

import (
	"time"

	"github.com/rustyeddy/mt5recon/bridge"
	"github.com/rustyeddy/mt5recon/store"
)

// Classification is the outcome of inspecting one open leg.
type Classification string

const (
	// StillOpen: the position is live on the terminal. Authoritative; wins
	// over anything history says.
	StillOpen Classification = "still_open"

	// ClosedWithDeal: the position is gone and an out-deal in the window
	// explains it. Expected closure, not a reset.
	ClosedWithDeal Classification = "closed_with_deal"

	// ResetSuspect: the position is gone, the window holds no out-deal, and
	// the leg is old enough that the history endpoint must have seen it.
	ResetSuspect Classification = "reset_demo_suspeito"

	// TooYoung: the position is gone but the leg is younger than the
	// minimum age. Deferred to a later run.
	TooYoung Classification = "too_young"

	// HistoryError: the deal query failed, so absence of a deal means
	// nothing. The leg is left untouched this run.
	HistoryError Classification = "history_error"
)

// Close reason labels persisted on terminalized legs.
const (
	ResetCloseReason = "DEMO_RESET_NO_DEAL_OUT"
	SweepCloseReason = "NOT_IN_MT5_POSITIONS"

	CloseSLTPSO = "sl_tp_so"
	CloseManual = "manual"
	CloseNormal = "normal_close"
)

// Evidence is what the driver gathered for one leg before classification.
type Evidence struct {
	InPositions bool
	Deals       []bridge.Deal
	HistoryErr  error
}

// Outcome is a classification plus the evidence that produced it.
type Outcome struct {
	Classification Classification
	OutDeal        *bridge.Deal
	CheckedDeals   int
	HistoryError   bool
}

// Terminal reports whether the outcome closes the leg.
func (o Outcome) Terminal() bool {
	return o.Classification == ClosedWithDeal || o.Classification == ResetSuspect
}

// Classify decides what happened to one locally-open leg. The rules run in
// strict precedence order:
//
//  1. position present on the terminal -> StillOpen
//  2. deal query failed               -> HistoryError
//  3. out-deal found in the window    -> ClosedWithDeal
//  4. leg younger than minAge         -> TooYoung
//  5. otherwise                       -> ResetSuspect
//
// Ordering matters: a transient history failure must never fall through to
// a reset classification, and presence beats a stale out-deal left by a
// partial close followed by a re-open.
func Classify(trade store.Trade, ev Evidence, now time.Time, minAge time.Duration) Outcome {
	if ev.InPositions {
		return Outcome{Classification: StillOpen, CheckedDeals: len(ev.Deals)}
	}
	if ev.HistoryErr != nil {
		return Outcome{Classification: HistoryError, HistoryError: true}
	}
	if deal := findOutDeal(ev.Deals, trade.Ticket, trade.PositionID); deal != nil {
		return Outcome{Classification: ClosedWithDeal, OutDeal: deal, CheckedDeals: len(ev.Deals)}
	}
	if youngerThan(trade.OpenedAt, now, minAge) {
		return Outcome{Classification: TooYoung, CheckedDeals: len(ev.Deals)}
	}
	return Outcome{Classification: ResetSuspect, CheckedDeals: len(ev.Deals)}
}

// findOutDeal returns the latest out-entry deal referencing the leg's ticket
// or position id, or nil when none matches.
func findOutDeal(deals []bridge.Deal, ticket, positionID int64) *bridge.Deal {
	var latest *bridge.Deal
	for i := range deals {
		d := &deals[i]
		if !d.Out() {
			continue
		}
		if !dealMatches(*d, ticket, positionID) {
			continue
		}
		if latest == nil || d.Timestamp.After(latest.Timestamp) {
			latest = d
		}
	}
	return latest
}

// dealMatches checks every identifier the terminal may stamp on a deal
// against the leg's known ids. Zero ids never match.
func dealMatches(d bridge.Deal, ticket, positionID int64) bool {
	for _, id := range []int64{d.PositionID, d.Order, d.Deal, d.Ticket} {
		if id == 0 {
			continue
		}
		if id == ticket || id == positionID {
			return true
		}
	}
	return false
}

// CloseLabel refines a ClosedWithDeal outcome using the deal's reason code.
// Expert-initiated closes count as normal only when our own order path
// recorded a matching audit event; otherwise the close was server-side.
func CloseLabel(deal bridge.Deal, hasAuditEvent bool) string {
	switch deal.Reason {
	case bridge.DealReasonSL, bridge.DealReasonTP, bridge.DealReasonSO:
		return CloseSLTPSO
	case bridge.DealReasonClient, bridge.DealReasonMobile, bridge.DealReasonWeb:
		return CloseManual
	case bridge.DealReasonExpert:
		if hasAuditEvent {
			return CloseNormal
		}
		return CloseSLTPSO
	default:
		return CloseNormal
	}
}
