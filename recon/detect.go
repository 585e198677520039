package recon

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/mt5recon/bridge"
	"github.com/rustyeddy/mt5recon/pkg/id"
	"github.com/rustyeddy/mt5recon/store"
)

// Bridge is the remote query surface the detector needs. Read-only.
type Bridge interface {
	Positions(ctx context.Context) ([]bridge.Position, error)
	HistoryDeals(ctx context.Context, from, to time.Time) ([]bridge.Deal, error)
	AccountInfo(ctx context.Context) (bridge.Account, error)
}

// Store is the persistence surface the detector mutates, one leg at a time.
type Store interface {
	OpenTrades(operationID string) ([]store.Trade, error)
	HasAuditEvent(orderID, dealID int64) (bool, error)
	CloseTradeWithIncident(ticket int64, status, closeReason string, closedAt time.Time, inc store.Incident) error
	CloseTrade(ticket int64, status, closeReason string, closedAt time.Time) error
}

// Detector runs one reconciliation pass over all locally-open legs.
type Detector struct {
	Bridge Bridge
	Store  Store
	Log    *logrus.Logger

	// MinAge gates reset classification; see DefaultMinAge.
	MinAge time.Duration

	// Now is injectable so tests can pin the clock.
	Now func() time.Time
}

func NewDetector(b Bridge, s Store, log *logrus.Logger) *Detector {
	return &Detector{
		Bridge: b,
		Store:  s,
		Log:    log,
		MinAge: DefaultMinAge,
		Now:    time.Now,
	}
}

// Flagged is one leg terminalized during a run.
type Flagged struct {
	OperationID    string
	Ticket         int64
	Classification Classification
	CloseReason    string
	DetectedAt     time.Time
}

// Report aggregates one run's per-leg outcomes.
type Report struct {
	RequestID     string
	Inspected     int
	StillOpen     int
	TooYoung      int
	HistoryErrors int
	PersistErrors int
	Flagged       []Flagged
}

// Resets returns the flagged legs classified as suspected demo resets.
func (r Report) Resets() []Flagged {
	var out []Flagged
	for _, f := range r.Flagged {
		if f.Classification == ResetSuspect {
			out = append(out, f)
		}
	}
	return out
}

type incidentPayload struct {
	Positions    []int64 `json:"positions"`
	FoundOutDeal bool    `json:"found_out_deal"`
	CheckedDeals int     `json:"checked_deals"`
	HistoryError bool    `json:"history_error"`
}

// Run executes one reconciliation pass. A failed positions fetch aborts the
// whole run: every later decision depends on that baseline. Everything after
// it is recovered per leg so one bad trade never blocks the rest.
func (d *Detector) Run(ctx context.Context, requestID, operationID string) (Report, error) {
	now := d.Now()
	report := Report{RequestID: requestID}

	positions, err := d.Bridge.Positions(ctx)
	if err != nil {
		return report, err
	}
	tickets, positionIDs := positionSets(positions)
	positionTickets := ticketList(positions)

	account, err := d.Bridge.AccountInfo(ctx)
	if err != nil {
		// Evidence quality degrades but detection still works.
		d.Log.WithError(err).Warn("account info unavailable for incident snapshot")
		account = bridge.Account{}
	}

	trades, err := d.Store.OpenTrades(operationID)
	if err != nil {
		return report, err
	}

	for _, trade := range trades {
		report.Inspected++
		w := WindowFor(trade.OpenedAt, now)

		ev := Evidence{
			InPositions: tickets[trade.Ticket] || positionIDs[trade.PositionID],
		}
		if !ev.InPositions {
			ev.Deals, ev.HistoryErr = d.Bridge.HistoryDeals(ctx, w.From, w.To)
			if ev.HistoryErr != nil {
				d.Log.WithError(ev.HistoryErr).WithField("ticket", trade.Ticket).
					Warn("history fetch failed during reset detection")
			}
		}

		outcome := Classify(trade, ev, now, d.MinAge)
		d.logOutcome(requestID, trade, ev, outcome)

		switch outcome.Classification {
		case StillOpen:
			report.StillOpen++
			continue
		case TooYoung:
			report.TooYoung++
			continue
		case HistoryError:
			report.HistoryErrors++
			continue
		}

		status, reason := d.closeTarget(outcome)
		inc := d.buildIncident(trade, outcome, account, now, w, positionTickets, len(positions), reason)

		if err := d.Store.CloseTradeWithIncident(trade.Ticket, status, reason, now, inc); err != nil {
			// In-memory classification is discarded; the leg stays open and
			// is re-evaluated next run.
			d.Log.WithError(err).WithField("ticket", trade.Ticket).
				Error("failed to persist classification")
			report.PersistErrors++
			continue
		}

		report.Flagged = append(report.Flagged, Flagged{
			OperationID:    trade.OperationID,
			Ticket:         trade.Ticket,
			Classification: outcome.Classification,
			CloseReason:    reason,
			DetectedAt:     now,
		})
	}

	return report, nil
}

func (d *Detector) closeTarget(outcome Outcome) (status, reason string) {
	if outcome.Classification == ClosedWithDeal {
		// Classify only produces ClosedWithDeal with a matched deal.
		deal := *outcome.OutDeal
		hasAudit, err := d.Store.HasAuditEvent(deal.Order, deal.Deal)
		if err != nil {
			d.Log.WithError(err).Warn("audit event lookup failed")
			hasAudit = false
		}
		return store.StatusClosed, CloseLabel(deal, hasAudit)
	}
	return store.StatusReset, ResetCloseReason
}

func (d *Detector) buildIncident(trade store.Trade, outcome Outcome, account bridge.Account,
	now time.Time, w Window, positionTickets []int64, positionsTotal int, reason string) store.Incident {

	payload, err := json.Marshal(incidentPayload{
		Positions:    positionTickets,
		FoundOutDeal: outcome.OutDeal != nil,
		CheckedDeals: outcome.CheckedDeals,
		HistoryError: outcome.HistoryError,
	})
	if err != nil {
		payload = []byte("{}")
	}

	return store.Incident{
		IncidentID:     id.New(),
		OperationID:    trade.OperationID,
		Ticket:         trade.Ticket,
		PositionID:     trade.PositionID,
		OpenedAt:       trade.OpenedAt,
		Classification: string(outcome.Classification),
		CloseReason:    reason,
		AccountLogin:   account.Login,
		AccountServer:  account.Server,
		Balance:        account.Balance,
		Equity:         account.Equity,
		Margin:         account.Margin,
		MarginFree:     account.MarginFree,
		PositionsTotal: positionsTotal,
		WindowFrom:     w.From,
		WindowTo:       w.To,
		Payload:        string(payload),
		DetectedAt:     now,
	}
}

func (d *Detector) logOutcome(requestID string, trade store.Trade, ev Evidence, outcome Outcome) {
	d.Log.WithFields(logrus.Fields{
		"request_id":       requestID,
		"operation_id":     trade.OperationID,
		"ticket":           trade.Ticket,
		"position_id":      trade.PositionID,
		"symbol":           trade.Symbol,
		"in_db_open":       true,
		"in_mt5_positions": ev.InPositions,
		"found_out_deal":   outcome.OutDeal != nil,
		"classification":   string(outcome.Classification),
		"history_error":    outcome.HistoryError,
	}).Info("MT5DemoReset")
}

func positionSets(positions []bridge.Position) (tickets, positionIDs map[int64]bool) {
	tickets = make(map[int64]bool, len(positions))
	positionIDs = make(map[int64]bool, len(positions))
	for _, p := range positions {
		if p.Ticket != 0 {
			tickets[p.Ticket] = true
		}
		if p.PositionID != 0 {
			positionIDs[p.PositionID] = true
		}
	}
	return tickets, positionIDs
}

func ticketList(positions []bridge.Position) []int64 {
	out := make([]int64, 0, len(positions))
	for _, p := range positions {
		if p.Ticket != 0 {
			out = append(out, p.Ticket)
		}
	}
	return out
}
