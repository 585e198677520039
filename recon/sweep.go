package recon

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/mt5recon/store"
)

// Sweep marks every locally-open leg that no longer exists on the terminal
// as manually closed, without the reset evidence machinery. This is the
// blunt counterpart to Run for accounts where positions are known to be
// closed from the terminal side, e.g. after an operator intervened by hand.
//
// Returns the tickets it closed. A failed positions fetch aborts the sweep.
func (d *Detector) Sweep(ctx context.Context, operationID string) ([]int64, error) {
	now := d.Now()

	positions, err := d.Bridge.Positions(ctx)
	if err != nil {
		return nil, err
	}
	tickets, positionIDs := positionSets(positions)

	trades, err := d.Store.OpenTrades(operationID)
	if err != nil {
		return nil, err
	}

	var closed []int64
	for _, trade := range trades {
		if tickets[trade.Ticket] || positionIDs[trade.PositionID] {
			continue
		}
		if err := d.Store.CloseTrade(trade.Ticket, store.StatusManual, SweepCloseReason, now); err != nil {
			d.Log.WithError(err).WithField("ticket", trade.Ticket).
				Error("failed to mark trade manually closed")
			continue
		}
		d.Log.WithFields(logrus.Fields{
			"ticket":       trade.Ticket,
			"operation_id": trade.OperationID,
			"symbol":       trade.Symbol,
		}).Info("trade closed by reconciliation sweep")
		closed = append(closed, trade.Ticket)
	}

	return closed, nil
}
