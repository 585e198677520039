package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenTrades(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seedOperation(t, s, "OP-1", 111, 112)
	seedOperation(t, s, "OP-2", 221)

	require.NoError(t, s.CloseTrade(112, StatusManual, "NOT_IN_MT5_POSITIONS", testNow))

	trades, err := s.OpenTrades("")
	require.NoError(t, err)
	require.Len(t, trades, 2)

	// Oldest first: seedOperation opens earlier tickets later in time.
	assert.Equal(t, int64(111), trades[0].Ticket)
	assert.Equal(t, int64(221), trades[1].Ticket)
	assert.True(t, trades[0].OpenedAt.Before(trades[1].OpenedAt) || trades[0].OpenedAt.Equal(trades[1].OpenedAt))
}

func TestOpenTrades_OperationFilter(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seedOperation(t, s, "OP-1", 111)
	seedOperation(t, s, "OP-2", 221)

	trades, err := s.OpenTrades("OP-2")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(221), trades[0].Ticket)
}

func TestOpenTrades_Empty(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)

	trades, err := s.OpenTrades("")
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestListIncidentsBetween(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seedOperation(t, s, "OP-1", 111, 112)

	early := testIncident("OP-1", 111)
	early.IncidentID = "01HTESTINCIDENT0000000001"
	early.DetectedAt = testNow.Add(-2 * time.Hour)
	require.NoError(t, s.CloseTradeWithIncident(111, StatusReset, "DEMO_RESET_NO_DEAL_OUT", early.DetectedAt, early))

	late := testIncident("OP-1", 112)
	late.IncidentID = "01HTESTINCIDENT0000000002"
	require.NoError(t, s.CloseTradeWithIncident(112, StatusReset, "DEMO_RESET_NO_DEAL_OUT", testNow, late))

	incidents, err := s.ListIncidentsBetween(testNow.Add(-time.Hour), testNow.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, late.IncidentID, incidents[0].IncidentID)

	all, err := s.ListIncidentsBetween(testNow.Add(-3*time.Hour), testNow.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Newest first.
	assert.Equal(t, late.IncidentID, all[0].IncidentID)
	assert.Equal(t, early.IncidentID, all[1].IncidentID)
}

func TestHasAuditEvent(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	require.NoError(t, s.InsertAuditEvent(AuditEvent{
		OrderID:   800,
		DealID:    900,
		Kind:      "order_close",
		CreatedAt: testNow,
	}))

	tests := []struct {
		name    string
		orderID int64
		dealID  int64
		want    bool
	}{
		{"matching order", 800, 0, true},
		{"matching deal", 0, 900, true},
		{"both match", 800, 900, true},
		{"neither match", 801, 901, false},
		{"zero ids never match", 0, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.HasAuditEvent(tc.orderID, tc.dealID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
