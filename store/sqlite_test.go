package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 14, 10, 0, 0, time.UTC)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, path
}

func seedOperation(t *testing.T, s *SQLite, operationID string, tickets ...int64) {
	t.Helper()

	require.NoError(t, s.InsertOperation(Operation{
		OperationID: operationID,
		CreatedAt:   testNow.Add(-time.Hour),
	}))
	for i, ticket := range tickets {
		require.NoError(t, s.InsertTrade(Trade{
			Ticket:      ticket,
			PositionID:  ticket + 500000,
			OperationID: operationID,
			Symbol:      "PETR4",
			Side:        "SELL",
			Volume:      1,
			PriceOpen:   10,
			OpenedAt:    testNow.Add(-time.Duration(10+i) * time.Minute),
		}))
	}
}

func testIncident(operationID string, ticket int64) Incident {
	return Incident{
		IncidentID:     "01HTESTINCIDENT0000000000",
		OperationID:    operationID,
		Ticket:         ticket,
		PositionID:     ticket + 500000,
		OpenedAt:       testNow.Add(-10 * time.Minute),
		Classification: "reset_demo_suspeito",
		CloseReason:    "DEMO_RESET_NO_DEAL_OUT",
		AccountLogin:   1000,
		AccountServer:  "Demo",
		Balance:        1000,
		Equity:         990,
		Margin:         10,
		MarginFree:     980,
		PositionsTotal: 3,
		WindowFrom:     testNow.Add(-15 * time.Minute),
		WindowTo:       testNow.Add(2 * time.Minute),
		Payload:        `{"positions":[],"found_out_deal":false,"checked_deals":0,"history_error":false}`,
		DetectedAt:     testNow,
	}
}

func TestSchemaCreated(t *testing.T) {
	t.Parallel()

	s, path := newTestSQLite(t)
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','operations','incidents','audit_events')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["operations"])
	assert.True(t, found["incidents"])
	assert.True(t, found["audit_events"])
}

func TestInsertAndGetTrade(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seedOperation(t, s, "OP-1", 123456)

	trade, err := s.GetTrade(123456)
	require.NoError(t, err)

	assert.Equal(t, int64(123456), trade.Ticket)
	assert.Equal(t, int64(623456), trade.PositionID)
	assert.Equal(t, "OP-1", trade.OperationID)
	assert.Equal(t, StatusOpen, trade.Status)
	assert.False(t, trade.Terminal())
	assert.Nil(t, trade.ClosedAt)
}

func TestGetTrade_NotFound(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)

	_, err := s.GetTrade(999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestCloseTradeWithIncident(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seedOperation(t, s, "OP-1", 123456)

	inc := testIncident("OP-1", 123456)
	require.NoError(t, s.CloseTradeWithIncident(123456, StatusReset, "DEMO_RESET_NO_DEAL_OUT", testNow, inc))

	trade, err := s.GetTrade(123456)
	require.NoError(t, err)
	assert.Equal(t, StatusReset, trade.Status)
	assert.Equal(t, "DEMO_RESET_NO_DEAL_OUT", trade.CloseReason)
	assert.True(t, trade.Terminal())
	require.NotNil(t, trade.ClosedAt)
	assert.True(t, trade.ClosedAt.Equal(testNow))

	incidents, err := s.ListIncidentsBetween(testNow.Add(-time.Minute), testNow.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, inc.IncidentID, incidents[0].IncidentID)
	assert.Equal(t, inc.Payload, incidents[0].Payload)
	assert.Equal(t, inc.AccountServer, incidents[0].AccountServer)
	assert.Equal(t, inc.PositionsTotal, incidents[0].PositionsTotal)

	op, err := s.GetOperation("OP-1")
	require.NoError(t, err)
	assert.Equal(t, OperationClosed, op.Status)
}

func TestCloseTradeWithIncident_RollsBackOnIncidentFailure(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seedOperation(t, s, "OP-1", 111, 112)

	inc := testIncident("OP-1", 111)
	require.NoError(t, s.CloseTradeWithIncident(111, StatusReset, "DEMO_RESET_NO_DEAL_OUT", testNow, inc))

	// Same incident id again: the insert fails, so the trade update must
	// roll back with it.
	inc2 := testIncident("OP-1", 112)
	inc2.IncidentID = inc.IncidentID
	err := s.CloseTradeWithIncident(112, StatusReset, "DEMO_RESET_NO_DEAL_OUT", testNow, inc2)
	require.Error(t, err)

	trade, err := s.GetTrade(112)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, trade.Status)
	assert.Nil(t, trade.ClosedAt)

	incidents, err := s.ListIncidentsBetween(testNow.Add(-time.Minute), testNow.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, incidents, 1)

	// One leg still open, so the operation must remain open.
	op, err := s.GetOperation("OP-1")
	require.NoError(t, err)
	assert.Equal(t, OperationOpen, op.Status)
}

func TestCloseTradeWithIncident_RefusesNonOpenTrade(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seedOperation(t, s, "OP-1", 123456)

	require.NoError(t, s.CloseTrade(123456, StatusManual, "NOT_IN_MT5_POSITIONS", testNow))

	err := s.CloseTradeWithIncident(123456, StatusReset, "DEMO_RESET_NO_DEAL_OUT", testNow, testIncident("OP-1", 123456))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not open")

	trade, err := s.GetTrade(123456)
	require.NoError(t, err)
	assert.Equal(t, StatusManual, trade.Status)
}

func TestOperationClosesOnlyWhenAllLegsTerminal(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seedOperation(t, s, "OP-1", 111, 112)

	require.NoError(t, s.CloseTrade(111, StatusManual, "NOT_IN_MT5_POSITIONS", testNow))

	op, err := s.GetOperation("OP-1")
	require.NoError(t, err)
	assert.Equal(t, OperationOpen, op.Status)

	require.NoError(t, s.CloseTrade(112, StatusManual, "NOT_IN_MT5_POSITIONS", testNow))

	op, err = s.GetOperation("OP-1")
	require.NoError(t, err)
	assert.Equal(t, OperationClosed, op.Status)
}
