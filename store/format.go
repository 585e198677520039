package store

import (
	"fmt"
	"strings"
	"time"
)

// FormatIncident renders one incident as an Org-mode block. Structured facts
// live in a PROPERTIES drawer so they stay grep-able from a notes file.
func FormatIncident(inc Incident) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("** Incident: %s ticket %d (%s)\n", inc.Classification, inc.Ticket, shortID(inc.IncidentID)))
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":INCIDENT_ID: %s\n", inc.IncidentID))
	b.WriteString(fmt.Sprintf(":OPERATION_ID: %s\n", inc.OperationID))
	b.WriteString(fmt.Sprintf(":TICKET: %d\n", inc.Ticket))
	b.WriteString(fmt.Sprintf(":POSITION_ID: %d\n", inc.PositionID))
	b.WriteString(fmt.Sprintf(":CLASSIFICATION: %s\n", inc.Classification))
	if inc.CloseReason != "" {
		b.WriteString(fmt.Sprintf(":CLOSE_REASON: %s\n", inc.CloseReason))
	}
	b.WriteString(fmt.Sprintf(":OPENED_AT: %s\n", inc.OpenedAt.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":DETECTED_AT: %s\n", inc.DetectedAt.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":WINDOW_FROM: %s\n", inc.WindowFrom.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":WINDOW_TO: %s\n", inc.WindowTo.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":ACCOUNT: %d@%s\n", inc.AccountLogin, inc.AccountServer))
	b.WriteString(fmt.Sprintf(":BALANCE: %.2f\n", inc.Balance))
	b.WriteString(fmt.Sprintf(":EQUITY: %.2f\n", inc.Equity))
	b.WriteString(fmt.Sprintf(":POSITIONS_TOTAL: %d\n", inc.PositionsTotal))
	b.WriteString(":END:\n")
	b.WriteString(fmt.Sprintf("- payload :: %s\n", inc.Payload))
	return b.String()
}

// FormatIncidents renders a list of incidents under a single heading.
func FormatIncidents(incidents []Incident) string {
	if len(incidents) == 0 {
		return "* Incidents\n- none\n"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("* Incidents (%d)\n", len(incidents)))
	for _, inc := range incidents {
		b.WriteString(FormatIncident(inc))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
