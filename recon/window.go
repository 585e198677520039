// Package recon reconciles locally-open trade legs against the live state
// of the MT5 terminal and flags legs the broker closed without leaving an
// out-deal in history (suspected demo-account resets).
package recon

import "time"

const (
	// WindowPre extends the deal search before the leg's open time, so an
	// out-deal recorded slightly before our local open timestamp still
	// corroborates the close.
	WindowPre = 5 * time.Minute

	// WindowPost extends the search past "now" to absorb clock skew between
	// this host and the terminal.
	WindowPost = 2 * time.Minute

	// DefaultMinAge is the youngest a leg may be and still be classified as
	// a reset suspect. Fresh fills can lag the history endpoint.
	DefaultMinAge = 180 * time.Second
)

// Window is the time range searched for a corroborating close deal.
type Window struct {
	From time.Time
	To   time.Time
}

// WindowFor computes the deal search window for a leg opened at openedAt.
func WindowFor(openedAt, now time.Time) Window {
	return Window{
		From: openedAt.Add(-WindowPre),
		To:   now.Add(WindowPost),
	}
}

// youngerThan reports whether the leg has been open for less than minAge.
func youngerThan(openedAt, now time.Time, minAge time.Duration) bool {
	return now.Sub(openedAt) < minAge
}
