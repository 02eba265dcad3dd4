// Package domain holds the opportunity cycle state machine. It has no I/O.
package domain

import "strings"

// Status is the pipeline state of an opportunity cycle.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusLost       Status = "lost"
	StatusWon        Status = "won"
)

var statusAliases = map[string]Status{
	"in_progress": StatusInProgress,
	"lost":        StatusLost,
	"won":         StatusWon,
	"跟进中":         StatusInProgress,
	"已战败":         StatusLost,
	"已成交":         StatusWon,
}

// ParseStatus accepts canonical statuses and their display labels.
func ParseStatus(raw string) (Status, bool) {
	s, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}

// IsTerminal reports whether the cycle is closed.
func (s Status) IsTerminal() bool {
	return s == StatusLost || s == StatusWon
}

// Label returns the display label used by the dealership UI.
func (s Status) Label() string {
	switch s {
	case StatusLost:
		return "已战败"
	case StatusWon:
		return "已成交"
	default:
		return "跟进中"
	}
}
