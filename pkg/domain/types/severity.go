package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Severity represents an incident priority tier. P1 is the most severe,
// P4 the least.
type Severity string

const (
	SeverityP1 Severity = "P1"
	SeverityP2 Severity = "P2"
	SeverityP3 Severity = "P3"
	SeverityP4 Severity = "P4"
)

// Severities lists all severities from most to least severe
func Severities() []Severity {
	return []Severity{SeverityP1, SeverityP2, SeverityP3, SeverityP4}
}

// ParseSeverity parses a severity string (case-insensitive)
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "P1":
		return SeverityP1, nil
	case "P2":
		return SeverityP2, nil
	case "P3":
		return SeverityP3, nil
	case "P4":
		return SeverityP4, nil
	default:
		return "", goerr.New("invalid severity", goerr.V("severity", s))
	}
}

// String returns the string representation
func (s Severity) String() string {
	return string(s)
}

// IsValid checks if the severity is one of the four accepted values
func (s Severity) IsValid() bool {
	switch s {
	case SeverityP1, SeverityP2, SeverityP3, SeverityP4:
		return true
	default:
		return false
	}
}

// Rank returns the numeric rank of the severity. Lower is more severe:
// P1 is 1, P4 is 4.
func (s Severity) Rank() int {
	switch s {
	case SeverityP1:
		return 1
	case SeverityP2:
		return 2
	case SeverityP3:
		return 3
	case SeverityP4:
		return 4
	default:
		return 0
	}
}

// IsBroadcast reports whether this severity reaches beyond the incident's
// own channel. Only P1 and P2 broadcast.
func (s Severity) IsBroadcast() bool {
	return s == SeverityP1 || s == SeverityP2
}

// Label returns the display label with the severity name
func (s Severity) Label() string {
	switch s {
	case SeverityP1:
		return "P1 (Critical)"
	case SeverityP2:
		return "P2 (High)"
	case SeverityP3:
		return "P3 (Medium)"
	case SeverityP4:
		return "P4 (Low)"
	default:
		return string(s)
	}
}

// Emoji returns the display emoji for the severity
func (s Severity) Emoji() string {
	switch s {
	case SeverityP1:
		return "🔴"
	case SeverityP2:
		return "🟡"
	default:
		return "🟢"
	}
}
