package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// IncidentStatus represents the lifecycle state of an incident
type IncidentStatus string

const (
	IncidentStatusDeclared      IncidentStatus = "declared"
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusIdentified    IncidentStatus = "identified"
	IncidentStatusMonitoring    IncidentStatus = "monitoring"
	IncidentStatusResolved      IncidentStatus = "resolved"
)

// ParseIncidentStatus parses a status string (case-insensitive)
func ParseIncidentStatus(s string) (IncidentStatus, error) {
	status := IncidentStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", goerr.New("invalid incident status", goerr.V("status", s))
	}
	return status, nil
}

// String returns the string representation of the status
func (s IncidentStatus) String() string {
	return string(s)
}

// IsValid checks if the status is valid
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusDeclared, IncidentStatusInvestigating,
		IncidentStatusIdentified, IncidentStatusMonitoring, IncidentStatusResolved:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status is terminal. Resolved is the only
// terminal state; nothing may mutate a resolved incident. The working
// states impose no ordering constraints relative to each other.
func (s IncidentStatus) IsTerminal() bool {
	return s == IncidentStatusResolved
}

// Label returns a human readable status name
func (s IncidentStatus) Label() string {
	switch s {
	case IncidentStatusDeclared:
		return "Declared"
	case IncidentStatusInvestigating:
		return "Investigating"
	case IncidentStatusIdentified:
		return "Identified"
	case IncidentStatusMonitoring:
		return "Monitoring"
	case IncidentStatusResolved:
		return "Resolved"
	default:
		return string(s)
	}
}
