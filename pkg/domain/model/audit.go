package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/domain/types"
)

// AuditEntry is an immutable record of an actor action with before/after
// state snapshots. IncidentID is kept nullable so entries survive incident
// deletion.
type AuditEntry struct {
	ID           types.AuditEntryID `json:"id"`
	IncidentID   *types.IncidentID  `json:"incidentId,omitempty"`
	Action       string             `json:"action"`
	ActorID      types.SlackUserID  `json:"actorId"`
	ActorDisplay string             `json:"actorDisplay,omitempty"`
	OldState     map[string]any     `json:"oldState,omitempty"`
	NewState     map[string]any     `json:"newState,omitempty"`
	Details      map[string]any     `json:"details,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
}

// NewAuditEntry creates a new audit entry for an incident-scoped action
func NewAuditEntry(incidentID types.IncidentID, action string, actorID types.SlackUserID) (*AuditEntry, error) {
	if err := incidentID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid incident ID")
	}
	entry, err := NewGlobalAuditEntry(action, actorID)
	if err != nil {
		return nil, err
	}
	id := incidentID
	entry.IncidentID = &id
	return entry, nil
}

// NewGlobalAuditEntry creates a new audit entry not tied to an incident
func NewGlobalAuditEntry(action string, actorID types.SlackUserID) (*AuditEntry, error) {
	if action == "" {
		return nil, goerr.New("audit action is required")
	}
	if actorID == "" {
		return nil, goerr.New("actor ID is required")
	}

	return &AuditEntry{
		ID:        types.NewAuditEntryID(),
		Action:    action,
		ActorID:   actorID,
		Timestamp: time.Now(),
	}, nil
}

// WithStates attaches before/after state snapshots
func (x *AuditEntry) WithStates(oldState, newState map[string]any) *AuditEntry {
	x.OldState = oldState
	x.NewState = newState
	return x
}

// WithDetails attaches free-form detail fields
func (x *AuditEntry) WithDetails(details map[string]any) *AuditEntry {
	x.Details = details
	return x
}
