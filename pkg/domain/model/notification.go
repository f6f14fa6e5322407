package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/domain/types"
)

// NotificationRecord is an immutable record of a single delivery attempt.
// Every attempt is recorded, success or failure; the ledger never silently
// drops an attempt.
type NotificationRecord struct {
	ID           types.NotificationID     `json:"id"`
	IncidentID   types.IncidentID         `json:"incidentId"`
	Type         types.NotificationType   `json:"notificationType"`
	Recipient    string                   `json:"recipient"`
	SentAt       time.Time                `json:"sentAt"`
	Status       types.NotificationStatus `json:"status"`
	ErrorMessage string                   `json:"errorMessage,omitempty"` // Set iff status is failed
}

// NewNotificationRecord creates a new notification record
func NewNotificationRecord(incidentID types.IncidentID, notifType types.NotificationType, recipient string, status types.NotificationStatus, errorMessage string) (*NotificationRecord, error) {
	if err := incidentID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid incident ID")
	}
	if recipient == "" {
		return nil, goerr.New("recipient is required")
	}

	return &NotificationRecord{
		ID:           types.NewNotificationID(),
		IncidentID:   incidentID,
		Type:         notifType,
		Recipient:    recipient,
		SentAt:       time.Now(),
		Status:       status,
		ErrorMessage: errorMessage,
	}, nil
}
