package types

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// IncidentID represents an incident serial number
type IncidentID int

// String returns the string representation
func (id IncidentID) String() string {
	return fmt.Sprintf("%d", id)
}

// Int returns the int representation
func (id IncidentID) Int() int {
	return int(id)
}

// Validate checks if the incident ID is valid
func (id IncidentID) Validate() error {
	if id <= 0 {
		return goerr.New("incident ID must be positive", goerr.V("id", int(id)))
	}
	return nil
}

// SlackUserID represents a Slack user identifier
type SlackUserID string

// String returns the string representation
func (id SlackUserID) String() string {
	return string(id)
}

// ChannelID represents a Slack channel identifier
type ChannelID string

// String returns the string representation
func (id ChannelID) String() string {
	return string(id)
}

// ChannelName represents a Slack channel name
type ChannelName string

// String returns the string representation
func (n ChannelName) String() string {
	return string(n)
}

// TimelineEventID represents a timeline event identifier
type TimelineEventID string

// String returns the string representation
func (id TimelineEventID) String() string {
	return string(id)
}

// NewTimelineEventID creates a new TimelineEventID
func NewTimelineEventID() TimelineEventID {
	return TimelineEventID(uuid.New().String())
}

// AuditEntryID represents an audit entry identifier
type AuditEntryID string

// String returns the string representation
func (id AuditEntryID) String() string {
	return string(id)
}

// NewAuditEntryID creates a new AuditEntryID
func NewAuditEntryID() AuditEntryID {
	return AuditEntryID(uuid.New().String())
}

// NotificationID represents a notification record identifier
type NotificationID string

// String returns the string representation
func (id NotificationID) String() string {
	return string(id)
}

// NewNotificationID creates a new NotificationID
func NewNotificationID() NotificationID {
	return NotificationID(uuid.New().String())
}
