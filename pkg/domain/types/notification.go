package types

// TimelineEventType represents the kind of a timeline event
type TimelineEventType string

const (
	TimelineEventDeclared       TimelineEventType = "declared"
	TimelineEventStatusUpdate   TimelineEventType = "status_update"
	TimelineEventSeverityChange TimelineEventType = "severity_change"
	TimelineEventResolved       TimelineEventType = "resolved"
)

// String returns the string representation
func (t TimelineEventType) String() string {
	return string(t)
}

// IsValid checks if the event type is valid
func (t TimelineEventType) IsValid() bool {
	switch t {
	case TimelineEventDeclared, TimelineEventStatusUpdate,
		TimelineEventSeverityChange, TimelineEventResolved:
		return true
	default:
		return false
	}
}

// Icon returns the display emoji for the event type
func (t TimelineEventType) Icon() string {
	switch t {
	case TimelineEventDeclared:
		return "🚨"
	case TimelineEventStatusUpdate:
		return "📝"
	case TimelineEventSeverityChange:
		return "⚠️"
	case TimelineEventResolved:
		return "✅"
	default:
		return ""
	}
}

// NotificationType represents the delivery kind of a notification
type NotificationType string

const (
	NotificationChannelPost   NotificationType = "channel_post"
	NotificationDirectMessage NotificationType = "direct_message"
)

// String returns the string representation
func (t NotificationType) String() string {
	return string(t)
}

// NotificationStatus represents the outcome of a delivery attempt
type NotificationStatus string

const (
	NotificationStatusSent      NotificationStatus = "sent"
	NotificationStatusFailed    NotificationStatus = "failed"
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusThrottled NotificationStatus = "throttled"
)

// String returns the string representation
func (s NotificationStatus) String() string {
	return string(s)
}
