package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/domain/types"
)

// TimelineEvent is an immutable entry in an incident's chronological record.
// Events are created by the incident engine on every accepted mutation and
// never updated or deleted.
type TimelineEvent struct {
	ID         types.TimelineEventID   `json:"id"`
	IncidentID types.IncidentID        `json:"incidentId"`
	EventType  types.TimelineEventType `json:"eventType"`
	Message    string                  `json:"message"`
	PostedBy   types.SlackUserID       `json:"postedBy"`
	Timestamp  time.Time               `json:"timestamp"`
}

// NewTimelineEvent creates a new timeline event
func NewTimelineEvent(incidentID types.IncidentID, eventType types.TimelineEventType, message string, postedBy types.SlackUserID) (*TimelineEvent, error) {
	if err := incidentID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid incident ID")
	}
	if !eventType.IsValid() {
		return nil, goerr.New("invalid timeline event type", goerr.V("eventType", eventType))
	}
	if message == "" {
		return nil, goerr.New("timeline message is required")
	}
	if postedBy == "" {
		return nil, goerr.New("posted by user ID is required")
	}

	return &TimelineEvent{
		ID:         types.NewTimelineEventID(),
		IncidentID: incidentID,
		EventType:  eventType,
		Message:    message,
		PostedBy:   postedBy,
		Timestamp:  time.Now(),
	}, nil
}

// FormatTimelineMarkdown renders timeline events as a markdown list for
// postmortem documents
func FormatTimelineMarkdown(events []*TimelineEvent) string {
	if len(events) == 0 {
		return "_No timeline events yet._"
	}

	lines := make([]string, 0, len(events))
	for _, e := range events {
		label := strings.ReplaceAll(e.EventType.String(), "_", " ")
		lines = append(lines, fmt.Sprintf("**%s** — %s %s\n→ %s\n",
			e.Timestamp.Format("15:04"),
			e.EventType.Icon(),
			label,
			e.Message,
		))
	}
	return strings.Join(lines, "\n")
}
