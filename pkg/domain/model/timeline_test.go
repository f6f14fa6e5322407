package model_test

import (
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/ops-deck/vigil/pkg/domain/model"
	"github.com/ops-deck/vigil/pkg/domain/types"
)

func TestNewTimelineEvent(t *testing.T) {
	t.Run("Valid event", func(t *testing.T) {
		event, err := model.NewTimelineEvent(1, types.TimelineEventDeclared, "Incident declared: test", "U1")
		gt.NoError(t, err)
		gt.True(t, event.ID != "")
		gt.Equal(t, event.IncidentID, types.IncidentID(1))
		gt.Equal(t, event.EventType, types.TimelineEventDeclared)
	})

	t.Run("Empty message", func(t *testing.T) {
		_, err := model.NewTimelineEvent(1, types.TimelineEventStatusUpdate, "", "U1")
		gt.Error(t, err)
	})

	t.Run("Unknown event type", func(t *testing.T) {
		_, err := model.NewTimelineEvent(1, types.TimelineEventType("deleted"), "x", "U1")
		gt.Error(t, err)
	})
}

func TestFormatTimelineMarkdown(t *testing.T) {
	t.Run("Empty timeline", func(t *testing.T) {
		gt.S(t, model.FormatTimelineMarkdown(nil)).Contains("No timeline events")
	})

	t.Run("Events render in given order with icons", func(t *testing.T) {
		base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		events := []*model.TimelineEvent{
			{EventType: types.TimelineEventDeclared, Message: "Incident declared: db down", Timestamp: base},
			{EventType: types.TimelineEventResolved, Message: "Incident resolved", Timestamp: base.Add(30 * time.Minute)},
		}

		md := model.FormatTimelineMarkdown(events)
		gt.S(t, md).Contains("**10:00**")
		gt.S(t, md).Contains("**10:30**")
		gt.S(t, md).Contains("🚨")
		gt.S(t, md).Contains("✅")
		gt.True(t, strings.Index(md, "db down") < strings.Index(md, "Incident resolved"))
	})
}
