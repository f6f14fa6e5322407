package model_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/ops-deck/vigil/pkg/domain/model"
	"github.com/ops-deck/vigil/pkg/domain/types"
)

func TestNewIncident(t *testing.T) {
	t.Run("Valid incident creation", func(t *testing.T) {
		incident, err := model.NewIncident(1, "database outage", types.SeverityP1, "payments", "U67890")
		gt.NoError(t, err)
		gt.Equal(t, incident.ID, types.IncidentID(1))
		gt.Equal(t, incident.Title, "database outage")
		gt.Equal(t, incident.Severity, types.SeverityP1)
		gt.Equal(t, incident.Status, types.IncidentStatusDeclared)
		gt.Equal(t, incident.AffectedService, "payments")
		gt.Equal(t, incident.CommanderID, types.SlackUserID("U67890"))
		gt.Equal(t, incident.ChannelName, types.ChannelName("inc-1-database-outage"))
		gt.True(t, time.Since(incident.DeclaredAt) < time.Second)
		gt.V(t, incident.ResolvedAt).Nil()
		gt.V(t, incident.DurationMinutes).Nil()
	})

	t.Run("Invalid ID", func(t *testing.T) {
		incident, err := model.NewIncident(0, "test", types.SeverityP3, "payments", "U67890")
		gt.Error(t, err)
		gt.V(t, incident).Nil()
		gt.True(t, errors.Is(err, model.ErrValidation))
	})

	t.Run("Empty title", func(t *testing.T) {
		_, err := model.NewIncident(1, "", types.SeverityP3, "payments", "U67890")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrValidation))
		gt.S(t, err.Error()).Contains("title is required")
	})

	t.Run("Title at the length limit is accepted", func(t *testing.T) {
		_, err := model.NewIncident(1, strings.Repeat("a", model.MaxTitleLength), types.SeverityP3, "payments", "U67890")
		gt.NoError(t, err)
	})

	t.Run("Title over the length limit", func(t *testing.T) {
		_, err := model.NewIncident(1, strings.Repeat("a", model.MaxTitleLength+1), types.SeverityP3, "payments", "U67890")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrValidation))
	})

	t.Run("Invalid severity", func(t *testing.T) {
		_, err := model.NewIncident(1, "test", types.Severity("P9"), "payments", "U67890")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrValidation))
	})

	t.Run("Empty service", func(t *testing.T) {
		_, err := model.NewIncident(1, "test", types.SeverityP3, "", "U67890")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrValidation))
	})

	t.Run("Empty commander", func(t *testing.T) {
		_, err := model.NewIncident(1, "test", types.SeverityP3, "payments", "")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrValidation))
	})
}

func TestValidateResolution(t *testing.T) {
	base := func() *model.Incident {
		incident, err := model.NewIncident(1, "test", types.SeverityP3, "payments", "U1")
		gt.NoError(t, err)
		return incident
	}

	t.Run("Unresolved incident without resolution data", func(t *testing.T) {
		gt.NoError(t, base().ValidateResolution())
	})

	t.Run("Resolved incident with both fields", func(t *testing.T) {
		incident := base()
		now := time.Now()
		minutes := 10
		incident.Status = types.IncidentStatusResolved
		incident.ResolvedAt = &now
		incident.DurationMinutes = &minutes
		gt.NoError(t, incident.ValidateResolution())
	})

	t.Run("Resolved incident missing fields", func(t *testing.T) {
		incident := base()
		incident.Status = types.IncidentStatusResolved
		err := incident.ValidateResolution()
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrDataIntegrity))
	})

	t.Run("Unresolved incident carrying resolution data", func(t *testing.T) {
		incident := base()
		now := time.Now()
		incident.ResolvedAt = &now
		err := incident.ValidateResolution()
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrDataIntegrity))
	})
}

func TestDurationText(t *testing.T) {
	incident := &model.Incident{}
	gt.Equal(t, incident.DurationText(), "unknown")

	minutes := 45
	incident.DurationMinutes = &minutes
	gt.Equal(t, incident.DurationText(), "45min")

	minutes = 90
	gt.Equal(t, incident.DurationText(), "1h 30min")
}

func TestFormatIncidentChannelName(t *testing.T) {
	t.Run("Basic title", func(t *testing.T) {
		gt.Equal(t, model.FormatIncidentChannelName(3, "API latency spike"), types.ChannelName("inc-3-api-latency-spike"))
	})

	t.Run("Symbols collapse to single hyphens", func(t *testing.T) {
		gt.Equal(t, model.FormatIncidentChannelName(7, "DB!!! ... outage"), types.ChannelName("inc-7-db-outage"))
	})

	t.Run("Empty title falls back to the serial", func(t *testing.T) {
		gt.Equal(t, model.FormatIncidentChannelName(9, "???"), types.ChannelName("inc-9"))
	})

	t.Run("Long titles are truncated", func(t *testing.T) {
		name := model.FormatIncidentChannelName(1, strings.Repeat("a", 100))
		gt.True(t, len(name.String()) <= 80)
	})
}
