package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/ops-deck/vigil/pkg/domain/model"
	"github.com/ops-deck/vigil/pkg/domain/types"
	"github.com/ops-deck/vigil/pkg/usecase"
)

func TestGeneratePostmortem(t *testing.T) {
	ctx := context.Background()

	t.Run("Unresolved incident is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		incident := declare(t, env, types.SeverityP2)

		pm := usecase.NewPostmortem(env.repo)
		_, err := pm.Generate(ctx, incident.ID)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrValidation))
		gt.S(t, err.Error()).Contains("must be resolved")
	})

	t.Run("Unknown incident", func(t *testing.T) {
		env := newTestEnv(t)
		pm := usecase.NewPostmortem(env.repo)
		_, err := pm.Generate(ctx, 42)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrIncidentNotFound))
	})

	t.Run("Resolved incident without timestamp fails integrity", func(t *testing.T) {
		env := newTestEnv(t)
		incident := declare(t, env, types.SeverityP2)

		// Corrupt the stored state directly
		incident.Status = types.IncidentStatusResolved
		gt.NoError(t, env.repo.PutIncident(ctx, incident))

		pm := usecase.NewPostmortem(env.repo)
		_, err := pm.Generate(ctx, incident.ID)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrDataIntegrity))
	})

	t.Run("Document carries summary and ordered timeline", func(t *testing.T) {
		env := newTestEnv(t)
		incident := declare(t, env, types.SeverityP1)
		_, err := env.incident.PostStatusUpdate(ctx, incident.ID, "U-CMD", "failover started")
		gt.NoError(t, err)

		*env.clock = incident.DeclaredAt.Add(90 * time.Minute)
		_, err = env.incident.Resolve(ctx, incident.ID, "U-CMD")
		gt.NoError(t, err)

		pm := usecase.NewPostmortem(env.repo)
		doc, err := pm.Generate(ctx, incident.ID)
		gt.NoError(t, err)

		gt.S(t, doc).Contains("# Postmortem: db down")
		gt.S(t, doc).Contains("**Severity:** P1 (Critical)")
		gt.S(t, doc).Contains("**Affected service:** payments")
		gt.S(t, doc).Contains("**Duration:** 1h 30min")
		gt.S(t, doc).Contains("_TO BE FILLED_")

		gt.S(t, doc).Contains("failover started")
		gt.True(t, strings.Index(doc, "Incident declared") < strings.Index(doc, "failover started"))
		gt.True(t, strings.Index(doc, "failover started") < strings.Index(doc, "Incident resolved"))
	})
}
