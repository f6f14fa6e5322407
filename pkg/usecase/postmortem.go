package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/domain/interfaces"
	"github.com/ops-deck/vigil/pkg/domain/model"
	"github.com/ops-deck/vigil/pkg/domain/types"
)

// Postmortem generates postmortem documents from resolved incidents
type Postmortem struct {
	repo interfaces.Repository
}

// NewPostmortem creates the postmortem use case
func NewPostmortem(repo interfaces.Repository) *Postmortem {
	return &Postmortem{repo: repo}
}

// Generate builds a markdown postmortem draft for a resolved incident. The
// incident must be resolved; a resolved incident without a resolution
// timestamp is a stored-state corruption and fails the generation.
func (u *Postmortem) Generate(ctx context.Context, incidentID types.IncidentID) (string, error) {
	incident, err := u.repo.GetIncident(ctx, incidentID)
	if err != nil {
		return "", err
	}
	if !incident.IsResolved() {
		return "", goerr.Wrap(model.ErrValidation, "incident must be resolved first",
			goerr.V("incidentID", incidentID),
			goerr.V("status", incident.Status))
	}
	if incident.ResolvedAt == nil {
		return "", goerr.Wrap(model.ErrDataIntegrity, "resolved incident has no resolution timestamp",
			goerr.V("incidentID", incidentID))
	}

	events, err := u.repo.ListTimelineEvents(ctx, incidentID)
	if err != nil {
		return "", goerr.Wrap(err, "failed to load timeline", goerr.V("incidentID", incidentID))
	}

	return renderPostmortem(incident, events), nil
}

func renderPostmortem(incident *model.Incident, events []*model.TimelineEvent) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Postmortem: %s\n\n", incident.Title)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Incident ID:** #%d\n", incident.ID.Int())
	fmt.Fprintf(&b, "- **Severity:** %s\n", incident.Severity.Label())
	fmt.Fprintf(&b, "- **Affected service:** %s\n", incident.AffectedService)
	fmt.Fprintf(&b, "- **Commander:** <@%s>\n", incident.CommanderID)
	fmt.Fprintf(&b, "- **Declared:** %s\n", incident.DeclaredAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "- **Resolved:** %s\n", incident.ResolvedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "- **Duration:** %s\n\n", incident.DurationText())

	b.WriteString("## Impact\n\n_TO BE FILLED_\n\n")
	b.WriteString("## Root Cause\n\n_TO BE FILLED_\n\n")

	b.WriteString("## Timeline\n\n")
	b.WriteString(model.FormatTimelineMarkdown(events))
	b.WriteString("\n\n")

	b.WriteString("## Action Items\n\n- [ ] _TO BE FILLED_\n")

	return b.String()
}
