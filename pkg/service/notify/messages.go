package notify

import (
	"fmt"

	"github.com/ops-deck/vigil/pkg/domain/model"
	"github.com/ops-deck/vigil/pkg/domain/types"
)

// Message texts are Slack mrkdwn. The gateway wraps them into Block Kit
// sections; the router only cares about the content.

func declaredText(incident *model.Incident) string {
	return fmt.Sprintf("%s *Incident declared: %s*\n*Severity:* %s\n*Affected service:* %s\n*Commander:* <@%s>",
		incident.Severity.Emoji(),
		incident.Title,
		incident.Severity.Label(),
		incident.AffectedService,
		incident.CommanderID,
	)
}

func statusUpdateText(incident *model.Incident, message string) string {
	return fmt.Sprintf("📝 *Status update for %s*\n%s", incident.Title, message)
}

func severityChangeText(incident *model.Incident, oldSeverity types.Severity) string {
	return fmt.Sprintf("%s *Severity changed for %s*\n%s → %s",
		incident.Severity.Emoji(),
		incident.Title,
		oldSeverity.Label(),
		incident.Severity.Label(),
	)
}

func resolvedText(incident *model.Incident) string {
	return fmt.Sprintf("✅ *Incident resolved: %s*\n*Duration:* %s\n*Severity:* %s",
		incident.Title,
		incident.DurationText(),
		incident.Severity.Label(),
	)
}
