package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/domain/types"
)

// MaxTitleLength is the maximum allowed incident title length
const MaxTitleLength = 100

// Incident represents an operational incident
type Incident struct {
	ID              types.IncidentID  `json:"id"`
	Title           string            `json:"title"`
	Severity        types.Severity    `json:"severity"`
	Status          types.IncidentStatus `json:"status"`
	AffectedService string            `json:"affectedService"`
	CommanderID     types.SlackUserID `json:"commanderId"` // Sole actor allowed to mutate the incident
	ChannelID       types.ChannelID   `json:"channelId,omitempty"`
	ChannelName     types.ChannelName `json:"channelName,omitempty"`
	DeclaredAt      time.Time         `json:"declaredAt"`
	ResolvedAt      *time.Time        `json:"resolvedAt,omitempty"`
	DurationMinutes *int              `json:"durationMinutes,omitempty"`
}

// NewIncident creates a new Incident in the declared state
func NewIncident(id types.IncidentID, title string, severity types.Severity, affectedService string, commanderID types.SlackUserID) (*Incident, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(ErrValidation, "invalid incident ID", goerr.V("id", id))
	}
	if title == "" {
		return nil, goerr.Wrap(ErrValidation, "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, goerr.Wrap(ErrValidation, "title exceeds maximum length",
			goerr.V("length", len(title)),
			goerr.V("max", MaxTitleLength))
	}
	if !severity.IsValid() {
		return nil, goerr.Wrap(ErrValidation, "invalid severity", goerr.V("severity", severity))
	}
	if affectedService == "" {
		return nil, goerr.Wrap(ErrValidation, "affected service is required")
	}
	if commanderID == "" {
		return nil, goerr.Wrap(ErrValidation, "commander ID is required")
	}

	return &Incident{
		ID:              id,
		Title:           title,
		Severity:        severity,
		Status:          types.IncidentStatusDeclared,
		AffectedService: affectedService,
		CommanderID:     commanderID,
		ChannelName:     FormatIncidentChannelName(id, title),
		DeclaredAt:      time.Now(),
	}, nil
}

// IsResolved reports whether the incident has reached the terminal state
func (x *Incident) IsResolved() bool {
	return x.Status.IsTerminal()
}

// ValidateResolution checks the resolution invariant: ResolvedAt and
// DurationMinutes are both set iff the status is resolved.
func (x *Incident) ValidateResolution() error {
	if x.IsResolved() {
		if x.ResolvedAt == nil || x.DurationMinutes == nil {
			return goerr.Wrap(ErrDataIntegrity, "resolved incident missing resolution data",
				goerr.V("incidentID", x.ID),
				goerr.V("hasResolvedAt", x.ResolvedAt != nil),
				goerr.V("hasDuration", x.DurationMinutes != nil))
		}
		return nil
	}
	if x.ResolvedAt != nil || x.DurationMinutes != nil {
		return goerr.Wrap(ErrDataIntegrity, "unresolved incident carries resolution data",
			goerr.V("incidentID", x.ID))
	}
	return nil
}

// DurationText formats the resolution duration as "1h 30min" or "45min"
func (x *Incident) DurationText() string {
	if x.DurationMinutes == nil {
		return "unknown"
	}
	minutes := *x.DurationMinutes
	hours := minutes / 60
	mins := minutes % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dmin", hours, mins)
	}
	return fmt.Sprintf("%dmin", mins)
}

// FormatIncidentChannelName creates a Slack-compatible channel name from
// incident ID and title
func FormatIncidentChannelName(id types.IncidentID, title string) types.ChannelName {
	baseChannelName := fmt.Sprintf("inc-%d", id.Int())

	sanitized := sanitizeForSlackChannelName(title)
	if sanitized == "" {
		return types.ChannelName(baseChannelName)
	}

	return types.ChannelName(fmt.Sprintf("%s-%s", baseChannelName, sanitized))
}

// sanitizeForSlackChannelName converts text to be compatible with Slack
// channel names: lowercase, no spaces or periods, at most 80 bytes total.
// Symbols are replaced with hyphens, multibyte characters are preserved.
func sanitizeForSlackChannelName(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder

	for _, r := range text {
		switch {
		case unicode.IsSpace(r) || r == '.':
			result.WriteRune('-')
		case r >= 'A' && r <= 'Z':
			result.WriteRune(unicode.ToLower(r))
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_':
			result.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			result.WriteRune(r)
		default:
			result.WriteRune('-')
		}
	}

	text = result.String()

	re := regexp.MustCompile(`-+`)
	text = re.ReplaceAllString(text, "-")
	text = strings.Trim(text, "-")

	// Slack limit is 80 bytes; "inc-XXX-" takes the first 8, leave 72 for the title
	maxTitleBytes := 72
	if len(text) > maxTitleBytes {
		text = text[:maxTitleBytes]
	}

	return strings.TrimRight(text, "-")
}
