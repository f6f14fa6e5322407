package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/domain/interfaces"
	"github.com/ops-deck/vigil/pkg/domain/model"
	"github.com/ops-deck/vigil/pkg/domain/types"
	"github.com/ops-deck/vigil/pkg/service/notify"
	"github.com/ops-deck/vigil/pkg/service/statuspage"
	"github.com/ops-deck/vigil/pkg/utils/apperr"
	"github.com/ops-deck/vigil/pkg/utils/keylock"
)

// Incident drives the incident lifecycle. Every mutation runs under a
// per-incident lock, so writes to a single incident are serialized while
// different incidents proceed in parallel. Each accepted mutation appends
// a timeline event and an audit entry before notifications go out.
type Incident struct {
	repo       interfaces.Repository
	router     *notify.Router
	channels   interfaces.ChannelProvisioner
	statusPage *statuspage.Worker
	locks      *keylock.KeyLock[types.IncidentID]
	now        func() time.Time
}

// IncidentOption is a functional option for the incident use case
type IncidentOption func(*Incident)

// WithChannelProvisioner enables dedicated channel creation at declaration
func WithChannelProvisioner(channels interfaces.ChannelProvisioner) IncidentOption {
	return func(u *Incident) {
		u.channels = channels
	}
}

// WithStatusPage enables fire-and-forget status page synchronization
func WithStatusPage(worker *statuspage.Worker) IncidentOption {
	return func(u *Incident) {
		u.statusPage = worker
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) IncidentOption {
	return func(u *Incident) {
		u.now = now
	}
}

// NewIncident creates the incident use case
func NewIncident(repo interfaces.Repository, router *notify.Router, opts ...IncidentOption) *Incident {
	u := &Incident{
		repo:   repo,
		router: router,
		locks:  keylock.New[types.IncidentID](),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// DeclareInput carries the fields of a declaration request. ReporterID is
// the actor who issued the declaration; it may differ from the commander.
type DeclareInput struct {
	Title       string
	Severity    types.Severity
	Service     string
	CommanderID types.SlackUserID
	ReporterID  types.SlackUserID
}

// Declare creates a new incident in the declared state, records it in the
// timeline and audit ledgers, and routes the declaration notification for
// its severity. The dedicated channel is created before routing so the
// declaration always reaches the incident's own channel and leaves its
// record; a channel creation failure is absorbed and leaves the incident
// unbound.
func (u *Incident) Declare(ctx context.Context, input DeclareInput) (*model.Incident, error) {
	reporter := input.ReporterID
	if reporter == "" {
		reporter = input.CommanderID
	}

	id, err := u.repo.GetNextIncidentNumber(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to allocate incident number")
	}

	incident, err := model.NewIncident(id, input.Title, input.Severity, input.Service, input.CommanderID)
	if err != nil {
		return nil, err
	}

	if u.channels != nil {
		channelID, channelName, err := u.channels.CreateIncidentChannel(ctx, incident.ChannelName)
		if err != nil {
			apperr.Handle(ctx, goerr.Wrap(err, "failed to create incident channel",
				goerr.V("incidentID", id)))
		} else {
			incident.ChannelID = channelID
			incident.ChannelName = channelName
		}
	}

	if err := u.repo.PutIncident(ctx, incident); err != nil {
		return nil, goerr.Wrap(err, "failed to save incident", goerr.V("incidentID", id))
	}

	message := fmt.Sprintf("Incident declared: %s", incident.Title)
	if err := u.appendTimeline(ctx, incident.ID, types.TimelineEventDeclared, message, reporter); err != nil {
		return nil, err
	}

	entry, err := model.NewAuditEntry(incident.ID, "incident_declared", reporter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build audit entry")
	}
	entry.WithStates(nil, map[string]any{
		"title":    incident.Title,
		"severity": incident.Severity.String(),
		"status":   incident.Status.String(),
		"service":  incident.AffectedService,
	})
	if err := u.repo.AddAuditEntry(ctx, entry); err != nil {
		return nil, goerr.Wrap(err, "failed to save audit entry", goerr.V("incidentID", incident.ID))
	}

	ctxlog.From(ctx).Info("Incident declared",
		"incidentID", incident.ID,
		"severity", incident.Severity,
		"commanderID", incident.CommanderID,
	)

	u.router.NotifyDeclared(ctx, incident)
	u.enqueueSync(ctx, incident)

	return incident, nil
}

// PostStatusUpdate appends a status update to the incident timeline and
// posts it to the incident's own channel. Updates are never broadcast.
func (u *Incident) PostStatusUpdate(ctx context.Context, incidentID types.IncidentID, actorID types.SlackUserID, message string) (*model.Incident, error) {
	u.locks.Lock(incidentID)
	defer u.locks.Unlock(incidentID)

	incident, err := u.repo.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if err := ensureCommander(incident, actorID); err != nil {
		return nil, err
	}
	if incident.IsResolved() {
		return nil, goerr.Wrap(model.ErrValidation, "cannot post status updates to resolved incidents",
			goerr.V("incidentID", incidentID))
	}
	if message == "" {
		return nil, goerr.Wrap(model.ErrValidation, "status update message is required")
	}

	if err := u.appendTimeline(ctx, incident.ID, types.TimelineEventStatusUpdate, message, actorID); err != nil {
		return nil, err
	}

	entry, err := model.NewAuditEntry(incident.ID, "status_update_posted", actorID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build audit entry")
	}
	entry.WithDetails(map[string]any{"message": message})
	if err := u.repo.AddAuditEntry(ctx, entry); err != nil {
		return nil, goerr.Wrap(err, "failed to save audit entry", goerr.V("incidentID", incident.ID))
	}

	u.router.NotifyStatusUpdate(ctx, incident, message)

	return incident, nil
}

// ChangeSeverity reclassifies the incident. When the new severity is P1 or
// P2 the change is broadcast through full routing for that severity,
// regardless of which direction the severity moved.
func (u *Incident) ChangeSeverity(ctx context.Context, incidentID types.IncidentID, actorID types.SlackUserID, newSeverity types.Severity, reason string) (*model.Incident, error) {
	u.locks.Lock(incidentID)
	defer u.locks.Unlock(incidentID)

	incident, err := u.repo.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if err := ensureCommander(incident, actorID); err != nil {
		return nil, err
	}
	if incident.IsResolved() {
		return nil, goerr.Wrap(model.ErrValidation, "cannot change severity of resolved incidents",
			goerr.V("incidentID", incidentID))
	}
	if !newSeverity.IsValid() {
		return nil, goerr.Wrap(model.ErrValidation, "invalid severity", goerr.V("severity", newSeverity))
	}

	oldSeverity := incident.Severity
	incident.Severity = newSeverity
	if err := u.repo.PutIncident(ctx, incident); err != nil {
		return nil, goerr.Wrap(err, "failed to save incident", goerr.V("incidentID", incidentID))
	}

	message := fmt.Sprintf("Severity changed from %s to %s", oldSeverity, newSeverity)
	if reason != "" {
		message = fmt.Sprintf("%s: %s", message, reason)
	}
	if err := u.appendTimeline(ctx, incident.ID, types.TimelineEventSeverityChange, message, actorID); err != nil {
		return nil, err
	}

	entry, err := model.NewAuditEntry(incident.ID, "severity_changed", actorID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build audit entry")
	}
	entry.WithStates(
		map[string]any{"severity": oldSeverity.String()},
		map[string]any{"severity": newSeverity.String()},
	)
	if reason != "" {
		entry.WithDetails(map[string]any{"reason": reason})
	}
	if err := u.repo.AddAuditEntry(ctx, entry); err != nil {
		return nil, goerr.Wrap(err, "failed to save audit entry", goerr.V("incidentID", incident.ID))
	}

	ctxlog.From(ctx).Info("Severity changed",
		"incidentID", incident.ID,
		"from", oldSeverity,
		"to", newSeverity,
	)

	u.router.NotifySeverityChange(ctx, incident, oldSeverity)
	u.enqueueSync(ctx, incident)

	return incident, nil
}

// UpdateStatus moves the incident to another working state. The working
// states carry no ordering constraints; only resolved is special and must
// go through Resolve.
func (u *Incident) UpdateStatus(ctx context.Context, incidentID types.IncidentID, actorID types.SlackUserID, newStatus types.IncidentStatus, note string) (*model.Incident, error) {
	u.locks.Lock(incidentID)
	defer u.locks.Unlock(incidentID)

	incident, err := u.repo.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if err := ensureCommander(incident, actorID); err != nil {
		return nil, err
	}
	if incident.IsResolved() {
		return nil, goerr.Wrap(model.ErrValidation, "cannot change status of resolved incidents",
			goerr.V("incidentID", incidentID))
	}
	if !newStatus.IsValid() {
		return nil, goerr.Wrap(model.ErrValidation, "invalid status", goerr.V("status", newStatus))
	}
	if newStatus.IsTerminal() {
		return nil, goerr.Wrap(model.ErrValidation, "use resolve to close the incident",
			goerr.V("incidentID", incidentID))
	}

	oldStatus := incident.Status
	incident.Status = newStatus
	if err := u.repo.PutIncident(ctx, incident); err != nil {
		return nil, goerr.Wrap(err, "failed to save incident", goerr.V("incidentID", incidentID))
	}

	message := fmt.Sprintf("Status changed to %s", newStatus.Label())
	if note != "" {
		message = fmt.Sprintf("%s: %s", message, note)
	}
	if err := u.appendTimeline(ctx, incident.ID, types.TimelineEventStatusUpdate, message, actorID); err != nil {
		return nil, err
	}

	entry, err := model.NewAuditEntry(incident.ID, "status_changed", actorID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build audit entry")
	}
	entry.WithStates(
		map[string]any{"status": oldStatus.String()},
		map[string]any{"status": newStatus.String()},
	)
	if err := u.repo.AddAuditEntry(ctx, entry); err != nil {
		return nil, goerr.Wrap(err, "failed to save audit entry", goerr.V("incidentID", incident.ID))
	}

	u.router.NotifyStatusUpdate(ctx, incident, message)
	u.enqueueSync(ctx, incident)

	return incident, nil
}

// Resolve moves the incident to the terminal resolved state and stamps the
// resolution time and duration. Resolving an already resolved incident is
// idempotent: it returns the existing state without writing anything.
func (u *Incident) Resolve(ctx context.Context, incidentID types.IncidentID, actorID types.SlackUserID) (*model.Incident, error) {
	u.locks.Lock(incidentID)
	defer u.locks.Unlock(incidentID)

	incident, err := u.repo.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if err := ensureCommander(incident, actorID); err != nil {
		return nil, err
	}
	if incident.IsResolved() {
		ctxlog.From(ctx).Info("Incident already resolved",
			"incidentID", incidentID,
		)
		return incident, nil
	}

	resolvedAt := u.now()
	minutes := int(math.Round(resolvedAt.Sub(incident.DeclaredAt).Seconds() / 60.0))

	oldStatus := incident.Status
	incident.Status = types.IncidentStatusResolved
	incident.ResolvedAt = &resolvedAt
	incident.DurationMinutes = &minutes
	if err := incident.ValidateResolution(); err != nil {
		return nil, err
	}
	if err := u.repo.PutIncident(ctx, incident); err != nil {
		return nil, goerr.Wrap(err, "failed to save incident", goerr.V("incidentID", incidentID))
	}

	message := fmt.Sprintf("Incident resolved (duration: %s)", incident.DurationText())
	if err := u.appendTimeline(ctx, incident.ID, types.TimelineEventResolved, message, actorID); err != nil {
		return nil, err
	}

	entry, err := model.NewAuditEntry(incident.ID, "incident_resolved", actorID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build audit entry")
	}
	entry.WithStates(
		map[string]any{"status": oldStatus.String()},
		map[string]any{"status": incident.Status.String()},
	)
	entry.WithDetails(map[string]any{"durationMinutes": minutes})
	if err := u.repo.AddAuditEntry(ctx, entry); err != nil {
		return nil, goerr.Wrap(err, "failed to save audit entry", goerr.V("incidentID", incident.ID))
	}

	ctxlog.From(ctx).Info("Incident resolved",
		"incidentID", incident.ID,
		"durationMinutes", minutes,
	)

	u.router.NotifyResolved(ctx, incident)
	u.enqueueSync(ctx, incident)

	return incident, nil
}

// GetIncident returns the incident with the given ID
func (u *Incident) GetIncident(ctx context.Context, incidentID types.IncidentID) (*model.Incident, error) {
	return u.repo.GetIncident(ctx, incidentID)
}

// GetIncidentByChannel returns the incident bound to the given channel
func (u *Incident) GetIncidentByChannel(ctx context.Context, channelID types.ChannelID) (*model.Incident, error) {
	return u.repo.GetIncidentByChannelID(ctx, channelID)
}

// ListIncidents returns all incidents, oldest first
func (u *Incident) ListIncidents(ctx context.Context) ([]*model.Incident, error) {
	return u.repo.ListIncidents(ctx)
}

// GetTimeline returns the incident's timeline events in chronological order
func (u *Incident) GetTimeline(ctx context.Context, incidentID types.IncidentID) ([]*model.TimelineEvent, error) {
	if _, err := u.repo.GetIncident(ctx, incidentID); err != nil {
		return nil, err
	}
	return u.repo.ListTimelineEvents(ctx, incidentID)
}

// GetAuditLog returns the incident's audit entries in chronological order
func (u *Incident) GetAuditLog(ctx context.Context, incidentID types.IncidentID) ([]*model.AuditEntry, error) {
	if _, err := u.repo.GetIncident(ctx, incidentID); err != nil {
		return nil, err
	}
	return u.repo.ListAuditEntries(ctx, incidentID)
}

func (u *Incident) appendTimeline(ctx context.Context, incidentID types.IncidentID, eventType types.TimelineEventType, message string, postedBy types.SlackUserID) error {
	event, err := model.NewTimelineEvent(incidentID, eventType, message, postedBy)
	if err != nil {
		return goerr.Wrap(err, "failed to build timeline event")
	}
	if err := u.repo.AddTimelineEvent(ctx, event); err != nil {
		return goerr.Wrap(err, "failed to save timeline event", goerr.V("incidentID", incidentID))
	}
	return nil
}

func (u *Incident) enqueueSync(ctx context.Context, incident *model.Incident) {
	if u.statusPage == nil {
		return
	}
	u.statusPage.Enqueue(ctx, statuspage.SyncJob{
		IncidentID: incident.ID,
		Service:    incident.AffectedService,
		Status:     incident.Status,
		Severity:   incident.Severity,
	})
}

func ensureCommander(incident *model.Incident, actorID types.SlackUserID) error {
	if incident.CommanderID != actorID {
		return goerr.Wrap(model.ErrPermissionDenied, "only the incident commander can perform this action",
			goerr.V("incidentID", incident.ID),
			goerr.V("actorID", actorID),
			goerr.V("commanderID", incident.CommanderID))
	}
	return nil
}
