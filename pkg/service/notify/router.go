package notify

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/domain/interfaces"
	"github.com/ops-deck/vigil/pkg/domain/model"
	"github.com/ops-deck/vigil/pkg/domain/types"
	"github.com/ops-deck/vigil/pkg/utils/apperr"
)

// DefaultDeliveryTimeout bounds a single delivery attempt. A timeout is a
// delivery failure, not a retry trigger; retry policy belongs to the
// gateway.
const DefaultDeliveryTimeout = 10 * time.Second

// Router decides recipients per severity and event kind, delivers through
// the message gateway, and records every attempt in the notification
// ledger. Delivery failures are recorded and logged, never raised to the
// caller; only configuration errors fail synchronously.
type Router struct {
	repo     interfaces.Repository
	gateway  interfaces.MessageGateway
	config   *model.RoutingConfig
	throttle *throttle
	timeout  time.Duration
}

// Option is a functional option for configuring the Router
type Option func(*Router)

// WithThrottleWindow overrides the direct-message throttle window
func WithThrottleWindow(window time.Duration) Option {
	return func(r *Router) {
		r.throttle = newThrottle(window)
	}
}

// WithDeliveryTimeout overrides the per-delivery timeout
func WithDeliveryTimeout(timeout time.Duration) Option {
	return func(r *Router) {
		r.timeout = timeout
	}
}

// NewRouter creates a new notification router
func NewRouter(repo interfaces.Repository, gateway interfaces.MessageGateway, config *model.RoutingConfig, opts ...Option) (*Router, error) {
	if config == nil {
		config = &model.RoutingConfig{}
	}
	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid routing configuration")
	}

	r := &Router{
		repo:     repo,
		gateway:  gateway,
		config:   config,
		throttle: newThrottle(DefaultThrottleWindow),
		timeout:  DefaultDeliveryTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NotifyDeclared routes a declaration notification for the incident's
// severity
func (r *Router) NotifyDeclared(ctx context.Context, incident *model.Incident) {
	text := declaredText(incident)
	r.routeBySeverity(ctx, incident, text)
}

// NotifyStatusUpdate posts a status update to the incident's own channel
// only; status updates are never broadcast.
func (r *Router) NotifyStatusUpdate(ctx context.Context, incident *model.Incident, message string) {
	r.sendToOwnChannel(ctx, incident, statusUpdateText(incident, message))
}

// NotifySeverityChange routes a severity change. Entering P1 or P2 triggers
// full routing for the new severity; any other change stays in the
// incident's own channel.
func (r *Router) NotifySeverityChange(ctx context.Context, incident *model.Incident, oldSeverity types.Severity) {
	text := severityChangeText(incident, oldSeverity)
	if incident.Severity.IsBroadcast() {
		r.routeBySeverity(ctx, incident, text)
		return
	}
	r.sendToOwnChannel(ctx, incident, text)
}

// NotifyResolved routes a resolution notification to the same channel set
// as the declaration for the incident's severity
func (r *Router) NotifyResolved(ctx context.Context, incident *model.Incident) {
	text := resolvedText(incident)
	r.routeBySeverity(ctx, incident, text)
}

// routeBySeverity applies the routing table: the incident's own channel
// always, broadcast channels for P1/P2, direct messages for P1. Each
// delivery attempt is independent; one failure never prevents the rest.
func (r *Router) routeBySeverity(ctx context.Context, incident *model.Incident, text string) {
	r.sendToOwnChannel(ctx, incident, text)

	for _, channelID := range r.config.ChannelsFor(incident.Severity) {
		r.sendToChannel(ctx, incident.ID, channelID, text)
	}

	for _, userID := range r.config.DMRecipientsFor(incident.Severity) {
		if !r.throttle.Allow(userID, incident.ID) {
			ctxlog.From(ctx).Info("Throttling DM",
				"recipient", userID,
				"incidentID", incident.ID,
			)
			r.record(ctx, incident.ID, types.NotificationDirectMessage, userID, types.NotificationStatusThrottled, "")
			continue
		}
		r.sendDM(ctx, incident.ID, userID, text)
	}
}

func (r *Router) sendToOwnChannel(ctx context.Context, incident *model.Incident, text string) {
	if incident.ChannelID == "" {
		return
	}
	r.sendToChannel(ctx, incident.ID, incident.ChannelID.String(), text)
}

func (r *Router) sendToChannel(ctx context.Context, incidentID types.IncidentID, channelID, text string) {
	deliveryCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.gateway.PostChannelMessage(deliveryCtx, channelID, text); err != nil {
		ctxlog.From(ctx).Error("Failed to post to channel",
			"channelID", channelID,
			"incidentID", incidentID,
			"error", err,
		)
		r.record(ctx, incidentID, types.NotificationChannelPost, channelID, types.NotificationStatusFailed, err.Error())
		return
	}

	r.record(ctx, incidentID, types.NotificationChannelPost, channelID, types.NotificationStatusSent, "")
}

func (r *Router) sendDM(ctx context.Context, incidentID types.IncidentID, userID, text string) {
	deliveryCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.gateway.PostDirectMessage(deliveryCtx, userID, text); err != nil {
		ctxlog.From(ctx).Warn("Failed to send DM",
			"userID", userID,
			"incidentID", incidentID,
			"error", err,
		)
		r.record(ctx, incidentID, types.NotificationDirectMessage, userID, types.NotificationStatusFailed, err.Error())
		return
	}

	r.record(ctx, incidentID, types.NotificationDirectMessage, userID, types.NotificationStatusSent, "")
}

// record writes a notification record. A ledger write failure is logged
// and absorbed; it must not abort the surrounding operation.
func (r *Router) record(ctx context.Context, incidentID types.IncidentID, notifType types.NotificationType, recipient string, notifStatus types.NotificationStatus, errorMessage string) {
	rec, err := model.NewNotificationRecord(incidentID, notifType, recipient, notifStatus, errorMessage)
	if err != nil {
		apperr.Handle(ctx, goerr.Wrap(err, "failed to build notification record"))
		return
	}
	if err := r.repo.AddNotificationRecord(ctx, rec); err != nil {
		apperr.Handle(ctx, goerr.Wrap(err, "failed to save notification record"))
	}
}
