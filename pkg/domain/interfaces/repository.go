package interfaces

import (
	"context"

	"github.com/ops-deck/vigil/pkg/domain/model"
	"github.com/ops-deck/vigil/pkg/domain/types"
)

// Repository defines the interface for data persistence. Timeline, audit,
// and notification stores are append-only; list operations return entries
// ordered by timestamp ascending with ties broken by insertion order.
type Repository interface {
	// Incident operations
	PutIncident(ctx context.Context, incident *model.Incident) error
	GetIncident(ctx context.Context, id types.IncidentID) (*model.Incident, error)
	GetIncidentByChannelID(ctx context.Context, channelID types.ChannelID) (*model.Incident, error)
	ListIncidents(ctx context.Context) ([]*model.Incident, error)
	GetNextIncidentNumber(ctx context.Context) (types.IncidentID, error)

	// Timeline ledger
	AddTimelineEvent(ctx context.Context, event *model.TimelineEvent) error
	ListTimelineEvents(ctx context.Context, incidentID types.IncidentID) ([]*model.TimelineEvent, error)

	// Audit ledger
	AddAuditEntry(ctx context.Context, entry *model.AuditEntry) error
	ListAuditEntries(ctx context.Context, incidentID types.IncidentID) ([]*model.AuditEntry, error)

	// Notification ledger
	AddNotificationRecord(ctx context.Context, record *model.NotificationRecord) error
	ListNotificationRecords(ctx context.Context, incidentID types.IncidentID) ([]*model.NotificationRecord, error)

	// Close closes the repository connection
	Close() error
}
