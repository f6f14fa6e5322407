package repository

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/domain/interfaces"
	"github.com/ops-deck/vigil/pkg/domain/model"
	"github.com/ops-deck/vigil/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// Collection names
	incidentsCollection     = "incidents"
	timelineCollection      = "timeline_events"
	auditCollection         = "audit_entries"
	notificationsCollection = "notification_records"
	countersCollection      = "counters"

	// Document IDs
	incidentCounterDocID = "incident"

	// Field names
	fieldCurrentNumber = "current_number"
	fieldIncidentID    = "IncidentID"
)

// Firestore implements Repository interface with Firestore
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (interfaces.Repository, error) {
	logger := ctxlog.From(ctx)

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	// Fail fast on invalid project or permission issues; an empty
	// collection is fine.
	_, err = client.Collection(incidentsCollection).Limit(1).Documents(ctx).Next()
	if err != nil && err != iterator.Done {
		if status.Code(err) == codes.PermissionDenied || status.Code(err) == codes.Unauthenticated {
			_ = client.Close()
			return nil, goerr.Wrap(err, "failed to connect to firestore project",
				goerr.V("firestore error code", status.Code(err).String()),
			)
		}
		logger.Debug("Firestore connection test returned error (may be empty collection)",
			"error", err,
			"errorCode", status.Code(err).String(),
		)
	}

	logger.Info("Firestore repository initialized successfully",
		"projectID", projectID,
		"databaseID", databaseID,
	)

	return &Firestore{
		client: client,
	}, nil
}

// PutIncident saves an incident to Firestore
func (f *Firestore) PutIncident(ctx context.Context, incident *model.Incident) error {
	if incident == nil {
		return goerr.New("incident is nil")
	}
	if err := incident.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid incident ID")
	}

	_, err := f.client.Collection(incidentsCollection).Doc(incident.ID.String()).Set(ctx, incident)
	if err != nil {
		return goerr.Wrap(err, "failed to save incident to firestore",
			goerr.V("incidentID", incident.ID))
	}

	return nil
}

// GetIncident retrieves an incident by ID
func (f *Firestore) GetIncident(ctx context.Context, id types.IncidentID) (*model.Incident, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid incident ID")
	}

	doc, err := f.client.Collection(incidentsCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrIncidentNotFound, "failed to get incident",
				goerr.V("incidentID", id))
		}
		return nil, goerr.Wrap(err, "failed to get incident from firestore")
	}

	var incident model.Incident
	if err := doc.DataTo(&incident); err != nil {
		return nil, goerr.Wrap(err, "failed to decode incident")
	}

	return &incident, nil
}

// GetIncidentByChannelID retrieves the incident bound to a channel. An
// unresolved incident wins over a resolved one on the same channel.
func (f *Firestore) GetIncidentByChannelID(ctx context.Context, channelID types.ChannelID) (*model.Incident, error) {
	if channelID == "" {
		return nil, goerr.New("channel ID is empty")
	}

	iter := f.client.Collection(incidentsCollection).
		Where("ChannelID", "==", channelID.String()).
		Documents(ctx)
	defer iter.Stop()

	var latest *model.Incident
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to query incidents by channel")
		}

		var incident model.Incident
		if err := doc.DataTo(&incident); err != nil {
			return nil, goerr.Wrap(err, "failed to decode incident")
		}

		if !incident.IsResolved() {
			return &incident, nil
		}
		if latest == nil || incident.DeclaredAt.After(latest.DeclaredAt) {
			result := incident
			latest = &result
		}
	}

	if latest == nil {
		return nil, goerr.Wrap(model.ErrIncidentNotFound, "no incident for channel",
			goerr.V("channelID", channelID))
	}
	return latest, nil
}

// ListIncidents retrieves all incidents ordered by declaration time (newest first)
func (f *Firestore) ListIncidents(ctx context.Context) ([]*model.Incident, error) {
	iter := f.client.Collection(incidentsCollection).Documents(ctx)
	defer iter.Stop()

	var incidents []*model.Incident
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list incidents")
		}

		var incident model.Incident
		if err := doc.DataTo(&incident); err != nil {
			return nil, goerr.Wrap(err, "failed to decode incident")
		}
		incidents = append(incidents, &incident)
	}

	sort.Slice(incidents, func(i, j int) bool {
		return incidents[i].DeclaredAt.After(incidents[j].DeclaredAt)
	})

	return incidents, nil
}

// GetNextIncidentNumber returns the next available incident number using a
// transactional counter document
func (f *Firestore) GetNextIncidentNumber(ctx context.Context) (types.IncidentID, error) {
	var nextNumber int64

	counterRef := f.client.Collection(countersCollection).Doc(incidentCounterDocID)
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to read incident counter")
		}

		current := int64(0)
		if err == nil {
			value, err := doc.DataAt(fieldCurrentNumber)
			if err != nil {
				return goerr.Wrap(err, "failed to read counter field")
			}
			if n, ok := value.(int64); ok {
				current = n
			}
		}

		nextNumber = current + 1
		return tx.Set(counterRef, map[string]interface{}{
			fieldCurrentNumber: nextNumber,
		})
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to get next incident number")
	}

	return types.IncidentID(nextNumber), nil
}

// AddTimelineEvent appends a timeline event
func (f *Firestore) AddTimelineEvent(ctx context.Context, event *model.TimelineEvent) error {
	if event == nil {
		return goerr.New("timeline event is nil")
	}
	if err := event.IncidentID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid incident ID")
	}

	_, err := f.client.Collection(timelineCollection).Doc(event.ID.String()).Set(ctx, event)
	if err != nil {
		return goerr.Wrap(err, "failed to save timeline event to firestore",
			goerr.V("incidentID", event.IncidentID))
	}

	return nil
}

// ListTimelineEvents retrieves timeline events ordered by timestamp ascending
func (f *Firestore) ListTimelineEvents(ctx context.Context, incidentID types.IncidentID) ([]*model.TimelineEvent, error) {
	if err := incidentID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid incident ID")
	}

	iter := f.client.Collection(timelineCollection).
		Where(fieldIncidentID, "==", incidentID.Int()).
		Documents(ctx)
	defer iter.Stop()

	var events []*model.TimelineEvent
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list timeline events")
		}

		var event model.TimelineEvent
		if err := doc.DataTo(&event); err != nil {
			return nil, goerr.Wrap(err, "failed to decode timeline event")
		}
		events = append(events, &event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	return events, nil
}

// AddAuditEntry appends an audit entry
func (f *Firestore) AddAuditEntry(ctx context.Context, entry *model.AuditEntry) error {
	if entry == nil {
		return goerr.New("audit entry is nil")
	}

	_, err := f.client.Collection(auditCollection).Doc(entry.ID.String()).Set(ctx, entry)
	if err != nil {
		return goerr.Wrap(err, "failed to save audit entry to firestore")
	}

	return nil
}

// ListAuditEntries retrieves audit entries for an incident ordered by
// timestamp ascending
func (f *Firestore) ListAuditEntries(ctx context.Context, incidentID types.IncidentID) ([]*model.AuditEntry, error) {
	if err := incidentID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid incident ID")
	}

	iter := f.client.Collection(auditCollection).
		Where(fieldIncidentID, "==", incidentID.Int()).
		Documents(ctx)
	defer iter.Stop()

	var entries []*model.AuditEntry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list audit entries")
		}

		var entry model.AuditEntry
		if err := doc.DataTo(&entry); err != nil {
			return nil, goerr.Wrap(err, "failed to decode audit entry")
		}
		entries = append(entries, &entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	return entries, nil
}

// AddNotificationRecord appends a notification record
func (f *Firestore) AddNotificationRecord(ctx context.Context, record *model.NotificationRecord) error {
	if record == nil {
		return goerr.New("notification record is nil")
	}
	if err := record.IncidentID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid incident ID")
	}

	_, err := f.client.Collection(notificationsCollection).Doc(record.ID.String()).Set(ctx, record)
	if err != nil {
		return goerr.Wrap(err, "failed to save notification record to firestore",
			goerr.V("incidentID", record.IncidentID))
	}

	return nil
}

// ListNotificationRecords retrieves notification records for an incident
// ordered by timestamp ascending
func (f *Firestore) ListNotificationRecords(ctx context.Context, incidentID types.IncidentID) ([]*model.NotificationRecord, error) {
	if err := incidentID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid incident ID")
	}

	iter := f.client.Collection(notificationsCollection).
		Where(fieldIncidentID, "==", incidentID.Int()).
		Documents(ctx)
	defer iter.Stop()

	var records []*model.NotificationRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list notification records")
		}

		var record model.NotificationRecord
		if err := doc.DataTo(&record); err != nil {
			return nil, goerr.Wrap(err, "failed to decode notification record")
		}
		records = append(records, &record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SentAt.Before(records[j].SentAt)
	})

	return records, nil
}

// Close closes the Firestore client
func (f *Firestore) Close() error {
	return f.client.Close()
}

var _ interfaces.Repository = (*Firestore)(nil) // Compile-time interface check
