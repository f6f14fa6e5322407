package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/domain/interfaces"
	"github.com/ops-deck/vigil/pkg/domain/model"
	"github.com/ops-deck/vigil/pkg/domain/types"
)

// Memory implements Repository interface with in-memory storage. Ledger
// slices are append-only; list operations sort by timestamp ascending with
// the existing slice order breaking ties, preserving insertion order.
type Memory struct {
	mu              sync.RWMutex
	incidents       map[types.IncidentID]*model.Incident
	timelines       map[types.IncidentID][]*model.TimelineEvent
	audits          map[types.IncidentID][]*model.AuditEntry
	globalAudits    []*model.AuditEntry
	notifications   map[types.IncidentID][]*model.NotificationRecord
	incidentCounter types.IncidentID
}

// NewMemory creates a new memory repository
func NewMemory() *Memory {
	return &Memory{
		incidents:     make(map[types.IncidentID]*model.Incident),
		timelines:     make(map[types.IncidentID][]*model.TimelineEvent),
		audits:        make(map[types.IncidentID][]*model.AuditEntry),
		notifications: make(map[types.IncidentID][]*model.NotificationRecord),
	}
}

// PutIncident saves an incident to memory
func (m *Memory) PutIncident(ctx context.Context, incident *model.Incident) error {
	if incident == nil {
		return goerr.New("incident is nil")
	}
	if err := incident.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid incident ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Deep copy to prevent external modifications
	incidentCopy := *incident
	m.incidents[incident.ID] = &incidentCopy

	return nil
}

// GetIncident retrieves an incident by ID
func (m *Memory) GetIncident(ctx context.Context, id types.IncidentID) (*model.Incident, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid incident ID")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	incident, exists := m.incidents[id]
	if !exists {
		return nil, goerr.Wrap(model.ErrIncidentNotFound, "failed to get incident",
			goerr.V("incidentID", id))
	}

	incidentCopy := *incident
	return &incidentCopy, nil
}

// GetIncidentByChannelID retrieves the incident bound to a channel. An
// unresolved incident wins over a resolved one on the same channel.
func (m *Memory) GetIncidentByChannelID(ctx context.Context, channelID types.ChannelID) (*model.Incident, error) {
	if channelID == "" {
		return nil, goerr.New("channel ID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *model.Incident
	for _, incident := range m.incidents {
		if incident.ChannelID != channelID {
			continue
		}
		if !incident.IsResolved() {
			incidentCopy := *incident
			return &incidentCopy, nil
		}
		if latest == nil || incident.DeclaredAt.After(latest.DeclaredAt) {
			latest = incident
		}
	}

	if latest == nil {
		return nil, goerr.Wrap(model.ErrIncidentNotFound, "no incident for channel",
			goerr.V("channelID", channelID))
	}

	incidentCopy := *latest
	return &incidentCopy, nil
}

// ListIncidents retrieves all incidents ordered by declaration time (newest first)
func (m *Memory) ListIncidents(ctx context.Context) ([]*model.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	incidents := make([]*model.Incident, 0, len(m.incidents))
	for _, incident := range m.incidents {
		incidentCopy := *incident
		incidents = append(incidents, &incidentCopy)
	}

	sort.Slice(incidents, func(i, j int) bool {
		return incidents[i].DeclaredAt.After(incidents[j].DeclaredAt)
	})

	return incidents, nil
}

// GetNextIncidentNumber returns the next available incident number
func (m *Memory) GetNextIncidentNumber(ctx context.Context) (types.IncidentID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.incidentCounter++
	return m.incidentCounter, nil
}

// AddTimelineEvent appends a timeline event
func (m *Memory) AddTimelineEvent(ctx context.Context, event *model.TimelineEvent) error {
	if event == nil {
		return goerr.New("timeline event is nil")
	}
	if err := event.IncidentID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid incident ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	eventCopy := *event
	m.timelines[event.IncidentID] = append(m.timelines[event.IncidentID], &eventCopy)

	return nil
}

// ListTimelineEvents retrieves timeline events ordered by timestamp ascending
func (m *Memory) ListTimelineEvents(ctx context.Context, incidentID types.IncidentID) ([]*model.TimelineEvent, error) {
	if err := incidentID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid incident ID")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	events := m.timelines[incidentID]
	result := make([]*model.TimelineEvent, 0, len(events))
	for _, event := range events {
		eventCopy := *event
		result = append(result, &eventCopy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}

// AddAuditEntry appends an audit entry
func (m *Memory) AddAuditEntry(ctx context.Context, entry *model.AuditEntry) error {
	if entry == nil {
		return goerr.New("audit entry is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entryCopy := *entry
	if entry.IncidentID != nil {
		m.audits[*entry.IncidentID] = append(m.audits[*entry.IncidentID], &entryCopy)
	} else {
		m.globalAudits = append(m.globalAudits, &entryCopy)
	}

	return nil
}

// ListAuditEntries retrieves audit entries for an incident ordered by
// timestamp ascending
func (m *Memory) ListAuditEntries(ctx context.Context, incidentID types.IncidentID) ([]*model.AuditEntry, error) {
	if err := incidentID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid incident ID")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.audits[incidentID]
	result := make([]*model.AuditEntry, 0, len(entries))
	for _, entry := range entries {
		entryCopy := *entry
		result = append(result, &entryCopy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}

// AddNotificationRecord appends a notification record
func (m *Memory) AddNotificationRecord(ctx context.Context, record *model.NotificationRecord) error {
	if record == nil {
		return goerr.New("notification record is nil")
	}
	if err := record.IncidentID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid incident ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	recordCopy := *record
	m.notifications[record.IncidentID] = append(m.notifications[record.IncidentID], &recordCopy)

	return nil
}

// ListNotificationRecords retrieves notification records for an incident
// ordered by timestamp ascending
func (m *Memory) ListNotificationRecords(ctx context.Context, incidentID types.IncidentID) ([]*model.NotificationRecord, error) {
	if err := incidentID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid incident ID")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.notifications[incidentID]
	result := make([]*model.NotificationRecord, 0, len(records))
	for _, record := range records {
		recordCopy := *record
		result = append(result, &recordCopy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SentAt.Before(result[j].SentAt)
	})

	return result, nil
}

// Close does nothing for memory repository
func (m *Memory) Close() error {
	return nil
}

// Clear clears all data (useful for testing)
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incidents = make(map[types.IncidentID]*model.Incident)
	m.timelines = make(map[types.IncidentID][]*model.TimelineEvent)
	m.audits = make(map[types.IncidentID][]*model.AuditEntry)
	m.globalAudits = nil
	m.notifications = make(map[types.IncidentID][]*model.NotificationRecord)
	m.incidentCounter = 0
}

var _ interfaces.Repository = (*Memory)(nil) // Compile-time interface check
