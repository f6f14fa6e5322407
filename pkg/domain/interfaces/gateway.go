package interfaces

import (
	"context"

	"github.com/ops-deck/vigil/pkg/domain/types"
)

// MessageGateway is the outbound messaging boundary. The engine hands it a
// recipient and rendered message content; it neither knows nor cares how
// delivery is transported.
type MessageGateway interface {
	PostChannelMessage(ctx context.Context, channelID string, text string) error
	PostDirectMessage(ctx context.Context, userID string, text string) error
}

// ChannelProvisioner creates the dedicated channel for a new incident.
// The returned name may differ from the requested one when a collision
// forced a suffix.
type ChannelProvisioner interface {
	CreateIncidentChannel(ctx context.Context, name types.ChannelName) (types.ChannelID, types.ChannelName, error)
}

// StatusPageSync is notified on every severity or status change. It is
// best-effort: failures are logged by the caller and never propagate into
// an operation result.
type StatusPageSync interface {
	SyncComponentStatus(ctx context.Context, service string, status types.IncidentStatus, severity types.Severity) error
}
