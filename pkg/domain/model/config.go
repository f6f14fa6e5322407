package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/domain/types"
)

// RoutingConfig holds the severity-driven notification routing table.
// P1 incidents broadcast to P1Channels and DM the P1Recipients; P2
// incidents broadcast to P2Channels; P3/P4 stay in the incident channel.
type RoutingConfig struct {
	P1Channels   []string `yaml:"p1_channels"`
	P2Channels   []string `yaml:"p2_channels"`
	P1Recipients []string `yaml:"p1_dm_recipients"`

	// ServiceOwners maps an affected service to user IDs invited to the
	// incident channel at declaration time.
	ServiceOwners map[string][]string `yaml:"service_owners,omitempty"`

	// Services lists the known affected services offered in command help.
	Services []string `yaml:"services,omitempty"`
}

// Validate validates the routing configuration
func (c *RoutingConfig) Validate() error {
	for _, lists := range [][]string{c.P1Channels, c.P2Channels, c.P1Recipients} {
		for _, recipient := range lists {
			if recipient == "" {
				return goerr.New("empty recipient in routing configuration")
			}
		}
	}
	return nil
}

// ChannelsFor returns the broadcast channels configured for a severity.
// P3 and P4 have none.
func (c *RoutingConfig) ChannelsFor(severity types.Severity) []string {
	switch severity {
	case types.SeverityP1:
		return c.P1Channels
	case types.SeverityP2:
		return c.P2Channels
	default:
		return nil
	}
}

// DMRecipientsFor returns the direct-message recipients configured for a
// severity. Only P1 has any.
func (c *RoutingConfig) DMRecipientsFor(severity types.Severity) []string {
	if severity == types.SeverityP1 {
		return c.P1Recipients
	}
	return nil
}

// OwnersOf returns the configured owners of a service
func (c *RoutingConfig) OwnersOf(service string) []string {
	if c.ServiceOwners == nil {
		return nil
	}
	return c.ServiceOwners[service]
}
