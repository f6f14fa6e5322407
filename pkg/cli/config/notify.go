package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/domain/model"
	"github.com/ops-deck/vigil/pkg/service/notify"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Notify holds notification routing configuration. The broadcast targets
// can come from flags, from a YAML routing file, or both; the file wins
// for any list it defines.
type Notify struct {
	P1Channels     []string
	P2Channels     []string
	P1Recipients   []string
	RoutingFile    string
	ThrottleWindow time.Duration
}

// Flags returns CLI flags for notification configuration
func (n *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "notify-p1-channels",
			Usage:       "Channel IDs that receive P1 broadcasts",
			Category:    "Notification",
			Sources:     cli.EnvVars("VIGIL_NOTIFY_P1_CHANNELS"),
			Destination: &n.P1Channels,
		},
		&cli.StringSliceFlag{
			Name:        "notify-p2-channels",
			Usage:       "Channel IDs that receive P2 broadcasts",
			Category:    "Notification",
			Sources:     cli.EnvVars("VIGIL_NOTIFY_P2_CHANNELS"),
			Destination: &n.P2Channels,
		},
		&cli.StringSliceFlag{
			Name:        "notify-p1-recipients",
			Usage:       "User IDs that receive P1 direct messages",
			Category:    "Notification",
			Sources:     cli.EnvVars("VIGIL_NOTIFY_P1_RECIPIENTS"),
			Destination: &n.P1Recipients,
		},
		&cli.StringFlag{
			Name:        "notify-routing-file",
			Usage:       "Path to a YAML routing table (channels, DM recipients, service owners)",
			Category:    "Notification",
			Sources:     cli.EnvVars("VIGIL_NOTIFY_ROUTING_FILE"),
			Destination: &n.RoutingFile,
		},
		&cli.DurationFlag{
			Name:        "notify-throttle-window",
			Usage:       "Suppression window for repeat direct messages per recipient and incident",
			Category:    "Notification",
			Value:       notify.DefaultThrottleWindow,
			Sources:     cli.EnvVars("VIGIL_NOTIFY_THROTTLE_WINDOW"),
			Destination: &n.ThrottleWindow,
		},
	}
}

// Configure builds the routing configuration
func (n *Notify) Configure() (*model.RoutingConfig, error) {
	routing := &model.RoutingConfig{
		P1Channels:   n.P1Channels,
		P2Channels:   n.P2Channels,
		P1Recipients: n.P1Recipients,
	}

	if n.RoutingFile != "" {
		fromFile, err := loadRoutingFromFile(n.RoutingFile)
		if err != nil {
			return nil, err
		}
		if len(fromFile.P1Channels) > 0 {
			routing.P1Channels = fromFile.P1Channels
		}
		if len(fromFile.P2Channels) > 0 {
			routing.P2Channels = fromFile.P2Channels
		}
		if len(fromFile.P1Recipients) > 0 {
			routing.P1Recipients = fromFile.P1Recipients
		}
		routing.ServiceOwners = fromFile.ServiceOwners
		routing.Services = fromFile.Services
	}

	if err := routing.Validate(); err != nil {
		return nil, err
	}
	return routing, nil
}

// loadRoutingFromFile loads the routing table from a YAML file
func loadRoutingFromFile(path string) (*model.RoutingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(err, "routing file not found", goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read routing file", goerr.V("path", path))
	}

	var routing model.RoutingConfig
	if err := yaml.Unmarshal(data, &routing); err != nil {
		return nil, goerr.Wrap(err, "failed to parse routing file", goerr.V("path", path))
	}

	return &routing, nil
}

// LogValue returns structured log value
func (n Notify) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("p1_channels", len(n.P1Channels)),
		slog.Int("p2_channels", len(n.P2Channels)),
		slog.Int("p1_recipients", len(n.P1Recipients)),
		slog.String("routing_file", n.RoutingFile),
		slog.Duration("throttle_window", n.ThrottleWindow),
	)
}
