package config

import (
	"log/slog"

	"github.com/ops-deck/vigil/pkg/service/statuspage"
	"github.com/urfave/cli/v3"
)

// StatusPage holds Statuspage.io configuration
type StatusPage struct {
	APIKey     string
	PageID     string
	Components map[string]string
	QueueSize  int
}

// Flags returns CLI flags for status page configuration
func (s *StatusPage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "statuspage-api-key",
			Usage:       "Statuspage.io API key",
			Category:    "Status page",
			Sources:     cli.EnvVars("VIGIL_STATUSPAGE_API_KEY"),
			Destination: &s.APIKey,
		},
		&cli.StringFlag{
			Name:        "statuspage-page-id",
			Usage:       "Statuspage.io page ID",
			Category:    "Status page",
			Sources:     cli.EnvVars("VIGIL_STATUSPAGE_PAGE_ID"),
			Destination: &s.PageID,
		},
		&cli.StringMapFlag{
			Name:        "statuspage-components",
			Usage:       "Affected service to component ID mapping (service=component)",
			Category:    "Status page",
			Sources:     cli.EnvVars("VIGIL_STATUSPAGE_COMPONENTS"),
			Destination: &s.Components,
		},
		&cli.IntFlag{
			Name:        "statuspage-queue-size",
			Usage:       "Size of the sync job queue",
			Category:    "Status page",
			Value:       64,
			Sources:     cli.EnvVars("VIGIL_STATUSPAGE_QUEUE_SIZE"),
			Destination: &s.QueueSize,
		},
	}
}

// ConfigureOptional creates the sync worker if the status page is
// configured, nil if not
func (s *StatusPage) ConfigureOptional(logger *slog.Logger) *statuspage.Worker {
	if !s.IsConfigured() {
		logger.Info("Status page not configured, sync disabled")
		return nil
	}

	client := statuspage.NewClient(s.APIKey, s.PageID, s.Components)
	return statuspage.NewWorker(client, s.QueueSize)
}

// IsConfigured checks if the status page is properly configured
func (s *StatusPage) IsConfigured() bool {
	return s.APIKey != "" && s.PageID != ""
}

// LogValue returns structured log value
func (s StatusPage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("has_api_key", s.APIKey != ""),
		slog.String("page_id", s.PageID),
		slog.Int("components", len(s.Components)),
	)
}
