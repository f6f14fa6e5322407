package config

import (
	"log/slog"

	"github.com/ops-deck/vigil/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds Slack configuration
type Slack struct {
	SigningSecret string
	OAuthToken    string
}

// Flags returns CLI flags for Slack configuration
func (s *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack signing secret for request verification",
			Category:    "Slack",
			Sources:     cli.EnvVars("VIGIL_SLACK_SIGNING_SECRET"),
			Destination: &s.SigningSecret,
		},
		&cli.StringFlag{
			Name:        "slack-oauth-token",
			Usage:       "Slack OAuth token for API access",
			Category:    "Slack",
			Sources:     cli.EnvVars("VIGIL_SLACK_OAUTH_TOKEN"),
			Destination: &s.OAuthToken,
		},
	}
}

// Configure creates and returns a Slack service
func (s *Slack) Configure() *slack.Service {
	if !s.IsConfigured() {
		return nil
	}
	return slack.New(s.OAuthToken)
}

// IsConfigured checks if Slack is properly configured
func (s *Slack) IsConfigured() bool {
	return s.SigningSecret != "" && s.OAuthToken != ""
}

// LogValue returns structured log value
func (s Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("has_signing_secret", s.SigningSecret != ""),
		slog.Bool("has_oauth_token", s.OAuthToken != ""),
	)
}
