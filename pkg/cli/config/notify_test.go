package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/ops-deck/vigil/pkg/cli/config"
)

func TestNotifyConfigure(t *testing.T) {
	t.Run("Flags only", func(t *testing.T) {
		cfg := &config.Notify{
			P1Channels:   []string{"C1"},
			P1Recipients: []string{"U1"},
		}
		routing, err := cfg.Configure()
		gt.NoError(t, err)
		gt.Equal(t, routing.P1Channels, []string{"C1"})
		gt.Equal(t, routing.P1Recipients, []string{"U1"})
	})

	t.Run("Routing file overrides flag lists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "routing.yml")
		gt.NoError(t, os.WriteFile(path, []byte(`
p1_channels:
  - C-FILE
p1_dm_recipients:
  - U-FILE
service_owners:
  payments:
    - U-OWNER
services:
  - payments
`), 0o600))

		cfg := &config.Notify{
			P1Channels:  []string{"C-FLAG"},
			RoutingFile: path,
		}
		routing, err := cfg.Configure()
		gt.NoError(t, err)
		gt.Equal(t, routing.P1Channels, []string{"C-FILE"})
		gt.Equal(t, routing.P1Recipients, []string{"U-FILE"})
		gt.Equal(t, routing.OwnersOf("payments"), []string{"U-OWNER"})
	})

	t.Run("Missing file", func(t *testing.T) {
		cfg := &config.Notify{RoutingFile: "/no/such/file.yml"}
		_, err := cfg.Configure()
		gt.Error(t, err)
	})

	t.Run("Empty recipient is invalid", func(t *testing.T) {
		cfg := &config.Notify{P1Channels: []string{""}}
		_, err := cfg.Configure()
		gt.Error(t, err)
	})
}
