package notify_test

import (
	"context"
	"sync"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/ops-deck/vigil/pkg/domain/model"
	"github.com/ops-deck/vigil/pkg/domain/types"
	"github.com/ops-deck/vigil/pkg/repository"
	"github.com/ops-deck/vigil/pkg/service/notify"
)

type mockGateway struct {
	mu           sync.Mutex
	channelPosts []string
	dms          []string
	failChannels map[string]bool
	failDMs      map[string]bool
}

func (m *mockGateway) PostChannelMessage(ctx context.Context, channelID string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failChannels[channelID] {
		return goerr.New("channel_not_found")
	}
	m.channelPosts = append(m.channelPosts, channelID)
	return nil
}

func (m *mockGateway) PostDirectMessage(ctx context.Context, userID string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDMs[userID] {
		return goerr.New("user_not_found")
	}
	m.dms = append(m.dms, userID)
	return nil
}

func testRouting() *model.RoutingConfig {
	return &model.RoutingConfig{
		P1Channels:   []string{"C-P1A", "C-P1B"},
		P2Channels:   []string{"C-P2"},
		P1Recipients: []string{"U-ONCALL", "U-LEAD"},
	}
}

func testIncident(t *testing.T, severity types.Severity) *model.Incident {
	t.Helper()
	incident, err := model.NewIncident(1, "db down", severity, "payments", "U-CMD")
	gt.NoError(t, err)
	incident.ChannelID = "C-INC"
	return incident
}

func statuses(records []*model.NotificationRecord) map[types.NotificationStatus]int {
	counts := map[types.NotificationStatus]int{}
	for _, r := range records {
		counts[r.Status]++
	}
	return counts
}

func TestRouterDeclaredFanOut(t *testing.T) {
	ctx := context.Background()

	t.Run("P1 reaches own channel, P1 channels and DM recipients", func(t *testing.T) {
		repo := repository.NewMemory()
		gateway := &mockGateway{}
		router, err := notify.NewRouter(repo, gateway, testRouting())
		gt.NoError(t, err)

		router.NotifyDeclared(ctx, testIncident(t, types.SeverityP1))

		gt.Equal(t, gateway.channelPosts, []string{"C-INC", "C-P1A", "C-P1B"})
		gt.Equal(t, gateway.dms, []string{"U-ONCALL", "U-LEAD"})

		records, err := repo.ListNotificationRecords(ctx, 1)
		gt.NoError(t, err)
		gt.Equal(t, len(records), 5)
		gt.Equal(t, statuses(records)[types.NotificationStatusSent], 5)
	})

	t.Run("P2 reaches own channel and P2 channels, no DMs", func(t *testing.T) {
		repo := repository.NewMemory()
		gateway := &mockGateway{}
		router, err := notify.NewRouter(repo, gateway, testRouting())
		gt.NoError(t, err)

		router.NotifyDeclared(ctx, testIncident(t, types.SeverityP2))

		gt.Equal(t, gateway.channelPosts, []string{"C-INC", "C-P2"})
		gt.Equal(t, len(gateway.dms), 0)
	})

	t.Run("P4 stays in its own channel", func(t *testing.T) {
		repo := repository.NewMemory()
		gateway := &mockGateway{}
		router, err := notify.NewRouter(repo, gateway, testRouting())
		gt.NoError(t, err)

		router.NotifyDeclared(ctx, testIncident(t, types.SeverityP4))

		gt.Equal(t, gateway.channelPosts, []string{"C-INC"})
		gt.Equal(t, len(gateway.dms), 0)
	})
}

func TestRouterDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	gateway := &mockGateway{failChannels: map[string]bool{"C-P1A": true}}
	router, err := notify.NewRouter(repo, gateway, testRouting())
	gt.NoError(t, err)

	router.NotifyDeclared(ctx, testIncident(t, types.SeverityP1))

	// The failed channel does not stop the remaining deliveries
	gt.Equal(t, gateway.channelPosts, []string{"C-INC", "C-P1B"})
	gt.Equal(t, gateway.dms, []string{"U-ONCALL", "U-LEAD"})

	records, err := repo.ListNotificationRecords(ctx, 1)
	gt.NoError(t, err)
	counts := statuses(records)
	gt.Equal(t, counts[types.NotificationStatusSent], 4)
	gt.Equal(t, counts[types.NotificationStatusFailed], 1)

	var failed *model.NotificationRecord
	for _, r := range records {
		if r.Status == types.NotificationStatusFailed {
			failed = r
		}
	}
	gt.Equal(t, failed.Recipient, "C-P1A")
	gt.S(t, failed.ErrorMessage).Contains("channel_not_found")
}

func TestRouterThrottlesRepeatDMs(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	gateway := &mockGateway{}
	router, err := notify.NewRouter(repo, gateway, testRouting())
	gt.NoError(t, err)

	incident := testIncident(t, types.SeverityP1)
	router.NotifyDeclared(ctx, incident)
	router.NotifyResolved(ctx, incident)

	// Channel posts are never throttled
	gt.Equal(t, len(gateway.channelPosts), 6)
	// DMs within the window are suppressed but still recorded
	gt.Equal(t, gateway.dms, []string{"U-ONCALL", "U-LEAD"})

	records, err := repo.ListNotificationRecords(ctx, 1)
	gt.NoError(t, err)
	counts := statuses(records)
	gt.Equal(t, counts[types.NotificationStatusThrottled], 2)
	gt.Equal(t, counts[types.NotificationStatusSent], 8)
}

func TestRouterStatusUpdate(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	gateway := &mockGateway{}
	router, err := notify.NewRouter(repo, gateway, testRouting())
	gt.NoError(t, err)

	router.NotifyStatusUpdate(ctx, testIncident(t, types.SeverityP1), "mitigating")

	// Status updates never broadcast, even for P1
	gt.Equal(t, gateway.channelPosts, []string{"C-INC"})
	gt.Equal(t, len(gateway.dms), 0)
}

func TestRouterSeverityChange(t *testing.T) {
	ctx := context.Background()

	t.Run("Escalation into P1 triggers full routing", func(t *testing.T) {
		repo := repository.NewMemory()
		gateway := &mockGateway{}
		router, err := notify.NewRouter(repo, gateway, testRouting())
		gt.NoError(t, err)

		incident := testIncident(t, types.SeverityP1)
		router.NotifySeverityChange(ctx, incident, types.SeverityP3)

		gt.Equal(t, gateway.channelPosts, []string{"C-INC", "C-P1A", "C-P1B"})
		gt.Equal(t, gateway.dms, []string{"U-ONCALL", "U-LEAD"})
	})

	t.Run("Downgrade to P3 stays in the incident channel", func(t *testing.T) {
		repo := repository.NewMemory()
		gateway := &mockGateway{}
		router, err := notify.NewRouter(repo, gateway, testRouting())
		gt.NoError(t, err)

		incident := testIncident(t, types.SeverityP3)
		router.NotifySeverityChange(ctx, incident, types.SeverityP1)

		gt.Equal(t, gateway.channelPosts, []string{"C-INC"})
		gt.Equal(t, len(gateway.dms), 0)
	})
}
