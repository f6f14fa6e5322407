package slack_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	slackCtrl "github.com/ops-deck/vigil/pkg/controller/slack"
	"github.com/ops-deck/vigil/pkg/domain/model"
	"github.com/ops-deck/vigil/pkg/domain/types"
	"github.com/ops-deck/vigil/pkg/repository"
	"github.com/ops-deck/vigil/pkg/service/notify"
	"github.com/ops-deck/vigil/pkg/usecase"
	"github.com/slack-go/slack"
)

type mockChannels struct {
	ephemerals   []string
	channelPosts []string
	invited      []string
}

func (m *mockChannels) CreateIncidentChannel(ctx context.Context, name types.ChannelName) (types.ChannelID, types.ChannelName, error) {
	return "C-NEW", name, nil
}

func (m *mockChannels) PostChannelMessage(ctx context.Context, channelID string, text string) error {
	m.channelPosts = append(m.channelPosts, text)
	return nil
}

func (m *mockChannels) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	m.ephemerals = append(m.ephemerals, text)
	return nil
}

func (m *mockChannels) InviteUsers(ctx context.Context, channelID string, users ...string) error {
	m.invited = append(m.invited, users...)
	return nil
}

type commandEnv struct {
	repo     *repository.Memory
	channels *mockChannels
	handler  *slackCtrl.CommandHandler
}

func newCommandEnv(t *testing.T) *commandEnv {
	t.Helper()

	repo := repository.NewMemory()
	gateway := &mockChannels{}
	router, err := notify.NewRouter(repo, &nullGateway{}, &model.RoutingConfig{
		ServiceOwners: map[string][]string{"payments": {"U-OWNER"}},
	})
	gt.NoError(t, err)

	incidentUC := usecase.NewIncident(repo, router, usecase.WithChannelProvisioner(gateway))
	postmortemUC := usecase.NewPostmortem(repo)

	routing := &model.RoutingConfig{
		ServiceOwners: map[string][]string{"payments": {"U-OWNER"}},
	}
	return &commandEnv{
		repo:     repo,
		channels: gateway,
		handler:  slackCtrl.NewCommandHandler(incidentUC, postmortemUC, gateway, routing),
	}
}

type nullGateway struct{}

func (nullGateway) PostChannelMessage(ctx context.Context, channelID string, text string) error {
	return nil
}

func (nullGateway) PostDirectMessage(ctx context.Context, userID string, text string) error {
	return nil
}

func cmdIn(channelID, userID, text string) slack.SlashCommand {
	return slack.SlashCommand{
		Command:   "/vigil",
		ChannelID: channelID,
		UserID:    userID,
		Text:      text,
	}
}

func TestCommandDeclare(t *testing.T) {
	ctx := context.Background()
	env := newCommandEnv(t)

	gt.NoError(t, env.handler.Execute(ctx, cmdIn("C-ORIGIN", "U-CMD", "declare P1 payments db is down")))

	incident, err := env.repo.GetIncident(ctx, 1)
	gt.NoError(t, err)
	gt.Equal(t, incident.Title, "db is down")
	gt.Equal(t, incident.Severity, types.SeverityP1)
	gt.Equal(t, incident.AffectedService, "payments")
	gt.Equal(t, incident.CommanderID, types.SlackUserID("U-CMD"))
	gt.Equal(t, incident.ChannelID, types.ChannelID("C-NEW"))

	// Commander and service owners are invited to the new channel
	gt.Equal(t, env.channels.invited, []string{"U-CMD", "U-OWNER"})

	gt.Equal(t, len(env.channels.ephemerals), 1)
	gt.S(t, env.channels.ephemerals[0]).Contains("#1")
}

func TestCommandDeclareValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("Too few arguments", func(t *testing.T) {
		env := newCommandEnv(t)
		gt.NoError(t, env.handler.Execute(ctx, cmdIn("C1", "U1", "declare P1")))
		gt.Equal(t, len(env.channels.ephemerals), 1)
		gt.S(t, env.channels.ephemerals[0]).Contains("Not enough arguments")
	})

	t.Run("Bad severity", func(t *testing.T) {
		env := newCommandEnv(t)
		gt.NoError(t, env.handler.Execute(ctx, cmdIn("C1", "U1", "declare P9 payments broken")))
		gt.S(t, env.channels.ephemerals[0]).Contains("Unknown severity")
	})
}

func TestCommandUnknownSubcommand(t *testing.T) {
	ctx := context.Background()
	env := newCommandEnv(t)

	gt.NoError(t, env.handler.Execute(ctx, cmdIn("C1", "U1", "escalate")))
	gt.S(t, env.channels.ephemerals[0]).Contains("Usage")
}

func TestCommandsInUnboundChannel(t *testing.T) {
	ctx := context.Background()
	env := newCommandEnv(t)

	gt.NoError(t, env.handler.Execute(ctx, cmdIn("C-RANDOM", "U1", "resolve")))
	gt.S(t, env.channels.ephemerals[0]).Contains("No incident is associated")
}

func TestCommandLifecycleInChannel(t *testing.T) {
	ctx := context.Background()
	env := newCommandEnv(t)

	gt.NoError(t, env.handler.Execute(ctx, cmdIn("C-ORIGIN", "U-CMD", "declare P2 payments checkout errors")))

	t.Run("Status update from the incident channel", func(t *testing.T) {
		gt.NoError(t, env.handler.Execute(ctx, cmdIn("C-NEW", "U-CMD", "status rolling back deploy")))

		events, err := env.repo.ListTimelineEvents(ctx, 1)
		gt.NoError(t, err)
		gt.Equal(t, events[len(events)-1].Message, "rolling back deploy")
	})

	t.Run("Leading state keyword changes the lifecycle state", func(t *testing.T) {
		gt.NoError(t, env.handler.Execute(ctx, cmdIn("C-NEW", "U-CMD", "status monitoring rollback done")))

		incident, err := env.repo.GetIncident(ctx, 1)
		gt.NoError(t, err)
		gt.Equal(t, incident.Status, types.IncidentStatusMonitoring)
	})

	t.Run("Severity change", func(t *testing.T) {
		gt.NoError(t, env.handler.Execute(ctx, cmdIn("C-NEW", "U-CMD", "sev P3 impact contained")))

		incident, err := env.repo.GetIncident(ctx, 1)
		gt.NoError(t, err)
		gt.Equal(t, incident.Severity, types.SeverityP3)
	})

	t.Run("Non-commander gets an ephemeral error", func(t *testing.T) {
		before := len(env.channels.ephemerals)
		gt.NoError(t, env.handler.Execute(ctx, cmdIn("C-NEW", "U-OTHER", "resolve")))
		gt.S(t, env.channels.ephemerals[before]).Contains("commander")
	})

	t.Run("Postmortem before resolution is rejected", func(t *testing.T) {
		before := len(env.channels.ephemerals)
		gt.NoError(t, env.handler.Execute(ctx, cmdIn("C-NEW", "U-CMD", "postmortem")))
		gt.S(t, env.channels.ephemerals[before]).Contains("must be resolved")
	})

	t.Run("Resolve and postmortem", func(t *testing.T) {
		gt.NoError(t, env.handler.Execute(ctx, cmdIn("C-NEW", "U-CMD", "resolve")))

		incident, err := env.repo.GetIncident(ctx, 1)
		gt.NoError(t, err)
		gt.True(t, incident.IsResolved())

		gt.NoError(t, env.handler.Execute(ctx, cmdIn("C-NEW", "U-CMD", "postmortem")))
		last := env.channels.channelPosts[len(env.channels.channelPosts)-1]
		gt.S(t, last).Contains("# Postmortem: checkout errors")
	})

	t.Run("Timeline is shown ephemerally", func(t *testing.T) {
		before := len(env.channels.ephemerals)
		gt.NoError(t, env.handler.Execute(ctx, cmdIn("C-NEW", "U-CMD", "timeline")))
		gt.S(t, env.channels.ephemerals[before]).Contains("Timeline for incident #1")
		gt.S(t, env.channels.ephemerals[before]).Contains("rolling back deploy")
	})
}
