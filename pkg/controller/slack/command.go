package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/ops-deck/vigil/pkg/domain/model"
	"github.com/ops-deck/vigil/pkg/domain/types"
	"github.com/ops-deck/vigil/pkg/usecase"
	"github.com/ops-deck/vigil/pkg/utils/apperr"
	"github.com/slack-go/slack"
)

// ChannelService is the slice of the Slack API the command handler needs
type ChannelService interface {
	PostChannelMessage(ctx context.Context, channelID string, text string) error
	PostEphemeral(ctx context.Context, channelID, userID, text string) error
	InviteUsers(ctx context.Context, channelID string, users ...string) error
}

// CommandHandler executes slash commands. Commands other than declare are
// issued from inside an incident channel; the channel identifies the
// incident.
type CommandHandler struct {
	incident   *usecase.Incident
	postmortem *usecase.Postmortem
	channels   ChannelService
	routing    *model.RoutingConfig
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(incident *usecase.Incident, postmortem *usecase.Postmortem, channels ChannelService, routing *model.RoutingConfig) *CommandHandler {
	if routing == nil {
		routing = &model.RoutingConfig{}
	}
	return &CommandHandler{
		incident:   incident,
		postmortem: postmortem,
		channels:   channels,
		routing:    routing,
	}
}

const usageText = "Usage:\n" +
	"`/vigil declare <P1|P2|P3|P4> <service> <title>` - declare a new incident\n" +
	"`/vigil status <message>` - post a status update (or `/vigil status <state> [note]` to change state)\n" +
	"`/vigil sev <P1|P2|P3|P4> [reason]` - change severity\n" +
	"`/vigil resolve` - resolve the incident\n" +
	"`/vigil timeline` - show the incident timeline\n" +
	"`/vigil postmortem` - generate a postmortem draft"

// Execute parses and runs a slash command. User-facing failures are
// delivered as ephemeral messages and absorbed; only unexpected errors are
// returned for logging.
func (h *CommandHandler) Execute(ctx context.Context, cmd slack.SlashCommand) error {
	args := strings.Fields(cmd.Text)
	if len(args) == 0 {
		return h.ephemeral(ctx, cmd, usageText)
	}

	ctxlog.From(ctx).Info("Handling slash command",
		"subcommand", args[0],
		"userID", cmd.UserID,
		"channelID", cmd.ChannelID,
	)

	var err error
	switch args[0] {
	case "declare":
		err = h.handleDeclare(ctx, cmd, args[1:])
	case "status":
		err = h.handleStatus(ctx, cmd, args[1:])
	case "sev":
		err = h.handleSeverity(ctx, cmd, args[1:])
	case "resolve":
		err = h.handleResolve(ctx, cmd)
	case "timeline":
		err = h.handleTimeline(ctx, cmd)
	case "postmortem":
		err = h.handlePostmortem(ctx, cmd)
	default:
		return h.ephemeral(ctx, cmd, usageText)
	}

	if err != nil {
		return h.respondError(ctx, cmd, err)
	}
	return nil
}

func (h *CommandHandler) handleDeclare(ctx context.Context, cmd slack.SlashCommand, args []string) error {
	if len(args) < 3 {
		return h.ephemeral(ctx, cmd, "Not enough arguments.\n"+usageText)
	}

	severity, err := types.ParseSeverity(args[0])
	if err != nil {
		return h.ephemeral(ctx, cmd, fmt.Sprintf("Unknown severity %q. Use P1, P2, P3 or P4.", args[0]))
	}

	incident, err := h.incident.Declare(ctx, usecase.DeclareInput{
		Title:       strings.Join(args[2:], " "),
		Severity:    severity,
		Service:     args[1],
		CommanderID: types.SlackUserID(cmd.UserID),
		ReporterID:  types.SlackUserID(cmd.UserID),
	})
	if err != nil {
		return err
	}

	// The engine absorbs channel creation failures; an unbound incident
	// still exists and was broadcast
	if incident.ChannelID == "" {
		return h.ephemeral(ctx, cmd,
			fmt.Sprintf("Incident #%d declared, but channel creation failed. Check the bot's channel permissions.", incident.ID.Int()))
	}

	members := append([]string{cmd.UserID}, h.routing.OwnersOf(incident.AffectedService)...)
	if err := h.channels.InviteUsers(ctx, incident.ChannelID.String(), members...); err != nil {
		apperr.Handle(ctx, err)
	}

	return h.ephemeral(ctx, cmd,
		fmt.Sprintf("%s Incident #%d declared. Head over to <#%s>.", incident.Severity.Emoji(), incident.ID.Int(), incident.ChannelID))
}

func (h *CommandHandler) handleStatus(ctx context.Context, cmd slack.SlashCommand, args []string) error {
	if len(args) == 0 {
		return h.ephemeral(ctx, cmd, "Status needs a message or a state.\n"+usageText)
	}

	incident, err := h.incident.GetIncidentByChannel(ctx, types.ChannelID(cmd.ChannelID))
	if err != nil {
		return err
	}

	// A leading state keyword changes the lifecycle state; anything else is
	// a free-form update
	if status, parseErr := types.ParseIncidentStatus(args[0]); parseErr == nil {
		_, err = h.incident.UpdateStatus(ctx, incident.ID, types.SlackUserID(cmd.UserID), status, strings.Join(args[1:], " "))
		return err
	}

	_, err = h.incident.PostStatusUpdate(ctx, incident.ID, types.SlackUserID(cmd.UserID), strings.Join(args, " "))
	return err
}

func (h *CommandHandler) handleSeverity(ctx context.Context, cmd slack.SlashCommand, args []string) error {
	if len(args) == 0 {
		return h.ephemeral(ctx, cmd, "Severity needs a value. Use P1, P2, P3 or P4.")
	}

	severity, err := types.ParseSeverity(args[0])
	if err != nil {
		return h.ephemeral(ctx, cmd, fmt.Sprintf("Unknown severity %q. Use P1, P2, P3 or P4.", args[0]))
	}

	incident, err := h.incident.GetIncidentByChannel(ctx, types.ChannelID(cmd.ChannelID))
	if err != nil {
		return err
	}

	_, err = h.incident.ChangeSeverity(ctx, incident.ID, types.SlackUserID(cmd.UserID), severity, strings.Join(args[1:], " "))
	return err
}

func (h *CommandHandler) handleResolve(ctx context.Context, cmd slack.SlashCommand) error {
	incident, err := h.incident.GetIncidentByChannel(ctx, types.ChannelID(cmd.ChannelID))
	if err != nil {
		return err
	}

	_, err = h.incident.Resolve(ctx, incident.ID, types.SlackUserID(cmd.UserID))
	return err
}

func (h *CommandHandler) handleTimeline(ctx context.Context, cmd slack.SlashCommand) error {
	incident, err := h.incident.GetIncidentByChannel(ctx, types.ChannelID(cmd.ChannelID))
	if err != nil {
		return err
	}

	events, err := h.incident.GetTimeline(ctx, incident.ID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("*Timeline for incident #%d: %s*\n\n%s",
		incident.ID.Int(), incident.Title, model.FormatTimelineMarkdown(events))
	return h.ephemeral(ctx, cmd, text)
}

func (h *CommandHandler) handlePostmortem(ctx context.Context, cmd slack.SlashCommand) error {
	incident, err := h.incident.GetIncidentByChannel(ctx, types.ChannelID(cmd.ChannelID))
	if err != nil {
		return err
	}

	doc, err := h.postmortem.Generate(ctx, incident.ID)
	if err != nil {
		return err
	}

	return h.channels.PostChannelMessage(ctx, cmd.ChannelID, doc)
}

// respondError turns domain failures into ephemeral feedback for the
// acting user. Anything else propagates for logging.
func (h *CommandHandler) respondError(ctx context.Context, cmd slack.SlashCommand, err error) error {
	switch {
	case errors.Is(err, model.ErrIncidentNotFound):
		return h.ephemeral(ctx, cmd, "No incident is associated with this channel. Declare one with `/vigil declare`.")
	case errors.Is(err, model.ErrPermissionDenied):
		return h.ephemeral(ctx, cmd, "Only the incident commander can do that.")
	case errors.Is(err, model.ErrValidation):
		return h.ephemeral(ctx, cmd, fmt.Sprintf("That didn't work: %s", err.Error()))
	default:
		return err
	}
}

func (h *CommandHandler) ephemeral(ctx context.Context, cmd slack.SlashCommand, text string) error {
	return h.channels.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID, text)
}
