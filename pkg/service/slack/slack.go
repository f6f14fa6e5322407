package slack

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/domain/interfaces"
	"github.com/slack-go/slack"
)

// Service provides Slack messaging capabilities and implements the
// outbound message gateway
type Service struct {
	client *slack.Client
}

// New creates a new Slack service
func New(token string) *Service {
	return &Service{
		client: slack.New(token),
	}
}

// PostChannelMessage posts a mrkdwn message to a channel
func (s *Service) PostChannelMessage(ctx context.Context, channelID string, text string) error {
	_, _, err := s.client.PostMessageContext(ctx, channelID,
		slack.MsgOptionBlocks(textBlocks(text)...),
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post message to Slack",
			goerr.V("channelID", channelID))
	}
	return nil
}

// PostDirectMessage opens a conversation with the user and posts a mrkdwn
// message to it
func (s *Service) PostDirectMessage(ctx context.Context, userID string, text string) error {
	channel, _, _, err := s.client.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{userID},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to open DM conversation",
			goerr.V("userID", userID))
	}

	_, _, err = s.client.PostMessageContext(ctx, channel.ID,
		slack.MsgOptionBlocks(textBlocks(text)...),
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to send DM",
			goerr.V("userID", userID))
	}
	return nil
}

// PostEphemeral sends a message visible only to the specified user. Used as
// the side channel for user-facing errors after the webhook has already
// been acknowledged.
func (s *Service) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	_, err := s.client.PostEphemeralContext(ctx, channelID, userID,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post ephemeral message",
			goerr.V("channelID", channelID),
			goerr.V("userID", userID))
	}
	return nil
}

// InviteUsers invites users to a channel
func (s *Service) InviteUsers(ctx context.Context, channelID string, users ...string) error {
	_, err := s.client.InviteUsersToConversationContext(ctx, channelID, users...)
	if err != nil {
		return goerr.Wrap(err, "failed to invite users to conversation",
			goerr.V("channelID", channelID))
	}
	return nil
}

// AuthTest tests authentication and returns basic bot information
func (s *Service) AuthTest(ctx context.Context) (*slack.AuthTestResponse, error) {
	resp, err := s.client.AuthTestContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to authenticate with Slack")
	}
	return resp, nil
}

// textBlocks wraps mrkdwn text into a single Block Kit section
func textBlocks(text string) []slack.Block {
	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
			nil, nil,
		),
	}
}

var _ interfaces.MessageGateway = (*Service)(nil) // Compile-time interface check
