package slack

import (
	"context"
	"fmt"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/domain/types"
	"github.com/slack-go/slack"
)

// CreateIncidentChannel creates a dedicated incident channel. If the name
// is already taken, a short numeric suffix is appended until creation
// succeeds or the attempts run out.
func (s *Service) CreateIncidentChannel(ctx context.Context, name types.ChannelName) (types.ChannelID, types.ChannelName, error) {
	logger := ctxlog.From(ctx)

	candidate := name
	for attempt := 0; attempt < 3; attempt++ {
		channel, err := s.client.CreateConversationContext(ctx, slack.CreateConversationParams{
			ChannelName: candidate.String(),
			IsPrivate:   false,
		})
		if err == nil {
			logger.Info("Created incident channel",
				"channelName", candidate,
				"channelID", channel.ID,
			)
			return types.ChannelID(channel.ID), candidate, nil
		}

		if err.Error() != "name_taken" {
			return "", "", goerr.Wrap(err, "failed to create Slack channel",
				goerr.V("channelName", candidate))
		}

		logger.Debug("Channel name taken, retrying with suffix",
			"channelName", candidate,
		)
		candidate = types.ChannelName(fmt.Sprintf("%s-%d", name, attempt+2))
	}

	return "", "", goerr.New("failed to create Slack channel: all candidate names taken",
		goerr.V("channelName", name))
}
