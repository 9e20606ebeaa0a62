package slack

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	slackapi "github.com/slack-go/slack"
)

// Notifier is the outbound boundary to the chat platform. Delivery is
// best-effort: callers log failures instead of surfacing them to the
// originating webhook.
type Notifier interface {
	// PostMessage posts a plain text message to a channel.
	PostMessage(ctx context.Context, channel, text string) error
	// UpdateMessage rewrites an existing message's blocks in place.
	UpdateMessage(ctx context.Context, channel, ts string, blocks []json.RawMessage) error
}

// Client talks to the Slack Web API.
type Client struct {
	api    *slackapi.Client
	logger zerolog.Logger
}

// NewClient creates a Slack Web API client. Extra options are passed
// through to the underlying API client.
func NewClient(token string, logger zerolog.Logger, opts ...slackapi.Option) *Client {
	return &Client{
		api:    slackapi.New(token, opts...),
		logger: logger.With().Str("module", "slack").Logger(),
	}
}

// PostMessage posts a message via chat.postMessage.
func (c *Client) PostMessage(ctx context.Context, channel, text string) error {
	_, _, err := c.api.PostMessageContext(ctx, channel,
		slackapi.MsgOptionText(text, false),
		slackapi.MsgOptionLinkNames(true),
	)
	if err != nil {
		return fmt.Errorf("chat.postMessage failed: %w", err)
	}

	c.logger.Debug().Str("channel", channel).Msg("Slack message posted")
	return nil
}

// UpdateMessage rewrites a message via chat.update.
func (c *Client) UpdateMessage(ctx context.Context, channel, ts string, raw []json.RawMessage) error {
	payload, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal message blocks: %w", err)
	}

	var blocks slackapi.Blocks
	if err := json.Unmarshal(payload, &blocks); err != nil {
		return fmt.Errorf("failed to decode message blocks: %w", err)
	}

	_, _, _, err = c.api.UpdateMessageContext(ctx, channel, ts,
		slackapi.MsgOptionBlocks(blocks.BlockSet...))
	if err != nil {
		return fmt.Errorf("chat.update failed: %w", err)
	}

	c.logger.Debug().Str("channel", channel).Str("ts", ts).Msg("Slack message updated")
	return nil
}

// NoopNotifier discards all outbound messages. It is selected at startup
// when Slack is disabled, so local development never talks to the real API.
type NoopNotifier struct {
	logger zerolog.Logger
}

// NewNoopNotifier creates a notifier that only logs.
func NewNoopNotifier(logger zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger.With().Str("module", "slack-noop").Logger()}
}

// PostMessage logs the message instead of sending it.
func (n *NoopNotifier) PostMessage(_ context.Context, channel, text string) error {
	n.logger.Debug().Str("channel", channel).Str("text", text).Msg("Discarding outbound message")
	return nil
}

// UpdateMessage logs the update instead of sending it.
func (n *NoopNotifier) UpdateMessage(_ context.Context, channel, ts string, _ []json.RawMessage) error {
	n.logger.Debug().Str("channel", channel).Str("ts", ts).Msg("Discarding message update")
	return nil
}
