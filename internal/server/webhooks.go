package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/erenbektas/blossom/internal/slack"
)

// maxBodySize caps webhook request bodies at 1 MB.
const maxBodySize = 1 << 20

// slackEnvelope is the subset of the Slack event payload the server
// acts on. Unknown fields are ignored at decode time; missing required
// fields are rejected before the request is acknowledged.
type slackEnvelope struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge,omitempty"`

	// Event callbacks.
	Event *slackEvent `json:"event,omitempty"`

	// Block actions.
	Actions []slackAction `json:"actions,omitempty"`
	Channel *slackChannel `json:"channel,omitempty"`
	Message *slackMessage `json:"message,omitempty"`
}

type slackEvent struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Channel string `json:"channel"`
	BotID   string `json:"bot_id,omitempty"`
}

type slackAction struct {
	Value string `json:"value"`
}

type slackChannel struct {
	ID string `json:"id"`
}

type slackMessage struct {
	TS     string            `json:"ts"`
	Blocks []json.RawMessage `json:"blocks"`
}

// handleSlackWebhook verifies, decodes, and acknowledges a Slack event,
// then processes it in the background. By the time Slack sees the 200
// the reply may not have been posted yet.
func (s *Server) handleSlackWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ip := clientIP(r)
	if !s.limiter.CheckLimit(ip) {
		s.metrics.WebhookRequestsTotal.WithLabelValues("slack", "rate_limited").Inc()
		w.Header().Set("Retry-After", strconv.Itoa(s.limiter.RetryAfter(ip)))
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.metrics.WebhookRequestsTotal.WithLabelValues("slack", "read_error").Inc()
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(slackSignatureHeader)
	timestamp := r.Header.Get(slackTimestampHeader)
	if !verifySlackSignature(body, signature, timestamp, s.cfg.Slack.SigningSecret, time.Now()) {
		s.metrics.SignatureRejectionsTotal.WithLabelValues("slack").Inc()
		s.metrics.WebhookRequestsTotal.WithLabelValues("slack", "unauthorized").Inc()
		s.logger.Warn().Str("ip", ip).Msg("Rejected Slack webhook with invalid signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var envelope slackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		s.metrics.WebhookRequestsTotal.WithLabelValues("slack", "bad_payload").Inc()
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	switch envelope.Type {
	case "url_verification":
		s.metrics.WebhookRequestsTotal.WithLabelValues("slack", "ok").Inc()
		writeJSON(w, http.StatusOK, map[string]string{"challenge": envelope.Challenge})
		return

	case "block_actions":
		if len(envelope.Actions) == 0 || envelope.Channel == nil || envelope.Message == nil {
			s.metrics.WebhookRequestsTotal.WithLabelValues("slack", "bad_payload").Inc()
			http.Error(w, "incomplete block action payload", http.StatusBadRequest)
			return
		}
		action := slack.BlockAction{
			Channel: envelope.Channel.ID,
			TS:      envelope.Message.TS,
			Value:   envelope.Actions[0].Value,
			Blocks:  envelope.Message.Blocks,
		}
		w.WriteHeader(http.StatusOK)
		s.metrics.WebhookRequestsTotal.WithLabelValues("slack", "ok").Inc()
		s.metrics.WebhookRequestDuration.WithLabelValues("slack").Observe(time.Since(start).Seconds())
		s.metrics.BlockActionsTotal.Inc()
		s.process(func(ctx context.Context) {
			s.actions.Process(ctx, action)
		})
		return

	case "event_callback":
		if envelope.Event == nil || envelope.Event.Channel == "" {
			s.metrics.WebhookRequestsTotal.WithLabelValues("slack", "bad_payload").Inc()
			http.Error(w, "incomplete event payload", http.StatusBadRequest)
			return
		}
		event := *envelope.Event
		w.WriteHeader(http.StatusOK)
		s.metrics.WebhookRequestsTotal.WithLabelValues("slack", "ok").Inc()
		s.metrics.WebhookRequestDuration.WithLabelValues("slack").Observe(time.Since(start).Seconds())
		if event.BotID != "" {
			// The bot's own replies echo back as events.
			return
		}
		s.process(func(ctx context.Context) {
			s.dispatchEvent(ctx, event)
		})
		return

	default:
		s.metrics.WebhookRequestsTotal.WithLabelValues("slack", "ignored").Inc()
		w.WriteHeader(http.StatusOK)
	}
}

// dispatchEvent strips the bot mention from an inbound message and
// routes what remains to the command router.
func (s *Server) dispatchEvent(ctx context.Context, event slackEvent) {
	message, ok := slack.ExtractMessage(event.Text)
	if !ok {
		if err := s.notifier.PostMessage(ctx, event.Channel, slack.ErrMessageParse); err != nil {
			s.logger.Error().Err(err).Str("channel", event.Channel).Msg("Failed to post parse error reply")
		}
		return
	}
	s.router.Dispatch(ctx, event.Channel, message)
}

// handleSponsorsWebhook verifies and acknowledges a GitHub Sponsors
// event, then announces it on the org channel in the background.
func (s *Server) handleSponsorsWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ip := clientIP(r)
	if !s.limiter.CheckLimit(ip) {
		s.metrics.WebhookRequestsTotal.WithLabelValues("github", "rate_limited").Inc()
		w.Header().Set("Retry-After", strconv.Itoa(s.limiter.RetryAfter(ip)))
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.metrics.WebhookRequestsTotal.WithLabelValues("github", "read_error").Inc()
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(sponsorSignatureHeader)
	if !verifySponsorsSignature(body, signature, s.cfg.GitHub.SponsorsSecret) {
		s.metrics.SignatureRejectionsTotal.WithLabelValues("github").Inc()
		s.metrics.WebhookRequestsTotal.WithLabelValues("github", "unauthorized").Inc()
		s.logger.Warn().Str("ip", ip).Msg("Rejected GitHub webhook with invalid signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var event slack.SponsorshipEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.metrics.WebhookRequestsTotal.WithLabelValues("github", "bad_payload").Inc()
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	s.metrics.WebhookRequestsTotal.WithLabelValues("github", "ok").Inc()
	s.metrics.WebhookRequestDuration.WithLabelValues("github").Observe(time.Since(start).Seconds())

	channel := s.cfg.Slack.OrgChannel
	s.process(func(ctx context.Context) {
		if err := s.notifier.PostMessage(ctx, channel, slack.SponsorsMessage(event)); err != nil {
			s.metrics.NotificationFailuresTotal.Inc()
			s.logger.Error().Err(err).Str("channel", channel).Msg("Failed to announce sponsorship event")
			return
		}
		s.metrics.NotificationsSentTotal.Inc()
	})
}
