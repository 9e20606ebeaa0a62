package slack

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// HandlerFunc handles one command. It receives the channel and the full
// (sanitized, lowercased) message text and returns the reply to post.
type HandlerFunc func(ctx context.Context, channel, message string) string

type route struct {
	keyword string
	handler HandlerFunc
}

// Router matches inbound messages against an ordered list of command
// keywords and dispatches to the first whose keyword prefixes the message.
// The list is fixed at construction; a slice rather than a map keeps the
// precedence deterministic.
type Router struct {
	routes   []route
	notifier Notifier
	logger   zerolog.Logger
	observe  func(command string)
}

// NewRouter builds the router over the given command set, registering the
// commands in their canonical order. observe, if non-nil, is called with
// the matched keyword on every dispatch (used for metrics).
func NewRouter(commands *Commands, notifier Notifier, logger zerolog.Logger, observe func(command string)) *Router {
	r := &Router{
		notifier: notifier,
		logger:   logger.With().Str("module", "router").Logger(),
		observe:  observe,
	}

	// Keyword order is dispatch order. No keyword may be a prefix of a
	// later one, or the earlier one always wins.
	r.register("ping", commands.Ping)
	r.register("help", commands.Help)
	r.register("reset", commands.ResetCoC)
	r.register("info", commands.Info)
	r.register("blacklist", commands.Blacklist)
	r.register("watchstatus", commands.WatchStatus)
	r.register("dadjoke", commands.DadJoke)

	return r
}

func (r *Router) register(keyword string, handler HandlerFunc) {
	r.routes = append(r.routes, route{keyword: keyword, handler: handler})
}

// Keywords returns the registered keywords in dispatch order.
func (r *Router) Keywords() []string {
	keywords := make([]string, len(r.routes))
	for i, rt := range r.routes {
		keywords[i] = rt.keyword
	}
	return keywords
}

// Dispatch routes a message to the matching command handler and posts the
// reply on the originating channel. Every outcome, including unknown or
// empty messages, degrades to a reply; Dispatch never fails the request.
func (r *Router) Dispatch(ctx context.Context, channel, message string) {
	if strings.TrimSpace(message) == "" {
		r.reply(ctx, channel, ErrEmptyMessage)
		return
	}

	for _, rt := range r.routes {
		if !strings.HasPrefix(message, rt.keyword) {
			continue
		}

		r.logger.Debug().
			Str("channel", channel).
			Str("command", rt.keyword).
			Msg("Dispatching command")

		if r.observe != nil {
			r.observe(rt.keyword)
		}
		r.reply(ctx, channel, rt.handler(ctx, channel, message))
		return
	}

	r.reply(ctx, channel, ErrUnknownRequest)
}

// reply posts a message; delivery failures are logged, never propagated.
func (r *Router) reply(ctx context.Context, channel, text string) {
	if text == "" {
		return
	}
	if err := r.notifier.PostMessage(ctx, channel, text); err != nil {
		r.logger.Error().
			Err(err).
			Str("channel", channel).
			Msg("Failed to post reply")
	}
}
