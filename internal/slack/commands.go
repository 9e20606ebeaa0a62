package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/erenbektas/blossom/internal/store"
)

// Commands holds the handlers behind the chat command vocabulary. Each
// handler validates argument arity itself, performs at most one record
// mutation, and returns the reply text. Handlers never return errors:
// every failure mode maps to a reply string.
type Commands struct {
	store  Store
	jokes  JokeSource
	logger zerolog.Logger
	now    func() time.Time
}

// NewCommands wires the command handlers to their collaborators.
func NewCommands(st Store, jokes JokeSource, logger zerolog.Logger) *Commands {
	return &Commands{
		store:  st,
		jokes:  jokes,
		logger: logger.With().Str("module", "commands").Logger(),
		now:    time.Now,
	}
}

// Ping always answers PONG, whatever else the message says.
func (c *Commands) Ping(_ context.Context, _, _ string) string {
	return "PONG"
}

// Help returns the static command listing.
func (c *Commands) Help(_ context.Context, _, _ string) string {
	return HelpMessage
}

// Blacklist toggles the blacklist flag for the named volunteer.
func (c *Commands) Blacklist(ctx context.Context, _, message string) string {
	return c.toggle(ctx, message, c.store.ToggleBlacklisted, blacklistSuccess, blacklistUndo)
}

// ResetCoC toggles the Code of Conduct acceptance flag for the named
// volunteer.
func (c *Commands) ResetCoC(ctx context.Context, _, message string) string {
	// The "success" wording is for the reset itself, i.e. the flag ending
	// up cleared; toggling it back on is the undo.
	return c.toggle(ctx, message, c.store.ToggleAcceptedCoC, cocResetUndo, cocResetSuccess)
}

// toggle implements the shared shape of the two flag-flipping commands:
// resolve the username argument, flip the flag, report which way it went.
func (c *Commands) toggle(
	ctx context.Context,
	message string,
	flip func(ctx context.Context, userID int64) (bool, error),
	setReply, unsetReply string,
) string {
	username, reply := c.usernameArg(message)
	if reply != "" {
		return reply
	}

	user, reply := c.lookupUser(ctx, username)
	if reply != "" {
		return reply
	}

	value, err := flip(ctx, user.ID)
	if err != nil {
		c.logger.Error().Err(err).Str("username", user.Username).Msg("Failed to toggle flag")
		return ErrInternal
	}
	if value {
		return fmt.Sprintf(setReply, user.Username)
	}
	return fmt.Sprintf(unsetReply, user.Username)
}

// WatchStatus reports the raw watch status for the named volunteer.
func (c *Commands) WatchStatus(ctx context.Context, _, message string) string {
	username, reply := c.usernameArg(message)
	if reply != "" {
		return reply
	}

	user, reply := c.lookupUser(ctx, username)
	if reply != "" {
		return reply
	}

	status, err := c.store.WatchStatus(ctx, user.ID)
	if err != nil {
		c.logger.Error().Err(err).Str("username", user.Username).Msg("Failed to compute watch status")
		return ErrInternal
	}
	return fmt.Sprintf(watchStatusMessage, user.Username, status)
}

// Info replies with the server summary when called bare, or a detailed
// per-volunteer report when given a username.
func (c *Commands) Info(ctx context.Context, _, message string) string {
	parts := strings.Fields(message)
	switch {
	case len(parts) == 1:
		return c.serverSummaryText(ctx)
	case len(parts) > 2:
		return ErrTooManyParams
	}

	username := CleanLinks(parts[1])
	user, reply := c.lookupUser(ctx, username)
	if reply != "" {
		return reply
	}
	return c.userInfoText(ctx, user)
}

// DadJoke fetches a joke, optionally addressed to a mentioned user. The
// external fetch is best-effort; any failure falls back to the built-in
// joke so this handler never produces an empty reply.
func (c *Commands) DadJoke(ctx context.Context, _, message string) string {
	parts := strings.Fields(message)
	if len(parts) > 2 {
		return ErrTooManyParams
	}

	joke := FallbackJoke
	if c.jokes != nil {
		fetched, err := c.jokes.Joke(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Joke fetch failed, using fallback")
		} else if fetched != "" {
			joke = fetched
		}
	}

	if len(parts) == 2 && strings.HasPrefix(parts[1], "<") {
		return fmt.Sprintf(dadjokeMessage, strings.ToUpper(parts[1]), joke)
	}
	return joke
}

// usernameArg enforces the shared single-username arity contract: one token
// means the username is missing, three or more is too many. The username is
// sanitized of link markup before lookup.
func (c *Commands) usernameArg(message string) (username, reply string) {
	parts := strings.Fields(message)
	switch {
	case len(parts) == 1:
		return "", ErrMissingUsername
	case len(parts) > 2:
		return "", ErrTooManyParams
	}
	return CleanLinks(parts[1]), ""
}

// lookupUser resolves a username case-insensitively, mapping the not-found
// case to the standard unknown-username reply.
func (c *Commands) lookupUser(ctx context.Context, username string) (*store.User, string) {
	user, err := c.store.UserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Sprintf(unknownUsername, username)
	}
	if err != nil {
		c.logger.Error().Err(err).Str("username", username).Msg("User lookup failed")
		return nil, ErrInternal
	}
	return user, ""
}
