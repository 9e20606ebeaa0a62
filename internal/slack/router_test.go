package slack

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(notifier Notifier, observe func(string)) *Router {
	commands := testCommands(newFakeStore(), &fakeJokes{joke: "har har"})
	return NewRouter(commands, notifier, zerolog.Nop(), observe)
}

func TestRouterKeywordOrder(t *testing.T) {
	router := newTestRouter(&recordingNotifier{}, nil)

	assert.Equal(t,
		[]string{"ping", "help", "reset", "info", "blacklist", "watchstatus", "dadjoke"},
		router.Keywords())
}

func TestRouterDispatchPing(t *testing.T) {
	notifier := &recordingNotifier{}
	router := newTestRouter(notifier, nil)

	router.Dispatch(context.Background(), "C123", "ping whatever trailing words")

	require.Len(t, notifier.posts, 1)
	assert.Equal(t, "C123", notifier.posts[0].channel)
	assert.Equal(t, "PONG", notifier.posts[0].text)
}

func TestRouterDispatchPrefixMatch(t *testing.T) {
	notifier := &recordingNotifier{}
	router := newTestRouter(notifier, nil)

	// Prefix matching, not token matching
	router.Dispatch(context.Background(), "C123", "pingpong")

	require.Len(t, notifier.posts, 1)
	assert.Equal(t, "PONG", notifier.posts[0].text)
}

func TestRouterDispatchEmpty(t *testing.T) {
	notifier := &recordingNotifier{}
	router := newTestRouter(notifier, nil)

	router.Dispatch(context.Background(), "C123", "")
	router.Dispatch(context.Background(), "C123", "   ")

	require.Len(t, notifier.posts, 2)
	assert.Equal(t, ErrEmptyMessage, notifier.posts[0].text)
	assert.Equal(t, ErrEmptyMessage, notifier.posts[1].text)
}

func TestRouterDispatchUnknown(t *testing.T) {
	notifier := &recordingNotifier{}
	router := newTestRouter(notifier, nil)

	router.Dispatch(context.Background(), "C123", "frobnicate the widgets")

	require.Len(t, notifier.posts, 1)
	assert.Equal(t, ErrUnknownRequest, notifier.posts[0].text)
}

func TestRouterObserve(t *testing.T) {
	var observed []string
	router := newTestRouter(&recordingNotifier{}, func(command string) {
		observed = append(observed, command)
	})

	router.Dispatch(context.Background(), "C123", "help")
	router.Dispatch(context.Background(), "C123", "ping")

	assert.Equal(t, []string{"help", "ping"}, observed)

	// Unmatched messages are not observed
	router.Dispatch(context.Background(), "C123", "nope")
	assert.Len(t, observed, 2)
}

func TestRouterDeliveryFailureIsSwallowed(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("channel_not_found")}
	router := newTestRouter(notifier, nil)

	// Must not panic or propagate
	router.Dispatch(context.Background(), "C123", "ping")

	assert.Len(t, notifier.posts, 1)
}
