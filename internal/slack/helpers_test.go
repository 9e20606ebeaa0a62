package slack

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/erenbektas/blossom/internal/store"
)

// fakeStore is an in-memory Store for command tests.
type fakeStore struct {
	users       []*store.User
	blacklisted map[int64]bool
	acceptedCoC map[int64]bool
	gamma       int
	gammaRecent int
	lastActive  *time.Time
	checks      store.CheckCounts
	watch       string
	summary     store.Summary
	submissions map[int64]*store.Submission
	err         error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		blacklisted: map[int64]bool{},
		acceptedCoC: map[int64]bool{},
		submissions: map[int64]*store.Submission{},
		watch:       "Automatic (everything looks good)",
	}
}

func (f *fakeStore) addUser(id int64, username string) *store.User {
	user := &store.User{
		ID:         id,
		Username:   username,
		DateJoined: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.users = append(f.users, user)
	return user
}

func (f *fakeStore) UserByUsername(_ context.Context, username string) (*store.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ToggleBlacklisted(_ context.Context, userID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.blacklisted[userID] = !f.blacklisted[userID]
	return f.blacklisted[userID], nil
}

func (f *fakeStore) ToggleAcceptedCoC(_ context.Context, userID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.acceptedCoC[userID] = !f.acceptedCoC[userID]
	return f.acceptedCoC[userID], nil
}

func (f *fakeStore) Gamma(context.Context, int64) (int, error) {
	return f.gamma, f.err
}

func (f *fakeStore) GammaSince(context.Context, int64, time.Time) (int, error) {
	return f.gammaRecent, f.err
}

func (f *fakeStore) LastActive(context.Context, int64) (*time.Time, error) {
	return f.lastActive, f.err
}

func (f *fakeStore) CountChecks(context.Context, int64) (store.CheckCounts, error) {
	return f.checks, f.err
}

func (f *fakeStore) WatchStatus(context.Context, int64) (string, error) {
	return f.watch, f.err
}

func (f *fakeStore) GenerateSummary(context.Context, time.Time) (store.Summary, error) {
	return f.summary, f.err
}

func (f *fakeStore) SubmissionByID(_ context.Context, id int64) (*store.Submission, error) {
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.submissions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return sub, nil
}

func (f *fakeStore) SetSubmissionRemoved(_ context.Context, id int64, removed bool) (*store.Submission, error) {
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.submissions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	sub.RemovedFromQueue = removed
	if removed {
		sub.Approved = false
	}
	return sub, nil
}

type postedMessage struct {
	channel string
	text    string
}

type updatedMessage struct {
	channel string
	ts      string
	blocks  []json.RawMessage
}

// recordingNotifier captures outbound messages for assertions.
type recordingNotifier struct {
	posts   []postedMessage
	updates []updatedMessage
	err     error
}

func (n *recordingNotifier) PostMessage(_ context.Context, channel, text string) error {
	n.posts = append(n.posts, postedMessage{channel: channel, text: text})
	return n.err
}

func (n *recordingNotifier) UpdateMessage(_ context.Context, channel, ts string, blocks []json.RawMessage) error {
	n.updates = append(n.updates, updatedMessage{channel: channel, ts: ts, blocks: blocks})
	return n.err
}

// fakeJokes returns a canned joke or error.
type fakeJokes struct {
	joke string
	err  error
}

func (f *fakeJokes) Joke(context.Context) (string, error) {
	return f.joke, f.err
}

// recordingRemover captures takedown requests.
type recordingRemover struct {
	removed []int64
	err     error
}

func (r *recordingRemover) RemovePost(_ context.Context, sub *store.Submission) error {
	r.removed = append(r.removed, sub.ID)
	return r.err
}

func testCommands(st Store, jokes JokeSource) *Commands {
	c := NewCommands(st, jokes, zerolog.Nop())
	c.now = func() time.Time {
		return time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)
	}
	return c
}
