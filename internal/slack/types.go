package slack

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/erenbektas/blossom/internal/store"
)

// Store is the slice of the record store the chat commands need. The
// concrete implementation lives in internal/store; tests substitute fakes.
type Store interface {
	UserByUsername(ctx context.Context, username string) (*store.User, error)
	ToggleBlacklisted(ctx context.Context, userID int64) (bool, error)
	ToggleAcceptedCoC(ctx context.Context, userID int64) (bool, error)
	Gamma(ctx context.Context, userID int64) (int, error)
	GammaSince(ctx context.Context, userID int64, since time.Time) (int, error)
	LastActive(ctx context.Context, userID int64) (*time.Time, error)
	CountChecks(ctx context.Context, userID int64) (store.CheckCounts, error)
	WatchStatus(ctx context.Context, userID int64) (string, error)
	GenerateSummary(ctx context.Context, now time.Time) (store.Summary, error)
	SubmissionByID(ctx context.Context, id int64) (*store.Submission, error)
	SetSubmissionRemoved(ctx context.Context, id int64, removed bool) (*store.Submission, error)
}

// Remover takes a submission down on the source platform. It is an external
// collaborator; the default implementation only logs.
type Remover interface {
	RemovePost(ctx context.Context, sub *store.Submission) error
}

// BlockAction is a structured interactive-button callback. Blocks are kept
// as raw JSON so the original message round-trips unchanged except for the
// block we replace.
type BlockAction struct {
	Channel string
	TS      string
	Value   string
	Blocks  []json.RawMessage
}

// ExtractMessage pulls the command text out of a mention-style Slack
// message ("<@UTPFNCQS2> hello!"): everything after the closing bracket of
// the mention, lowercased. ok is false when the text carries no mention
// marker at all.
func ExtractMessage(text string) (message string, ok bool) {
	idx := strings.Index(text, ">")
	if idx < 0 {
		return "", false
	}
	if idx+2 >= len(text) {
		return "", true
	}
	return strings.ToLower(text[idx+2:]), true
}

// sectionBlock renders a mrkdwn section block, used when rewriting an
// interactive message in place.
func sectionBlock(text string) json.RawMessage {
	block, _ := json.Marshal(map[string]interface{}{
		"type": "section",
		"text": map[string]string{
			"type": "mrkdwn",
			"text": text,
		},
	})
	return block
}
