package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/erenbektas/blossom/internal/store"
)

// ActionProcessor handles interactive-button callbacks on flagged
// submissions. The action value encodes a verb and a record id
// ("keep_submission_42"); "keep" restores the submission to the queue,
// anything else removes it from the source platform. Either way the
// original message is rewritten in place with the outcome.
type ActionProcessor struct {
	store    Store
	notifier Notifier
	remover  Remover
	logger   zerolog.Logger
}

// NewActionProcessor wires the block-action processor.
func NewActionProcessor(st Store, notifier Notifier, remover Remover, logger zerolog.Logger) *ActionProcessor {
	return &ActionProcessor{
		store:    st,
		notifier: notifier,
		remover:  remover,
		logger:   logger.With().Str("module", "actions").Logger(),
	}
}

// Process handles one block action. Failures degrade to a reply on the
// originating channel; they are never returned to the webhook caller.
func (p *ActionProcessor) Process(ctx context.Context, action BlockAction) {
	if !strings.Contains(action.Value, "keep") && !strings.Contains(action.Value, "remove") {
		p.post(ctx, action.Channel, fmt.Sprintf(unknownPayload, action.Value))
		return
	}

	parts := strings.Split(action.Value, "_")
	verb := parts[0]
	id, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	if err != nil {
		p.logger.Warn().Str("value", action.Value).Msg("Malformed action value")
		p.post(ctx, action.Channel, fmt.Sprintf(unknownPayload, action.Value))
		return
	}

	var notice string
	if verb == "keep" {
		if _, err := p.store.SetSubmissionRemoved(ctx, id, false); err != nil {
			p.fail(ctx, action, id, err)
			return
		}
		notice = submissionKept
	} else {
		sub, err := p.store.SubmissionByID(ctx, id)
		if err != nil {
			p.fail(ctx, action, id, err)
			return
		}
		// The submission was already pulled from the queue when it was
		// reported; now that a moderator confirmed, take it down at the
		// source as well.
		if err := p.remover.RemovePost(ctx, sub); err != nil {
			p.logger.Error().Err(err).Int64("submission_id", id).Msg("Source platform removal failed")
		}
		notice = fmt.Sprintf(submissionRemoved, sub.ID)
	}

	blocks := action.Blocks
	if len(blocks) == 0 {
		blocks = []json.RawMessage{sectionBlock(notice)}
	} else {
		blocks[len(blocks)-1] = sectionBlock(notice)
	}

	if err := p.notifier.UpdateMessage(ctx, action.Channel, action.TS, blocks); err != nil {
		p.logger.Error().
			Err(err).
			Str("channel", action.Channel).
			Str("ts", action.TS).
			Msg("Failed to update message")
	}
}

func (p *ActionProcessor) fail(ctx context.Context, action BlockAction, id int64, err error) {
	if errors.Is(err, store.ErrNotFound) {
		p.post(ctx, action.Channel, fmt.Sprintf(unknownPayload, action.Value))
		return
	}
	p.logger.Error().Err(err).Int64("submission_id", id).Msg("Block action failed")
	p.post(ctx, action.Channel, ErrInternal)
}

func (p *ActionProcessor) post(ctx context.Context, channel, text string) {
	if err := p.notifier.PostMessage(ctx, channel, text); err != nil {
		p.logger.Error().Err(err).Str("channel", channel).Msg("Failed to post reply")
	}
}

// LogRemover is the default Remover: it records the takedown request
// instead of talking to the source platform.
type LogRemover struct {
	logger zerolog.Logger
}

// NewLogRemover creates a remover that only logs.
func NewLogRemover(logger zerolog.Logger) *LogRemover {
	return &LogRemover{logger: logger.With().Str("module", "remover").Logger()}
}

// RemovePost logs the removal request.
func (r *LogRemover) RemovePost(_ context.Context, sub *store.Submission) error {
	r.logger.Info().Int64("submission_id", sub.ID).Str("url", sub.URL).Msg("Removal requested")
	return nil
}
