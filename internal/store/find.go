package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL converts a Reddit URL to the canonical form used in the
// store. Old-Reddit and mobile hosts are folded into reddit.com and a
// trailing slash is enforced. Non-Reddit URLs yield the empty string.
func NormalizeURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if !strings.Contains(parsed.Host, "reddit") {
		return ""
	}

	path := parsed.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return "https://reddit.com" + path
}

// coreURL trims a post URL down to its minimal unique prefix (everything up
// to the post id), so post links and comment links resolve to the same
// submission.
func coreURL(u string) string {
	parts := strings.Split(u, "/")
	if len(parts) <= 7 {
		return u
	}
	return strings.Join(parts[:7], "/")
}

// escapeLike escapes the LIKE metacharacters in a literal prefix so that
// underscores in subreddit names do not act as wildcards.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// FindByURL resolves a normalized Reddit URL to a submission along with its
// author, the author's transcription, and any OCR transcription. Queue URLs
// and partner-sub URLs are both accepted. Returns ErrNotFound when nothing
// matches.
func (s *Store) FindByURL(ctx context.Context, normalized string) (*FindResult, error) {
	parts := strings.Split(normalized, "/")
	if !strings.Contains(normalized, "reddit") || len(parts) < 5 {
		return nil, ErrNotFound
	}

	column := "url"
	if strings.EqualFold(parts[4], "transcribersofreddit") {
		column = "queue_url"
	}

	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT id, url, queue_url, claimed_by, completed_by, removed_from_queue,
		        approved, create_time, complete_time
		 FROM submissions WHERE %s LIKE ? || '%%' ESCAPE '\' ORDER BY id LIMIT 1`, column),
		escapeLike(coreURL(normalized)))
	sub, err := scanSubmission(row)
	if err != nil {
		return nil, err
	}

	result := &FindResult{Submission: sub}

	if sub.ClaimedBy != nil {
		author, err := s.UserByID(ctx, *sub.ClaimedBy)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		result.Author = author
	}

	transcriptions, err := s.TranscriptionsBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	for i := range transcriptions {
		tr := transcriptions[i]
		author, err := s.UserByID(ctx, tr.AuthorID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		switch {
		case author.IsBot && result.OCR == nil:
			result.OCR = &tr
		case result.Author != nil && tr.AuthorID == result.Author.ID && result.Transcription == nil:
			result.Transcription = &tr
		}
	}

	return result, nil
}
