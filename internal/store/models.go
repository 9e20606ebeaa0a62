package store

import "time"

// User is a volunteer account.
type User struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Blacklisted bool       `json:"blacklisted"`
	AcceptedCoC bool       `json:"accepted_coc"`
	IsBot       bool       `json:"is_bot"`
	DateJoined  time.Time  `json:"date_joined"`
	LastActive  *time.Time `json:"last_active,omitempty"`
}

// Submission is a queued post awaiting (or carrying) a transcription.
type Submission struct {
	ID               int64      `json:"id"`
	URL              string     `json:"url,omitempty"`
	QueueURL         string     `json:"queue_url,omitempty"`
	ClaimedBy        *int64     `json:"claimed_by,omitempty"`
	CompletedBy      *int64     `json:"completed_by,omitempty"`
	RemovedFromQueue bool       `json:"removed_from_queue"`
	Approved         bool       `json:"approved"`
	CreateTime       time.Time  `json:"create_time"`
	CompleteTime     *time.Time `json:"complete_time,omitempty"`
}

// Transcription is a completed piece of volunteer work.
type Transcription struct {
	ID           int64     `json:"id"`
	SubmissionID int64     `json:"submission_id"`
	AuthorID     int64     `json:"author_id"`
	OriginalID   string    `json:"original_id"`
	Text         string    `json:"text"`
	CreateTime   time.Time `json:"create_time"`
}

// Transcription check statuses. A check is a moderator review of a single
// transcription; comments and warnings each move through pending, resolved
// and unfixed sub-statuses.
const (
	CheckPending         = "pending"
	CheckApproved        = "approved"
	CheckCommentPending  = "comment-pending"
	CheckCommentResolved = "comment-resolved"
	CheckCommentUnfixed  = "comment-unfixed"
	CheckWarningPending  = "warning-pending"
	CheckWarningResolved = "warning-resolved"
	CheckWarningUnfixed  = "warning-unfixed"
)

// CheckCounts aggregates the review history for one volunteer.
type CheckCounts struct {
	Total    int
	Comments int
	Warnings int
}

// Summary is the server-wide statistics report.
type Summary struct {
	Volunteers     int
	Transcriptions int
	Submissions    int
	Completed      int
	DaysSinceStart int
}

// FindResult bundles everything known about a submission looked up by URL.
type FindResult struct {
	Submission    *Submission    `json:"submission"`
	Author        *User          `json:"author,omitempty"`
	Transcription *Transcription `json:"transcription,omitempty"`
	OCR           *Transcription `json:"ocr,omitempty"`
}
