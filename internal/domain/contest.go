package domain

import "time"

// Contest is one timed captioning round over a single image. The record
// lives in Redis for the lifetime of the round and is deleted when
// settlement completes or a moderator cancels it.
type Contest struct {
	ID        string    `json:"id"`
	ImageRef  string    `json:"image_ref"`
	CreatedAt time.Time `json:"created_at"`
	Deadline  time.Time `json:"deadline"`
	// JobID references the pending settlement job with the scheduler.
	// At most one per contest.
	JobID string `json:"job_id,omitempty"`
}

// CreateContestRequest is the moderator request that opens a round.
type CreateContestRequest struct {
	ImageRef string `json:"imageRef"`
	// Duration overrides the configured default round length, e.g. "30m".
	Duration string `json:"duration,omitempty"`
}

// SettledCaption is one published winner, recorded in the settlement archive.
type SettledCaption struct {
	ContestID string         `json:"contest_id"`
	EntryID   string         `json:"entry_id"`
	AuthorID  string         `json:"author_id"`
	Rank      int            `json:"rank"`
	Votes     int64          `json:"votes"`
	Payload   CaptionPayload `json:"payload"`
	PostRef   string         `json:"post_ref"`
	SettledAt time.Time      `json:"settled_at"`
}
