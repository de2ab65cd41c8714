package domain

import (
	"strings"
	"time"
)

// CaptionPayload is the fixed caption shape: up to three banner positions
// plus styling flags. At least one text field must be populated.
type CaptionPayload struct {
	TopText    string `json:"topText,omitempty"`
	MiddleText string `json:"middleText,omitempty"`
	BottomText string `json:"bottomText,omitempty"`
	Bold       bool   `json:"bold,omitempty"`
	AllCaps    bool   `json:"allCaps,omitempty"`
}

// Empty reports whether no banner position carries any text.
func (p CaptionPayload) Empty() bool {
	return strings.TrimSpace(p.TopText) == "" &&
		strings.TrimSpace(p.MiddleText) == "" &&
		strings.TrimSpace(p.BottomText) == ""
}

// Entry is one author's caption submission within a contest. Identity and
// payload are immutable after creation; there is no edit operation.
type Entry struct {
	ID        string         `json:"id"`
	AuthorID  string         `json:"author_id"`
	Payload   CaptionPayload `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	// Seq is the per-contest insertion sequence, used to break ranking
	// ties deterministically in favor of earlier submissions.
	Seq int64 `json:"seq"`
}

// RankedEntry pairs an entry id with its current vote count, as read from
// the ranking index.
type RankedEntry struct {
	EntryID string
	Votes   int64
}

// EntryWithUpvotes is the API view of an entry: the stored record plus the
// live vote count and whether the calling user has upvoted it.
type EntryWithUpvotes struct {
	Entry
	Upvotes     int64 `json:"upvotes"`
	UserUpvoted bool  `json:"userUpvoted"`
}
