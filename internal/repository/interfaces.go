package repository

import (
	"context"
	"errors"

	"captionclash/internal/domain"
)

// Storage errors. A NotFound here is a normal end-state: settlement purges
// contest state, so late requests routinely race against deletion.
var (
	ErrContestNotFound = errors.New("contest not found")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrDuplicateEntry  = errors.New("author already has an entry in this contest")
)

// ContestRepository owns the contest record and the active-round pointer.
type ContestRepository interface {
	Create(ctx context.Context, contest *domain.Contest) error
	Get(ctx context.Context, contestID string) (*domain.Contest, error)
	// SetJobID attaches the pending settlement job to the contest record.
	// Returns ErrContestNotFound if the contest was purged in between.
	SetJobID(ctx context.Context, contestID, jobID string) error
	CurrentID(ctx context.Context) (string, error)
	SetCurrentID(ctx context.Context, contestID string) error
	// ClearCurrentID clears the active-round pointer only while it still
	// names the given contest.
	ClearCurrentID(ctx context.Context, contestID string) error
	// Purge deletes every record for the contest: the contest itself
	// first (so late writes fail closed), then entries, voter sets, the
	// author index, and the ranking. Safe to invoke twice.
	Purge(ctx context.Context, contestID string) error
}

// EntryRepository owns caption payloads and the ranking index. Creation
// registers the entry at score zero in the same atomic step.
type EntryRepository interface {
	Create(ctx context.Context, contestID, authorID string, payload domain.CaptionPayload) (*domain.Entry, error)
	Get(ctx context.Context, contestID, entryID string) (*domain.Entry, error)
	ListAuthoredBy(ctx context.Context, contestID, authorID string) ([]*domain.Entry, error)
	// TopK returns up to k entries, highest vote count first, ties broken
	// by earliest insertion. k larger than the contest returns all.
	TopK(ctx context.Context, contestID string, k int) ([]domain.RankedEntry, error)
	ListRanked(ctx context.Context, contestID string) ([]domain.RankedEntry, error)
}

// VoteRepository owns voter identity sets. Toggle is atomic per entry.
type VoteRepository interface {
	// Toggle flips the voter's membership in the entry's voter set and
	// returns the new membership state and vote count.
	Toggle(ctx context.Context, contestID, entryID, voterID string) (bool, int64, error)
	Count(ctx context.Context, contestID, entryID string) (int64, error)
	HasVoted(ctx context.Context, contestID, entryID, voterID string) (bool, error)
}

// ArchiveRepository records published winners after settlement, for audit.
type ArchiveRepository interface {
	RecordSettlement(ctx context.Context, captions []domain.SettledCaption) error
}
