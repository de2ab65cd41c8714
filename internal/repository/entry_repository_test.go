package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captionclash/internal/domain"
)

func TestEntryRepository_Create(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	contestID := newContest(t, client)
	entries := NewEntryRepository(client)

	entry, err := entries.Create(ctx, contestID, "alice", domain.CaptionPayload{TopText: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "alice", entry.AuthorID)
	assert.Equal(t, int64(1), entry.Seq)

	// Creation registers the entry in the ranking index at zero votes.
	ranked, err := entries.ListRanked(ctx, contestID)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, entry.ID, ranked[0].EntryID)
	assert.Equal(t, int64(0), ranked[0].Votes)
}

func TestEntryRepository_Create_OnePerAuthor(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	contestID := newContest(t, client)
	entries := NewEntryRepository(client)

	_, err := entries.Create(ctx, contestID, "alice", domain.CaptionPayload{TopText: "first"})
	require.NoError(t, err)

	_, err = entries.Create(ctx, contestID, "alice", domain.CaptionPayload{TopText: "second"})
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	// Another author is fine.
	_, err = entries.Create(ctx, contestID, "bob", domain.CaptionPayload{TopText: "third"})
	assert.NoError(t, err)
}

func TestEntryRepository_Create_ContestGone(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	entries := NewEntryRepository(client)

	_, err := entries.Create(ctx, "no-such-contest", "alice", domain.CaptionPayload{TopText: "late"})
	assert.ErrorIs(t, err, ErrContestNotFound)
}

func TestEntryRepository_Get(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	contestID := newContest(t, client)
	entries := NewEntryRepository(client)

	payload := domain.CaptionPayload{TopText: "TOP", BottomText: "bottom", Bold: true}
	created, err := entries.Create(ctx, contestID, "alice", payload)
	require.NoError(t, err)

	got, err := entries.Get(ctx, contestID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "alice", got.AuthorID)
	assert.Equal(t, payload, got.Payload)
	assert.Equal(t, created.Seq, got.Seq)
	assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, 0)

	_, err = entries.Get(ctx, contestID, "no-such-entry")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	_, err = entries.Get(ctx, "no-such-contest", created.ID)
	assert.ErrorIs(t, err, ErrContestNotFound)
}

func TestEntryRepository_ListAuthoredBy(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	contestID := newContest(t, client)
	entries := NewEntryRepository(client)

	created, err := entries.Create(ctx, contestID, "alice", domain.CaptionPayload{TopText: "mine"})
	require.NoError(t, err)

	authored, err := entries.ListAuthoredBy(ctx, contestID, "alice")
	require.NoError(t, err)
	require.Len(t, authored, 1)
	assert.Equal(t, created.ID, authored[0].ID)

	authored, err = entries.ListAuthoredBy(ctx, contestID, "bob")
	require.NoError(t, err)
	assert.Empty(t, authored)
}

func TestEntryRepository_TopK_Ordering(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	contestID := newContest(t, client)
	entries := NewEntryRepository(client)
	votes := NewVoteRepository(client)

	e1, err := entries.Create(ctx, contestID, "alice", domain.CaptionPayload{TopText: "one"})
	require.NoError(t, err)
	e2, err := entries.Create(ctx, contestID, "bob", domain.CaptionPayload{TopText: "two"})
	require.NoError(t, err)
	e3, err := entries.Create(ctx, contestID, "carol", domain.CaptionPayload{TopText: "three"})
	require.NoError(t, err)

	// e2 gets two votes, e3 one, e1 none.
	for _, voter := range []string{"v1", "v2"} {
		_, _, err = votes.Toggle(ctx, contestID, e2.ID, voter)
		require.NoError(t, err)
	}
	_, _, err = votes.Toggle(ctx, contestID, e3.ID, "v1")
	require.NoError(t, err)

	top, err := entries.TopK(ctx, contestID, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, e2.ID, top[0].EntryID)
	assert.Equal(t, int64(2), top[0].Votes)
	assert.Equal(t, e3.ID, top[1].EntryID)
	assert.Equal(t, int64(1), top[1].Votes)
	assert.Equal(t, e1.ID, top[2].EntryID)
	assert.Equal(t, int64(0), top[2].Votes)
}

func TestEntryRepository_TopK_TieBreakByInsertion(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	contestID := newContest(t, client)
	entries := NewEntryRepository(client)
	votes := NewVoteRepository(client)

	first, err := entries.Create(ctx, contestID, "alice", domain.CaptionPayload{TopText: "early"})
	require.NoError(t, err)
	second, err := entries.Create(ctx, contestID, "bob", domain.CaptionPayload{TopText: "late"})
	require.NoError(t, err)

	// Equal vote counts: earlier submission ranks first.
	_, _, err = votes.Toggle(ctx, contestID, first.ID, "v1")
	require.NoError(t, err)
	_, _, err = votes.Toggle(ctx, contestID, second.ID, "v2")
	require.NoError(t, err)

	top, err := entries.TopK(ctx, contestID, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, first.ID, top[0].EntryID)
	assert.Equal(t, second.ID, top[1].EntryID)

	// Still true at zero votes for everyone.
	_, _, err = votes.Toggle(ctx, contestID, first.ID, "v1")
	require.NoError(t, err)
	_, _, err = votes.Toggle(ctx, contestID, second.ID, "v2")
	require.NoError(t, err)

	top, err = entries.TopK(ctx, contestID, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, first.ID, top[0].EntryID)
	assert.Equal(t, second.ID, top[1].EntryID)
}

func TestEntryRepository_TopK_LargerThanContest(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	contestID := newContest(t, client)
	entries := NewEntryRepository(client)

	_, err := entries.Create(ctx, contestID, "alice", domain.CaptionPayload{TopText: "only"})
	require.NoError(t, err)

	top, err := entries.TopK(ctx, contestID, 10)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	top, err = entries.TopK(ctx, contestID, 0)
	require.NoError(t, err)
	assert.Empty(t, top)
}
