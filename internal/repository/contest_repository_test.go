package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captionclash/internal/domain"
)

func TestContestRepository_CreateGet(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	repo := NewContestRepository(client)
	contest := &domain.Contest{
		ID:        "c1",
		ImageRef:  "https://img.example/meme.png",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		Deadline:  time.Now().UTC().Add(time.Hour).Truncate(time.Millisecond),
	}
	require.NoError(t, repo.Create(ctx, contest))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, contest.ID, got.ID)
	assert.Equal(t, contest.ImageRef, got.ImageRef)
	assert.True(t, contest.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, contest.Deadline.Equal(got.Deadline))

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrContestNotFound)
}

func TestContestRepository_CurrentPointer(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	repo := NewContestRepository(client)

	id, err := repo.CurrentID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, repo.SetCurrentID(ctx, "c1"))

	id, err = repo.CurrentID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c1", id)

	// Clearing with a different id leaves the pointer alone.
	require.NoError(t, repo.ClearCurrentID(ctx, "c2"))
	id, err = repo.CurrentID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c1", id)

	require.NoError(t, repo.ClearCurrentID(ctx, "c1"))
	id, err = repo.CurrentID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestContestRepository_SetJobID(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	repo := NewContestRepository(client)
	contestID := newContest(t, client)

	require.NoError(t, repo.SetJobID(ctx, contestID, "job-1"))

	got, err := repo.Get(ctx, contestID)
	require.NoError(t, err)
	assert.Equal(t, "job-1", got.JobID)

	// A purged contest must not be resurrected by a late SetJobID.
	require.NoError(t, repo.Purge(ctx, contestID))
	err = repo.SetJobID(ctx, contestID, "job-2")
	assert.ErrorIs(t, err, ErrContestNotFound)

	_, err = repo.Get(ctx, contestID)
	assert.ErrorIs(t, err, ErrContestNotFound)
}

func TestContestRepository_Purge(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	repo := NewContestRepository(client)
	contestID := newContest(t, client)
	entries := NewEntryRepository(client)
	votes := NewVoteRepository(client)

	entry, err := entries.Create(ctx, contestID, "alice", domain.CaptionPayload{TopText: "x"})
	require.NoError(t, err)
	_, _, err = votes.Toggle(ctx, contestID, entry.ID, "bob")
	require.NoError(t, err)

	require.NoError(t, repo.Purge(ctx, contestID))

	// Everything is gone and every mutation fails closed.
	_, err = repo.Get(ctx, contestID)
	assert.ErrorIs(t, err, ErrContestNotFound)

	_, err = entries.Get(ctx, contestID, entry.ID)
	assert.ErrorIs(t, err, ErrContestNotFound)

	_, err = entries.Create(ctx, contestID, "carol", domain.CaptionPayload{TopText: "late"})
	assert.ErrorIs(t, err, ErrContestNotFound)

	_, _, err = votes.Toggle(ctx, contestID, entry.ID, "bob")
	assert.ErrorIs(t, err, ErrContestNotFound)

	ranked, err := entries.ListRanked(ctx, contestID)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

// A purge caught between its two steps must leave no window for a create
// to land: once the contest record is gone, every write fails closed, and a
// rerun sweeps whatever was registered before.
func TestContestRepository_Purge_InterruptedRejectsWrites(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	repo := NewContestRepository(client)
	contestID := newContest(t, client)
	entries := NewEntryRepository(client)
	votes := NewVoteRepository(client)

	entry, err := entries.Create(ctx, contestID, "alice", domain.CaptionPayload{TopText: "x"})
	require.NoError(t, err)

	// Purge's first step: the contest record is deleted, the rest of the
	// contest keys are still present.
	require.NoError(t, client.Delete(ctx, client.KeyBuilder.Contest(contestID)))

	// Writes racing the purge fail closed instead of landing keys that
	// the sweep would miss.
	_, err = entries.Create(ctx, contestID, "bob", domain.CaptionPayload{TopText: "late"})
	assert.ErrorIs(t, err, ErrContestNotFound)
	_, _, err = votes.Toggle(ctx, contestID, entry.ID, "bob")
	assert.ErrorIs(t, err, ErrContestNotFound)

	// The rerun still finds everything through the ranking index.
	require.NoError(t, repo.Purge(ctx, contestID))

	_, err = entries.Get(ctx, contestID, entry.ID)
	assert.ErrorIs(t, err, ErrContestNotFound)
	assert.Empty(t, mr.Keys())
}

func TestContestRepository_Purge_Idempotent(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	repo := NewContestRepository(client)
	contestID := newContest(t, client)
	entries := NewEntryRepository(client)

	_, err := entries.Create(ctx, contestID, "alice", domain.CaptionPayload{TopText: "x"})
	require.NoError(t, err)

	require.NoError(t, repo.Purge(ctx, contestID))
	require.NoError(t, repo.Purge(ctx, contestID))

	assert.Empty(t, mr.Keys())
}
