package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captionclash/internal/domain"
)

func TestVoteRepository_Toggle(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	contestID := newContest(t, client)
	entries := NewEntryRepository(client)
	votes := NewVoteRepository(client)

	entry, err := entries.Create(ctx, contestID, "alice", domain.CaptionPayload{TopText: "vote me"})
	require.NoError(t, err)

	// Cast
	upvoted, count, err := votes.Toggle(ctx, contestID, entry.ID, "bob")
	require.NoError(t, err)
	assert.True(t, upvoted)
	assert.Equal(t, int64(1), count)

	// Retract
	upvoted, count, err = votes.Toggle(ctx, contestID, entry.ID, "bob")
	require.NoError(t, err)
	assert.False(t, upvoted)
	assert.Equal(t, int64(0), count)
}

func TestVoteRepository_Toggle_SelfInverse(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	contestID := newContest(t, client)
	entries := NewEntryRepository(client)
	votes := NewVoteRepository(client)

	entry, err := entries.Create(ctx, contestID, "alice", domain.CaptionPayload{TopText: "x"})
	require.NoError(t, err)

	_, _, err = votes.Toggle(ctx, contestID, entry.ID, "carol")
	require.NoError(t, err)

	before, err := votes.Count(ctx, contestID, entry.ID)
	require.NoError(t, err)

	// Toggling twice by the same voter restores membership and score.
	_, _, err = votes.Toggle(ctx, contestID, entry.ID, "bob")
	require.NoError(t, err)
	_, _, err = votes.Toggle(ctx, contestID, entry.ID, "bob")
	require.NoError(t, err)

	after, err := votes.Count(ctx, contestID, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	voted, err := votes.HasVoted(ctx, contestID, entry.ID, "bob")
	require.NoError(t, err)
	assert.False(t, voted)
}

// Ranking score must equal voter set cardinality after any toggle sequence.
func TestVoteRepository_ScoreMatchesCardinality(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	contestID := newContest(t, client)
	entries := NewEntryRepository(client)
	votes := NewVoteRepository(client)

	entry, err := entries.Create(ctx, contestID, "alice", domain.CaptionPayload{TopText: "x"})
	require.NoError(t, err)

	toggles := []string{"v1", "v2", "v1", "v3", "v2", "v2", "v4", "v1"}
	for _, voter := range toggles {
		_, _, err := votes.Toggle(ctx, contestID, entry.ID, voter)
		require.NoError(t, err)
	}

	count, err := votes.Count(ctx, contestID, entry.ID)
	require.NoError(t, err)

	voters, err := client.SMembers(ctx, client.KeyBuilder.Voters(contestID, entry.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(len(voters)), count)
	// v1 toggled three times (in), v2 three times (in), v3 once (in), v4 once (in).
	assert.ElementsMatch(t, []string{"v1", "v2", "v3", "v4"}, voters)
}

// Two distinct voters toggling concurrently must both land.
func TestVoteRepository_Toggle_NoLostUpdate(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	contestID := newContest(t, client)
	entries := NewEntryRepository(client)
	votes := NewVoteRepository(client)

	entry, err := entries.Create(ctx, contestID, "alice", domain.CaptionPayload{TopText: "x"})
	require.NoError(t, err)

	voters := []string{"v1", "v2", "v3", "v4", "v5", "v6", "v7", "v8"}
	var wg sync.WaitGroup
	errs := make(chan error, len(voters))
	for _, voter := range voters {
		wg.Add(1)
		go func(voter string) {
			defer wg.Done()
			_, _, err := votes.Toggle(ctx, contestID, entry.ID, voter)
			errs <- err
		}(voter)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	count, err := votes.Count(ctx, contestID, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(len(voters)), count)
}

func TestVoteRepository_Toggle_EntryGone(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	contestID := newContest(t, client)
	votes := NewVoteRepository(client)

	_, _, err := votes.Toggle(ctx, contestID, "no-such-entry", "bob")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	_, _, err = votes.Toggle(ctx, "no-such-contest", "no-such-entry", "bob")
	assert.ErrorIs(t, err, ErrContestNotFound)
}

func TestVoteRepository_Count_NotFound(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	contestID := newContest(t, client)
	votes := NewVoteRepository(client)

	_, err := votes.Count(ctx, contestID, "no-such-entry")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	_, err = votes.Count(ctx, "no-such-contest", "e")
	assert.ErrorIs(t, err, ErrContestNotFound)
}
