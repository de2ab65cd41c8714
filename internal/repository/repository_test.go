package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"captionclash/internal/domain"
	"captionclash/pkg/redis"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

// newContest persists a fresh contest record and returns its id.
func newContest(t *testing.T, client *redis.Client) string {
	t.Helper()

	repo := NewContestRepository(client)
	contest := &domain.Contest{
		ID:        "contest-" + t.Name(),
		ImageRef:  "https://img.example/meme.png",
		CreatedAt: time.Now().UTC(),
		Deadline:  time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), contest))
	return contest.ID
}
