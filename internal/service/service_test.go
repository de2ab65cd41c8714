package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"captionclash/internal/domain"
	"captionclash/internal/repository"
	"captionclash/pkg/logger"
	"captionclash/pkg/redis"
)

type testEnv struct {
	mr       *miniredis.Miniredis
	client   *redis.Client
	contests repository.ContestRepository
	entries  repository.EntryRepository
	votes    repository.VoteRepository
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return &testEnv{
		mr:       mr,
		client:   client,
		contests: repository.NewContestRepository(client),
		entries:  repository.NewEntryRepository(client),
		votes:    repository.NewVoteRepository(client),
	}
}

// fakePublisher records publishes and can be told to fail specific entries
// by their top text.
type fakePublisher struct {
	mu        sync.Mutex
	published []domain.CaptionPayload
	failOn    map[string]bool
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{failOn: make(map[string]bool)}
}

func (p *fakePublisher) Publish(_ context.Context, _ string, caption domain.CaptionPayload) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failOn[caption.TopText] {
		return "", fmt.Errorf("render pipeline rejected caption")
	}
	p.published = append(p.published, caption)
	return fmt.Sprintf("post-%d", len(p.published)), nil
}

func (p *fakePublisher) topTexts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	texts := make([]string, 0, len(p.published))
	for _, c := range p.published {
		texts = append(texts, c.TopText)
	}
	return texts
}

// fakeScheduler records jobs without ever firing them; tests drive
// settlement by calling Settle directly.
type fakeScheduler struct {
	mu        sync.Mutex
	nextID    int
	pending   map[string]string // jobID -> payload
	cancelled []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{pending: make(map[string]string)}
}

func (s *fakeScheduler) ScheduleAt(_ time.Time, payload string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	jobID := fmt.Sprintf("job-%d", s.nextID)
	s.pending[jobID] = payload
	return jobID
}

func (s *fakeScheduler) Cancel(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.pending[jobID]
	delete(s.pending, jobID)
	s.cancelled = append(s.cancelled, jobID)
	return ok
}

func (s *fakeScheduler) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// fakeArchive records settled captions in memory.
type fakeArchive struct {
	mu       sync.Mutex
	recorded []domain.SettledCaption
}

func (a *fakeArchive) RecordSettlement(_ context.Context, captions []domain.SettledCaption) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recorded = append(a.recorded, captions...)
	return nil
}

func newContestService(env *testEnv, pub Publisher, arch repository.ArchiveRepository, sched Scheduler) *ContestService {
	return NewContestService(env.contests, env.entries, pub, arch, sched, 3, time.Hour, logger.NewNop())
}

func newCaptionService(env *testEnv) *CaptionService {
	return NewCaptionService(env.contests, env.entries, env.votes, logger.NewNop())
}
