package repository

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"captionclash/internal/domain"
	"captionclash/pkg/redis"
)

// setJobIDScript updates the settlement job reference only while the
// contest record still exists, so a purge racing with scheduling can never
// resurrect the contest hash.
var setJobIDScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'job_id', ARGV[1])
return 1
`)

// clearCurrentScript drops the active-round pointer only if it still names
// the given contest.
var clearCurrentScript = goredis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	redis.call('DEL', KEYS[1])
	return 1
end
return 0
`)

type ContestRedisRepository struct {
	client *redis.Client
}

func NewContestRepository(client *redis.Client) *ContestRedisRepository {
	return &ContestRedisRepository{client: client}
}

// Create persists the contest record.
func (r *ContestRedisRepository) Create(ctx context.Context, contest *domain.Contest) error {
	key := r.client.KeyBuilder.Contest(contest.ID)
	err := r.client.HSet(ctx, key,
		"id", contest.ID,
		"image_ref", contest.ImageRef,
		"created_at", contest.CreatedAt.UTC().Format(time.RFC3339Nano),
		"deadline", contest.Deadline.UTC().Format(time.RFC3339Nano),
		"job_id", contest.JobID,
	)
	if err != nil {
		return fmt.Errorf("failed to create contest record: %w", err)
	}
	return nil
}

// Get reads the contest record. Returns ErrContestNotFound after purge.
func (r *ContestRedisRepository) Get(ctx context.Context, contestID string) (*domain.Contest, error) {
	key := r.client.KeyBuilder.Contest(contestID)
	fields, err := r.client.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read contest record: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrContestNotFound
	}

	contest := &domain.Contest{
		ID:       fields["id"],
		ImageRef: fields["image_ref"],
		JobID:    fields["job_id"],
	}
	if contest.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return nil, fmt.Errorf("corrupt contest created_at: %w", err)
	}
	if contest.Deadline, err = time.Parse(time.RFC3339Nano, fields["deadline"]); err != nil {
		return nil, fmt.Errorf("corrupt contest deadline: %w", err)
	}
	return contest, nil
}

func (r *ContestRedisRepository) SetJobID(ctx context.Context, contestID, jobID string) error {
	key := r.client.KeyBuilder.Contest(contestID)
	res, err := r.client.RunScript(ctx, setJobIDScript, []string{key}, jobID)
	if err != nil {
		return fmt.Errorf("failed to set settlement job: %w", err)
	}
	if ok, _ := res.(int64); ok == 0 {
		return ErrContestNotFound
	}
	return nil
}

func (r *ContestRedisRepository) CurrentID(ctx context.Context) (string, error) {
	id, err := r.client.Get(ctx, r.client.KeyBuilder.KeyCurrent())
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read current contest pointer: %w", err)
	}
	return id, nil
}

func (r *ContestRedisRepository) SetCurrentID(ctx context.Context, contestID string) error {
	if err := r.client.Set(ctx, r.client.KeyBuilder.KeyCurrent(), contestID, 0); err != nil {
		return fmt.Errorf("failed to set current contest pointer: %w", err)
	}
	return nil
}

func (r *ContestRedisRepository) ClearCurrentID(ctx context.Context, contestID string) error {
	key := r.client.KeyBuilder.KeyCurrent()
	if _, err := r.client.RunScript(ctx, clearCurrentScript, []string{key}, contestID); err != nil {
		return fmt.Errorf("failed to clear current contest pointer: %w", err)
	}
	return nil
}

// Purge deletes all contest state. The contest record goes first so that
// concurrent entry creation and vote toggles fail closed with
// ErrContestNotFound instead of partially succeeding. Running it twice is a
// no-op; a rerun after a crash mid-purge still sweeps the leftovers because
// the ranking index, not the contest record, drives the key list.
func (r *ContestRedisRepository) Purge(ctx context.Context, contestID string) error {
	kb := r.client.KeyBuilder
	rankingKey := kb.Ranking(contestID)

	// The contest record must go before the ranking is read: once it is
	// gone every create/toggle script fails closed, so any racing write
	// either landed in the ranking before this delete (and is swept
	// below) or never happened. Reading the ranking first would let a
	// create slip in between and leave its keys behind.
	if err := r.client.Delete(ctx, kb.Contest(contestID)); err != nil {
		return fmt.Errorf("failed to delete contest record: %w", err)
	}

	entryIDs, err := r.client.ZRange(ctx, rankingKey, 0, -1)
	if err != nil {
		return fmt.Errorf("failed to list contest entries for purge: %w", err)
	}

	keys := make([]string, 0, 2*len(entryIDs)+2)
	for _, entryID := range entryIDs {
		keys = append(keys, kb.Entry(contestID, entryID), kb.Voters(contestID, entryID))
	}
	keys = append(keys, kb.Authors(contestID), rankingKey)

	if err := r.client.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to purge contest state: %w", err)
	}
	return nil
}
