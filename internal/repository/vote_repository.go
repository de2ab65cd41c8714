package repository

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"captionclash/pkg/redis"
)

// toggleVoteScript flips the voter's membership in the entry's voter set
// and rewrites the ranking score from the set's cardinality, all in one
// atomic step. Concurrent toggles by different voters on the same entry
// both land; the score cannot drift from the voter set because both are
// written here and nowhere else.
//
// KEYS: contest hash, ranking zset, voter set
// ARGV: entry id, voter id
// Returns {added, count, 1} on success, {0, 0, 0} if the contest is gone,
// {-1, 0, 0} if the entry is not in the ranking index.
var toggleVoteScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return {0, 0, 0}
end
local cur = redis.call('ZSCORE', KEYS[2], ARGV[1])
if not cur then
	return {-1, 0, 0}
end
local added
if redis.call('SISMEMBER', KEYS[3], ARGV[2]) == 1 then
	redis.call('SREM', KEYS[3], ARGV[2])
	added = 0
else
	redis.call('SADD', KEYS[3], ARGV[2])
	added = 1
end
local count = redis.call('SCARD', KEYS[3])
local seqpart = tonumber(cur) % 16777216
redis.call('ZADD', KEYS[2], count * 16777216 + seqpart, ARGV[1])
return {added, count, 1}
`)

type VoteRedisRepository struct {
	client *redis.Client
}

func NewVoteRepository(client *redis.Client) *VoteRedisRepository {
	return &VoteRedisRepository{client: client}
}

// Toggle casts the vote if absent and retracts it if present. Returns the
// new membership state and the entry's vote count after the flip.
func (r *VoteRedisRepository) Toggle(ctx context.Context, contestID, entryID, voterID string) (bool, int64, error) {
	kb := r.client.KeyBuilder
	keys := []string{
		kb.Contest(contestID),
		kb.Ranking(contestID),
		kb.Voters(contestID, entryID),
	}
	res, err := r.client.RunScript(ctx, toggleVoteScript, keys, entryID, voterID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to toggle vote: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 3 {
		return false, 0, fmt.Errorf("unexpected toggle result: %T", res)
	}
	status, _ := vals[2].(int64)
	switch status {
	case 1:
		added, _ := vals[0].(int64)
		count, _ := vals[1].(int64)
		return added == 1, count, nil
	default:
		first, _ := vals[0].(int64)
		if first == -1 {
			return false, 0, ErrEntryNotFound
		}
		return false, 0, ErrContestNotFound
	}
}

// Count reads the entry's vote count from the ranking index, which the
// toggle script keeps equal to the voter set cardinality.
func (r *VoteRedisRepository) Count(ctx context.Context, contestID, entryID string) (int64, error) {
	kb := r.client.KeyBuilder
	score, err := r.client.ZScore(ctx, kb.Ranking(contestID), entryID)
	if err == redis.Nil {
		n, existsErr := r.client.Exists(ctx, kb.Contest(contestID))
		if existsErr != nil {
			return 0, fmt.Errorf("failed to check contest: %w", existsErr)
		}
		if n == 0 {
			return 0, ErrContestNotFound
		}
		return 0, ErrEntryNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read vote count: %w", err)
	}
	return votesFromScore(score), nil
}

// HasVoted tests a voter's membership in the entry's voter set.
func (r *VoteRedisRepository) HasVoted(ctx context.Context, contestID, entryID, voterID string) (bool, error) {
	key := r.client.KeyBuilder.Voters(contestID, entryID)
	ok, err := r.client.SIsMember(ctx, key, voterID)
	if err != nil {
		return false, fmt.Errorf("failed to check vote membership: %w", err)
	}
	return ok, nil
}
