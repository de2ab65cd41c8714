package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"captionclash/internal/domain"
	"captionclash/pkg/redis"
)

// createEntryScript persists the entry record and registers it in the
// ranking index at score zero in one atomic step, so the two can never
// diverge. It also enforces one entry per author per contest and allocates
// the insertion sequence used as the ranking tie-break.
//
// KEYS: contest hash, ranking zset, author index hash, entry hash
// ARGV: entry id, author id, payload JSON, created_at
// Returns {1, seq} on success, {0, 0} if the contest is gone, {-1, 0} if
// the author already has an entry.
var createEntryScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return {0, 0}
end
if redis.call('HEXISTS', KEYS[3], ARGV[2]) == 1 then
	return {-1, 0}
end
local seq = redis.call('HINCRBY', KEYS[1], 'entry_seq', 1)
redis.call('HSET', KEYS[4],
	'id', ARGV[1],
	'author_id', ARGV[2],
	'payload', ARGV[3],
	'created_at', ARGV[4],
	'seq', seq)
redis.call('HSET', KEYS[3], ARGV[2], ARGV[1])
redis.call('ZADD', KEYS[2], 16777216 - seq, ARGV[1])
return {1, seq}
`)

type EntryRedisRepository struct {
	client *redis.Client
}

func NewEntryRepository(client *redis.Client) *EntryRedisRepository {
	return &EntryRedisRepository{client: client}
}

// Create allocates a fresh entry id and persists the entry. The id is never
// chosen by the client.
func (r *EntryRedisRepository) Create(ctx context.Context, contestID, authorID string, payload domain.CaptionPayload) (*domain.Entry, error) {
	entry := &domain.Entry{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode caption payload: %w", err)
	}

	kb := r.client.KeyBuilder
	keys := []string{
		kb.Contest(contestID),
		kb.Ranking(contestID),
		kb.Authors(contestID),
		kb.Entry(contestID, entry.ID),
	}
	res, err := r.client.RunScript(ctx, createEntryScript, keys,
		entry.ID, authorID, string(payloadJSON), entry.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	status, seq, err := parsePair(res)
	if err != nil {
		return nil, fmt.Errorf("unexpected create entry result: %w", err)
	}
	switch status {
	case 1:
		entry.Seq = seq
		return entry, nil
	case -1:
		return nil, ErrDuplicateEntry
	default:
		return nil, ErrContestNotFound
	}
}

// Get reads one entry. A missing entry under a missing contest reports
// ErrContestNotFound so callers can tell "purged round" from "bad id".
func (r *EntryRedisRepository) Get(ctx context.Context, contestID, entryID string) (*domain.Entry, error) {
	kb := r.client.KeyBuilder
	fields, err := r.client.HGetAll(ctx, kb.Entry(contestID, entryID))
	if err != nil {
		return nil, fmt.Errorf("failed to read entry: %w", err)
	}
	if len(fields) == 0 {
		n, err := r.client.Exists(ctx, kb.Contest(contestID))
		if err != nil {
			return nil, fmt.Errorf("failed to check contest: %w", err)
		}
		if n == 0 {
			return nil, ErrContestNotFound
		}
		return nil, ErrEntryNotFound
	}
	return entryFromFields(fields)
}

// ListAuthoredBy returns the author's entries in the contest. The product
// rule allows one, so this is a zero-or-one lookup through the author index.
func (r *EntryRedisRepository) ListAuthoredBy(ctx context.Context, contestID, authorID string) ([]*domain.Entry, error) {
	kb := r.client.KeyBuilder
	entryID, err := r.client.HGet(ctx, kb.Authors(contestID), authorID)
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read author index: %w", err)
	}

	entry, err := r.Get(ctx, contestID, entryID)
	if err == ErrEntryNotFound || err == ErrContestNotFound {
		// Dangling index reference, e.g. a purge in flight.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []*domain.Entry{entry}, nil
}

func (r *EntryRedisRepository) TopK(ctx context.Context, contestID string, k int) ([]domain.RankedEntry, error) {
	if k <= 0 {
		return nil, nil
	}
	return r.ranked(ctx, contestID, int64(k-1))
}

func (r *EntryRedisRepository) ListRanked(ctx context.Context, contestID string) ([]domain.RankedEntry, error) {
	return r.ranked(ctx, contestID, -1)
}

func (r *EntryRedisRepository) ranked(ctx context.Context, contestID string, stop int64) ([]domain.RankedEntry, error) {
	key := r.client.KeyBuilder.Ranking(contestID)
	zs, err := r.client.ZRevRangeWithScores(ctx, key, 0, stop)
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking index: %w", err)
	}

	ranked := make([]domain.RankedEntry, 0, len(zs))
	for _, z := range zs {
		entryID, ok := z.Member.(string)
		if !ok {
			continue
		}
		ranked = append(ranked, domain.RankedEntry{
			EntryID: entryID,
			Votes:   votesFromScore(z.Score),
		})
	}
	return ranked, nil
}

func entryFromFields(fields map[string]string) (*domain.Entry, error) {
	entry := &domain.Entry{
		ID:       fields["id"],
		AuthorID: fields["author_id"],
	}

	if err := json.Unmarshal([]byte(fields["payload"]), &entry.Payload); err != nil {
		return nil, fmt.Errorf("corrupt entry payload: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("corrupt entry created_at: %w", err)
	}
	entry.CreatedAt = createdAt

	seq, err := strconv.ParseInt(fields["seq"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt entry seq: %w", err)
	}
	entry.Seq = seq

	return entry, nil
}

// parsePair decodes a two-integer Lua reply.
func parsePair(res interface{}) (int64, int64, error) {
	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return 0, 0, fmt.Errorf("want 2-element reply, got %T", res)
	}
	first, ok := vals[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("non-integer reply element %T", vals[0])
	}
	second, ok := vals[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("non-integer reply element %T", vals[1])
	}
	return first, second, nil
}
