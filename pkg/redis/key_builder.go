package redis

import "fmt"

// Key patterns for contest state. Every key is scoped to a contest id so
// settlement can purge a round without touching anything else.
const (
	KeyCurrentContest = "caption:current_contest"
	KeyContest        = "caption:contest:%s"
	KeyContestRanking = "caption:contest:%s:ranking"
	KeyContestAuthors = "caption:contest:%s:authors"
	KeyContestEntry   = "caption:contest:%s:entry:%s"
	KeyEntryVoters    = "caption:contest:%s:entry:%s:voters"
)

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyCurrent returns the pointer key naming the active contest.
func (kb *KeyBuilder) KeyCurrent() string {
	return kb.BuildKey(KeyCurrentContest)
}

// Contest returns the contest record hash key.
func (kb *KeyBuilder) Contest(contestID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyContest, contestID))
}

// Ranking returns the per-contest ranking sorted-set key.
func (kb *KeyBuilder) Ranking(contestID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyContestRanking, contestID))
}

// Authors returns the per-contest author index hash key.
func (kb *KeyBuilder) Authors(contestID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyContestAuthors, contestID))
}

// Entry returns the entry record key.
func (kb *KeyBuilder) Entry(contestID, entryID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyContestEntry, contestID, entryID))
}

// Voters returns the per-entry voter set key.
func (kb *KeyBuilder) Voters(contestID, entryID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyEntryVoters, contestID, entryID))
}
