package repository

// The ranking index stores a composite score per entry:
//
//	score = votes*2^24 + (2^24 - seq)
//
// where seq is the per-contest insertion sequence (starting at 1). ZREVRANGE
// then yields highest vote count first, and within a vote count the earliest
// submission first, without a second sort key. The logical score (the vote
// count) is the high part. seq stays well below 2^24 and the composite well
// below 2^53, so the float64 scores Redis uses are exact.
const rankShift = 1 << 24

// votesFromScore recovers the vote count from a composite ranking score.
func votesFromScore(score float64) int64 {
	return int64(score) / rankShift
}
