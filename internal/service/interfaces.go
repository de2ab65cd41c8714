package service

import (
	"context"
	"time"

	"captionclash/internal/domain"
)

// Scheduler is the external timer contract: one pending settlement job per
// contest, delivered at least once at or after the requested time.
type Scheduler interface {
	// ScheduleAt registers a job firing at t with the given payload and
	// returns its job id.
	ScheduleAt(t time.Time, payload string) string
	// Cancel revokes a pending job. Returns false if it already fired or
	// never existed.
	Cancel(jobID string) bool
}

// Publisher is the external renderer/publisher contract: it composites the
// caption onto the contest image and re-publishes it on the platform.
type Publisher interface {
	Publish(ctx context.Context, imageRef string, caption domain.CaptionPayload) (string, error)
}

// AuthService resolves platform bearer tokens into identities.
type AuthService interface {
	ParseToken(ctx context.Context, token string) (*domain.Identity, error)
}
