package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"captionclash/internal/domain"
	"captionclash/internal/repository"
	apperrors "captionclash/pkg/errors"
	"captionclash/pkg/logger"
)

const settlementTimeout = 30 * time.Second

// ContestService owns the contest lifecycle and the settlement engine.
//
// Settlement is a state machine: Scheduled (job pending with the scheduler)
// → Running (job fired, winners published) → Completed (state purged), or
// Scheduled → Cancelled when a moderator deletes the round before the
// deadline. The scheduler delivers at least once; a redelivery finds the
// contest record already purged and stops, which is what makes the whole
// path idempotent.
type ContestService struct {
	contests        repository.ContestRepository
	entries         repository.EntryRepository
	publisher       Publisher
	archive         repository.ArchiveRepository // optional
	scheduler       Scheduler
	topK            int
	defaultDuration time.Duration
	log             *logger.Logger
}

func NewContestService(
	contests repository.ContestRepository,
	entries repository.EntryRepository,
	publisher Publisher,
	archive repository.ArchiveRepository,
	scheduler Scheduler,
	topK int,
	defaultDuration time.Duration,
	log *logger.Logger,
) *ContestService {
	return &ContestService{
		contests:        contests,
		entries:         entries,
		publisher:       publisher,
		archive:         archive,
		scheduler:       scheduler,
		topK:            topK,
		defaultDuration: defaultDuration,
		log:             log,
	}
}

// CreateContest opens a new round: persists the record, marks it active,
// and schedules its settlement. Only one round may be active at a time.
func (s *ContestService) CreateContest(ctx context.Context, imageRef string, duration time.Duration) (*domain.Contest, error) {
	if imageRef == "" {
		return nil, apperrors.NewValidationError("imageRef is required")
	}
	if duration <= 0 {
		duration = s.defaultDuration
	}

	currentID, err := s.contests.CurrentID(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to resolve active contest", err)
	}
	if currentID != "" {
		if _, err := s.contests.Get(ctx, currentID); err == nil {
			return nil, apperrors.NewValidationError("a contest is already active")
		}
		// Stale pointer from an interrupted purge; fall through and replace it.
	}

	now := time.Now().UTC()
	contest := &domain.Contest{
		ID:        uuid.NewString(),
		ImageRef:  imageRef,
		CreatedAt: now,
		Deadline:  now.Add(duration),
	}

	if err := s.contests.Create(ctx, contest); err != nil {
		return nil, apperrors.NewInternalError("failed to create contest", err)
	}
	if err := s.contests.SetCurrentID(ctx, contest.ID); err != nil {
		return nil, apperrors.NewInternalError("failed to activate contest", err)
	}

	jobID := s.scheduler.ScheduleAt(contest.Deadline, contest.ID)
	if err := s.contests.SetJobID(ctx, contest.ID, jobID); err != nil {
		// The contest vanished between creation and scheduling; revoke
		// the timer so settlement can never run for a dead contest.
		s.scheduler.Cancel(jobID)
		return nil, apperrors.NewNotFoundError("contest was cancelled")
	}
	contest.JobID = jobID

	s.log.WithFields(map[string]interface{}{
		"contest_id": contest.ID,
		"image_ref":  contest.ImageRef,
		"deadline":   contest.Deadline,
		"job_id":     jobID,
	}).Info("Contest created")

	return contest, nil
}

// Cancel tears down a round before its deadline: the pending settlement
// job is revoked first so Running can never start, then all state is purged.
func (s *ContestService) Cancel(ctx context.Context, contestID string) error {
	contest, err := s.contests.Get(ctx, contestID)
	if errors.Is(err, repository.ErrContestNotFound) {
		return apperrors.NewNotFoundError("contest not found")
	}
	if err != nil {
		return apperrors.NewInternalError("failed to load contest", err)
	}

	if contest.JobID != "" {
		s.scheduler.Cancel(contest.JobID)
	}

	if err := s.purge(ctx, contestID); err != nil {
		return apperrors.NewInternalError("failed to purge contest", err)
	}

	s.log.WithField("contest_id", contestID).Info("Contest cancelled")
	return nil
}

// HandleSettlementDue is the scheduler callback. It runs settlement with
// its own context because the firing goroutine has none.
func (s *ContestService) HandleSettlementDue(contestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), settlementTimeout)
	defer cancel()

	if err := s.Settle(ctx, contestID); err != nil {
		s.log.WithError(err).WithField("contest_id", contestID).Error("Settlement failed")
	}
}

// Settle runs the Running phase: read the top-K captions, publish each one
// continuing past individual failures, then purge all contest state. A
// second delivery for an already-settled contest is a no-op.
func (s *ContestService) Settle(ctx context.Context, contestID string) error {
	contest, err := s.contests.Get(ctx, contestID)
	if errors.Is(err, repository.ErrContestNotFound) {
		s.log.WithField("contest_id", contestID).Debug("Settlement trigger for purged contest, ignoring")
		return nil
	}
	if err != nil {
		return err
	}

	s.log.WithField("contest_id", contestID).Info("Settlement running")

	top, err := s.entries.TopK(ctx, contestID, s.topK)
	if err != nil {
		return err
	}

	settledAt := time.Now().UTC()
	winners := make([]domain.SettledCaption, 0, len(top))
	for i, ranked := range top {
		entry, err := s.entries.Get(ctx, contestID, ranked.EntryID)
		if errors.Is(err, repository.ErrEntryNotFound) || errors.Is(err, repository.ErrContestNotFound) {
			s.log.WithFields(map[string]interface{}{
				"contest_id": contestID,
				"entry_id":   ranked.EntryID,
			}).Warn("Skipping ranking record with no entry")
			continue
		}
		if err != nil {
			s.log.WithError(err).WithField("entry_id", ranked.EntryID).Error("Failed to load winning entry")
			continue
		}

		postRef, err := s.publisher.Publish(ctx, contest.ImageRef, entry.Payload)
		if err != nil {
			// One bad publish must not abort the others. Logged, not retried.
			s.log.WithError(err).WithFields(map[string]interface{}{
				"contest_id": contestID,
				"entry_id":   entry.ID,
				"rank":       i + 1,
			}).Error("Failed to publish winning caption")
			continue
		}

		winners = append(winners, domain.SettledCaption{
			ContestID: contestID,
			EntryID:   entry.ID,
			AuthorID:  entry.AuthorID,
			Rank:      i + 1,
			Votes:     ranked.Votes,
			Payload:   entry.Payload,
			PostRef:   postRef,
			SettledAt: settledAt,
		})
	}

	if s.archive != nil && len(winners) > 0 {
		if err := s.archive.RecordSettlement(ctx, winners); err != nil {
			// The archive is an audit trail; its failure never blocks the purge.
			s.log.WithError(err).WithField("contest_id", contestID).Error("Failed to archive settlement")
		}
	}

	if err := s.purge(ctx, contestID); err != nil {
		return err
	}

	s.log.WithFields(map[string]interface{}{
		"contest_id": contestID,
		"published":  len(winners),
	}).Info("Settlement completed")

	return nil
}

func (s *ContestService) purge(ctx context.Context, contestID string) error {
	if err := s.contests.Purge(ctx, contestID); err != nil {
		return err
	}
	return s.contests.ClearCurrentID(ctx, contestID)
}
