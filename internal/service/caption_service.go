package service

import (
	"context"
	"errors"

	"captionclash/internal/domain"
	"captionclash/internal/repository"
	apperrors "captionclash/pkg/errors"
	"captionclash/pkg/logger"
)

// CaptionService implements the user-facing operations of the active round:
// submitting a caption, toggling upvotes, and listing the ranked captions.
type CaptionService struct {
	contests repository.ContestRepository
	entries  repository.EntryRepository
	votes    repository.VoteRepository
	log      *logger.Logger
}

func NewCaptionService(
	contests repository.ContestRepository,
	entries repository.EntryRepository,
	votes repository.VoteRepository,
	log *logger.Logger,
) *CaptionService {
	return &CaptionService{
		contests: contests,
		entries:  entries,
		votes:    votes,
		log:      log,
	}
}

// CreateCaption submits a caption for the active contest. One caption per
// author per contest; payloads with no text in any banner are rejected.
func (s *CaptionService) CreateCaption(ctx context.Context, userID string, payload domain.CaptionPayload) (*domain.Entry, error) {
	if payload.Empty() {
		return nil, apperrors.NewValidationError("at least one caption text field is required")
	}

	contestID, err := s.activeContestID(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := s.entries.Create(ctx, contestID, userID, payload)
	switch {
	case errors.Is(err, repository.ErrDuplicateEntry):
		return nil, apperrors.NewValidationError("you already have a caption in this contest")
	case errors.Is(err, repository.ErrContestNotFound):
		return nil, apperrors.NewNotFoundError("contest is no longer active")
	case err != nil:
		return nil, apperrors.NewInternalError("failed to create caption", err)
	}

	s.log.WithFields(map[string]interface{}{
		"contest_id": contestID,
		"entry_id":   entry.ID,
	}).Info("Caption created")

	return entry, nil
}

// MyCaption returns the caller's entry in the active contest, so the client
// can show what they already submitted without scanning the full list.
func (s *CaptionService) MyCaption(ctx context.Context, userID string) (*domain.Entry, error) {
	contestID, err := s.activeContestID(ctx)
	if err != nil {
		return nil, err
	}

	authored, err := s.entries.ListAuthoredBy(ctx, contestID, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load caption", err)
	}
	if len(authored) == 0 {
		return nil, apperrors.NewNotFoundError("you have no caption in this contest")
	}
	return authored[0], nil
}

// ToggleUpvote flips the caller's vote on an entry and returns the new
// membership state. Authors cannot vote on their own entry; that policy
// lives here, where the identity is known, not in the vote store.
func (s *CaptionService) ToggleUpvote(ctx context.Context, userID, entryID string) (bool, error) {
	contestID, err := s.activeContestID(ctx)
	if err != nil {
		return false, err
	}

	entry, err := s.entries.Get(ctx, contestID, entryID)
	switch {
	case errors.Is(err, repository.ErrEntryNotFound), errors.Is(err, repository.ErrContestNotFound):
		return false, apperrors.NewNotFoundError("caption not found")
	case err != nil:
		return false, apperrors.NewInternalError("failed to load caption", err)
	}

	if entry.AuthorID == userID {
		return false, apperrors.NewValidationError("you cannot upvote your own caption")
	}

	upvoted, count, err := s.votes.Toggle(ctx, contestID, entryID, userID)
	switch {
	case errors.Is(err, repository.ErrEntryNotFound), errors.Is(err, repository.ErrContestNotFound):
		return false, apperrors.NewNotFoundError("caption not found")
	case err != nil:
		return false, apperrors.NewInternalError("failed to toggle vote", err)
	}

	s.log.WithFields(map[string]interface{}{
		"contest_id": contestID,
		"entry_id":   entryID,
		"upvoted":    upvoted,
		"votes":      count,
	}).Debug("Vote toggled")

	return upvoted, nil
}

// ListCaptions returns every caption in the active contest in rank order,
// with vote counts and whether the caller has upvoted each one.
func (s *CaptionService) ListCaptions(ctx context.Context, userID string) ([]domain.EntryWithUpvotes, error) {
	contestID, err := s.activeContestID(ctx)
	if err != nil {
		return nil, err
	}

	ranked, err := s.entries.ListRanked(ctx, contestID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read ranking", err)
	}

	captions := make([]domain.EntryWithUpvotes, 0, len(ranked))
	for _, r := range ranked {
		entry, err := s.entries.Get(ctx, contestID, r.EntryID)
		if errors.Is(err, repository.ErrEntryNotFound) || errors.Is(err, repository.ErrContestNotFound) {
			// Dangling ranking record, e.g. a purge in flight. Skip it.
			s.log.WithFields(map[string]interface{}{
				"contest_id": contestID,
				"entry_id":   r.EntryID,
			}).Warn("Skipping ranking record with no entry")
			continue
		}
		if err != nil {
			return nil, apperrors.NewInternalError("failed to load caption", err)
		}

		userUpvoted := false
		if userID != "" {
			userUpvoted, err = s.votes.HasVoted(ctx, contestID, r.EntryID, userID)
			if err != nil {
				return nil, apperrors.NewInternalError("failed to check vote", err)
			}
		}

		captions = append(captions, domain.EntryWithUpvotes{
			Entry:       *entry,
			Upvotes:     r.Votes,
			UserUpvoted: userUpvoted,
		})
	}

	return captions, nil
}

// ImageURL returns the active contest's image reference.
func (s *CaptionService) ImageURL(ctx context.Context) (string, error) {
	contestID, err := s.activeContestID(ctx)
	if err != nil {
		return "", err
	}

	contest, err := s.contests.Get(ctx, contestID)
	if errors.Is(err, repository.ErrContestNotFound) {
		return "", apperrors.NewNotFoundError("no active contest")
	}
	if err != nil {
		return "", apperrors.NewInternalError("failed to load contest", err)
	}

	return contest.ImageRef, nil
}

func (s *CaptionService) activeContestID(ctx context.Context) (string, error) {
	contestID, err := s.contests.CurrentID(ctx)
	if err != nil {
		return "", apperrors.NewInternalError("failed to resolve active contest", err)
	}
	if contestID == "" {
		return "", apperrors.NewNotFoundError("no active contest")
	}
	return contestID, nil
}
