package service

import (
	"context"
	"strings"
	"time"

	"github.com/ClubHub/club-service/internal/engagement"
	"github.com/ClubHub/club-service/internal/model"
	"github.com/ClubHub/club-service/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type pollService struct {
	logger *zap.Logger
	repo   *repository.Repository
}

func newPollService(logger *zap.Logger, repo *repository.Repository) *pollService {
	return &pollService{
		logger: logger,
		repo:   repo,
	}
}

func (s *pollService) findPoll(ctx context.Context, postID int64) (*model.Post, error) {
	post, err := findPost(ctx, s.logger, s.repo, postID)
	if err != nil {
		return nil, err
	}
	if post.Post.Kind != model.PostKindPoll {
		return nil, ErrNotAPoll
	}

	return &post.Post, nil
}

// Vote records the user's selection, replacing any earlier one, and returns the recomputed tally.
func (s *pollService) Vote(ctx context.Context, postID int64, userID uuid.UUID, option string) (*model.PollTally, error) {
	if userID == uuid.Nil {
		return nil, ErrNoUser
	}

	poll, err := s.findPoll(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := checkMember(ctx, s.logger, s.repo, poll.ClubID, userID); err != nil {
		return nil, err
	}

	option = strings.TrimSpace(option)
	if !acceptsOption(poll, option) {
		return nil, ErrInvalidOption
	}

	if err := s.repo.Postgres.PollResponse.Upsert(ctx, model.PollResponse{
		PostID:         postID,
		UserID:         userID,
		SelectedOption: option,
		CreatedAt:      time.Now(),
	}); err != nil {
		s.logger.Sugar().Errorf("failed to save user(%s) vote on poll(%d): %s", userID.String(), postID, err.Error())
		return nil, ErrInternal
	}

	return s.tally(ctx, poll, userID)
}

func acceptsOption(poll *model.Post, option string) bool {
	if option == "" {
		return false
	}
	if poll.OpenEnded() {
		return true
	}
	for _, opt := range poll.PollOptions {
		if opt == option {
			return true
		}
	}
	return false
}

func (s *pollService) Tally(ctx context.Context, postID int64, userID uuid.UUID) (*model.PollTally, error) {
	poll, err := s.findPoll(ctx, postID)
	if err != nil {
		return nil, err
	}

	return s.tally(ctx, poll, userID)
}

func (s *pollService) tally(ctx context.Context, poll *model.Post, userID uuid.UUID) (*model.PollTally, error) {
	responses, err := s.repo.Postgres.PollResponse.FindByPost(ctx, poll.ID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find poll(%d) responses: %s", poll.ID, err.Error())
		return nil, ErrInternal
	}

	tally := engagement.Tally(poll.PollOptions, responses, userID)
	return &tally, nil
}
