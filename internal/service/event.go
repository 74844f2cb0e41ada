package service

import (
	"context"
	"time"

	"github.com/ClubHub/club-service/internal/model"
	"github.com/ClubHub/club-service/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type eventService struct {
	logger *zap.Logger
	repo   *repository.Repository
	now    func() time.Time
}

func newEventService(logger *zap.Logger, repo *repository.Repository) Event {
	return &eventService{
		logger: logger,
		repo:   repo,
		now:    time.Now,
	}
}

// FindUpcoming lists events the user RSVP'd to that have not started yet, soonest first.
func (s *eventService) FindUpcoming(ctx context.Context, userID uuid.UUID) ([]*model.FullPost, error) {
	events, err := s.repo.Postgres.Post.FindRSVPedEventsAfter(ctx, userID, s.now())
	if err != nil {
		s.logger.Sugar().Errorf("failed to find user(%s) upcoming events: %s", userID.String(), err.Error())
		return nil, ErrInternal
	}

	return events, nil
}
