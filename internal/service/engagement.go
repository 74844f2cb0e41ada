package service

import (
	"context"
	"time"

	"github.com/ClubHub/club-service/internal/config"
	"github.com/ClubHub/club-service/internal/dto"
	"github.com/ClubHub/club-service/internal/engagement"
	"github.com/ClubHub/club-service/internal/model"
	"github.com/ClubHub/club-service/internal/rabbitmq"
	"github.com/ClubHub/club-service/internal/realtime"
	"github.com/ClubHub/club-service/internal/repository"
	"github.com/ClubHub/club-service/internal/repository/redisrepo"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type engagementService struct {
	logger *zap.Logger
	repo   *repository.Repository
	broker Broker
	hub    *realtime.Hub
	ttl    time.Duration
}

func newEngagementService(logger *zap.Logger, repo *repository.Repository, broker Broker, hub *realtime.Hub, cfg config.AppConfig) *engagementService {
	return &engagementService{
		logger: logger,
		repo:   repo,
		broker: broker,
		hub:    hub,
		ttl:    cacheTTL(cfg),
	}
}

func (s *engagementService) store(relation model.Relation) engagement.Store {
	if relation == model.RelationRSVPs {
		return s.repo.Postgres.RSVPs
	}
	return s.repo.Postgres.Likes
}

// counter seeds a Counter from the cached count when there is one, otherwise from postgres.
func (s *engagementService) counter(ctx context.Context, postID int64, userID uuid.UUID, relation model.Relation) (*engagement.Counter, error) {
	store := s.store(relation)
	counter := engagement.NewCounter(store, postID)
	key := redisrepo.EngagementCountKey(postID, relation)

	count, err := s.repo.Redis.Default.Get(ctx, key).Int64()
	if err != nil {
		if err != redis.Nil {
			s.logger.Sugar().Errorf("failed to get post(%d) %s count from redis: %s", postID, relation, err.Error())
			return nil, ErrInternal
		}

		state, err := counter.Load(ctx, userID)
		if err != nil {
			s.logger.Sugar().Errorf("failed to load post(%d) %s from postgres: %s", postID, relation, err.Error())
			return nil, ErrInternal
		}

		if err := s.repo.Redis.Default.Set(ctx, key, state.Count, s.ttl); err != nil {
			s.logger.Sugar().Errorf("failed to set post(%d) %s count in redis: %s", postID, relation, err.Error())
		}

		return counter, nil
	}

	active := false
	if userID != uuid.Nil {
		active, err = store.Exists(ctx, postID, userID)
		if err != nil {
			s.logger.Sugar().Errorf("failed to check user(%s) %s on post(%d): %s", userID.String(), relation, postID, err.Error())
			return nil, ErrInternal
		}
	}

	counter.Restore(model.EngagementState{Count: count, Active: active})

	return counter, nil
}

func (s *engagementService) state(ctx context.Context, postID int64, userID uuid.UUID, relation model.Relation) (model.EngagementState, error) {
	counter, err := s.counter(ctx, postID, userID, relation)
	if err != nil {
		return model.EngagementState{}, err
	}

	return counter.State(), nil
}

// toggle flips the user's record on a post of a club the user belongs to.
func (s *engagementService) toggle(ctx context.Context, post *model.Post, userID uuid.UUID, relation model.Relation) (model.EngagementState, error) {
	if userID == uuid.Nil {
		return model.EngagementState{}, ErrNoUser
	}

	if err := checkMember(ctx, s.logger, s.repo, post.ClubID, userID); err != nil {
		return model.EngagementState{}, err
	}

	postID := post.ID
	counter, err := s.counter(ctx, postID, userID, relation)
	if err != nil {
		return model.EngagementState{}, err
	}

	state, err := counter.Toggle(ctx, userID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to toggle user(%s) %s on post(%d): %s", userID.String(), relation, postID, err.Error())
		return state, ErrInternal
	}

	if err := s.repo.Redis.Default.Del(ctx, redisrepo.EngagementCountKey(postID, relation)).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete post(%d) %s count from redis: %s", postID, relation, err.Error())
	}

	s.announce(ctx, dto.MQEngagementChangedMsg{
		PostID:    postID,
		UserID:    userID,
		Relation:  relation,
		Count:     state.Count,
		Active:    state.Active,
		CreatedAt: time.Now(),
	})

	return state, nil
}

// announce publishes the change on the bus. When the bus is unavailable local
// subscribers are still notified directly.
func (s *engagementService) announce(ctx context.Context, msg dto.MQEngagementChangedMsg) {
	update := msg.Update()

	if s.broker == nil {
		s.hub.Publish(update)
		return
	}

	if err := s.broker.PublishJSON(ctx, rabbitmq.ENGAGEMENT_EXCHANGE, rabbitmq.ENGAGEMENT_CHANGED_KEY, msg); err != nil {
		s.logger.Sugar().Errorf("failed to publish post(%d) %s change: %s", msg.PostID, msg.Relation, err.Error())
		s.hub.Publish(update)
	}
}

func (s *engagementService) ToggleLike(ctx context.Context, postID int64, userID uuid.UUID) (dto.LikeState, error) {
	post, err := findPost(ctx, s.logger, s.repo, postID)
	if err != nil {
		return dto.LikeState{}, err
	}

	state, err := s.toggle(ctx, &post.Post, userID, model.RelationLikes)
	if err != nil {
		return dto.LikeState{}, err
	}

	return dto.NewLikeState(state), nil
}

func (s *engagementService) LikeState(ctx context.Context, postID int64, userID uuid.UUID) (dto.LikeState, error) {
	if _, err := findPost(ctx, s.logger, s.repo, postID); err != nil {
		return dto.LikeState{}, err
	}

	state, err := s.state(ctx, postID, userID, model.RelationLikes)
	if err != nil {
		return dto.LikeState{}, err
	}

	return dto.NewLikeState(state), nil
}

func (s *engagementService) findEvent(ctx context.Context, postID int64) (*model.FullPost, error) {
	post, err := findPost(ctx, s.logger, s.repo, postID)
	if err != nil {
		return nil, err
	}
	if post.Post.Kind != model.PostKindEvent {
		return nil, ErrNotAnEvent
	}

	return post, nil
}

func (s *engagementService) ToggleRSVP(ctx context.Context, postID int64, userID uuid.UUID) (dto.RSVPState, error) {
	event, err := s.findEvent(ctx, postID)
	if err != nil {
		return dto.RSVPState{}, err
	}

	state, err := s.toggle(ctx, &event.Post, userID, model.RelationRSVPs)
	if err != nil {
		return dto.RSVPState{}, err
	}

	return dto.NewRSVPState(state), nil
}

func (s *engagementService) RSVPState(ctx context.Context, postID int64, userID uuid.UUID) (dto.RSVPState, error) {
	if _, err := s.findEvent(ctx, postID); err != nil {
		return dto.RSVPState{}, err
	}

	state, err := s.state(ctx, postID, userID, model.RelationRSVPs)
	if err != nil {
		return dto.RSVPState{}, err
	}

	return dto.NewRSVPState(state), nil
}

func (s *engagementService) Subscribe(postID int64) (<-chan model.EngagementUpdate, func()) {
	return s.hub.Subscribe(postID)
}
