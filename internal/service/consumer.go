package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ClubHub/club-service/internal/dto"
	"github.com/ClubHub/club-service/internal/model"
	"github.com/ClubHub/club-service/internal/rabbitmq"
	"github.com/ClubHub/club-service/internal/realtime"
	"github.com/ClubHub/club-service/internal/repository"
	"github.com/ClubHub/club-service/internal/repository/redisrepo"
	"github.com/mitchellh/mapstructure"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var errMalformedUpdate = errors.New("malformed engagement update")

type engagementConsumer struct {
	logger *zap.Logger
	repo   *repository.Repository
	broker Broker
	hub    *realtime.Hub
}

func newEngagementConsumer(logger *zap.Logger, repo *repository.Repository, broker Broker, hub *realtime.Hub) *engagementConsumer {
	return &engagementConsumer{
		logger: logger,
		repo:   repo,
		broker: broker,
		hub:    hub,
	}
}

func (s *engagementConsumer) consumeEngagementUpdates(ctx context.Context) {
	if s.broker == nil {
		return
	}

	queue := rabbitmq.ENGAGEMENT_UPDATES_QUEUE
	msgs, err := s.broker.Consume(queue)
	if err != nil {
		s.logger.Sugar().Errorf("failed to start consume updates from queue(%s): %s", queue, err.Error())
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				s.logger.Sugar().Infof("queue(%s) delivery channel closed", queue)
				return
			}
			s.handleDelivery(ctx, msg)
		}
	}
}

func (s *engagementConsumer) handleDelivery(ctx context.Context, msg amqp.Delivery) {
	queue := rabbitmq.ENGAGEMENT_UPDATES_QUEUE

	update, err := decodeEngagementUpdate(msg.Body)
	if err != nil {
		s.logger.Sugar().Errorf("failed to decode message in queue(%s): %s", queue, err.Error())
		msg.Nack(false, false)
		return
	}

	if err := s.apply(ctx, update); err != nil {
		msg.Nack(false, true)
		return
	}

	msg.Ack(false)
}

func decodeEngagementUpdate(body []byte) (model.EngagementUpdate, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return model.EngagementUpdate{}, err
	}

	if _, exists := data["post_id"]; !exists {
		return model.EngagementUpdate{}, errMalformedUpdate
	}

	var msg dto.MQEngagementChangedMsg
	if err := mapstructure.Decode(data, &msg); err != nil {
		return model.EngagementUpdate{}, err
	}

	if msg.PostID <= 0 {
		return model.EngagementUpdate{}, errMalformedUpdate
	}
	if msg.Relation != model.RelationLikes && msg.Relation != model.RelationRSVPs {
		return model.EngagementUpdate{}, errMalformedUpdate
	}

	return msg.Update(), nil
}

// apply drops the cached count and pushes the new one to stream subscribers.
func (s *engagementConsumer) apply(ctx context.Context, update model.EngagementUpdate) error {
	if err := s.repo.Redis.Default.Del(ctx, redisrepo.EngagementCountKey(update.PostID, update.Relation)).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete post(%d) %s count from redis: %s", update.PostID, update.Relation, err.Error())
		return ErrInternal
	}

	s.hub.Publish(update)

	return nil
}
