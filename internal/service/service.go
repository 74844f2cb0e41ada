package service

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/ClubHub/club-service/internal/config"
	"github.com/ClubHub/club-service/internal/dto"
	"github.com/ClubHub/club-service/internal/model"
	"github.com/ClubHub/club-service/internal/realtime"
	"github.com/ClubHub/club-service/internal/repository"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const DEFAULT_FEED_MAX_LIMIT = 20

func maxLimit(limit *int, max int) {
	if max <= 0 {
		max = DEFAULT_FEED_MAX_LIMIT
	}
	if *limit <= 0 || *limit > max {
		*limit = max
	}
}

// Broker is the part of the message bus the services talk to.
type Broker interface {
	PublishJSON(ctx context.Context, exchange string, key string, body interface{}) error
	Consume(queue string) (<-chan amqp.Delivery, error)
}

type Auth interface {
	Register(ctx context.Context, input dto.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, input dto.LoginRequest) (string, error)
	FindUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type Profile interface {
	Update(ctx context.Context, userID uuid.UUID, input dto.UpdateProfileRequest) (*model.Profile, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, fileHeader *multipart.FileHeader) (string, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
}

type Club interface {
	Create(ctx context.Context, creatorID uuid.UUID, input dto.CreateClubRequest, logo *multipart.FileHeader, cover *multipart.FileHeader) (*model.Club, error)
	JoinByCode(ctx context.Context, userID uuid.UUID, code string) (*model.Club, error)
	Join(ctx context.Context, userID uuid.UUID, clubID int64) error
	Search(ctx context.Context, userID uuid.UUID, query string) ([]*model.ClubSummary, error)
	FindUserClubs(ctx context.Context, userID uuid.UUID) ([]*model.ClubSummary, error)
	FindByID(ctx context.Context, clubID int64) (*model.Club, error)
	IsAdmin(ctx context.Context, clubID int64, userID uuid.UUID) (bool, error)
	RegenerateCode(ctx context.Context, clubID int64) (string, error)
}

type Post interface {
	Create(ctx context.Context, clubID int64, authorID uuid.UUID, input dto.CreatePostRequest, image *multipart.FileHeader) (*model.Post, error)
	FindByID(ctx context.Context, id int64) (*model.FullPost, error)
	Feed(ctx context.Context, clubID int64, userID uuid.UUID, limit int, offset int) ([]*dto.FeedItem, error)
	Delete(ctx context.Context, postID int64, userID uuid.UUID) error
}

type Comment interface {
	Create(ctx context.Context, postID int64, authorID uuid.UUID, input dto.CreateCommentRequest) (*model.Comment, error)
	FindThread(ctx context.Context, postID int64) ([]*model.CommentNode, error)
	Delete(ctx context.Context, postID int64, commentID int64, authorID uuid.UUID) error
}

type Engagement interface {
	ToggleLike(ctx context.Context, postID int64, userID uuid.UUID) (dto.LikeState, error)
	LikeState(ctx context.Context, postID int64, userID uuid.UUID) (dto.LikeState, error)
	ToggleRSVP(ctx context.Context, postID int64, userID uuid.UUID) (dto.RSVPState, error)
	RSVPState(ctx context.Context, postID int64, userID uuid.UUID) (dto.RSVPState, error)
	Subscribe(postID int64) (<-chan model.EngagementUpdate, func())
}

type Poll interface {
	Vote(ctx context.Context, postID int64, userID uuid.UUID, option string) (*model.PollTally, error)
	Tally(ctx context.Context, postID int64, userID uuid.UUID) (*model.PollTally, error)
}

type Event interface {
	FindUpcoming(ctx context.Context, userID uuid.UUID) ([]*model.FullPost, error)
}

type Service struct {
	Auth
	Profile
	Club
	Post
	Comment
	Engagement
	Poll
	Event
	consumer *engagementConsumer
}

func New(logger *zap.Logger, repo *repository.Repository, broker Broker, hub *realtime.Hub, cfg config.AppConfig) *Service {
	cdn := newCDNClient(logger, &http.Client{}, cfg.CDNOrigin)
	engagement := newEngagementService(logger, repo, broker, hub, cfg)
	poll := newPollService(logger, repo)

	return &Service{
		Auth:       newAuthService(logger, repo, cfg),
		Profile:    newProfileService(logger, repo, cdn, cfg),
		Club:       newClubService(logger, repo, cdn, cfg),
		Post:       newPostService(logger, repo, cdn, engagement, poll, cfg),
		Comment:    newCommentService(logger, repo),
		Engagement: engagement,
		Poll:       poll,
		Event:      newEventService(logger, repo),
		consumer:   newEngagementConsumer(logger, repo, broker, hub),
	}
}

// StartConsumeAll blocks until every consumer has stopped.
func (s *Service) StartConsumeAll(ctx context.Context) {
	s.consumer.consumeEngagementUpdates(ctx)
}
