package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/ClubHub/club-service/internal/config"
	"github.com/ClubHub/club-service/internal/dto"
	"github.com/ClubHub/club-service/internal/model"
	"github.com/ClubHub/club-service/internal/repository"
	"github.com/ClubHub/club-service/internal/repository/redisrepo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	FEED_DECORATE_WORKERS = 8
	FEED_SCAN_COUNT       = 100
)

func findPost(ctx context.Context, logger *zap.Logger, repo *repository.Repository, postID int64) (*model.FullPost, error) {
	post, err := repo.Postgres.Post.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		logger.Sugar().Errorf("failed to find post(%d) from postgres: %s", postID, err.Error())
		return nil, ErrInternal
	}

	return post, nil
}

type postService struct {
	logger     *zap.Logger
	repo       *repository.Repository
	uploader   imageUploader
	engagement *engagementService
	poll       *pollService
	maxLimit   int
	ttl        time.Duration
}

func newPostService(logger *zap.Logger, repo *repository.Repository, uploader imageUploader, engagement *engagementService, poll *pollService, cfg config.AppConfig) Post {
	return &postService{
		logger:     logger,
		repo:       repo,
		uploader:   uploader,
		engagement: engagement,
		poll:       poll,
		maxLimit:   cfg.FeedMaxLimit,
		ttl:        cacheTTL(cfg),
	}
}

func validatePost(input *dto.CreatePostRequest) error {
	if !input.Kind.Valid() {
		return ErrInvalidPostKind
	}

	if input.Kind != model.PostKindEvent {
		input.EventTime = nil
	} else if input.EventTime == nil || input.EventTime.IsZero() {
		return ErrEventTimeRequired
	}

	if input.Kind != model.PostKindPoll {
		input.PollOptions = []string{}
		return nil
	}

	seen := make(map[string]bool, len(input.PollOptions))
	options := make([]string, 0, len(input.PollOptions))
	for _, opt := range input.PollOptions {
		opt = strings.TrimSpace(opt)
		if opt == "" || seen[opt] {
			return ErrInvalidPollOptions
		}
		seen[opt] = true
		options = append(options, opt)
	}
	if len(options) == 1 {
		return ErrInvalidPollOptions
	}
	input.PollOptions = options

	return nil
}

// checkMember guards every read of a club feed and every write on a club's posts.
func checkMember(ctx context.Context, logger *zap.Logger, repo *repository.Repository, clubID int64, userID uuid.UUID) error {
	isMember, err := repo.Postgres.Club.IsMember(ctx, clubID, userID)
	if err != nil {
		logger.Sugar().Errorf("failed to check if user(%s) is member of club(%d): %s", userID.String(), clubID, err.Error())
		return ErrInternal
	}
	if !isMember {
		return ErrNotMember
	}

	return nil
}

func (s *postService) checkMember(ctx context.Context, clubID int64, userID uuid.UUID) error {
	return checkMember(ctx, s.logger, s.repo, clubID, userID)
}

func (s *postService) Create(ctx context.Context, clubID int64, authorID uuid.UUID, input dto.CreatePostRequest, image *multipart.FileHeader) (*model.Post, error) {
	if err := validatePost(&input); err != nil {
		return nil, err
	}

	if err := s.checkMember(ctx, clubID, authorID); err != nil {
		return nil, err
	}

	imageURL, err := uploadOptional(ctx, s.uploader, POST_IMAGES_PATH, image)
	if err != nil {
		return nil, err
	}

	createdPost, err := s.repo.Postgres.Post.Create(ctx, model.Post{
		ClubID:      clubID,
		AuthorID:    authorID,
		Kind:        input.Kind,
		Content:     strings.TrimSpace(input.Content),
		ImageURL:    imageURL,
		EventTime:   input.EventTime,
		PollOptions: input.PollOptions,
	})
	if err != nil {
		s.logger.Sugar().Errorf("failed to create user(%s) post in club(%d): %s", authorID.String(), clubID, err.Error())
		return nil, ErrInternal
	}

	s.invalidateFeed(ctx, clubID)

	return createdPost, nil
}

func (s *postService) FindByID(ctx context.Context, id int64) (*model.FullPost, error) {
	return findPost(ctx, s.logger, s.repo, id)
}

// Feed returns the club's posts newest first, each decorated with the user's engagement.
func (s *postService) Feed(ctx context.Context, clubID int64, userID uuid.UUID, limit int, offset int) ([]*dto.FeedItem, error) {
	maxLimit(&limit, s.maxLimit)
	if offset < 0 {
		offset = 0
	}

	if err := s.checkMember(ctx, clubID, userID); err != nil {
		return nil, err
	}

	posts, err := s.findFeedPosts(ctx, clubID, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.FeedItem, len(posts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(FEED_DECORATE_WORKERS)
	for i, post := range posts {
		g.Go(func() error {
			item, err := s.decorate(gctx, post, userID)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return items, nil
}

func (s *postService) findFeedPosts(ctx context.Context, clubID int64, limit int, offset int) ([]*model.FullPost, error) {
	key := redisrepo.ClubFeedKey(clubID, limit, offset)

	cachedPosts, err := redisrepo.GetMany[model.FullPost](s.repo.Redis.Default, ctx, key)
	if err == nil && cachedPosts != nil {
		return cachedPosts, nil
	}
	if err != nil && err != redis.Nil {
		s.logger.Sugar().Errorf("failed to get club(%d) feed from redis: %s", clubID, err.Error())
		return nil, ErrInternal
	}

	posts, err := s.repo.Postgres.Post.FindClubFeed(ctx, clubID, limit, offset)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find club(%d) feed from postgres: %s", clubID, err.Error())
		return nil, ErrInternal
	}

	if err := s.repo.Redis.Default.SetJSON(ctx, key, posts, s.ttl); err != nil {
		s.logger.Sugar().Errorf("failed to set club(%d) feed in redis: %s", clubID, err.Error())
		return nil, ErrInternal
	}

	return posts, nil
}

func (s *postService) decorate(ctx context.Context, post *model.FullPost, userID uuid.UUID) (*dto.FeedItem, error) {
	like, err := s.engagement.state(ctx, post.Post.ID, userID, model.RelationLikes)
	if err != nil {
		return nil, err
	}

	item := &dto.FeedItem{
		Post: *post,
		Like: dto.NewLikeState(like),
	}

	switch post.Post.Kind {
	case model.PostKindEvent:
		rsvp, err := s.engagement.state(ctx, post.Post.ID, userID, model.RelationRSVPs)
		if err != nil {
			return nil, err
		}
		rsvpState := dto.NewRSVPState(rsvp)
		item.RSVP = &rsvpState
	case model.PostKindPoll:
		tally, err := s.poll.tally(ctx, &post.Post, userID)
		if err != nil {
			return nil, err
		}
		item.Tally = tally
	}

	return item, nil
}

// Delete removes a post on behalf of its author or an admin of its club.
func (s *postService) Delete(ctx context.Context, postID int64, userID uuid.UUID) error {
	post, err := findPost(ctx, s.logger, s.repo, postID)
	if err != nil {
		return err
	}

	if post.Post.AuthorID != userID {
		isAdmin, err := s.repo.Postgres.Club.IsAdmin(ctx, post.Post.ClubID, userID)
		if err != nil {
			s.logger.Sugar().Errorf("failed to check if user(%s) is admin of club(%d): %s", userID.String(), post.Post.ClubID, err.Error())
			return ErrInternal
		}
		if !isAdmin {
			return ErrForbidden
		}
	}

	if err := s.repo.Postgres.Post.Delete(ctx, postID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}

		s.logger.Sugar().Errorf("failed to delete post(%d): %s", postID, err.Error())
		return ErrInternal
	}

	s.invalidateFeed(ctx, post.Post.ClubID)

	return nil
}

func (s *postService) invalidateFeed(ctx context.Context, clubID int64) {
	pattern := redisrepo.ClubFeedPattern(clubID)

	var keys []string
	var cursor uint64
	for {
		page, next, err := s.repo.Redis.Default.Scan(ctx, cursor, pattern, FEED_SCAN_COUNT).Result()
		if err != nil {
			s.logger.Sugar().Errorf("failed to scan club(%d) feed keys in redis: %s", clubID, err.Error())
			return
		}
		keys = append(keys, page...)

		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return
	}

	if err := s.repo.Redis.Default.Del(ctx, keys...).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete club(%d) feed from redis: %s", clubID, err.Error())
	}
}
