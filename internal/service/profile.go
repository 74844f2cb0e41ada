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
)

const DEFAULT_CACHE_TTL = time.Hour

func cacheTTL(cfg config.AppConfig) time.Duration {
	if cfg.CacheTTL <= 0 {
		return DEFAULT_CACHE_TTL
	}
	return cfg.CacheTTL
}

type profileService struct {
	logger   *zap.Logger
	repo     *repository.Repository
	uploader imageUploader
	ttl      time.Duration
}

func newProfileService(logger *zap.Logger, repo *repository.Repository, uploader imageUploader, cfg config.AppConfig) Profile {
	return &profileService{
		logger:   logger,
		repo:     repo,
		uploader: uploader,
		ttl:      cacheTTL(cfg),
	}
}

func (s *profileService) Update(ctx context.Context, userID uuid.UUID, input dto.UpdateProfileRequest) (*model.Profile, error) {
	profile, err := s.repo.Postgres.Profile.Upsert(ctx, model.Profile{
		UserID:   userID,
		FullName: strings.TrimSpace(input.FullName),
	})
	if err != nil {
		s.logger.Sugar().Errorf("failed to upsert user(%s) profile: %s", userID.String(), err.Error())
		return nil, ErrInternal
	}

	s.invalidate(ctx, userID)

	return profile, nil
}

func (s *profileService) UploadAvatar(ctx context.Context, userID uuid.UUID, fileHeader *multipart.FileHeader) (string, error) {
	url, err := s.uploader.Upload(ctx, AVATARS_PATH, fileHeader)
	if err != nil {
		return "", err
	}

	if err := s.repo.Postgres.Profile.UpdateAvatar(ctx, userID, url); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}

		s.logger.Sugar().Errorf("failed to update user(%s) avatar: %s", userID.String(), err.Error())
		return "", ErrInternal
	}

	s.invalidate(ctx, userID)

	return url, nil
}

func (s *profileService) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	cachedProfile, err := redisrepo.Get[model.Profile](s.repo.Redis.Default, ctx, redisrepo.ProfileKey(userID.String()))
	if err == nil && cachedProfile != nil {
		return cachedProfile, nil
	}
	if err != nil && err != redis.Nil {
		s.logger.Sugar().Errorf("failed to get profile(%s) from redis: %s", userID.String(), err.Error())
		return nil, ErrInternal
	}

	profile, err := s.repo.Postgres.Profile.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.logger.Sugar().Errorf("failed to find profile(%s) from postgres: %s", userID.String(), err.Error())
		return nil, ErrInternal
	}

	if err := s.repo.Redis.Default.SetJSON(ctx, redisrepo.ProfileKey(userID.String()), profile, s.ttl); err != nil {
		s.logger.Sugar().Errorf("failed to set profile(%s) in redis: %s", userID.String(), err.Error())
		return nil, ErrInternal
	}

	return profile, nil
}

func (s *profileService) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.repo.Redis.Default.Del(ctx, redisrepo.ProfileKey(userID.String())).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete profile(%s) from redis: %s", userID.String(), err.Error())
	}
}
