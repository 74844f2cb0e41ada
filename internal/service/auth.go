package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ClubHub/club-service/internal/config"
	"github.com/ClubHub/club-service/internal/dto"
	"github.com/ClubHub/club-service/internal/model"
	"github.com/ClubHub/club-service/internal/repository"
	"github.com/ClubHub/club-service/internal/repository/postgres"
	"github.com/ClubHub/club-service/pkg/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const DEFAULT_TOKEN_TTL = time.Hour * 24

type authService struct {
	logger *zap.Logger
	repo   *repository.Repository
	secret []byte
	ttl    time.Duration
}

func newAuthService(logger *zap.Logger, repo *repository.Repository, cfg config.AppConfig) Auth {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DEFAULT_TOKEN_TTL
	}

	return &authService{
		logger: logger,
		repo:   repo,
		secret: cfg.AccessSecret,
		ttl:    ttl,
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterRequest) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Sugar().Errorf("failed to hash password: %s", err.Error())
		return nil, ErrInternal
	}

	user, err := s.repo.Postgres.User.Create(ctx, model.User{
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
	})
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}

		s.logger.Sugar().Errorf("failed to create user(%s): %s", input.Email, err.Error())
		return nil, ErrInternal
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, input dto.LoginRequest) (string, error) {
	user, err := s.repo.Postgres.User.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidCredentials
		}

		s.logger.Sugar().Errorf("failed to find user(%s) by email: %s", input.Email, err.Error())
		return "", ErrInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, s.secret, s.ttl)
	if err != nil {
		s.logger.Sugar().Errorf("failed to generate access token for user(%s): %s", user.ID.String(), err.Error())
		return "", ErrInternal
	}

	return token, nil
}

func (s *authService) FindUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Postgres.User.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.logger.Sugar().Errorf("failed to find user(%s): %s", id.String(), err.Error())
		return nil, ErrInternal
	}

	return user, nil
}
