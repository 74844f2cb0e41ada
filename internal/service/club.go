package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"mime/multipart"
	"strings"
	"time"

	"github.com/ClubHub/club-service/internal/config"
	"github.com/ClubHub/club-service/internal/dto"
	"github.com/ClubHub/club-service/internal/model"
	"github.com/ClubHub/club-service/internal/repository"
	"github.com/ClubHub/club-service/internal/repository/postgres"
	"github.com/ClubHub/club-service/internal/repository/redisrepo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	CLUB_CODE_LENGTH       = 6
	CLUB_CODE_ALPHABET     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CLUB_CODE_MAX_ATTEMPTS = 5

	SEARCH_MIN_QUERY_LENGTH = 2
	SEARCH_LIMIT            = 20
)

func generateClubCode() (string, error) {
	max := big.NewInt(int64(len(CLUB_CODE_ALPHABET)))
	code := make([]byte, CLUB_CODE_LENGTH)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = CLUB_CODE_ALPHABET[n.Int64()]
	}

	return string(code), nil
}

type clubService struct {
	logger   *zap.Logger
	repo     *repository.Repository
	uploader imageUploader
	ttl      time.Duration
	newCode  func() (string, error)
}

func newClubService(logger *zap.Logger, repo *repository.Repository, uploader imageUploader, cfg config.AppConfig) Club {
	return &clubService{
		logger:   logger,
		repo:     repo,
		uploader: uploader,
		ttl:      cacheTTL(cfg),
		newCode:  generateClubCode,
	}
}

func (s *clubService) Create(ctx context.Context, creatorID uuid.UUID, input dto.CreateClubRequest, logo *multipart.FileHeader, cover *multipart.FileHeader) (*model.Club, error) {
	logoURL, err := uploadOptional(ctx, s.uploader, CLUB_LOGOS_PATH, logo)
	if err != nil {
		return nil, err
	}
	coverURL, err := uploadOptional(ctx, s.uploader, CLUB_COVER_PATH, cover)
	if err != nil {
		return nil, err
	}

	club := model.Club{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Rules:       input.Rules,
		CreatorID:   creatorID,
		LogoURL:     logoURL,
		CoverURL:    coverURL,
	}

	for attempt := 1; attempt <= CLUB_CODE_MAX_ATTEMPTS; attempt++ {
		club.Code, err = s.newCode()
		if err != nil {
			s.logger.Sugar().Errorf("failed to generate club code: %s", err.Error())
			return nil, ErrInternal
		}

		createdClub, err := s.repo.Postgres.Club.Create(ctx, club)
		if err == nil {
			s.invalidateUserClubs(ctx, creatorID)
			return createdClub, nil
		}
		if !postgres.IsUniqueViolation(err) {
			s.logger.Sugar().Errorf("failed to create user(%s) club: %s", creatorID.String(), err.Error())
			return nil, ErrInternal
		}
	}

	s.logger.Sugar().Errorf("failed to find a free club code after (%d) attempts", CLUB_CODE_MAX_ATTEMPTS)
	return nil, ErrInternal
}

func (s *clubService) RegenerateCode(ctx context.Context, clubID int64) (string, error) {
	for attempt := 1; attempt <= CLUB_CODE_MAX_ATTEMPTS; attempt++ {
		code, err := s.newCode()
		if err != nil {
			s.logger.Sugar().Errorf("failed to generate club code: %s", err.Error())
			return "", ErrInternal
		}

		err = s.repo.Postgres.Club.UpdateCode(ctx, clubID, code)
		if err == nil {
			s.invalidateClub(ctx, clubID)
			return code, nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		if !postgres.IsUniqueViolation(err) {
			s.logger.Sugar().Errorf("failed to update club(%d) code: %s", clubID, err.Error())
			return "", ErrInternal
		}
	}

	s.logger.Sugar().Errorf("failed to find a free code for club(%d) after (%d) attempts", clubID, CLUB_CODE_MAX_ATTEMPTS)
	return "", ErrInternal
}

func (s *clubService) JoinByCode(ctx context.Context, userID uuid.UUID, code string) (*model.Club, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	club, err := s.repo.Postgres.Club.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.logger.Sugar().Errorf("failed to find club by code(%s): %s", code, err.Error())
		return nil, ErrInternal
	}

	if err := s.addMember(ctx, club.ID, userID); err != nil {
		return nil, err
	}

	return club, nil
}

func (s *clubService) Join(ctx context.Context, userID uuid.UUID, clubID int64) error {
	if _, err := s.FindByID(ctx, clubID); err != nil {
		return err
	}

	return s.addMember(ctx, clubID, userID)
}

func (s *clubService) addMember(ctx context.Context, clubID int64, userID uuid.UUID) error {
	if err := s.repo.Postgres.Club.AddMember(ctx, clubID, userID); err != nil {
		if postgres.IsUniqueViolation(err) {
			return ErrAlreadyMember
		}

		s.logger.Sugar().Errorf("failed to add user(%s) to club(%d): %s", userID.String(), clubID, err.Error())
		return ErrInternal
	}

	s.invalidateUserClubs(ctx, userID)

	return nil
}

// Search matches club names case-insensitively, leaving out clubs the user already belongs to.
func (s *clubService) Search(ctx context.Context, userID uuid.UUID, query string) ([]*model.ClubSummary, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < SEARCH_MIN_QUERY_LENGTH {
		return []*model.ClubSummary{}, nil
	}

	clubs, err := s.repo.Postgres.Club.SearchByName(ctx, query, userID, SEARCH_LIMIT)
	if err != nil {
		s.logger.Sugar().Errorf("failed to search clubs by name(%s): %s", query, err.Error())
		return nil, ErrInternal
	}

	return clubs, nil
}

func (s *clubService) FindUserClubs(ctx context.Context, userID uuid.UUID) ([]*model.ClubSummary, error) {
	cachedClubs, err := redisrepo.GetMany[model.ClubSummary](s.repo.Redis.Default, ctx, redisrepo.UserClubsKey(userID.String()))
	if err == nil && cachedClubs != nil {
		return cachedClubs, nil
	}
	if err != nil && err != redis.Nil {
		s.logger.Sugar().Errorf("failed to get user(%s) clubs from redis: %s", userID.String(), err.Error())
		return nil, ErrInternal
	}

	clubs, err := s.repo.Postgres.Club.FindUserClubs(ctx, userID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find user(%s) clubs from postgres: %s", userID.String(), err.Error())
		return nil, ErrInternal
	}

	if err := s.repo.Redis.Default.SetJSON(ctx, redisrepo.UserClubsKey(userID.String()), clubs, s.ttl); err != nil {
		s.logger.Sugar().Errorf("failed to set user(%s) clubs in redis: %s", userID.String(), err.Error())
		return nil, ErrInternal
	}

	return clubs, nil
}

func (s *clubService) FindByID(ctx context.Context, clubID int64) (*model.Club, error) {
	cachedClub, err := redisrepo.Get[model.Club](s.repo.Redis.Default, ctx, redisrepo.ClubKey(clubID))
	if err == nil && cachedClub != nil {
		return cachedClub, nil
	}
	if err != nil && err != redis.Nil {
		s.logger.Sugar().Errorf("failed to get club(%d) from redis: %s", clubID, err.Error())
		return nil, ErrInternal
	}

	club, err := s.repo.Postgres.Club.FindByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.logger.Sugar().Errorf("failed to find club(%d) from postgres: %s", clubID, err.Error())
		return nil, ErrInternal
	}

	if err := s.repo.Redis.Default.SetJSON(ctx, redisrepo.ClubKey(clubID), club, s.ttl); err != nil {
		s.logger.Sugar().Errorf("failed to set club(%d) in redis: %s", clubID, err.Error())
		return nil, ErrInternal
	}

	return club, nil
}

func (s *clubService) IsAdmin(ctx context.Context, clubID int64, userID uuid.UUID) (bool, error) {
	isAdmin, err := s.repo.Postgres.Club.IsAdmin(ctx, clubID, userID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to check if user(%s) is admin of club(%d): %s", userID.String(), clubID, err.Error())
		return false, ErrInternal
	}

	return isAdmin, nil
}

func (s *clubService) invalidateUserClubs(ctx context.Context, userID uuid.UUID) {
	if err := s.repo.Redis.Default.Del(ctx, redisrepo.UserClubsKey(userID.String())).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete user(%s) clubs from redis: %s", userID.String(), err.Error())
	}
}

func (s *clubService) invalidateClub(ctx context.Context, clubID int64) {
	if err := s.repo.Redis.Default.Del(ctx, redisrepo.ClubKey(clubID)).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete club(%d) from redis: %s", clubID, err.Error())
	}
}
