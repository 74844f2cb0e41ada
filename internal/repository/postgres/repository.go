package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ClubHub/club-service/internal/config"
	"github.com/ClubHub/club-service/internal/engagement"
	"github.com/ClubHub/club-service/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const uniqueViolationCode = "23505"

func DB(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.SSLMode,
	)
	return pgxpool.New(ctx, dsn)
}

// IsUniqueViolation reports whether err comes from a unique or primary key constraint.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

type User interface {
	Create(ctx context.Context, user model.User) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type Profile interface {
	Upsert(ctx context.Context, profile model.Profile) (*model.Profile, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
}

type Club interface {
	Create(ctx context.Context, club model.Club) (*model.Club, error)
	FindByID(ctx context.Context, id int64) (*model.Club, error)
	FindByCode(ctx context.Context, code string) (*model.Club, error)
	UpdateCode(ctx context.Context, id int64, code string) error
	SearchByName(ctx context.Context, query string, excludeMember uuid.UUID, limit int) ([]*model.ClubSummary, error)
	FindUserClubs(ctx context.Context, userID uuid.UUID) ([]*model.ClubSummary, error)
	AddMember(ctx context.Context, clubID int64, userID uuid.UUID) error
	IsMember(ctx context.Context, clubID int64, userID uuid.UUID) (bool, error)
	IsAdmin(ctx context.Context, clubID int64, userID uuid.UUID) (bool, error)
}

type Post interface {
	Create(ctx context.Context, post model.Post) (*model.Post, error)
	FindByID(ctx context.Context, id int64) (*model.FullPost, error)
	FindClubFeed(ctx context.Context, clubID int64, limit int, offset int) ([]*model.FullPost, error)
	FindRSVPedEventsAfter(ctx context.Context, userID uuid.UUID, after time.Time) ([]*model.FullPost, error)
	Delete(ctx context.Context, id int64) error
}

type Comment interface {
	Create(ctx context.Context, comment model.Comment) (*model.Comment, error)
	FindByID(ctx context.Context, id int64) (*model.Comment, error)
	FindPostComments(ctx context.Context, postID int64) ([]*model.FullComment, error)
	Delete(ctx context.Context, commentID int64, authorID uuid.UUID) error
}

// Reaction is a (post, user) record set such as likes or RSVPs.
type Reaction interface {
	engagement.Store
}

type PollResponse interface {
	Upsert(ctx context.Context, response model.PollResponse) error
	FindByPost(ctx context.Context, postID int64) ([]model.PollResponse, error)
}

type PostgresRepository struct {
	User
	Profile
	Club
	Post
	Comment
	Likes Reaction
	RSVPs Reaction
	PollResponse
}

func New(db *pgxpool.Pool, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		User:         newUserRepo(db),
		Profile:      newProfileRepo(db),
		Club:         newClubRepo(db, logger),
		Post:         newPostRepo(db),
		Comment:      newCommentRepo(db),
		Likes:        newReactionRepo(db, model.RelationLikes),
		RSVPs:        newReactionRepo(db, model.RelationRSVPs),
		PollResponse: newPollResponseRepo(db),
	}
}
