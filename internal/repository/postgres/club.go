package postgres

import (
	"context"
	"time"

	"github.com/ClubHub/club-service/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type clubRepo struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func newClubRepo(db *pgxpool.Pool, logger *zap.Logger) Club {
	return &clubRepo{
		db:     db,
		logger: logger,
	}
}

// Create inserts the club and makes its creator both a member and an admin.
func (r *clubRepo) Create(ctx context.Context, club model.Club) (*model.Club, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			r.logger.Sugar().Errorf("failed to rollback club(%s) creation: %s", club.Name, err.Error())
		}
	}()

	club.CreatedAt = time.Now()
	if err := tx.QueryRow(
		ctx,
		`INSERT INTO clubs(name, description, rules, code, creator_id, logo_url, cover_url, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		club.Name,
		club.Description,
		club.Rules,
		club.Code,
		club.CreatorID,
		club.LogoURL,
		club.CoverURL,
		club.CreatedAt,
	).Scan(&club.ID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, "INSERT INTO user_clubs(user_id, club_id) VALUES($1, $2)", club.CreatorID, club.ID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, "INSERT INTO club_admins(user_id, club_id) VALUES($1, $2)", club.CreatorID, club.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &club, nil
}

func (r *clubRepo) UpdateCode(ctx context.Context, id int64, code string) error {
	tag, err := r.db.Exec(ctx, "UPDATE clubs SET code = $1 WHERE id = $2", code, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *clubRepo) FindByID(ctx context.Context, id int64) (*model.Club, error) {
	return r.findOne(ctx, "WHERE c.id = $1", id)
}

func (r *clubRepo) FindByCode(ctx context.Context, code string) (*model.Club, error) {
	return r.findOne(ctx, "WHERE c.code = $1", code)
}

func (r *clubRepo) findOne(ctx context.Context, where string, arg interface{}) (*model.Club, error) {
	var club model.Club
	if err := r.db.QueryRow(
		ctx,
		`SELECT c.id, c.name, c.description, c.rules, c.code, c.creator_id, c.logo_url, c.cover_url, c.created_at
		FROM clubs c `+where,
		arg,
	).Scan(
		&club.ID,
		&club.Name,
		&club.Description,
		&club.Rules,
		&club.Code,
		&club.CreatorID,
		&club.LogoURL,
		&club.CoverURL,
		&club.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &club, nil
}

func (r *clubRepo) SearchByName(ctx context.Context, query string, excludeMember uuid.UUID, limit int) ([]*model.ClubSummary, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT c.id, c.name, c.logo_url
		FROM clubs c
		WHERE c.name ILIKE '%' || $1 || '%'
		AND NOT EXISTS (SELECT 1 FROM user_clubs uc WHERE uc.club_id = c.id AND uc.user_id = $2)
		ORDER BY c.name ASC
		LIMIT $3`,
		query,
		excludeMember,
		limit,
	)
	if err != nil {
		return nil, err
	}

	return collectSummaries(rows)
}

func (r *clubRepo) FindUserClubs(ctx context.Context, userID uuid.UUID) ([]*model.ClubSummary, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT c.id, c.name, c.logo_url
		FROM user_clubs uc
		JOIN clubs c ON uc.club_id = c.id
		WHERE uc.user_id = $1
		ORDER BY uc.joined_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}

	return collectSummaries(rows)
}

func collectSummaries(rows pgx.Rows) ([]*model.ClubSummary, error) {
	defer rows.Close()

	clubs := []*model.ClubSummary{}
	for rows.Next() {
		var club model.ClubSummary
		if err := rows.Scan(&club.ID, &club.Name, &club.LogoURL); err != nil {
			return nil, err
		}

		clubs = append(clubs, &club)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return clubs, nil
}

func (r *clubRepo) AddMember(ctx context.Context, clubID int64, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, "INSERT INTO user_clubs(user_id, club_id) VALUES($1, $2)", userID, clubID)
	return err
}

func (r *clubRepo) IsMember(ctx context.Context, clubID int64, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM user_clubs WHERE club_id = $1 AND user_id = $2)", clubID, userID).Scan(&exists)
	return exists, err
}

func (r *clubRepo) IsAdmin(ctx context.Context, clubID int64, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM club_admins WHERE club_id = $1 AND user_id = $2)", clubID, userID).Scan(&exists)
	return exists, err
}
