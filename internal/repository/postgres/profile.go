package postgres

import (
	"context"
	"time"

	"github.com/ClubHub/club-service/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type profileRepo struct {
	db *pgxpool.Pool
}

func newProfileRepo(db *pgxpool.Pool) Profile {
	return &profileRepo{
		db: db,
	}
}

func (r *profileRepo) Upsert(ctx context.Context, profile model.Profile) (*model.Profile, error) {
	now := time.Now()
	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO profiles(user_id, full_name, avatar_url, created_at, updated_at)
		VALUES($1, $2, $3, $4, $4)
		ON CONFLICT (user_id) DO UPDATE SET full_name = EXCLUDED.full_name, updated_at = EXCLUDED.updated_at
		RETURNING avatar_url, created_at, updated_at`,
		profile.UserID,
		profile.FullName,
		profile.AvatarURL,
		now,
	).Scan(&profile.AvatarURL, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepo) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error {
	tag, err := r.db.Exec(ctx, "UPDATE profiles SET avatar_url = $1, updated_at = $2 WHERE user_id = $3", avatarURL, time.Now(), userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *profileRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.QueryRow(
		ctx,
		"SELECT p.user_id, p.full_name, p.avatar_url, p.created_at, p.updated_at FROM profiles p WHERE p.user_id = $1",
		userID,
	).Scan(
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &profile, nil
}
