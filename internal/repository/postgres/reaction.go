package postgres

import (
	"context"
	"fmt"

	"github.com/ClubHub/club-service/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type reactionRepo struct {
	db    *pgxpool.Pool
	table string
}

// newReactionRepo panics on an unknown relation: table names cannot be bound as parameters.
func newReactionRepo(db *pgxpool.Pool, relation model.Relation) Reaction {
	switch relation {
	case model.RelationLikes, model.RelationRSVPs:
	default:
		panic(fmt.Sprintf("unknown relation %q", relation))
	}

	return &reactionRepo{
		db:    db,
		table: string(relation),
	}
}

// Add is idempotent: an existing record is left untouched.
func (r *reactionRepo) Add(ctx context.Context, postID int64, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, "INSERT INTO "+r.table+"(post_id, user_id) VALUES($1, $2) ON CONFLICT DO NOTHING", postID, userID)
	return err
}

func (r *reactionRepo) Remove(ctx context.Context, postID int64, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, "DELETE FROM "+r.table+" WHERE post_id = $1 AND user_id = $2", postID, userID)
	return err
}

func (r *reactionRepo) Count(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+r.table+" WHERE post_id = $1", postID).Scan(&count)
	return count, err
}

func (r *reactionRepo) Exists(ctx context.Context, postID int64, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM "+r.table+" WHERE post_id = $1 AND user_id = $2)", postID, userID).Scan(&exists)
	return exists, err
}
