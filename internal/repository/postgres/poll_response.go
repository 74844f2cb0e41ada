package postgres

import (
	"context"
	"time"

	"github.com/ClubHub/club-service/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pollResponseRepo struct {
	db *pgxpool.Pool
}

func newPollResponseRepo(db *pgxpool.Pool) PollResponse {
	return &pollResponseRepo{
		db: db,
	}
}

// Upsert keeps one response per (post, user); voting again replaces the selection.
func (r *pollResponseRepo) Upsert(ctx context.Context, response model.PollResponse) error {
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO poll_responses(post_id, user_id, selected_option, created_at)
		VALUES($1, $2, $3, $4)
		ON CONFLICT (post_id, user_id) DO UPDATE SET selected_option = EXCLUDED.selected_option`,
		response.PostID,
		response.UserID,
		response.SelectedOption,
		time.Now(),
	)
	return err
}

func (r *pollResponseRepo) FindByPost(ctx context.Context, postID int64) ([]model.PollResponse, error) {
	rows, err := r.db.Query(
		ctx,
		"SELECT r.post_id, r.user_id, r.selected_option, r.created_at FROM poll_responses r WHERE r.post_id = $1 ORDER BY r.created_at ASC",
		postID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []model.PollResponse{}
	for rows.Next() {
		var response model.PollResponse
		if err := rows.Scan(&response.PostID, &response.UserID, &response.SelectedOption, &response.CreatedAt); err != nil {
			return nil, err
		}

		responses = append(responses, response)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return responses, nil
}
