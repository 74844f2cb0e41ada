package postgres

import (
	"context"
	"time"

	"github.com/ClubHub/club-service/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const fullPostColumns = `p.id, p.club_id, p.author_id, p.kind, p.content, p.image_url, p.event_time, p.poll_options, p.created_at,
	COALESCE(pr.full_name, ''), pr.avatar_url`

type postRepo struct {
	db *pgxpool.Pool
}

func newPostRepo(db *pgxpool.Pool) Post {
	return &postRepo{
		db: db,
	}
}

func (r *postRepo) Create(ctx context.Context, post model.Post) (*model.Post, error) {
	post.CreatedAt = time.Now()
	if post.PollOptions == nil {
		post.PollOptions = []string{}
	}
	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO posts(club_id, author_id, kind, content, image_url, event_time, poll_options, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		post.ClubID,
		post.AuthorID,
		post.Kind,
		post.Content,
		post.ImageURL,
		post.EventTime,
		post.PollOptions,
		post.CreatedAt,
	).Scan(&post.ID); err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *postRepo) FindByID(ctx context.Context, id int64) (*model.FullPost, error) {
	row := r.db.QueryRow(
		ctx,
		`SELECT `+fullPostColumns+`
		FROM posts p
		LEFT JOIN profiles pr ON p.author_id = pr.user_id
		WHERE p.id = $1`,
		id,
	)

	return scanFullPost(row)
}

func (r *postRepo) FindClubFeed(ctx context.Context, clubID int64, limit int, offset int) ([]*model.FullPost, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+fullPostColumns+`
		FROM posts p
		LEFT JOIN profiles pr ON p.author_id = pr.user_id
		WHERE p.club_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2
		OFFSET $3`,
		clubID,
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}

	return collectFullPosts(rows)
}

func (r *postRepo) FindRSVPedEventsAfter(ctx context.Context, userID uuid.UUID, after time.Time) ([]*model.FullPost, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+fullPostColumns+`
		FROM rsvps rs
		JOIN posts p ON rs.post_id = p.id
		LEFT JOIN profiles pr ON p.author_id = pr.user_id
		WHERE rs.user_id = $1
		AND p.kind = 'event'
		AND p.event_time >= $2
		ORDER BY p.event_time ASC`,
		userID,
		after,
	)
	if err != nil {
		return nil, err
	}

	return collectFullPosts(rows)
}

func (r *postRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func scanFullPost(row pgx.Row) (*model.FullPost, error) {
	var post model.FullPost
	if err := row.Scan(
		&post.Post.ID,
		&post.Post.ClubID,
		&post.Post.AuthorID,
		&post.Post.Kind,
		&post.Post.Content,
		&post.Post.ImageURL,
		&post.Post.EventTime,
		&post.Post.PollOptions,
		&post.Post.CreatedAt,
		&post.Author.FullName,
		&post.Author.AvatarURL,
	); err != nil {
		return nil, err
	}

	return &post, nil
}

func collectFullPosts(rows pgx.Rows) ([]*model.FullPost, error) {
	defer rows.Close()

	posts := []*model.FullPost{}
	for rows.Next() {
		post, err := scanFullPost(rows)
		if err != nil {
			return nil, err
		}

		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}
