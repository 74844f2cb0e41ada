package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ClubHub/club-service/internal/dto"
	"github.com/ClubHub/club-service/internal/model"
	"github.com/ClubHub/club-service/internal/repository"
	"github.com/ClubHub/club-service/internal/thread"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type commentService struct {
	logger *zap.Logger
	repo   *repository.Repository
}

func newCommentService(logger *zap.Logger, repo *repository.Repository) Comment {
	return &commentService{
		logger: logger,
		repo:   repo,
	}
}

func (s *commentService) findComment(ctx context.Context, commentID int64) (*model.Comment, error) {
	comment, err := s.repo.Postgres.Comment.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.logger.Sugar().Errorf("failed to find comment(%d): %s", commentID, err.Error())
		return nil, ErrInternal
	}

	return comment, nil
}

func (s *commentService) Create(ctx context.Context, postID int64, authorID uuid.UUID, input dto.CreateCommentRequest) (*model.Comment, error) {
	post, err := findPost(ctx, s.logger, s.repo, postID)
	if err != nil {
		return nil, err
	}

	if err := checkMember(ctx, s.logger, s.repo, post.Post.ClubID, authorID); err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		parent, err := s.findComment(ctx, *input.ParentID)
		if err != nil {
			if err == ErrNotFound {
				return nil, ErrParentNotInPost
			}
			return nil, err
		}
		if parent.PostID != postID {
			return nil, ErrParentNotInPost
		}
	}

	createdComment, err := s.repo.Postgres.Comment.Create(ctx, model.Comment{
		ParentID: input.ParentID,
		PostID:   postID,
		AuthorID: authorID,
		Content:  strings.TrimSpace(input.Content),
	})
	if err != nil {
		s.logger.Sugar().Errorf("failed to create user(%s) comment on post(%d): %s", authorID.String(), postID, err.Error())
		return nil, ErrInternal
	}

	return createdComment, nil
}

// FindThread returns every comment of the post arranged as reply trees.
func (s *commentService) FindThread(ctx context.Context, postID int64) ([]*model.CommentNode, error) {
	if _, err := findPost(ctx, s.logger, s.repo, postID); err != nil {
		return nil, err
	}

	comments, err := s.repo.Postgres.Comment.FindPostComments(ctx, postID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find post(%d) comments: %s", postID, err.Error())
		return nil, ErrInternal
	}

	return thread.Build(comments), nil
}

func (s *commentService) Delete(ctx context.Context, postID int64, commentID int64, authorID uuid.UUID) error {
	comment, err := s.findComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.PostID != postID {
		return ErrNotFound
	}
	if comment.AuthorID != authorID {
		return ErrForbidden
	}

	if err := s.repo.Postgres.Comment.Delete(ctx, commentID, authorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}

		s.logger.Sugar().Errorf("failed to delete comment(%d): %s", commentID, err.Error())
		return ErrInternal
	}

	return nil
}
