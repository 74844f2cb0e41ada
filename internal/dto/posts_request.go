package dto

import (
	"time"

	"github.com/ClubHub/club-service/internal/model"
)

type CreatePostRequest struct {
	Kind        model.PostKind `json:"kind" form:"kind" binding:"required"`
	Content     string         `json:"content" form:"content" binding:"required,min=1"`
	EventTime   *time.Time     `json:"event_time" form:"event_time"`
	PollOptions []string       `json:"poll_options" form:"poll_options"`
}

type GetFeedRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

type VoteRequest struct {
	Option string `json:"option" binding:"required"`
}
