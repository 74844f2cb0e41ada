package model

import (
	"time"

	"github.com/google/uuid"
)

type PostKind string

const (
	PostKindPost  PostKind = "post"
	PostKindPoll  PostKind = "poll"
	PostKindEvent PostKind = "event"
)

func (k PostKind) Valid() bool {
	switch k {
	case PostKindPost, PostKindPoll, PostKindEvent:
		return true
	}
	return false
}

type Post struct {
	ID          int64      `json:"id"`
	ClubID      int64      `json:"club_id"`
	AuthorID    uuid.UUID  `json:"author_id"`
	Kind        PostKind   `json:"kind"`
	Content     string     `json:"content"`
	ImageURL    *string    `json:"image_url"`
	EventTime   *time.Time `json:"event_time"`
	PollOptions []string   `json:"poll_options"`
	CreatedAt   time.Time  `json:"created_at"`
}

// OpenEnded reports whether a poll accepts free-form answers.
func (p Post) OpenEnded() bool {
	return p.Kind == PostKindPoll && len(p.PollOptions) == 0
}

type FullPost struct {
	Post   Post       `json:"post"`
	Author UserAuthor `json:"author"`
}
