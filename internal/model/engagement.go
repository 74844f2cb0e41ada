package model

import (
	"time"

	"github.com/google/uuid"
)

// Relation names a per-user engagement record set.
type Relation string

const (
	RelationLikes Relation = "likes"
	RelationRSVPs Relation = "rsvps"
)

type EngagementState struct {
	Count  int64 `json:"count"`
	Active bool  `json:"active"`
}

type PollResponse struct {
	PostID         int64     `json:"post_id"`
	UserID         uuid.UUID `json:"user_id"`
	SelectedOption string    `json:"selected_option"`
	CreatedAt      time.Time `json:"created_at"`
}

type OptionTally struct {
	Option  string `json:"option"`
	Count   int64  `json:"count"`
	Percent int    `json:"percent"`
}

type PollTally struct {
	Options              []OptionTally    `json:"options"`
	OptionCounts         map[string]int64 `json:"option_counts"`
	TotalVotes           int64            `json:"total_votes"`
	CurrentUserSelection *string          `json:"current_user_selection"`
}

// EngagementUpdate announces the new record count of a relation on a post.
type EngagementUpdate struct {
	PostID   int64    `json:"post_id"`
	Relation Relation `json:"relation"`
	Count    int64    `json:"count"`
}
