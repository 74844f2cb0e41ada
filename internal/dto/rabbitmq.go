package dto

import (
	"time"

	"github.com/ClubHub/club-service/internal/model"
	"github.com/google/uuid"
)

// MQEngagementChangedMsg is published on every successful like or RSVP toggle.
type MQEngagementChangedMsg struct {
	PostID    int64          `json:"post_id" mapstructure:"post_id"`
	UserID    uuid.UUID      `json:"user_id" mapstructure:"-"`
	Relation  model.Relation `json:"relation" mapstructure:"relation"`
	Count     int64          `json:"count" mapstructure:"count"`
	Active    bool           `json:"active" mapstructure:"active"`
	CreatedAt time.Time      `json:"created_at" mapstructure:"-"`
}

func (m MQEngagementChangedMsg) Update() model.EngagementUpdate {
	return model.EngagementUpdate{PostID: m.PostID, Relation: m.Relation, Count: m.Count}
}
