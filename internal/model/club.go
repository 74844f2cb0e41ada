package model

import (
	"time"

	"github.com/google/uuid"
)

type Club struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Rules       string    `json:"rules"`
	Code        string    `json:"code"`
	CreatorID   uuid.UUID `json:"creator_id"`
	LogoURL     *string   `json:"logo_url"`
	CoverURL    *string   `json:"cover_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type ClubSummary struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	LogoURL *string `json:"logo_url"`
}
