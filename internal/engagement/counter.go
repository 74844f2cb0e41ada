// Package engagement keeps per-user toggles (likes, RSVPs) and poll tallies
// consistent with the records they are derived from.
package engagement

import (
	"context"
	"errors"

	"github.com/ClubHub/club-service/internal/model"
	"github.com/google/uuid"
)

var ErrNoUser = errors.New("current user is unknown")

// Store is a record set keyed by (subject, user), such as likes or RSVPs.
type Store interface {
	Add(ctx context.Context, subjectID int64, userID uuid.UUID) error
	Remove(ctx context.Context, subjectID int64, userID uuid.UUID) error
	Count(ctx context.Context, subjectID int64) (int64, error)
	Exists(ctx context.Context, subjectID int64, userID uuid.UUID) (bool, error)
}

// Counter is the engagement state of one subject as seen by one user.
// The optimistic change made by Toggle is rolled back when the write fails,
// so Active always matches the presence of the user's record once Toggle returns.
// A Counter is not safe for concurrent use.
type Counter struct {
	store     Store
	subjectID int64
	state     model.EngagementState
}

func NewCounter(store Store, subjectID int64) *Counter {
	return &Counter{
		store:     store,
		subjectID: subjectID,
	}
}

// Restore seeds the counter with a previously observed state (e.g. a cached count).
func (c *Counter) Restore(state model.EngagementState) {
	if state.Count < 0 {
		state.Count = 0
	}
	c.state = state
}

func (c *Counter) State() model.EngagementState {
	return c.state
}

// Load recomputes the state from the store. Without a user only the count is read.
func (c *Counter) Load(ctx context.Context, userID uuid.UUID) (model.EngagementState, error) {
	count, err := c.store.Count(ctx, c.subjectID)
	if err != nil {
		return c.state, err
	}

	active := false
	if userID != uuid.Nil {
		active, err = c.store.Exists(ctx, c.subjectID, userID)
		if err != nil {
			return c.state, err
		}
	}

	c.state = model.EngagementState{Count: count, Active: active}
	return c.state, nil
}

// Toggle flips the user's record: the local state changes first, then the
// write goes through. A failed write restores the previous state and returns
// the error. A successful one re-reads the authoritative count.
func (c *Counter) Toggle(ctx context.Context, userID uuid.UUID) (model.EngagementState, error) {
	if userID == uuid.Nil {
		return c.state, ErrNoUser
	}

	previous := c.state
	c.apply(!previous.Active)

	var err error
	if c.state.Active {
		err = c.store.Add(ctx, c.subjectID, userID)
	} else {
		err = c.store.Remove(ctx, c.subjectID, userID)
	}
	if err != nil {
		c.state = previous
		return c.state, err
	}

	if count, err := c.store.Count(ctx, c.subjectID); err == nil {
		c.state.Count = count
	}

	return c.state, nil
}

func (c *Counter) apply(active bool) {
	c.state.Active = active
	if active {
		c.state.Count++
		return
	}
	if c.state.Count > 0 {
		c.state.Count--
	}
}
