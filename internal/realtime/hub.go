// Package realtime fans engagement updates out to subscribers of a post.
package realtime

import (
	"sync"

	"github.com/ClubHub/club-service/internal/model"
)

const subscriberBuffer = 16

type subscriber struct {
	ch chan model.EngagementUpdate
}

// Hub is safe for concurrent use. Publish never blocks: a subscriber whose
// buffer is full misses the update.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int64]map[*subscriber]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[int64]map[*subscriber]struct{}),
	}
}

// Subscribe returns a channel of updates for postID and a cancel func that
// must be called to release it. The channel is closed on cancel or Close.
func (h *Hub) Subscribe(postID int64) (<-chan model.EngagementUpdate, func()) {
	sub := &subscriber{ch: make(chan model.EngagementUpdate, subscriberBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	if h.subs[postID] == nil {
		h.subs[postID] = make(map[*subscriber]struct{})
	}
	h.subs[postID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[postID][sub]; !ok {
				return
			}
			delete(h.subs[postID], sub)
			if len(h.subs[postID]) == 0 {
				delete(h.subs, postID)
			}
			close(sub.ch)
		})
	}

	return sub.ch, cancel
}

// Publish delivers update to every subscriber of update.PostID and reports how many received it.
func (h *Hub) Publish(update model.EngagementUpdate) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs[update.PostID] {
		select {
		case sub.ch <- update:
			delivered++
		default:
		}
	}

	return delivered
}

func (h *Hub) Subscribers(postID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[postID])
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for postID, subs := range h.subs {
		for sub := range subs {
			close(sub.ch)
		}
		delete(h.subs, postID)
	}
}
