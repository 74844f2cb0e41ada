package dto

import "github.com/ClubHub/club-service/internal/model"

type LikeState struct {
	Count              int64 `json:"count"`
	LikedByCurrentUser bool  `json:"liked_by_current_user"`
}

func NewLikeState(state model.EngagementState) LikeState {
	return LikeState{Count: state.Count, LikedByCurrentUser: state.Active}
}

type RSVPState struct {
	Count                  int64 `json:"count"`
	AttendingByCurrentUser bool  `json:"attending_by_current_user"`
}

func NewRSVPState(state model.EngagementState) RSVPState {
	return RSVPState{Count: state.Count, AttendingByCurrentUser: state.Active}
}

// FeedItem is a post decorated for the requesting user. RSVP is set for events, Tally for polls.
type FeedItem struct {
	Post  model.FullPost   `json:"post"`
	Like  LikeState        `json:"like"`
	RSVP  *RSVPState       `json:"rsvp,omitempty"`
	Tally *model.PollTally `json:"tally,omitempty"`
}
