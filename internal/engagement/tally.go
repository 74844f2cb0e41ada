package engagement

import (
	"math"

	"github.com/ClubHub/club-service/internal/model"
	"github.com/google/uuid"
)

// Tally counts poll responses per option. Declared options always appear, in
// declared order; answers outside them (open-ended polls) follow in the order
// they were first seen. A user counts once: their last response wins.
func Tally(options []string, responses []model.PollResponse, userID uuid.UUID) model.PollTally {
	latest := make(map[uuid.UUID]string, len(responses))
	voters := make([]uuid.UUID, 0, len(responses))
	for _, r := range responses {
		if _, seen := latest[r.UserID]; !seen {
			voters = append(voters, r.UserID)
		}
		latest[r.UserID] = r.SelectedOption
	}

	counts := make(map[string]int64, len(options))
	order := make([]string, 0, len(options))
	for _, opt := range options {
		if _, exists := counts[opt]; exists {
			continue
		}
		counts[opt] = 0
		order = append(order, opt)
	}

	for _, voter := range voters {
		opt := latest[voter]
		if _, exists := counts[opt]; !exists {
			order = append(order, opt)
		}
		counts[opt]++
	}

	total := int64(len(voters))
	tally := model.PollTally{
		Options:      make([]model.OptionTally, 0, len(order)),
		OptionCounts: counts,
		TotalVotes:   total,
	}
	for _, opt := range order {
		tally.Options = append(tally.Options, model.OptionTally{
			Option:  opt,
			Count:   counts[opt],
			Percent: Percent(counts[opt], total),
		})
	}

	if selection, voted := latest[userID]; voted && userID != uuid.Nil {
		tally.CurrentUserSelection = &selection
	}

	return tally
}

// Percent is round(100 * count / total), or 0 when there are no votes.
func Percent(count, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(count) / float64(total)))
}
