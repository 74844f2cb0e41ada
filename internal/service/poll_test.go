package service

import (
	"context"
	"testing"

	"github.com/ClubHub/club-service/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteChangesSelectionWithoutGrowingTotal(t *testing.T) {
	env := newTestEnv()
	s := newPollService(env.logger, env.repo)
	ctx := context.Background()
	user := env.member(1)
	poll := env.addPost(model.Post{ClubID: 1, Kind: model.PostKindPoll, PollOptions: []string{"red", "blue"}})

	tally, err := s.Vote(ctx, poll.ID, user, "red")
	require.NoError(t, err)
	assert.EqualValues(t, 1, tally.TotalVotes)
	assert.EqualValues(t, 1, tally.OptionCounts["red"])

	tally, err = s.Vote(ctx, poll.ID, user, " blue ")
	require.NoError(t, err)
	assert.EqualValues(t, 1, tally.TotalVotes)
	assert.EqualValues(t, 0, tally.OptionCounts["red"])
	assert.EqualValues(t, 1, tally.OptionCounts["blue"])
	require.NotNil(t, tally.CurrentUserSelection)
	assert.Equal(t, "blue", *tally.CurrentUserSelection)
}

func TestVoteTallyPercentages(t *testing.T) {
	env := newTestEnv()
	s := newPollService(env.logger, env.repo)
	ctx := context.Background()
	poll := env.addPost(model.Post{ClubID: 1, Kind: model.PostKindPoll, PollOptions: []string{"a", "b", "c"}})

	for _, opt := range []string{"a", "a", "b"} {
		_, err := s.Vote(ctx, poll.ID, env.member(1), opt)
		require.NoError(t, err)
	}

	tally, err := s.Tally(ctx, poll.ID, uuid.New())
	require.NoError(t, err)
	assert.EqualValues(t, 3, tally.TotalVotes)
	assert.Nil(t, tally.CurrentUserSelection)
	require.Len(t, tally.Options, 3)
	assert.Equal(t, model.OptionTally{Option: "a", Count: 2, Percent: 67}, tally.Options[0])
	assert.Equal(t, model.OptionTally{Option: "b", Count: 1, Percent: 33}, tally.Options[1])
	assert.Equal(t, model.OptionTally{Option: "c", Count: 0, Percent: 0}, tally.Options[2])
}

func TestVoteRejectsUnknownOption(t *testing.T) {
	env := newTestEnv()
	s := newPollService(env.logger, env.repo)
	poll := env.addPost(model.Post{ClubID: 1, Kind: model.PostKindPoll, PollOptions: []string{"red", "blue"}})

	_, err := s.Vote(context.Background(), poll.ID, env.member(1), "green")
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.Empty(t, env.responses.responses)
}

func TestVoteOpenEndedPoll(t *testing.T) {
	env := newTestEnv()
	s := newPollService(env.logger, env.repo)
	ctx := context.Background()
	poll := env.addPost(model.Post{ClubID: 1, Kind: model.PostKindPoll})

	tally, err := s.Vote(ctx, poll.ID, env.member(1), "board games")
	require.NoError(t, err)
	assert.EqualValues(t, 1, tally.OptionCounts["board games"])

	_, err = s.Vote(ctx, poll.ID, env.member(1), "  ")
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestVoteOnNonPoll(t *testing.T) {
	env := newTestEnv()
	s := newPollService(env.logger, env.repo)
	post := env.addPost(model.Post{ClubID: 1, Kind: model.PostKindPost})

	_, err := s.Vote(context.Background(), post.ID, uuid.New(), "a")
	assert.ErrorIs(t, err, ErrNotAPoll)

	_, err = s.Tally(context.Background(), post.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotAPoll)

	_, err = s.Vote(context.Background(), post.ID, uuid.Nil, "a")
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestVoteRequiresMembership(t *testing.T) {
	env := newTestEnv()
	s := newPollService(env.logger, env.repo)
	ctx := context.Background()
	poll := env.addPost(model.Post{ClubID: 1, Kind: model.PostKindPoll, PollOptions: []string{"a", "b"}})
	outsider := env.member(2)

	_, err := s.Vote(ctx, poll.ID, outsider, "a")
	assert.ErrorIs(t, err, ErrNotMember)
	assert.Empty(t, env.responses.responses)

	tally, err := s.Tally(ctx, poll.ID, outsider)
	require.NoError(t, err)
	assert.Zero(t, tally.TotalVotes)
}
