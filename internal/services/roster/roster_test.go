package roster

import (
	"fmt"
	"testing"
	"time"

	"github.com/mcoot/pokersignup/internal/model"
	"github.com/mcoot/pokersignup/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGame(capacity int) *model.Game {
	return &model.Game{
		ID:          "g1",
		ScheduledAt: testutil.Epoch.Add(48 * time.Hour),
		MaxPlayers:  capacity,
	}
}

func TestApplyJoinNeverExceedsCapacity(t *testing.T) {
	game := newGame(3)
	now := testutil.Epoch
	for i := range 10 {
		_, err := ApplyJoin(game, model.PlayerID(fmt.Sprintf("p%d", i)), now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.LessOrEqual(t, game.Confirmed.Len(), game.MaxPlayers)
	}
	assert.Equal(t, 3, game.Confirmed.Len())
	assert.Equal(t, 7, game.Waiting.Len())
}

func TestApplyLeaveTieBreaksByInsertionOrder(t *testing.T) {
	game := newGame(1)
	same := testutil.Epoch.Add(time.Minute)
	game.Confirmed = game.Confirmed.Append("A", testutil.Epoch)
	game.Waiting = game.Waiting.Append("B", same)
	game.Waiting = game.Waiting.Append("C", same)

	result, err := ApplyLeave(game, "A", testutil.Epoch)
	require.NoError(t, err)
	require.NotNil(t, result.Promoted)
	assert.Equal(t, model.PlayerID("B"), *result.Promoted)
	assert.Equal(t, []model.PlayerID{"C"}, game.Waiting.PlayerIDs())
}

func TestApplyLeavePromotesEarliestJoinTime(t *testing.T) {
	game := newGame(1)
	game.Confirmed = game.Confirmed.Append("A", testutil.Epoch)
	game.Waiting = game.Waiting.Append("late", testutil.Epoch.Add(2*time.Minute))
	game.Waiting = game.Waiting.Append("early", testutil.Epoch.Add(time.Minute))

	result, err := ApplyLeave(game, "A", testutil.Epoch)
	require.NoError(t, err)
	require.NotNil(t, result.Promoted)
	assert.Equal(t, model.PlayerID("early"), *result.Promoted)
}

func TestApplyErrorsDoNotMutate(t *testing.T) {
	game := newGame(1)
	game.Confirmed = game.Confirmed.Append("A", testutil.Epoch)
	snapshot := game.Clone()

	_, err := ApplyLeave(game, "nobody", testutil.Epoch)
	assert.ErrorIs(t, err, model.ErrNotInGame)

	_, err = ApplyJoin(game, "B", game.ScheduledAt)
	assert.ErrorIs(t, err, model.ErrPastGame)

	_, err = ApplyLeave(game, "A", game.ScheduledAt.Add(time.Second))
	assert.ErrorIs(t, err, model.ErrPastGame)

	assert.Equal(t, snapshot, game)
}

func TestStatusOf(t *testing.T) {
	game := newGame(2)
	game.MinPlayers = 2
	game.Confirmed = game.Confirmed.Append("A", testutil.Epoch)

	assert.Equal(t, CapacityStatus{Confirmed: 1, Capacity: 2, MinPlayers: 2, OpenSeats: 1}, StatusOf(game))

	game.Confirmed = game.Confirmed.Append("B", testutil.Epoch)
	game.Waiting = game.Waiting.Append("C", testutil.Epoch)
	assert.Equal(t, CapacityStatus{Confirmed: 2, Capacity: 2, Waiting: 1, MinPlayers: 2, Full: true, HasMinimum: true}, StatusOf(game))

	// Lowering capacity below the confirmed count never reports negative seats
	game.MaxPlayers = 1
	assert.Equal(t, 0, StatusOf(game).OpenSeats)
	assert.True(t, StatusOf(game).Full)
}

func TestFillOpenSeats(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		waiting  []model.PlayerID
		promoted []model.PlayerID
		left     []model.PlayerID
	}{
		{"no waiting", 3, nil, nil, nil},
		{"fills some", 3, []model.PlayerID{"B", "C"}, []model.PlayerID{"B", "C"}, nil},
		{"fills to capacity", 2, []model.PlayerID{"B", "C", "D"}, []model.PlayerID{"B"}, []model.PlayerID{"C", "D"}},
		{"already full", 1, []model.PlayerID{"B"}, nil, []model.PlayerID{"B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			game := newGame(tt.capacity)
			game.Confirmed = game.Confirmed.Append("A", testutil.Epoch)
			for i, id := range tt.waiting {
				game.Waiting = game.Waiting.Append(id, testutil.Epoch.Add(time.Duration(i+1)*time.Minute))
			}

			promoted := FillOpenSeats(game)
			assert.Equal(t, tt.promoted, promoted)
			if len(tt.left) == 0 {
				assert.Empty(t, game.Waiting)
			} else {
				assert.Equal(t, tt.left, game.Waiting.PlayerIDs())
			}
			assert.LessOrEqual(t, game.Confirmed.Len(), tt.capacity)
		})
	}
}
