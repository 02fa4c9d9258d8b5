package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestRosterAppendPreservesOrder(t *testing.T) {
	var r Roster
	r = r.Append("a", t0)
	r = r.Append("b", t0.Add(time.Minute))
	r = r.Append("c", t0.Add(2*time.Minute))

	assert.Equal(t, []PlayerID{"a", "b", "c"}, r.PlayerIDs())
	assert.Equal(t, 3, r.Len())
	assert.True(t, r.Contains("b"))
	assert.False(t, r.Contains("z"))
}

func TestRosterRemove(t *testing.T) {
	r := Roster{}.Append("a", t0).Append("b", t0).Append("c", t0)

	out, ok := r.Remove("b")
	require.True(t, ok)
	assert.Equal(t, []PlayerID{"a", "c"}, out.PlayerIDs())

	// Original is untouched
	assert.Equal(t, []PlayerID{"a", "b", "c"}, r.PlayerIDs())

	same, ok := out.Remove("missing")
	assert.False(t, ok)
	assert.Equal(t, out, same)
}

func TestRosterEarliest(t *testing.T) {
	tests := []struct {
		name     string
		roster   Roster
		expected int
	}{
		{
			name:     "empty",
			roster:   nil,
			expected: -1,
		},
		{
			name:     "ascending",
			roster:   Roster{}.Append("a", t0).Append("b", t0.Add(time.Second)),
			expected: 0,
		},
		{
			name:     "out of order timestamps",
			roster:   Roster{}.Append("a", t0.Add(time.Hour)).Append("b", t0),
			expected: 1,
		},
		{
			name:     "ties go to first inserted",
			roster:   Roster{}.Append("a", t0.Add(time.Hour)).Append("b", t0).Append("c", t0),
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.roster.Earliest())
		})
	}
}

func TestRosterJoinedAt(t *testing.T) {
	r := Roster{}.Append("a", t0)

	at, ok := r.JoinedAt("a")
	require.True(t, ok)
	assert.Equal(t, t0, at)

	_, ok = r.JoinedAt("b")
	assert.False(t, ok)
}

func TestGameCloneIsIndependent(t *testing.T) {
	g := &Game{
		ID:         "g1",
		MaxPlayers: 2,
		Confirmed:  Roster{}.Append("a", t0),
		Waiting:    Roster{}.Append("b", t0),
	}

	c := g.Clone()
	c.Confirmed = c.Confirmed.Append("x", t0)
	c.Waiting[0].PlayerID = "y"

	assert.Equal(t, []PlayerID{"a"}, g.Confirmed.PlayerIDs())
	assert.Equal(t, []PlayerID{"b"}, g.Waiting.PlayerIDs())
}

func TestGamePlacementAndCapacity(t *testing.T) {
	g := &Game{
		MaxPlayers:  2,
		MinPlayers:  2,
		ScheduledAt: t0,
		Confirmed:   Roster{}.Append("a", t0),
		Waiting:     Roster{}.Append("b", t0),
	}

	assert.Equal(t, PlacementConfirmed, g.PlacementOf("a"))
	assert.Equal(t, PlacementWaitlisted, g.PlacementOf("b"))
	assert.Equal(t, PlacementNone, g.PlacementOf("c"))
	assert.Equal(t, 1, g.OpenSeats())
	assert.False(t, g.IsFull())
	assert.False(t, g.HasMinimum())

	assert.True(t, g.IsPast(t0), "a game starting now is already closed")
	assert.False(t, g.IsPast(t0.Add(-time.Second)))
}
