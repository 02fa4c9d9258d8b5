package model

import "time"

// GameID uniquely identifies a game
type GameID string

// Game is a single scheduled poker game and its roster
type Game struct {
	ID          GameID
	Title       string
	Location    string
	Notes       string
	ScheduledAt time.Time

	// MaxPlayers bounds the confirmed list; MinPlayers is advisory only
	MaxPlayers int
	MinPlayers int

	Confirmed Roster // Players with a seat, in join order
	Waiting   Roster // Overflow queue, FIFO

	CreatedBy PlayerID
	CreatedAt time.Time
	UpdatedAt time.Time

	// Version is maintained by storage for compare-and-swap writes
	Version int64
}

// IsPast returns true if the game no longer accepts roster changes at the given time
func (g *Game) IsPast(now time.Time) bool {
	return !g.ScheduledAt.After(now)
}

// IsFull returns true if every seat is taken
func (g *Game) IsFull() bool {
	return g.Confirmed.Len() >= g.MaxPlayers
}

// OpenSeats returns the number of unclaimed seats
func (g *Game) OpenSeats() int {
	if n := g.MaxPlayers - g.Confirmed.Len(); n > 0 {
		return n
	}
	return 0
}

// HasMinimum returns true once the advisory minimum is met
func (g *Game) HasMinimum() bool {
	return g.Confirmed.Len() >= g.MinPlayers
}

// PlacementOf returns which list holds the player
func (g *Game) PlacementOf(playerID PlayerID) Placement {
	switch {
	case g.Confirmed.Contains(playerID):
		return PlacementConfirmed
	case g.Waiting.Contains(playerID):
		return PlacementWaitlisted
	default:
		return PlacementNone
	}
}

// Clone returns a deep copy of the game
func (g *Game) Clone() *Game {
	c := *g
	c.Confirmed = g.Confirmed.Clone()
	c.Waiting = g.Waiting.Clone()
	return &c
}
