package roster

import (
	"time"

	"github.com/mcoot/pokersignup/internal/model"
)

// JoinOutcome says what a join did
type JoinOutcome string

const (
	OutcomeConfirmed     JoinOutcome = "confirmed"
	OutcomeWaitlisted    JoinOutcome = "waitlisted"
	OutcomeAlreadyJoined JoinOutcome = "already_joined"
)

// JoinResult is returned by Join and ApplyJoin
type JoinResult struct {
	Outcome   JoinOutcome
	Placement model.Placement // Where the player is now
	JoinedAt  time.Time
	Game      *model.Game // Game state after the join
}

// LeaveResult is returned by Leave and ApplyLeave
type LeaveResult struct {
	PlayerID  model.PlayerID
	Placement model.Placement // Where the player was before leaving
	Promoted  *model.PlayerID // Waiting player moved into the freed seat, if any
	Game      *model.Game     // Game state after the leave
}

// CapacityStatus summarizes how full a game is
type CapacityStatus struct {
	Confirmed  int
	Capacity   int
	Waiting    int
	MinPlayers int
	OpenSeats  int
	Full       bool
	HasMinimum bool
}

// StatusOf computes the capacity status of a game
func StatusOf(game *model.Game) CapacityStatus {
	return CapacityStatus{
		Confirmed:  game.Confirmed.Len(),
		Capacity:   game.MaxPlayers,
		Waiting:    game.Waiting.Len(),
		MinPlayers: game.MinPlayers,
		OpenSeats:  game.OpenSeats(),
		Full:       game.IsFull(),
		HasMinimum: game.HasMinimum(),
	}
}

// ApplyJoin adds the player to the game in place.
// The game must not be past; joining twice is a no-op reporting the current placement.
func ApplyJoin(game *model.Game, playerID model.PlayerID, now time.Time) (JoinResult, error) {
	if game.IsPast(now) {
		return JoinResult{}, model.ErrPastGame
	}

	if at, ok := game.Confirmed.JoinedAt(playerID); ok {
		return JoinResult{Outcome: OutcomeAlreadyJoined, Placement: model.PlacementConfirmed, JoinedAt: at, Game: game}, nil
	}
	if at, ok := game.Waiting.JoinedAt(playerID); ok {
		return JoinResult{Outcome: OutcomeAlreadyJoined, Placement: model.PlacementWaitlisted, JoinedAt: at, Game: game}, nil
	}

	if !game.IsFull() {
		game.Confirmed = game.Confirmed.Append(playerID, now)
		return JoinResult{Outcome: OutcomeConfirmed, Placement: model.PlacementConfirmed, JoinedAt: now, Game: game}, nil
	}

	game.Waiting = game.Waiting.Append(playerID, now)
	return JoinResult{Outcome: OutcomeWaitlisted, Placement: model.PlacementWaitlisted, JoinedAt: now, Game: game}, nil
}

// ApplyLeave removes the player from the game in place.
// Freeing a confirmed seat promotes at most one waiting player.
func ApplyLeave(game *model.Game, playerID model.PlayerID, now time.Time) (LeaveResult, error) {
	if game.IsPast(now) {
		return LeaveResult{}, model.ErrPastGame
	}

	result := LeaveResult{PlayerID: playerID, Game: game}

	if confirmed, ok := game.Confirmed.Remove(playerID); ok {
		game.Confirmed = confirmed
		result.Placement = model.PlacementConfirmed
		result.Promoted = promoteOne(game)
		return result, nil
	}

	if waiting, ok := game.Waiting.Remove(playerID); ok {
		game.Waiting = waiting
		result.Placement = model.PlacementWaitlisted
		return result, nil
	}

	return LeaveResult{}, model.ErrNotInGame
}

// FillOpenSeats promotes waiting players, earliest first, until the game is full
// or nobody is waiting. Returns the promoted players in promotion order.
func FillOpenSeats(game *model.Game) []model.PlayerID {
	var promoted []model.PlayerID
	for !game.IsFull() {
		id := promoteOne(game)
		if id == nil {
			break
		}
		promoted = append(promoted, *id)
	}
	return promoted
}

// promoteOne moves the earliest waiting entry to the end of the confirmed list,
// keeping its original join time
func promoteOne(game *model.Game) *model.PlayerID {
	i := game.Waiting.Earliest()
	if i < 0 {
		return nil
	}
	entry := game.Waiting[i]
	game.Waiting, _ = game.Waiting.Remove(entry.PlayerID)
	game.Confirmed = game.Confirmed.Append(entry.PlayerID, entry.JoinedAt)
	return &entry.PlayerID
}
