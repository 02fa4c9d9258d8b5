package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventRosterUpdated EventType = "roster-update"
	EventGameDeleted   EventType = "game-deleted"
)

// RosterChange describes what a single roster operation did
type RosterChange struct {
	PlayerID PlayerID
	Action   string // "joined", "left" or "removed"
	Placed   Placement
	Promoted *PlayerID
}

// Event is published to clients watching a game
type Event struct {
	Type      EventType
	Timestamp time.Time
	GameID    GameID
	Change    *RosterChange // nil for events that are not roster operations
}
