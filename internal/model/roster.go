package model

import "time"

// Placement says which list of a game a player is on
type Placement string

const (
	PlacementNone       Placement = ""
	PlacementConfirmed  Placement = "confirmed"
	PlacementWaitlisted Placement = "waitlisted"
)

// RosterEntry records when a player joined a list
type RosterEntry struct {
	PlayerID PlayerID
	JoinedAt time.Time
}

// Roster is an insertion-ordered mapping from player to join time.
// The zero value is an empty roster.
type Roster []RosterEntry

// Len returns the number of entries
func (r Roster) Len() int {
	return len(r)
}

// IndexOf returns the position of the player, or -1
func (r Roster) IndexOf(playerID PlayerID) int {
	for i, e := range r {
		if e.PlayerID == playerID {
			return i
		}
	}
	return -1
}

// Contains returns true if the player is in the roster
func (r Roster) Contains(playerID PlayerID) bool {
	return r.IndexOf(playerID) >= 0
}

// JoinedAt returns the player's join time and whether they are present
func (r Roster) JoinedAt(playerID PlayerID) (time.Time, bool) {
	i := r.IndexOf(playerID)
	if i < 0 {
		return time.Time{}, false
	}
	return r[i].JoinedAt, true
}

// Append adds an entry at the end. Callers must check Contains first.
func (r Roster) Append(playerID PlayerID, joinedAt time.Time) Roster {
	return append(r, RosterEntry{PlayerID: playerID, JoinedAt: joinedAt})
}

// Remove deletes the player's entry, preserving the order of the rest
func (r Roster) Remove(playerID PlayerID) (Roster, bool) {
	i := r.IndexOf(playerID)
	if i < 0 {
		return r, false
	}
	out := make(Roster, 0, len(r)-1)
	out = append(out, r[:i]...)
	out = append(out, r[i+1:]...)
	return out, true
}

// Earliest returns the index of the entry with the smallest join time.
// Ties go to the entry inserted first. Returns -1 for an empty roster.
func (r Roster) Earliest() int {
	best := -1
	for i, e := range r {
		if best < 0 || e.JoinedAt.Before(r[best].JoinedAt) {
			best = i
		}
	}
	return best
}

// PlayerIDs returns the player IDs in roster order
func (r Roster) PlayerIDs() []PlayerID {
	ids := make([]PlayerID, len(r))
	for i, e := range r {
		ids[i] = e.PlayerID
	}
	return ids
}

// Clone returns an independent copy
func (r Roster) Clone() Roster {
	if r == nil {
		return nil
	}
	out := make(Roster, len(r))
	copy(out, r)
	return out
}
