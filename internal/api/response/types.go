package response

import (
	"time"

	"github.com/mcoot/pokersignup/internal/model"
	"github.com/mcoot/pokersignup/internal/services/auth"
	"github.com/mcoot/pokersignup/internal/services/player"
	"github.com/mcoot/pokersignup/internal/services/roster"
)

// Player represents a player in API responses
type Player struct {
	ID             string     `json:"id"`
	Username       string     `json:"username,omitempty"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name,omitempty"`
	LastName       string     `json:"last_name,omitempty"`
	DisplayName    string     `json:"display_name"`
	IsAdmin        bool       `json:"is_admin"`
	Registered     bool       `json:"registered"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP    string     `json:"last_login_ip,omitempty"`
	CurrentLoginAt *time.Time `json:"current_login_at,omitempty"`
	CurrentLoginIP string     `json:"current_login_ip,omitempty"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:             string(p.ID),
		Username:       p.Username,
		Email:          p.Email,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		DisplayName:    p.DisplayName(),
		IsAdmin:        p.IsAdmin,
		Registered:     p.IsRegistered(),
		LastLoginAt:    p.LastLoginAt,
		LastLoginIP:    p.LastLoginIP,
		CurrentLoginAt: p.CurrentLoginAt,
		CurrentLoginIP: p.CurrentLoginIP,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player    `json:"player"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session and its player
func AuthResponseFromSession(s *auth.Session, p *model.Player) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(p),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// RosterEntry is one player on a game's confirmed or waiting list
type RosterEntry struct {
	PlayerID    string    `json:"player_id"`
	DisplayName string    `json:"display_name,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Names resolves player IDs to display names
type Names map[model.PlayerID]string

func rosterFromModel(r model.Roster, names Names) []RosterEntry {
	out := make([]RosterEntry, len(r))
	for i, e := range r {
		out[i] = RosterEntry{
			PlayerID:    string(e.PlayerID),
			DisplayName: names[e.PlayerID],
			JoinedAt:    e.JoinedAt,
		}
	}
	return out
}

// Game represents a game with its full roster
type Game struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Location    string        `json:"location,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	ScheduledAt time.Time     `json:"scheduled_at"`
	MaxPlayers  int           `json:"max_players"`
	MinPlayers  int           `json:"min_players"`
	Confirmed   []RosterEntry `json:"confirmed"`
	Waiting     []RosterEntry `json:"waiting"`
	IsPast      bool          `json:"is_past"`
	MyPlacement string        `json:"my_placement,omitempty"`
	CreatedBy   string        `json:"created_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Version     int64         `json:"version"`
}

// GameFromModel converts a model.Game as seen by the given player at the given time
func GameFromModel(g *model.Game, viewer model.PlayerID, now time.Time, names Names) Game {
	return Game{
		ID:          string(g.ID),
		Title:       g.Title,
		Location:    g.Location,
		Notes:       g.Notes,
		ScheduledAt: g.ScheduledAt,
		MaxPlayers:  g.MaxPlayers,
		MinPlayers:  g.MinPlayers,
		Confirmed:   rosterFromModel(g.Confirmed, names),
		Waiting:     rosterFromModel(g.Waiting, names),
		IsPast:      g.IsPast(now),
		MyPlacement: string(g.PlacementOf(viewer)),
		CreatedBy:   string(g.CreatedBy),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
		Version:     g.Version,
	}
}

// GameSummary is a game as shown in listings
type GameSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Location       string    `json:"location,omitempty"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	MaxPlayers     int       `json:"max_players"`
	MinPlayers     int       `json:"min_players"`
	ConfirmedCount int       `json:"confirmed_count"`
	WaitingCount   int       `json:"waiting_count"`
	MyPlacement    string    `json:"my_placement,omitempty"`
}

// GameSummaryFromModel converts a model.Game for listings
func GameSummaryFromModel(g *model.Game, viewer model.PlayerID) GameSummary {
	return GameSummary{
		ID:             string(g.ID),
		Title:          g.Title,
		Location:       g.Location,
		ScheduledAt:    g.ScheduledAt,
		MaxPlayers:     g.MaxPlayers,
		MinPlayers:     g.MinPlayers,
		ConfirmedCount: g.Confirmed.Len(),
		WaitingCount:   g.Waiting.Len(),
		MyPlacement:    string(g.PlacementOf(viewer)),
	}
}

// GameList is the response for game listings
type GameList struct {
	Games []GameSummary `json:"games"`
}

// Capacity reports how full a game is
type Capacity struct {
	Confirmed  int  `json:"confirmed"`
	Capacity   int  `json:"capacity"`
	Waiting    int  `json:"waiting"`
	MinPlayers int  `json:"min_players"`
	OpenSeats  int  `json:"open_seats"`
	Full       bool `json:"full"`
	HasMinimum bool `json:"has_minimum"`
}

// CapacityFromStatus converts a roster.CapacityStatus
func CapacityFromStatus(s roster.CapacityStatus) Capacity {
	return Capacity{
		Confirmed:  s.Confirmed,
		Capacity:   s.Capacity,
		Waiting:    s.Waiting,
		MinPlayers: s.MinPlayers,
		OpenSeats:  s.OpenSeats,
		Full:       s.Full,
		HasMinimum: s.HasMinimum,
	}
}

// JoinResponse is the response after joining a game
type JoinResponse struct {
	Outcome   string    `json:"outcome"`
	Placement string    `json:"placement"`
	JoinedAt  time.Time `json:"joined_at"`
	Game      Game      `json:"game"`
}

// LeaveResponse is the response after leaving a game or removing a player from it
type LeaveResponse struct {
	PlayerID  string  `json:"player_id"`
	Placement string  `json:"placement"`
	Promoted  *string `json:"promoted,omitempty"`
	Game      Game    `json:"game"`
}

// UpdateGameResponse is the response after an admin edit
type UpdateGameResponse struct {
	Game     Game     `json:"game"`
	Promoted []string `json:"promoted,omitempty"`
}

// PlayerList is the response for the admin player listing
type PlayerList struct {
	Players []Player `json:"players"`
}

// ImportResponse reports what an invitation-list import did
type ImportResponse struct {
	Created  int      `json:"created"`
	Skipped  int      `json:"skipped"`
	Rejected []string `json:"rejected,omitempty"`
}

// ImportResponseFromResult converts a player.ImportResult
func ImportResponseFromResult(r *player.ImportResult) ImportResponse {
	return ImportResponse{
		Created:  r.Created,
		Skipped:  r.Skipped,
		Rejected: r.Rejected,
	}
}

// Health is the response for the health check
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}
