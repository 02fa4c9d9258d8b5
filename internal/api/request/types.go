package request

import "time"

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateGameRequest is the request body for scheduling a game
type CreateGameRequest struct {
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	Notes       string    `json:"notes"`
	ScheduledAt time.Time `json:"scheduled_at"`
	MaxPlayers  int       `json:"max_players"`
	MinPlayers  int       `json:"min_players"`
}

// UpdateGameRequest is the request body for editing a game. Omitted fields are unchanged.
type UpdateGameRequest struct {
	Title       *string    `json:"title,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	MaxPlayers  *int       `json:"max_players,omitempty"`
	MinPlayers  *int       `json:"min_players,omitempty"`
}

// UpdatePlayerRequest is the request body for changing a player's admin flag
type UpdatePlayerRequest struct {
	IsAdmin *bool `json:"is_admin"`
}
