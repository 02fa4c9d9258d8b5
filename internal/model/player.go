package model

import (
	"strings"
	"time"
)

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player represents someone who can sign up for games
type Player struct {
	ID        PlayerID
	Username  string // Empty for imported players who have not registered yet
	Email     string
	FirstName string
	LastName  string
	IsAdmin   bool

	// Login tracking
	LastLoginAt    *time.Time
	LastLoginIP    string
	CurrentLoginAt *time.Time
	CurrentLoginIP string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRegistered returns true if the player has claimed an account
func (p *Player) IsRegistered() bool {
	return p.Username != ""
}

// DisplayName returns the best available human-readable name
func (p *Player) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	switch {
	case name != "":
		return name
	case p.Username != "":
		return p.Username
	default:
		return p.Email
	}
}

// RecordLogin rotates the login tracking fields
func (p *Player) RecordLogin(at time.Time, ip string) {
	p.LastLoginAt = p.CurrentLoginAt
	p.LastLoginIP = p.CurrentLoginIP
	p.CurrentLoginAt = &at
	p.CurrentLoginIP = ip
	p.UpdatedAt = at
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisteredPlayer holds authentication data for a player
// Stored separately for security (password never in memory with session)
type RegisteredPlayer struct {
	PlayerID     PlayerID
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
