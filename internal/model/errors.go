package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerExists   = errors.New("player already exists")
	ErrUsernameTaken  = errors.New("username belongs to another player")

	// Game errors
	ErrGameNotFound           = errors.New("game not found")
	ErrGameExists             = errors.New("game already exists")
	ErrPastGame               = errors.New("modifications to past games are not allowed")
	ErrNotInGame              = errors.New("player is not in this game")
	ErrInvalidCapacity        = errors.New("max players must be positive and at least min players")
	ErrCapacityBelowConfirmed = errors.New("max players cannot be lower than the confirmed count")

	// Permission errors
	ErrForbidden = errors.New("admin privileges required")

	// Storage errors
	ErrPersistence     = errors.New("persistence failure")
	ErrVersionConflict = errors.New("game was modified concurrently")
)
