package storage

import (
	"context"

	"github.com/mcoot/pokersignup/internal/model"
)

// Storage defines the interface for data persistence.
//
// Games are written as whole documents. SaveGame is a compare-and-swap on
// Game.Version: it succeeds only if the stored version equals the version
// the caller loaded, and bumps Version on the passed game when it does.
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	GetPlayerByEmail(ctx context.Context, email string) (*model.Player, error)
	ListPlayers(ctx context.Context) ([]*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Registered player operations.
	// SaveRegisteredPlayer claims the username atomically and fails with
	// model.ErrUsernameTaken if another player already holds it.
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)
	DeleteRegisteredPlayer(ctx context.Context, playerID model.PlayerID) error

	// Game operations
	CreateGame(ctx context.Context, game *model.Game) error
	SaveGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	ListGames(ctx context.Context) ([]*model.Game, error)
	DeleteGame(ctx context.Context, id model.GameID) error
}
