package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/pokersignup/internal/model"
	"github.com/mcoot/pokersignup/internal/storage"
)

// Manager applies join/leave to stored games.
//
// Each call loads the game, mutates a copy and writes it back with a
// version-checked save. The caller's view only changes once the save lands.
// Calls for the same game are serialized in-process; across processes the
// storage compare-and-swap rejects stale writes with model.ErrVersionConflict.
type Manager struct {
	storage storage.Storage
	logger  *slog.Logger
	locks   *gameLocks
}

// NewManager creates a new roster Manager
func NewManager(storage storage.Storage, logger *slog.Logger) *Manager {
	return &Manager{
		storage: storage,
		logger:  logger.With(slog.String("component", "roster")),
		locks:   newGameLocks(),
	}
}

// Join adds the player to the game's confirmed list, or its waiting list when full
func (m *Manager) Join(ctx context.Context, gameID model.GameID, playerID model.PlayerID, now time.Time) (*JoinResult, error) {
	unlock := m.locks.lock(gameID)
	defer unlock()

	game, err := m.load(ctx, gameID)
	if err != nil {
		return nil, err
	}

	next := game.Clone()
	result, err := ApplyJoin(next, playerID, now)
	if err != nil {
		return nil, err
	}

	if result.Outcome == OutcomeAlreadyJoined {
		result.Game = game
		return &result, nil
	}

	next.UpdatedAt = now
	if err := m.save(ctx, next); err != nil {
		return nil, err
	}

	m.logger.Info("player joined game",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
		slog.String("outcome", string(result.Outcome)),
		slog.Int("confirmed", next.Confirmed.Len()),
		slog.Int("waiting", next.Waiting.Len()),
	)

	return &result, nil
}

// Leave removes the player from the game, promoting one waiting player if a seat opened
func (m *Manager) Leave(ctx context.Context, gameID model.GameID, playerID model.PlayerID, now time.Time) (*LeaveResult, error) {
	unlock := m.locks.lock(gameID)
	defer unlock()

	game, err := m.load(ctx, gameID)
	if err != nil {
		return nil, err
	}

	next := game.Clone()
	result, err := ApplyLeave(next, playerID, now)
	if err != nil {
		return nil, err
	}

	next.UpdatedAt = now
	if err := m.save(ctx, next); err != nil {
		return nil, err
	}

	attrs := []any{
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
		slog.String("placement", string(result.Placement)),
	}
	if result.Promoted != nil {
		attrs = append(attrs, slog.String("promoted", string(*result.Promoted)))
	}
	m.logger.Info("player left game", attrs...)

	return &result, nil
}

// Update applies fn to a copy of the game under the game's lock and saves the result.
// Errors from fn are returned as-is and nothing is written.
func (m *Manager) Update(ctx context.Context, gameID model.GameID, now time.Time, fn func(game *model.Game) error) (*model.Game, error) {
	unlock := m.locks.lock(gameID)
	defer unlock()

	game, err := m.load(ctx, gameID)
	if err != nil {
		return nil, err
	}

	next := game.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	next.UpdatedAt = now
	if err := m.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// CapacityStatus reports seat usage without changing anything
func (m *Manager) CapacityStatus(ctx context.Context, gameID model.GameID) (CapacityStatus, error) {
	game, err := m.load(ctx, gameID)
	if err != nil {
		return CapacityStatus{}, err
	}
	return StatusOf(game), nil
}

func (m *Manager) load(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	game, err := m.storage.GetGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, model.ErrGameNotFound) {
			return nil, err
		}
		return nil, persistenceError(err)
	}
	return game, nil
}

func (m *Manager) save(ctx context.Context, game *model.Game) error {
	if err := m.storage.SaveGame(ctx, game); err != nil {
		m.logger.Error("failed to save game",
			slog.String("game_id", string(game.ID)),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, model.ErrGameNotFound) {
			return err
		}
		return persistenceError(err)
	}
	return nil
}

// persistenceError marks a storage failure so callers can match model.ErrPersistence
func persistenceError(err error) error {
	if errors.Is(err, model.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrPersistence, err)
}

// ManagerInterface is implemented by Manager
type ManagerInterface interface {
	Join(ctx context.Context, gameID model.GameID, playerID model.PlayerID, now time.Time) (*JoinResult, error)
	Leave(ctx context.Context, gameID model.GameID, playerID model.PlayerID, now time.Time) (*LeaveResult, error)
	Update(ctx context.Context, gameID model.GameID, now time.Time, fn func(game *model.Game) error) (*model.Game, error)
	CapacityStatus(ctx context.Context, gameID model.GameID) (CapacityStatus, error)
}

var _ ManagerInterface = (*Manager)(nil)
