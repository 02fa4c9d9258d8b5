package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mcoot/pokersignup/internal/model"
	"github.com/mcoot/pokersignup/internal/storage"
)

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens (or creates) the database and applies the schema
func New(cfg Config, logger *slog.Logger) (*Storage, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer at a time, and every connection to
	// ":memory:" would otherwise see its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Storage{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite-storage")),
	}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO players (id, email, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, data = excluded.data
	`, string(player.ID), model.NormalizeEmail(player.Email), string(data))
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM players WHERE id = ?`, string(id))
	return scanPlayer(row)
}

func (s *Storage) GetPlayerByEmail(ctx context.Context, email string) (*model.Player, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM players WHERE email = ? AND email != '' LIMIT 1`, model.NormalizeEmail(email))
	return scanPlayer(row)
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM players`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	players := []*model.Player{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var player model.Player
		if err := json.Unmarshal([]byte(data), &player); err != nil {
			s.logger.Warn("skipping unreadable player", slog.String("error", err.Error()))
			continue
		}
		players = append(players, &player)
	}
	return players, rows.Err()
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, string(id))
	return err
}

func scanPlayer(row *sql.Row) (*model.Player, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	var player model.Player
	if err := json.Unmarshal([]byte(data), &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO registered_players (player_id, username, data) VALUES (?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET username = excluded.username, data = excluded.data
	`, string(rp.PlayerID), rp.Username, string(data))
	// The player_id conflict is handled above, so a constraint failure here is the username
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return model.ErrUsernameTaken
	}
	return err
}

func (s *Storage) DeleteRegisteredPlayer(ctx context.Context, playerID model.PlayerID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM registered_players WHERE player_id = ?`, string(playerID))
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM registered_players WHERE player_id = ?`, string(playerID))
	return scanRegisteredPlayer(row)
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM registered_players WHERE username = ?`, username)
	return scanRegisteredPlayer(row)
}

func scanRegisteredPlayer(row *sql.Row) (*model.RegisteredPlayer, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	var rp model.RegisteredPlayer
	if err := json.Unmarshal([]byte(data), &rp); err != nil {
		return nil, err
	}
	return &rp, nil
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	stored := game.Clone()
	stored.Version = 1
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO games (id, version, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, string(game.ID), stored.Version, string(data))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrGameExists
	}

	game.Version = stored.Version
	return nil
}

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	next := game.Clone()
	next.Version = game.Version + 1
	data, err := json.Marshal(next)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE games SET version = ?, data = ? WHERE id = ? AND version = ?
	`, next.Version, string(data), string(game.ID), game.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE id = ?`, string(game.ID)).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return model.ErrGameNotFound
		}
		return model.ErrVersionConflict
	}

	game.Version = next.Version
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	var (
		version int64
		data    string
	)
	err := s.db.QueryRowContext(ctx, `SELECT version, data FROM games WHERE id = ?`, string(id)).Scan(&version, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	var game model.Game
	if err := json.Unmarshal([]byte(data), &game); err != nil {
		return nil, err
	}
	game.Version = version
	return &game, nil
}

func (s *Storage) ListGames(ctx context.Context) ([]*model.Game, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version, data FROM games`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	games := []*model.Game{}
	for rows.Next() {
		var (
			version int64
			data    string
		)
		if err := rows.Scan(&version, &data); err != nil {
			return nil, err
		}
		var game model.Game
		if err := json.Unmarshal([]byte(data), &game); err != nil {
			s.logger.Warn("skipping unreadable game", slog.String("error", err.Error()))
			continue
		}
		game.Version = version
		games = append(games, &game)
	}
	return games, rows.Err()
}

func (s *Storage) DeleteGame(ctx context.Context, id model.GameID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, string(id))
	return err
}
