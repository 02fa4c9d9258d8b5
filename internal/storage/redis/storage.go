package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/pokersignup/internal/model"
	"github.com/mcoot/pokersignup/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Each record is one JSON document; games are updated with WATCH/MULTI so a
// save only lands if nobody else wrote the game since it was read.
type Storage struct {
	client *redis.Client
	cfg    Config
	keys   keys
	logger *slog.Logger
}

// New creates a new Redis storage instance
func New(cfg Config, logger *slog.Logger) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, logger *slog.Logger) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
		keys:   keys{prefix: cfg.KeyPrefix},
		logger: logger.With(slog.String("component", "redis-storage")),
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// Drop a stale email index entry if the email changed
	previous, err := s.GetPlayer(ctx, player.ID)
	if err != nil && !errors.Is(err, model.ErrPlayerNotFound) {
		return err
	}

	pipe := s.client.TxPipeline()
	if previous != nil && previous.Email != "" && model.NormalizeEmail(previous.Email) != model.NormalizeEmail(player.Email) {
		pipe.Del(ctx, s.keys.email(previous.Email))
	}
	pipe.Set(ctx, s.keys.player(player.ID), data, 0)
	pipe.SAdd(ctx, s.keys.players(), string(player.ID))
	if player.Email != "" {
		pipe.Set(ctx, s.keys.email(player.Email), string(player.ID), 0)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, s.keys.player(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetPlayerByEmail(ctx context.Context, email string) (*model.Player, error) {
	playerID, err := s.client.Get(ctx, s.keys.email(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	return s.GetPlayer(ctx, model.PlayerID(playerID))
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	ids, err := s.client.SMembers(ctx, s.keys.players()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Player{}, nil
	}

	playerKeys := make([]string, len(ids))
	for i, id := range ids {
		playerKeys[i] = s.keys.player(model.PlayerID(id))
	}

	values, err := s.client.MGet(ctx, playerKeys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(values))
	for i, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var player model.Player
		if err := json.Unmarshal([]byte(str), &player); err != nil {
			s.logger.Warn("skipping unreadable player", slog.String("key", playerKeys[i]), slog.String("error", err.Error()))
			continue
		}
		players = append(players, &player)
	}
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	player, err := s.GetPlayer(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keys.player(id))
	pipe.SRem(ctx, s.keys.players(), string(id))
	if player.Email != "" {
		pipe.Del(ctx, s.keys.email(player.Email))
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return err
	}

	// Claim the username first; SETNX makes the claim atomic across servers
	usernameKey := s.keys.username(rp.Username)
	claimed, err := s.client.SetNX(ctx, usernameKey, string(rp.PlayerID), 0).Result()
	if err != nil {
		return err
	}
	if !claimed {
		owner, err := s.client.Get(ctx, usernameKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if owner != string(rp.PlayerID) {
			return model.ErrUsernameTaken
		}
	}

	return s.client.Set(ctx, s.keys.registeredPlayer(rp.PlayerID), data, 0).Err()
}

func (s *Storage) DeleteRegisteredPlayer(ctx context.Context, playerID model.PlayerID) error {
	rp, err := s.GetRegisteredPlayer(ctx, playerID)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keys.registeredPlayer(playerID))
	pipe.Del(ctx, s.keys.username(rp.Username))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	data, err := s.client.Get(ctx, s.keys.registeredPlayer(playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var rp model.RegisteredPlayer
	if err := json.Unmarshal(data, &rp); err != nil {
		return nil, err
	}
	return &rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	playerID, err := s.client.Get(ctx, s.keys.username(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	return s.GetRegisteredPlayer(ctx, model.PlayerID(playerID))
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	stored := game.Clone()
	stored.Version = 1
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, s.keys.game(game.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrGameExists
	}
	if err := s.client.SAdd(ctx, s.keys.games(), string(game.ID)).Err(); err != nil {
		return err
	}

	game.Version = 1
	return nil
}

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	key := s.keys.game(game.ID)

	next := game.Clone()
	next.Version = game.Version + 1
	data, err := json.Marshal(next)
	if err != nil {
		return err
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrGameNotFound
			}
			return err
		}

		var stored struct{ Version int64 }
		if err := json.Unmarshal(current, &stored); err != nil {
			return err
		}
		if stored.Version != game.Version {
			return model.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return model.ErrVersionConflict
	}
	if err != nil {
		return err
	}

	game.Version = next.Version
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	data, err := s.client.Get(ctx, s.keys.game(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	var game model.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *Storage) ListGames(ctx context.Context) ([]*model.Game, error) {
	ids, err := s.client.SMembers(ctx, s.keys.games()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Game{}, nil
	}

	gameKeys := make([]string, len(ids))
	for i, id := range ids {
		gameKeys[i] = s.keys.game(model.GameID(id))
	}

	values, err := s.client.MGet(ctx, gameKeys...).Result()
	if err != nil {
		return nil, err
	}

	games := make([]*model.Game, 0, len(values))
	var expired []any
	for i, val := range values {
		str, ok := val.(string)
		if !ok {
			// Deleted out from under the index; prune it below
			expired = append(expired, ids[i])
			continue
		}
		var game model.Game
		if err := json.Unmarshal([]byte(str), &game); err != nil {
			s.logger.Warn("skipping unreadable game", slog.String("key", gameKeys[i]), slog.String("error", err.Error()))
			continue
		}
		games = append(games, &game)
	}

	if len(expired) > 0 {
		if err := s.client.SRem(ctx, s.keys.games(), expired...).Err(); err != nil {
			s.logger.Warn("failed to prune game index", slog.String("error", err.Error()))
		}
	}

	return games, nil
}

func (s *Storage) DeleteGame(ctx context.Context, id model.GameID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keys.game(id))
	pipe.SRem(ctx, s.keys.games(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}
