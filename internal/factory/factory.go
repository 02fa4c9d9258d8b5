package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/pokersignup/internal/api"
	"github.com/mcoot/pokersignup/internal/dependencies/clock"
	"github.com/mcoot/pokersignup/internal/dependencies/ids"
	"github.com/mcoot/pokersignup/internal/events"
	"github.com/mcoot/pokersignup/internal/services/auth"
	"github.com/mcoot/pokersignup/internal/services/game"
	"github.com/mcoot/pokersignup/internal/services/player"
	"github.com/mcoot/pokersignup/internal/services/roster"
	"github.com/mcoot/pokersignup/internal/storage"
	"github.com/mcoot/pokersignup/internal/storage/memory"
	redisstorage "github.com/mcoot/pokersignup/internal/storage/redis"
	sqlitestorage "github.com/mcoot/pokersignup/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	Storage     storage.Storage
	StorageType string

	// External dependencies
	Clock clock.Clock
	IDs   ids.Generator

	// Services
	RosterManager  *roster.Manager
	GameController *game.Controller
	AuthService    *auth.Service
	PlayerService  *player.Service
	HubManager     *events.HubManager
	Broadcaster    *events.Broadcaster

	Logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLiteConfig holds the database location (optional, defaults to sqlite.DefaultConfig())
	SQLiteConfig *sqlitestorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	var store storage.Storage
	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig, logger)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypeSQLite:
		sqliteCfg := sqlitestorage.DefaultConfig()
		if cfg.SQLiteConfig != nil {
			sqliteCfg = *cfg.SQLiteConfig
		}
		sqliteStore, err := sqlitestorage.New(sqliteCfg, logger)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg.SessionDuration = auth.DefaultConfig().SessionDuration
	}

	app := newWithDependencies(store, clock.New(), ids.New(), authCfg, logger)
	app.StorageType = storageType
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, gen ids.Generator, authCfg auth.Config, logger *slog.Logger) *App {
	rosterManager := roster.NewManager(store, logger)
	hubManager := events.NewHubManager(logger)

	return &App{
		Storage:        store,
		StorageType:    StorageTypeMemory,
		Clock:          clk,
		IDs:            gen,
		RosterManager:  rosterManager,
		GameController: game.NewController(store, rosterManager, clk, gen, logger),
		AuthService:    auth.New(store, clk, gen, authCfg, logger),
		PlayerService:  player.New(store, clk, gen, logger),
		HubManager:     hubManager,
		Broadcaster:    events.NewBroadcaster(hubManager, clk, logger),
		Logger:         logger,
	}
}

// APIRouter builds the HTTP API on top of the app's services
func (a *App) APIRouter() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:         a.Logger,
		Clock:          a.Clock,
		AuthService:    a.AuthService,
		PlayerService:  a.PlayerService,
		GameController: a.GameController,
		RosterManager:  a.RosterManager,
		HubManager:     a.HubManager,
		Publisher:      a.Broadcaster,
		StorageType:    a.StorageType,
	})
}

// Close disconnects SSE clients and releases the storage backend
func (a *App) Close() error {
	a.HubManager.CloseAll()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
