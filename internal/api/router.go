package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pokersignup/internal/api/handler"
	"github.com/mcoot/pokersignup/internal/api/middleware"
	"github.com/mcoot/pokersignup/internal/api/response"
	"github.com/mcoot/pokersignup/internal/dependencies/clock"
	"github.com/mcoot/pokersignup/internal/events"
	sharedmw "github.com/mcoot/pokersignup/internal/middleware"
	"github.com/mcoot/pokersignup/internal/services/auth"
	"github.com/mcoot/pokersignup/internal/services/game"
	"github.com/mcoot/pokersignup/internal/services/player"
	"github.com/mcoot/pokersignup/internal/services/roster"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Clock          clock.Clock
	AuthService    *auth.Service
	PlayerService  *player.Service
	GameController game.ControllerInterface
	RosterManager  roster.ManagerInterface
	HubManager     *events.HubManager
	Publisher      events.Publisher
	StorageType    string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	gameHandler := handler.NewGameHandler(cfg.GameController, cfg.RosterManager, cfg.PlayerService, cfg.Publisher, cfg.HubManager, cfg.Clock)
	adminHandler := handler.NewAdminHandler(cfg.GameController, cfg.RosterManager, cfg.PlayerService, cfg.Publisher, cfg.Clock)

	authMiddleware := middleware.Auth(cfg.AuthService)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(sharedmw.Logging(cfg.Logger))

	api.HandleFunc("/health", healthHandler(cfg.StorageType)).Methods(http.MethodGet)

	// Account routes (no auth required for registering/logging in)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/logout", playerHandler.Logout).Methods(http.MethodPost)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)

	// Game routes (all require auth)
	games := api.PathPrefix("/games").Subrouter()
	games.Use(authMiddleware)
	games.HandleFunc("", gameHandler.List).Methods(http.MethodGet)
	games.HandleFunc("/{id}", gameHandler.Get).Methods(http.MethodGet)
	games.HandleFunc("/{id}/capacity", gameHandler.Capacity).Methods(http.MethodGet)
	games.HandleFunc("/{id}/join", gameHandler.Join).Methods(http.MethodPost)
	games.HandleFunc("/{id}/leave", gameHandler.Leave).Methods(http.MethodPost)
	games.HandleFunc("/{id}/events", gameHandler.Events).Methods(http.MethodGet)

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authMiddleware)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/games", adminHandler.CreateGame).Methods(http.MethodPost)
	admin.HandleFunc("/games/{id}", adminHandler.UpdateGame).Methods(http.MethodPatch)
	admin.HandleFunc("/games/{id}", adminHandler.DeleteGame).Methods(http.MethodDelete)
	admin.HandleFunc("/games/{id}/players/{player_id}", adminHandler.RemovePlayer).Methods(http.MethodDelete)
	admin.HandleFunc("/players", adminHandler.ListPlayers).Methods(http.MethodGet)
	admin.HandleFunc("/players/import", adminHandler.ImportPlayers).Methods(http.MethodPost)
	admin.HandleFunc("/players/{player_id}", adminHandler.UpdatePlayer).Methods(http.MethodPatch)

	return r
}

func healthHandler(storageType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: storageType})
	}
}
