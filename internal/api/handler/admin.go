package handler

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pokersignup/internal/api/middleware"
	"github.com/mcoot/pokersignup/internal/api/request"
	"github.com/mcoot/pokersignup/internal/api/response"
	"github.com/mcoot/pokersignup/internal/dependencies/clock"
	"github.com/mcoot/pokersignup/internal/events"
	"github.com/mcoot/pokersignup/internal/model"
	"github.com/mcoot/pokersignup/internal/services/game"
	"github.com/mcoot/pokersignup/internal/services/player"
	"github.com/mcoot/pokersignup/internal/services/roster"
)

// maxImportSize bounds the invitation list upload
const maxImportSize = 1 << 20

// AdminHandler handles admin-only game and player management
type AdminHandler struct {
	games     game.ControllerInterface
	roster    roster.ManagerInterface
	players   *player.Service
	publisher events.Publisher
	clock     clock.Clock
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	games game.ControllerInterface,
	roster roster.ManagerInterface,
	players *player.Service,
	publisher events.Publisher,
	clock clock.Clock,
) *AdminHandler {
	return &AdminHandler{
		games:     games,
		roster:    roster,
		players:   players,
		publisher: publisher,
		clock:     clock,
	}
}

// CreateGame handles POST /api/v1/admin/games
func (h *AdminHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	admin := middleware.MustGetPlayer(r.Context())

	var req request.CreateGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ScheduledAt.IsZero() {
		WriteError(w, NewInvalidRequestError("scheduled_at is required"))
		return
	}

	g, err := h.games.CreateGame(r.Context(), admin.ID, game.Details{
		Title:       req.Title,
		Location:    req.Location,
		Notes:       req.Notes,
		ScheduledAt: req.ScheduledAt,
		MaxPlayers:  req.MaxPlayers,
		MinPlayers:  req.MinPlayers,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GameFromModel(g, admin.ID, h.clock.Now(), nil))
}

// UpdateGame handles PATCH /api/v1/admin/games/{id}
func (h *AdminHandler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	admin := middleware.MustGetPlayer(r.Context())

	var req request.UpdateGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, promoted, err := h.games.UpdateGame(r.Context(), gameID(r), game.Update{
		Title:       req.Title,
		Location:    req.Location,
		Notes:       req.Notes,
		ScheduledAt: req.ScheduledAt,
		MaxPlayers:  req.MaxPlayers,
		MinPlayers:  req.MinPlayers,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	h.publisher.RosterUpdated(g, nil)

	resp := response.UpdateGameResponse{
		Game: response.GameFromModel(g, admin.ID, h.clock.Now(), rosterNames(r.Context(), h.players, g)),
	}
	for _, p := range promoted {
		resp.Promoted = append(resp.Promoted, string(p))
	}
	response.JSON(w, http.StatusOK, resp)
}

// DeleteGame handles DELETE /api/v1/admin/games/{id}
func (h *AdminHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	id := gameID(r)
	if err := h.games.DeleteGame(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	h.publisher.GameDeleted(id)
	response.NoContent(w)
}

// RemovePlayer handles DELETE /api/v1/admin/games/{id}/players/{player_id}
func (h *AdminHandler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	admin := middleware.MustGetPlayer(r.Context())
	target := playerID(r)

	result, err := h.roster.Leave(r.Context(), gameID(r), target, h.clock.Now())
	if err != nil {
		WriteError(w, err)
		return
	}

	h.publisher.RosterUpdated(result.Game, &model.RosterChange{
		PlayerID: target,
		Action:   "removed",
		Placed:   result.Placement,
		Promoted: result.Promoted,
	})

	g := response.GameFromModel(result.Game, admin.ID, h.clock.Now(), rosterNames(r.Context(), h.players, result.Game))
	response.JSON(w, http.StatusOK, leaveResponse(result, g))
}

// ListPlayers handles GET /api/v1/admin/players
func (h *AdminHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.players.ListPlayers(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.PlayerList{Players: make([]response.Player, len(players))}
	for i, p := range players {
		resp.Players[i] = response.PlayerFromModel(p)
	}
	response.JSON(w, http.StatusOK, resp)
}

// UpdatePlayer handles PATCH /api/v1/admin/players/{player_id}
func (h *AdminHandler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	admin := middleware.MustGetPlayer(r.Context())

	var req request.UpdatePlayerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsAdmin == nil {
		WriteError(w, NewInvalidRequestError("is_admin is required"))
		return
	}

	target := playerID(r)
	if target == admin.ID && !*req.IsAdmin {
		WriteError(w, NewInvalidRequestError("admins cannot revoke their own rights"))
		return
	}

	p, err := h.players.SetAdmin(r.Context(), target, *req.IsAdmin)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(p))
}

// ImportPlayers handles POST /api/v1/admin/players/import with a text/plain body
func (h *AdminHandler) ImportPlayers(w http.ResponseWriter, r *http.Request) {
	result, err := h.players.Import(r.Context(), io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ImportResponseFromResult(result))
}

func playerID(r *http.Request) model.PlayerID {
	return model.PlayerID(mux.Vars(r)["player_id"])
}
