package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pokersignup/internal/api/middleware"
	"github.com/mcoot/pokersignup/internal/api/response"
	"github.com/mcoot/pokersignup/internal/dependencies/clock"
	"github.com/mcoot/pokersignup/internal/events"
	"github.com/mcoot/pokersignup/internal/model"
	"github.com/mcoot/pokersignup/internal/services/game"
	"github.com/mcoot/pokersignup/internal/services/player"
	"github.com/mcoot/pokersignup/internal/services/roster"
)

// GameHandler handles game listing and sign-up endpoints
type GameHandler struct {
	games     game.ControllerInterface
	roster    roster.ManagerInterface
	players   *player.Service
	publisher events.Publisher
	hubs      *events.HubManager
	clock     clock.Clock
}

// NewGameHandler creates a new game handler
func NewGameHandler(
	games game.ControllerInterface,
	roster roster.ManagerInterface,
	players *player.Service,
	publisher events.Publisher,
	hubs *events.HubManager,
	clock clock.Clock,
) *GameHandler {
	return &GameHandler{
		games:     games,
		roster:    roster,
		players:   players,
		publisher: publisher,
		hubs:      hubs,
		clock:     clock,
	}
}

// List handles GET /api/v1/games?when=upcoming|past
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.MustGetPlayer(r.Context())

	var (
		games []*model.Game
		err   error
	)
	switch r.URL.Query().Get("when") {
	case "", "upcoming":
		games, err = h.games.ListUpcoming(r.Context())
	case "past":
		games, err = h.games.ListPast(r.Context())
	default:
		WriteError(w, NewInvalidRequestError("when must be 'upcoming' or 'past'"))
		return
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.GameList{Games: make([]response.GameSummary, len(games))}
	for i, g := range games {
		resp.Games[i] = response.GameSummaryFromModel(g, viewer.ID)
	}
	response.JSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.MustGetPlayer(r.Context())

	g, err := h.games.GetGame(r.Context(), gameID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, h.gameResponse(r.Context(), g, viewer.ID))
}

// Capacity handles GET /api/v1/games/{id}/capacity
func (h *GameHandler) Capacity(w http.ResponseWriter, r *http.Request) {
	status, err := h.roster.CapacityStatus(r.Context(), gameID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.CapacityFromStatus(status))
}

// Join handles POST /api/v1/games/{id}/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.MustGetPlayer(r.Context())

	result, err := h.roster.Join(r.Context(), gameID(r), viewer.ID, h.clock.Now())
	if err != nil {
		WriteError(w, err)
		return
	}

	if result.Outcome != roster.OutcomeAlreadyJoined {
		h.publisher.RosterUpdated(result.Game, &model.RosterChange{
			PlayerID: viewer.ID,
			Action:   "joined",
			Placed:   result.Placement,
		})
	}

	response.JSON(w, http.StatusOK, response.JoinResponse{
		Outcome:   string(result.Outcome),
		Placement: string(result.Placement),
		JoinedAt:  result.JoinedAt,
		Game:      h.gameResponse(r.Context(), result.Game, viewer.ID),
	})
}

// Leave handles POST /api/v1/games/{id}/leave
func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.MustGetPlayer(r.Context())

	result, err := h.roster.Leave(r.Context(), gameID(r), viewer.ID, h.clock.Now())
	if err != nil {
		WriteError(w, err)
		return
	}

	h.publisher.RosterUpdated(result.Game, &model.RosterChange{
		PlayerID: viewer.ID,
		Action:   "left",
		Placed:   result.Placement,
		Promoted: result.Promoted,
	})

	response.JSON(w, http.StatusOK, leaveResponse(result, h.gameResponse(r.Context(), result.Game, viewer.ID)))
}

// Events handles GET /api/v1/games/{id}/events (SSE)
func (h *GameHandler) Events(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.MustGetPlayer(r.Context())
	id := gameID(r)

	if _, err := h.games.GetGame(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	events.ServeSSE(w, r, h.hubs, id, viewer.ID)
}

func (h *GameHandler) gameResponse(ctx context.Context, g *model.Game, viewer model.PlayerID) response.Game {
	return response.GameFromModel(g, viewer, h.clock.Now(), rosterNames(ctx, h.players, g))
}

// rosterNames looks up display names for everyone on the game's lists.
// Players that cannot be loaded are left out.
func rosterNames(ctx context.Context, players *player.Service, g *model.Game) response.Names {
	names := make(response.Names, g.Confirmed.Len()+g.Waiting.Len())
	for _, r := range []model.Roster{g.Confirmed, g.Waiting} {
		for _, e := range r {
			if p, err := players.GetPlayer(ctx, e.PlayerID); err == nil {
				names[e.PlayerID] = p.DisplayName()
			}
		}
	}
	return names
}

func leaveResponse(result *roster.LeaveResult, g response.Game) response.LeaveResponse {
	resp := response.LeaveResponse{
		PlayerID:  string(result.PlayerID),
		Placement: string(result.Placement),
		Game:      g,
	}
	if result.Promoted != nil {
		p := string(*result.Promoted)
		resp.Promoted = &p
	}
	return resp
}

func gameID(r *http.Request) model.GameID {
	return model.GameID(mux.Vars(r)["id"])
}
