package handler

import (
	"net/http"

	"github.com/mcoot/pokersignup/internal/api/middleware"
	"github.com/mcoot/pokersignup/internal/api/request"
	"github.com/mcoot/pokersignup/internal/api/response"
	sharedmw "github.com/mcoot/pokersignup/internal/middleware"
	"github.com/mcoot/pokersignup/internal/services/auth"
)

// PlayerHandler handles account endpoints
type PlayerHandler struct {
	authService *auth.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(authService *auth.Service) *PlayerHandler {
	return &PlayerHandler{
		authService: authService,
	}
}

// Register handles POST /api/v1/players/register
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, player, err := h.authService.Register(r.Context(), auth.Registration{
		Username:             req.Username,
		Email:                req.Email,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
		IP:                   sharedmw.ClientIP(r),
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	setSessionCookie(w, session)
	response.JSON(w, http.StatusCreated, response.AuthResponseFromSession(session, player))
}

// Login handles POST /api/v1/players/login
func (h *PlayerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	session, player, err := h.authService.Login(r.Context(), req.Username, req.Password, sharedmw.ClientIP(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	setSessionCookie(w, session)
	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session, player))
}

// Logout handles POST /api/v1/players/logout
func (h *PlayerHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.InvalidateSession(middleware.GetToken(r.Context()))
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	response.NoContent(w)
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

func setSessionCookie(w http.ResponseWriter, session *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
