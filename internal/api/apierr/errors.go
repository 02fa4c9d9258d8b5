package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/pokersignup/internal/model"
	"github.com/mcoot/pokersignup/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Error codes
const (
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodePlayerNotFound         = "PLAYER_NOT_FOUND"
	CodeGameNotFound           = "GAME_NOT_FOUND"
	CodeGameExists             = "GAME_EXISTS"
	CodePastGame               = "PAST_GAME"
	CodeNotInGame              = "NOT_IN_GAME"
	CodeInvalidCapacity        = "INVALID_CAPACITY"
	CodeCapacityBelowConfirmed = "CAPACITY_BELOW_CONFIRMED"
	CodeConflict               = "CONFLICT"
	CodeUsernameExists         = "USERNAME_EXISTS"
	CodeEmailExists            = "EMAIL_EXISTS"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeInternalError          = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError.
// Version conflicts are checked before the generic persistence case since they wrap it.
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Roster and game errors
	case errors.Is(err, model.ErrPastGame):
		return &httpError{http.StatusConflict, APIError{CodePastGame, "Modifications to past games are not allowed"}}
	case errors.Is(err, model.ErrNotInGame):
		return &httpError{http.StatusNotFound, APIError{CodeNotInGame, "Player is not signed up for this game"}}
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrGameExists):
		return &httpError{http.StatusConflict, APIError{CodeGameExists, "Game already exists"}}
	case errors.Is(err, model.ErrInvalidCapacity):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidCapacity, "Max players must be positive and at least min players"}}
	case errors.Is(err, model.ErrCapacityBelowConfirmed):
		return &httpError{http.StatusConflict, APIError{CodeCapacityBelowConfirmed, "Max players cannot be lower than the number of confirmed players"}}
	case errors.Is(err, model.ErrVersionConflict):
		return &httpError{http.StatusConflict, APIError{CodeConflict, "Game was modified concurrently, please retry"}}
	case errors.Is(err, model.ErrPersistence):
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}

	// Player errors
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrForbidden):
		return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Admin privileges required"}}

	// Auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}
	case errors.Is(err, auth.ErrEmailExists):
		return &httpError{http.StatusConflict, APIError{CodeEmailExists, "Email is already registered"}}
	case errors.Is(err, auth.ErrInvalidUsername),
		errors.Is(err, auth.ErrEmailRequired),
		errors.Is(err, auth.ErrPasswordRequired),
		errors.Is(err, auth.ErrPasswordMismatch):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, err.Error()}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
