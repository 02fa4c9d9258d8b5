package auth

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/pokersignup/internal/dependencies/clock"
	"github.com/mcoot/pokersignup/internal/dependencies/ids"
	"github.com/mcoot/pokersignup/internal/model"
	"github.com/mcoot/pokersignup/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidUsername    = errors.New("username must be between 3 and 16 characters")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
)

const (
	minUsernameLength = 3
	maxUsernameLength = 16
)

// Session represents an authenticated session
type Session struct {
	Token     string
	PlayerID  model.PlayerID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Registration is the data a new user submits
type Registration struct {
	Username             string
	Email                string
	FirstName            string
	LastName             string
	Password             string
	PasswordConfirmation string
	IP                   string
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration

	// AdminUsernames are granted admin rights when they register
	AdminUsernames []string
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// Service handles registration, login and session management
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	ids     ids.Generator
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	// registerMu serializes the username and email checks with the writes that follow
	registerMu sync.Mutex

	sessionDuration time.Duration
	adminUsernames  []string
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, ids ids.Generator, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		ids:             ids,
		logger:          logger,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
		adminUsernames:  cfg.AdminUsernames,
	}
}

// Register creates an account and logs it in.
// A player imported by an admin with the same email is claimed rather than duplicated.
func (s *Service) Register(ctx context.Context, reg Registration) (*Session, *model.Player, error) {
	username := strings.TrimSpace(reg.Username)
	email := model.NormalizeEmail(reg.Email)

	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, nil, ErrInvalidUsername
	}
	if email == "" {
		return nil, nil, ErrEmailRequired
	}
	if reg.Password == "" {
		return nil, nil, ErrPasswordRequired
	}
	if reg.Password != reg.PasswordConfirmation {
		return nil, nil, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	_, err = s.storage.GetRegisteredPlayerByUsername(ctx, username)
	if err == nil {
		return nil, nil, ErrUsernameExists
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, nil, err
	}

	now := s.clock.Now()

	player, err := s.storage.GetPlayerByEmail(ctx, email)
	switch {
	case err == nil && player.IsRegistered():
		return nil, nil, ErrEmailExists
	case err == nil:
		s.logger.Info("claiming imported player",
			slog.String("player_id", string(player.ID)),
			slog.String("username", username),
		)
	case errors.Is(err, model.ErrPlayerNotFound):
		player = &model.Player{
			ID:        model.PlayerID(s.ids.NewID()),
			Email:     email,
			CreatedAt: now,
		}
	default:
		return nil, nil, err
	}

	player.Username = username
	if name := strings.TrimSpace(reg.FirstName); name != "" {
		player.FirstName = name
	}
	if name := strings.TrimSpace(reg.LastName); name != "" {
		player.LastName = name
	}
	if slices.Contains(s.adminUsernames, username) {
		player.IsAdmin = true
	}
	player.RecordLogin(now, reg.IP)

	registeredPlayer := &model.RegisteredPlayer{
		PlayerID:     player.ID,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The username claim goes first: storage rejects it if another server got there first
	if err := s.storage.SaveRegisteredPlayer(ctx, registeredPlayer); err != nil {
		if errors.Is(err, model.ErrUsernameTaken) {
			return nil, nil, ErrUsernameExists
		}
		return nil, nil, err
	}

	if err := s.storage.SavePlayer(ctx, player); err != nil {
		if rbErr := s.storage.DeleteRegisteredPlayer(ctx, player.ID); rbErr != nil {
			s.logger.Error("failed to release username after failed registration",
				slog.String("player_id", string(player.ID)),
				slog.String("username", username),
				slog.Any("error", rbErr),
			)
		}
		return nil, nil, err
	}

	s.logger.Info("player registered",
		slog.String("player_id", string(player.ID)),
		slog.String("username", username),
		slog.Bool("admin", player.IsAdmin),
	)

	return s.createSession(player.ID), player, nil
}

// Login authenticates a registered player, records the login and creates a session
func (s *Service) Login(ctx context.Context, username, password, ip string) (*Session, *model.Player, error) {
	rp, err := s.storage.GetRegisteredPlayerByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rp.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("failed login", slog.String("username", rp.Username), slog.String("ip", ip))
		return nil, nil, ErrInvalidCredentials
	}

	player, err := s.storage.GetPlayer(ctx, rp.PlayerID)
	if err != nil {
		return nil, nil, err
	}

	player.RecordLogin(s.clock.Now(), ip)
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, nil, err
	}

	return s.createSession(player.ID), player, nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// GetPlayer returns the current player record for a session token
func (s *Service) GetPlayer(ctx context.Context, token string) (*model.Player, error) {
	session, err := s.ValidateSession(token)
	if err != nil {
		return nil, err
	}
	player, err := s.storage.GetPlayer(ctx, session.PlayerID)
	if errors.Is(err, model.ErrPlayerNotFound) {
		s.InvalidateSession(token)
		return nil, ErrInvalidSession
	}
	return player, err
}

func (s *Service) createSession(playerID model.PlayerID) *Session {
	now := s.clock.Now()

	session := &Session{
		Token:     s.ids.Token("sess_"),
		PlayerID:  playerID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}
