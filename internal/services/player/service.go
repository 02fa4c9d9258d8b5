package player

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/mcoot/pokersignup/internal/dependencies/clock"
	"github.com/mcoot/pokersignup/internal/dependencies/ids"
	"github.com/mcoot/pokersignup/internal/model"
	"github.com/mcoot/pokersignup/internal/storage"
)

// ImportResult counts what an invitation-list import did
type ImportResult struct {
	Created  int
	Skipped  int      // Email already known
	Rejected []string // Lines that could not be parsed
}

// Service manages the player directory
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	ids     ids.Generator
	logger  *slog.Logger
}

// New creates a new player Service
func New(storage storage.Storage, clock clock.Clock, ids ids.Generator, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		ids:     ids,
		logger:  logger,
	}
}

// GetPlayer retrieves a player by ID
func (s *Service) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return s.storage.GetPlayer(ctx, id)
}

// ListPlayers returns all players, registered ones by username first, then imported ones by email
func (s *Service) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	players, err := s.storage.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.IsRegistered() != b.IsRegistered() {
			return a.IsRegistered()
		}
		if a.Username != b.Username {
			return strings.ToLower(a.Username) < strings.ToLower(b.Username)
		}
		return a.Email < b.Email
	})
	return players, nil
}

// SetAdmin grants or revokes admin rights
func (s *Service) SetAdmin(ctx context.Context, id model.PlayerID, admin bool) (*model.Player, error) {
	player, err := s.storage.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	if player.IsAdmin == admin {
		return player, nil
	}

	player.IsAdmin = admin
	player.UpdatedAt = s.clock.Now()
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("admin rights changed",
		slog.String("player_id", string(id)),
		slog.Bool("admin", admin),
	)

	return player, nil
}

// Import reads an invitation list with one "email#firstName#lastName" entry per line.
// Names are optional. Known emails are skipped.
func (s *Service) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	result := &ImportResult{}
	now := s.clock.Now()

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		email, firstName, lastName := parseLine(line)
		if email == "" || !strings.Contains(email, "@") {
			result.Rejected = append(result.Rejected, fmt.Sprintf("line %d: %q", lineNo, line))
			continue
		}

		_, err := s.storage.GetPlayerByEmail(ctx, email)
		if err == nil {
			result.Skipped++
			continue
		}
		if !errors.Is(err, model.ErrPlayerNotFound) {
			return result, err
		}

		player := &model.Player{
			ID:        model.PlayerID(s.ids.NewID()),
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.storage.SavePlayer(ctx, player); err != nil {
			return result, err
		}
		result.Created++
	}
	if err := scanner.Err(); err != nil {
		return result, err
	}

	s.logger.Info("players imported",
		slog.Int("created", result.Created),
		slog.Int("skipped", result.Skipped),
		slog.Int("rejected", len(result.Rejected)),
	)

	return result, nil
}

func parseLine(line string) (email, firstName, lastName string) {
	parts := strings.SplitN(line, "#", 3)
	email = model.NormalizeEmail(parts[0])
	if len(parts) > 1 {
		firstName = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		lastName = strings.TrimSpace(parts[2])
	}
	return email, firstName, lastName
}
