package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mcoot/pokersignup/internal/dependencies/clock"
	"github.com/mcoot/pokersignup/internal/dependencies/ids"
	"github.com/mcoot/pokersignup/internal/model"
	"github.com/mcoot/pokersignup/internal/services/roster"
	"github.com/mcoot/pokersignup/internal/storage"
)

// Details describes a new game
type Details struct {
	Title       string
	Location    string
	Notes       string
	ScheduledAt time.Time
	MaxPlayers  int
	MinPlayers  int
}

// Update holds the fields to change on a game. Nil fields are left alone.
type Update struct {
	Title       *string
	Location    *string
	Notes       *string
	ScheduledAt *time.Time
	MaxPlayers  *int
	MinPlayers  *int
}

// Controller schedules games and applies admin edits
type Controller struct {
	storage storage.Storage
	roster  roster.ManagerInterface
	clock   clock.Clock
	ids     ids.Generator
	logger  *slog.Logger
}

// NewController creates a new game Controller
func NewController(
	storage storage.Storage,
	roster roster.ManagerInterface,
	clock clock.Clock,
	ids ids.Generator,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		roster:  roster,
		clock:   clock,
		ids:     ids,
		logger:  logger,
	}
}

// CreateGame schedules a new game with empty rosters
func (c *Controller) CreateGame(ctx context.Context, creator model.PlayerID, details Details) (*model.Game, error) {
	if err := validateCapacity(details.MaxPlayers, details.MinPlayers); err != nil {
		return nil, err
	}

	now := c.clock.Now()
	if !details.ScheduledAt.After(now) {
		return nil, model.ErrPastGame
	}

	game := &model.Game{
		ID:          model.GameID(c.ids.NewID()),
		Title:       strings.TrimSpace(details.Title),
		Location:    strings.TrimSpace(details.Location),
		Notes:       details.Notes,
		ScheduledAt: details.ScheduledAt.UTC(),
		MaxPlayers:  details.MaxPlayers,
		MinPlayers:  details.MinPlayers,
		CreatedBy:   creator,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := c.storage.CreateGame(ctx, game); err != nil {
		c.logger.Error("failed to create game",
			slog.String("game_id", string(game.ID)),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, model.ErrGameExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	c.logger.Info("game created",
		slog.String("game_id", string(game.ID)),
		slog.String("created_by", string(creator)),
		slog.Time("scheduled_at", game.ScheduledAt),
		slog.Int("max_players", game.MaxPlayers),
	)

	return game, nil
}

// GetGame retrieves a game by ID
func (c *Controller) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	game, err := c.storage.GetGame(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrGameNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}
	return game, nil
}

// ListUpcoming returns games still open for sign-up, soonest first
func (c *Controller) ListUpcoming(ctx context.Context) ([]*model.Game, error) {
	now := c.clock.Now()
	games, err := c.list(ctx, func(g *model.Game) bool { return !g.IsPast(now) })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].ScheduledAt.Before(games[j].ScheduledAt)
	})
	return games, nil
}

// ListPast returns games that have already started, most recent first
func (c *Controller) ListPast(ctx context.Context) ([]*model.Game, error) {
	now := c.clock.Now()
	games, err := c.list(ctx, func(g *model.Game) bool { return g.IsPast(now) })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].ScheduledAt.After(games[j].ScheduledAt)
	})
	return games, nil
}

func (c *Controller) list(ctx context.Context, keep func(*model.Game) bool) ([]*model.Game, error) {
	all, err := c.storage.ListGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}
	games := make([]*model.Game, 0, len(all))
	for _, g := range all {
		if keep(g) {
			games = append(games, g)
		}
	}
	return games, nil
}

// UpdateGame edits an upcoming game. Raising MaxPlayers promotes waiting
// players in join order until the new capacity is reached.
func (c *Controller) UpdateGame(ctx context.Context, id model.GameID, update Update) (*model.Game, []model.PlayerID, error) {
	now := c.clock.Now()
	var promoted []model.PlayerID

	game, err := c.roster.Update(ctx, id, now, func(g *model.Game) error {
		if g.IsPast(now) {
			return model.ErrPastGame
		}

		if update.ScheduledAt != nil {
			if !update.ScheduledAt.After(now) {
				return model.ErrPastGame
			}
			g.ScheduledAt = update.ScheduledAt.UTC()
		}
		if update.Title != nil {
			g.Title = strings.TrimSpace(*update.Title)
		}
		if update.Location != nil {
			g.Location = strings.TrimSpace(*update.Location)
		}
		if update.Notes != nil {
			g.Notes = *update.Notes
		}

		maxPlayers, minPlayers := g.MaxPlayers, g.MinPlayers
		if update.MaxPlayers != nil {
			maxPlayers = *update.MaxPlayers
		}
		if update.MinPlayers != nil {
			minPlayers = *update.MinPlayers
		}
		if err := validateCapacity(maxPlayers, minPlayers); err != nil {
			return err
		}
		if maxPlayers < g.Confirmed.Len() {
			return model.ErrCapacityBelowConfirmed
		}
		g.MaxPlayers, g.MinPlayers = maxPlayers, minPlayers

		promoted = roster.FillOpenSeats(g)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	c.logger.Info("game updated",
		slog.String("game_id", string(id)),
		slog.Int("max_players", game.MaxPlayers),
		slog.Int("promoted", len(promoted)),
	)

	return game, promoted, nil
}

// DeleteGame removes a game and its roster
func (c *Controller) DeleteGame(ctx context.Context, id model.GameID) error {
	if _, err := c.GetGame(ctx, id); err != nil {
		return err
	}

	if err := c.storage.DeleteGame(ctx, id); err != nil {
		c.logger.Error("failed to delete game",
			slog.String("game_id", string(id)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	c.logger.Info("game deleted", slog.String("game_id", string(id)))
	return nil
}

func validateCapacity(maxPlayers, minPlayers int) error {
	if maxPlayers <= 0 || minPlayers < 0 || minPlayers > maxPlayers {
		return model.ErrInvalidCapacity
	}
	return nil
}

// ControllerInterface defines the interface for the game controller
type ControllerInterface interface {
	CreateGame(ctx context.Context, creator model.PlayerID, details Details) (*model.Game, error)
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	ListUpcoming(ctx context.Context) ([]*model.Game, error)
	ListPast(ctx context.Context) ([]*model.Game, error)
	UpdateGame(ctx context.Context, id model.GameID, update Update) (*model.Game, []model.PlayerID, error)
	DeleteGame(ctx context.Context, id model.GameID) error
}

var _ ControllerInterface = (*Controller)(nil)
