// Package storagetest holds the behaviour every storage backend must share.
// Backend packages embed Suite in their own test suite and set NewStorage.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pokersignup/internal/model"
	"github.com/mcoot/pokersignup/internal/storage"
)

// Suite runs the storage contract against a backend
type Suite struct {
	suite.Suite

	// NewStorage returns a fresh, empty backend; called before each test
	NewStorage func() storage.Storage

	Store storage.Storage
	Ctx   context.Context
}

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set")
	s.Store = s.NewStorage()
	s.Ctx = context.Background()
}

func (s *Suite) newGame(id model.GameID) *model.Game {
	return &model.Game{
		ID:          id,
		Title:       "Friday game",
		ScheduledAt: t0.Add(24 * time.Hour),
		MaxPlayers:  8,
		MinPlayers:  4,
		CreatedAt:   t0,
		UpdatedAt:   t0,
	}
}

// Player tests

func (s *Suite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:        "player-1",
		Username:  "alice",
		Email:     "alice@example.com",
		FirstName: "Alice",
		CreatedAt: t0,
	}

	s.Require().NoError(s.Store.SavePlayer(s.Ctx, player))

	retrieved, err := s.Store.GetPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(player.ID, retrieved.ID)
	s.Equal(player.Username, retrieved.Username)
	s.Equal(player.FirstName, retrieved.FirstName)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Store.GetPlayer(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestGetPlayerByEmailIsCaseInsensitive() {
	s.Require().NoError(s.Store.SavePlayer(s.Ctx, &model.Player{ID: "player-1", Email: "Alice@Example.com"}))

	retrieved, err := s.Store.GetPlayerByEmail(s.Ctx, "alice@example.COM")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), retrieved.ID)

	_, err = s.Store.GetPlayerByEmail(s.Ctx, "bob@example.com")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestEmailIndexFollowsUpdates() {
	s.Require().NoError(s.Store.SavePlayer(s.Ctx, &model.Player{ID: "player-1", Email: "old@example.com"}))
	s.Require().NoError(s.Store.SavePlayer(s.Ctx, &model.Player{ID: "player-1", Email: "new@example.com"}))

	_, err := s.Store.GetPlayerByEmail(s.Ctx, "old@example.com")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	retrieved, err := s.Store.GetPlayerByEmail(s.Ctx, "new@example.com")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), retrieved.ID)
}

func (s *Suite) TestListPlayers() {
	s.Require().NoError(s.Store.SavePlayer(s.Ctx, &model.Player{ID: "player-1", Email: "a@example.com"}))
	s.Require().NoError(s.Store.SavePlayer(s.Ctx, &model.Player{ID: "player-2", Email: "b@example.com"}))

	players, err := s.Store.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Len(players, 2)
}

func (s *Suite) TestDeletePlayer() {
	s.Require().NoError(s.Store.SavePlayer(s.Ctx, &model.Player{ID: "player-1", Email: "a@example.com"}))

	s.Require().NoError(s.Store.DeletePlayer(s.Ctx, "player-1"))

	_, err := s.Store.GetPlayer(s.Ctx, "player-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.Store.GetPlayerByEmail(s.Ctx, "a@example.com")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Registered player tests

func (s *Suite) TestSaveAndGetRegisteredPlayer() {
	rp := &model.RegisteredPlayer{
		PlayerID:     "player-1",
		Username:     "alice",
		PasswordHash: "hash123",
		CreatedAt:    t0,
	}
	s.Require().NoError(s.Store.SaveRegisteredPlayer(s.Ctx, rp))

	retrieved, err := s.Store.GetRegisteredPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("alice", retrieved.Username)

	byName, err := s.Store.GetRegisteredPlayerByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), byName.PlayerID)
}

func (s *Suite) TestGetRegisteredPlayerByUsernameNotFound() {
	_, err := s.Store.GetRegisteredPlayerByUsername(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	_, err = s.Store.GetRegisteredPlayer(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestUsernameBelongsToOnePlayer() {
	s.Require().NoError(s.Store.SaveRegisteredPlayer(s.Ctx, &model.RegisteredPlayer{PlayerID: "p1", Username: "alice"}))

	err := s.Store.SaveRegisteredPlayer(s.Ctx, &model.RegisteredPlayer{PlayerID: "p2", Username: "alice"})
	s.ErrorIs(err, model.ErrUsernameTaken)

	owner, err := s.Store.GetRegisteredPlayerByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), owner.PlayerID)

	// The owner can rewrite its own record
	s.NoError(s.Store.SaveRegisteredPlayer(s.Ctx, &model.RegisteredPlayer{PlayerID: "p1", Username: "alice", PasswordHash: "new"}))
}

func (s *Suite) TestDeleteRegisteredPlayerReleasesUsername() {
	s.Require().NoError(s.Store.SaveRegisteredPlayer(s.Ctx, &model.RegisteredPlayer{PlayerID: "p1", Username: "alice"}))
	s.Require().NoError(s.Store.DeleteRegisteredPlayer(s.Ctx, "p1"))

	_, err := s.Store.GetRegisteredPlayer(s.Ctx, "p1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.Store.GetRegisteredPlayerByUsername(s.Ctx, "alice")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	s.NoError(s.Store.SaveRegisteredPlayer(s.Ctx, &model.RegisteredPlayer{PlayerID: "p2", Username: "alice"}))

	// Deleting an unknown player is a no-op
	s.NoError(s.Store.DeleteRegisteredPlayer(s.Ctx, "nobody"))
}

// Game tests

func (s *Suite) TestCreateAndGetGame() {
	game := s.newGame("game-1")
	game.Confirmed = model.Roster{}.Append("p1", t0)
	game.Waiting = model.Roster{}.Append("p2", t0.Add(time.Minute))

	s.Require().NoError(s.Store.CreateGame(s.Ctx, game))
	s.Equal(int64(1), game.Version)

	retrieved, err := s.Store.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(game.Title, retrieved.Title)
	s.True(game.ScheduledAt.Equal(retrieved.ScheduledAt))
	s.Equal([]model.PlayerID{"p1"}, retrieved.Confirmed.PlayerIDs())
	s.Equal([]model.PlayerID{"p2"}, retrieved.Waiting.PlayerIDs())
	s.Equal(int64(1), retrieved.Version)
}

func (s *Suite) TestCreateGameRejectsDuplicate() {
	s.Require().NoError(s.Store.CreateGame(s.Ctx, s.newGame("game-1")))

	err := s.Store.CreateGame(s.Ctx, s.newGame("game-1"))
	s.ErrorIs(err, model.ErrGameExists)
}

func (s *Suite) TestGetGameNotFound() {
	_, err := s.Store.GetGame(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestSaveGameBumpsVersion() {
	s.Require().NoError(s.Store.CreateGame(s.Ctx, s.newGame("game-1")))

	loaded, err := s.Store.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	loaded.Confirmed = loaded.Confirmed.Append("p1", t0)

	s.Require().NoError(s.Store.SaveGame(s.Ctx, loaded))
	s.Equal(int64(2), loaded.Version)

	reloaded, err := s.Store.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(int64(2), reloaded.Version)
	s.Equal([]model.PlayerID{"p1"}, reloaded.Confirmed.PlayerIDs())
}

func (s *Suite) TestSaveGameRejectsStaleVersion() {
	s.Require().NoError(s.Store.CreateGame(s.Ctx, s.newGame("game-1")))

	first, err := s.Store.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	second, err := s.Store.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)

	first.Confirmed = first.Confirmed.Append("p1", t0)
	s.Require().NoError(s.Store.SaveGame(s.Ctx, first))

	second.Confirmed = second.Confirmed.Append("p2", t0)
	err = s.Store.SaveGame(s.Ctx, second)
	s.ErrorIs(err, model.ErrVersionConflict)
	s.Equal(int64(1), second.Version, "failed save must not bump the caller's version")

	stored, err := s.Store.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal([]model.PlayerID{"p1"}, stored.Confirmed.PlayerIDs())
}

func (s *Suite) TestSaveGameNotFound() {
	err := s.Store.SaveGame(s.Ctx, s.newGame("missing"))
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestStoredGameIsNotAliased() {
	game := s.newGame("game-1")
	s.Require().NoError(s.Store.CreateGame(s.Ctx, game))

	game.Confirmed = game.Confirmed.Append("intruder", t0)

	stored, err := s.Store.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Zero(stored.Confirmed.Len())
}

func (s *Suite) TestListGames() {
	s.Require().NoError(s.Store.CreateGame(s.Ctx, s.newGame("game-1")))
	s.Require().NoError(s.Store.CreateGame(s.Ctx, s.newGame("game-2")))

	games, err := s.Store.ListGames(s.Ctx)
	s.Require().NoError(err)
	s.Len(games, 2)
}

func (s *Suite) TestDeleteGame() {
	s.Require().NoError(s.Store.CreateGame(s.Ctx, s.newGame("game-1")))

	s.Require().NoError(s.Store.DeleteGame(s.Ctx, "game-1"))

	_, err := s.Store.GetGame(s.Ctx, "game-1")
	s.ErrorIs(err, model.ErrGameNotFound)

	games, err := s.Store.ListGames(s.Ctx)
	s.Require().NoError(err)
	s.Empty(games)
}
