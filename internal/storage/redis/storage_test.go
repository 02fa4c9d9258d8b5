package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pokersignup/internal/model"
	"github.com/mcoot/pokersignup/internal/storage"
	"github.com/mcoot/pokersignup/internal/storage/storagetest"
	"github.com/mcoot/pokersignup/internal/testutil"
)

type StorageSuite struct {
	storagetest.Suite
	mini    *miniredis.Miniredis
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, DefaultConfig(), testutil.NopLogger())
	s.NewStorage = func() storage.Storage { return s.storage }
	s.Suite.SetupTest()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestKeysUsePrefix() {
	game := &model.Game{ID: "game-1", MaxPlayers: 2, ScheduledAt: time.Now().Add(time.Hour)}
	s.Require().NoError(s.storage.CreateGame(s.Ctx, game))
	s.Require().NoError(s.storage.SavePlayer(s.Ctx, &model.Player{ID: "player-1", Email: "A@example.com"}))

	s.True(s.mini.Exists("poker:game:game-1"))
	s.True(s.mini.Exists("poker:player:player-1"))
	s.True(s.mini.Exists("poker:idx:email:a@example.com"))

	members, err := s.mini.Members("poker:idx:games")
	s.Require().NoError(err)
	s.Equal([]string{"game-1"}, members)
}

func (s *StorageSuite) TestGamesHaveNoTTL() {
	game := &model.Game{ID: "game-1", MaxPlayers: 2}
	s.Require().NoError(s.storage.CreateGame(s.Ctx, game))
	s.Require().NoError(s.storage.SaveGame(s.Ctx, game))

	s.Equal(time.Duration(0), s.mini.TTL(s.storage.keys.game("game-1")))
}

func (s *StorageSuite) TestListGamesPrunesDanglingIndexEntries() {
	s.Require().NoError(s.storage.CreateGame(s.Ctx, &model.Game{ID: "game-1", MaxPlayers: 2}))
	s.Require().NoError(s.storage.CreateGame(s.Ctx, &model.Game{ID: "game-2", MaxPlayers: 2}))

	// Simulate a game document vanishing without the index being updated
	s.mini.Del(s.storage.keys.game("game-2"))

	games, err := s.storage.ListGames(s.Ctx)
	s.Require().NoError(err)
	s.Len(games, 1)

	members, err := s.mini.Members(s.storage.keys.games())
	s.Require().NoError(err)
	s.Equal([]string{"game-1"}, members)
}

func (s *StorageSuite) TestCustomPrefix() {
	cfg := DefaultConfig()
	cfg.KeyPrefix = "staging"
	other := NewWithClient(redis.NewClient(&redis.Options{Addr: s.mini.Addr()}), cfg, testutil.NopLogger())
	defer func() { _ = other.Close() }()

	s.Require().NoError(other.CreateGame(s.Ctx, &model.Game{ID: "game-1", MaxPlayers: 2}))

	s.True(s.mini.Exists("staging:game:game-1"))
	_, err := s.storage.GetGame(s.Ctx, "game-1")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *StorageSuite) TestUnreachableServerErrorsOnNew() {
	cfg := DefaultConfig()
	cfg.URL = "redis://127.0.0.1:1"
	cfg.DialTimeout = 200 * time.Millisecond

	_, err := New(cfg, testutil.NopLogger())
	s.Error(err)
}
