package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsls-go/internal/model"
	"github.com/mcoot/rpsls-go/internal/services/game"
	"github.com/mcoot/rpsls-go/internal/services/opponent"
	"github.com/mcoot/rpsls-go/internal/storage"
	"github.com/mcoot/rpsls-go/internal/storage/memory"
	redisstorage "github.com/mcoot/rpsls-go/internal/storage/redis"
	sqlitestorage "github.com/mcoot/rpsls-go/internal/storage/sqlite"
)

type IntegrationSuite struct {
	suite.Suite
	newStorage func() storage.Storage
	app        *TestApp
	ctx        context.Context
}

func TestIntegrationMemory(t *testing.T) {
	suite.Run(t, &IntegrationSuite{newStorage: func() storage.Storage { return memory.New() }})
}

func TestIntegrationRedis(t *testing.T) {
	mini := miniredis.RunT(t)
	cfg := redisstorage.DefaultConfig()
	cfg.URL = "redis://" + mini.Addr()

	suite.Run(t, &IntegrationSuite{newStorage: func() storage.Storage {
		mini.FlushAll()
		store, err := redisstorage.New(cfg)
		require.NoError(t, err)
		return store
	}})
}

func TestIntegrationSQLite(t *testing.T) {
	suite.Run(t, &IntegrationSuite{newStorage: func() storage.Storage {
		store, err := sqlitestorage.Open(filepath.Join(t.TempDir(), "rpsls.db"))
		require.NoError(t, err)
		return store
	}})
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestAppWithStorage(s.newStorage())
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
}

// setup starts a session with one game of the given threshold and two seated players
func (s *IntegrationSuite) setup(roundsToWin int) (*model.Session, *model.Game, *model.Player, *model.Player) {
	session, err := s.app.SessionService.StartSession(s.ctx)
	s.Require().NoError(err)
	g, err := s.app.GameController.CreateGame(s.ctx, session.ID, &roundsToWin)
	s.Require().NoError(err)
	p1, err := s.app.PlayerService.CreatePlayer(s.ctx, "P1", false)
	s.Require().NoError(err)
	p2, err := s.app.PlayerService.CreatePlayer(s.ctx, "P2", false)
	s.Require().NoError(err)
	_, err = s.app.GameController.AddPlayerToGame(s.ctx, g.ID, p1.ID)
	s.Require().NoError(err)
	_, err = s.app.GameController.AddPlayerToGame(s.ctx, g.ID, p2.ID)
	s.Require().NoError(err)
	return session, g, p1, p2
}

func (s *IntegrationSuite) record(gameID model.GameID, n int, p1, p2 model.Choice, winner model.PlayerID) *game.RoundResult {
	result, err := s.app.GameController.RecordRound(s.ctx, game.RecordRoundInput{
		GameID:      gameID,
		RoundNumber: n,
		P1Choice:    p1,
		P2Choice:    p2,
		WinnerID:    &winner,
	})
	s.Require().NoError(err)
	return result
}

// Test: three straight wins decide the game and end the session
func (s *IntegrationSuite) TestStraightWinsDecideGameAndEndSession() {
	session, g, p1, _ := s.setup(3)

	s.record(g.ID, 1, model.ChoiceRock, model.ChoiceScissors, p1.ID)
	s.record(g.ID, 2, model.ChoicePaper, model.ChoiceRock, p1.ID)

	s.app.MockClock.Advance(90 * time.Second)
	result := s.record(g.ID, 3, model.ChoiceScissors, model.ChoicePaper, p1.ID)
	s.Require().NotNil(result.Closure)

	stored, err := s.app.GameController.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.WinnerID)
	s.Equal(p1.ID, *stored.WinnerID)

	ended, err := s.app.SessionService.GetSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Require().NotNil(ended.EndTime)
	s.True(s.app.MockClock.Now().Equal(*ended.EndTime))
	s.Equal(model.SessionStatusCompleted, ended.Status)
}

// Test: a mixed outcome leaves the game undecided
func (s *IntegrationSuite) TestMixedOutcomeLeavesGameOpen() {
	session, g, p1, p2 := s.setup(3)

	s.record(g.ID, 1, model.ChoiceRock, model.ChoiceScissors, p1.ID)
	s.record(g.ID, 2, model.ChoicePaper, model.ChoiceRock, p1.ID)
	result := s.record(g.ID, 3, model.ChoiceScissors, model.ChoiceRock, p2.ID)
	s.Nil(result.Closure)

	stored, err := s.app.GameController.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Nil(stored.WinnerID)

	open, err := s.app.SessionService.GetSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Nil(open.EndTime)
}

// Test: a human plays the computer to a decision
func (s *IntegrationSuite) TestPlayAgainstComputer() {
	session, err := s.app.SessionService.StartSession(s.ctx)
	s.Require().NoError(err)
	one := 1
	g, err := s.app.GameController.CreateGame(s.ctx, session.ID, &one)
	s.Require().NoError(err)
	human, err := s.app.PlayerService.CreatePlayer(s.ctx, "human", false)
	s.Require().NoError(err)
	_, err = s.app.GameController.AddPlayerToGame(s.ctx, g.ID, human.ID)
	s.Require().NoError(err)
	s.app.MockRandom.QueueString("cpu123")
	_, err = s.app.OpponentService.JoinGame(s.ctx, g.ID)
	s.Require().NoError(err)

	// Tie on Lizard, then Spock loses to the computer's Lizard
	s.app.MockRandom.QueueIntn(3, 3)
	tie, err := s.app.OpponentService.PlayRound(s.ctx, g.ID, model.ChoiceLizard, opponent.StrategyRandom)
	s.Require().NoError(err)
	s.Nil(tie.Closure)

	decided, err := s.app.OpponentService.PlayRound(s.ctx, g.ID, model.ChoiceSpock, opponent.StrategyRandom)
	s.Require().NoError(err)
	s.Require().NotNil(decided.Closure)
	s.NotEqual(human.ID, decided.Closure.WinnerID)

	view, err := s.app.GameController.GetGameView(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Len(view.Rounds, 2)
}

func TestNewRejectsUnknownStorageType(t *testing.T) {
	_, err := New(Config{StorageType: "postgres"})
	require.Error(t, err)
}

func TestNewRequiresRedisConfig(t *testing.T) {
	_, err := New(Config{StorageType: StorageTypeRedis})
	require.Error(t, err)
}

func TestNewWithSQLite(t *testing.T) {
	app, err := New(Config{StorageType: StorageTypeSQLite, SQLitePath: filepath.Join(t.TempDir(), "app.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	session, err := app.SessionService.StartSession(context.Background())
	require.NoError(t, err)
	require.NotZero(t, session.ID)
}
