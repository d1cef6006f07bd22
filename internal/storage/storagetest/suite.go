// Package storagetest holds the behaviour every storage backend must share.
// Backends run it from their own tests with a constructor for a fresh store.
package storagetest

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsls-go/internal/model"
	"github.com/mcoot/rpsls-go/internal/storage"
)

// Suite is the storage conformance suite
type Suite struct {
	suite.Suite

	// NewStorage returns an empty store for each test
	NewStorage func() storage.Storage

	Store storage.Storage
	Ctx   context.Context
	Now   time.Time
}

func (s *Suite) SetupTest() {
	s.Store = s.NewStorage()
	s.Ctx = context.Background()
	s.Now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *Suite) TearDownTest() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

func intPtr(n int) *int {
	return &n
}

func playerPtr(id model.PlayerID) *model.PlayerID {
	return &id
}

// fixture is a session with one game and two seated players
type fixture struct {
	session model.SessionID
	game    model.GameID
	p1, p2  model.PlayerID
}

func (s *Suite) newFixture(roundsToWin int) fixture {
	var f fixture
	var err error
	f.session, err = s.Store.CreateSession(s.Ctx, s.Now)
	s.Require().NoError(err)
	f.game, err = s.Store.CreateGame(s.Ctx, f.session, intPtr(roundsToWin))
	s.Require().NoError(err)
	f.p1, err = s.Store.CreatePlayer(s.Ctx, "alice", false, s.Now)
	s.Require().NoError(err)
	f.p2, err = s.Store.CreatePlayer(s.Ctx, "bob", true, s.Now)
	s.Require().NoError(err)
	s.Require().NoError(s.Store.AddPlayerToGame(s.Ctx, f.game, f.p1))
	s.Require().NoError(s.Store.AddPlayerToGame(s.Ctx, f.game, f.p2))
	return f
}

func (s *Suite) insertRounds(gameID model.GameID, rounds ...*model.Round) {
	err := s.Store.UpdateGame(s.Ctx, gameID, func(ctx context.Context, tx storage.GameTx) error {
		for _, r := range rounds {
			if err := tx.InsertRound(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})
	s.Require().NoError(err)
}

// Player tests

func (s *Suite) TestCreateAndGetPlayer() {
	id, err := s.Store.CreatePlayer(s.Ctx, "alice", true, s.Now)
	s.Require().NoError(err)

	player, err := s.Store.GetPlayer(s.Ctx, id)
	s.Require().NoError(err)
	s.Equal(id, player.ID)
	s.Equal("alice", player.Username)
	s.True(player.IsTemp)
	s.True(s.Now.Equal(player.CreatedAt))
}

func (s *Suite) TestCreatePlayerReturnsDistinctIDsForSameName() {
	first, err := s.Store.CreatePlayer(s.Ctx, "alice", false, s.Now)
	s.Require().NoError(err)
	second, err := s.Store.CreatePlayer(s.Ctx, "alice", false, s.Now)
	s.Require().NoError(err)
	s.NotEqual(first, second)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Store.GetPlayer(s.Ctx, 999)
	s.ErrorIs(err, model.ErrPlayerNotFound)
	s.ErrorIs(err, model.ErrNotFound)
}

// Session tests

func (s *Suite) TestCreateAndGetSession() {
	id, err := s.Store.CreateSession(s.Ctx, s.Now)
	s.Require().NoError(err)

	session, err := s.Store.GetSession(s.Ctx, id)
	s.Require().NoError(err)
	s.Equal(id, session.ID)
	s.True(s.Now.Equal(session.StartTime))
	s.Nil(session.EndTime)
	s.Equal(model.SessionStatusInProgress, session.Status)
}

func (s *Suite) TestGetSessionNotFound() {
	_, err := s.Store.GetSession(s.Ctx, 999)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// Game tests

func (s *Suite) TestCreateAndGetGame() {
	sessionID, err := s.Store.CreateSession(s.Ctx, s.Now)
	s.Require().NoError(err)

	id, err := s.Store.CreateGame(s.Ctx, sessionID, intPtr(3))
	s.Require().NoError(err)

	game, err := s.Store.GetGame(s.Ctx, id)
	s.Require().NoError(err)
	s.Equal(id, game.ID)
	s.Equal(sessionID, game.SessionID)
	s.Require().NotNil(game.RoundsToWin)
	s.Equal(3, *game.RoundsToWin)
	s.Nil(game.WinnerID)
}

func (s *Suite) TestCreateGameWithoutThreshold() {
	sessionID, err := s.Store.CreateSession(s.Ctx, s.Now)
	s.Require().NoError(err)

	id, err := s.Store.CreateGame(s.Ctx, sessionID, nil)
	s.Require().NoError(err)

	game, err := s.Store.GetGame(s.Ctx, id)
	s.Require().NoError(err)
	s.Nil(game.RoundsToWin)
}

func (s *Suite) TestCreateGameRequiresSession() {
	_, err := s.Store.CreateGame(s.Ctx, 999, intPtr(3))
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestGetGameNotFound() {
	_, err := s.Store.GetGame(s.Ctx, 999)
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestListSessionGames() {
	sessionID, err := s.Store.CreateSession(s.Ctx, s.Now)
	s.Require().NoError(err)
	otherSession, err := s.Store.CreateSession(s.Ctx, s.Now)
	s.Require().NoError(err)

	g1, err := s.Store.CreateGame(s.Ctx, sessionID, intPtr(3))
	s.Require().NoError(err)
	g2, err := s.Store.CreateGame(s.Ctx, sessionID, intPtr(5))
	s.Require().NoError(err)
	_, err = s.Store.CreateGame(s.Ctx, otherSession, intPtr(3))
	s.Require().NoError(err)

	games, err := s.Store.ListSessionGames(s.Ctx, sessionID)
	s.Require().NoError(err)
	s.Require().Len(games, 2)
	s.Equal(g1, games[0].ID)
	s.Equal(g2, games[1].ID)
}

// Membership tests

func (s *Suite) TestAddPlayerToGameAssignsSeats() {
	f := s.newFixture(3)

	members, err := s.Store.ListGamePlayers(s.Ctx, f.game)
	s.Require().NoError(err)
	s.Equal([]model.PlayerGame{
		{GameID: f.game, PlayerID: f.p1, Seat: 1},
		{GameID: f.game, PlayerID: f.p2, Seat: 2},
	}, members)
}

func (s *Suite) TestAddPlayerToGameRejectsDuplicate() {
	f := s.newFixture(3)

	err := s.Store.AddPlayerToGame(s.Ctx, f.game, f.p1)
	s.ErrorIs(err, model.ErrAlreadyInGame)
	s.ErrorIs(err, model.ErrConstraintViolation)

	members, err := s.Store.ListGamePlayers(s.Ctx, f.game)
	s.Require().NoError(err)
	s.Len(members, 2)
}

func (s *Suite) TestAddPlayerToGameRequiresGameAndPlayer() {
	f := s.newFixture(3)

	s.ErrorIs(s.Store.AddPlayerToGame(s.Ctx, 999, f.p1), model.ErrGameNotFound)
	s.ErrorIs(s.Store.AddPlayerToGame(s.Ctx, f.game, 999), model.ErrPlayerNotFound)
}

func (s *Suite) TestAddPlayerToDecidedGameIsRejected() {
	f := s.newFixture(1)
	late, err := s.Store.CreatePlayer(s.Ctx, "late", false, s.Now)
	s.Require().NoError(err)

	err = s.Store.UpdateGame(s.Ctx, f.game, func(ctx context.Context, tx storage.GameTx) error {
		return tx.SetWinner(ctx, f.p1)
	})
	s.Require().NoError(err)

	err = s.Store.AddPlayerToGame(s.Ctx, f.game, late)
	s.ErrorIs(err, model.ErrGameComplete)

	members, err := s.Store.ListGamePlayers(s.Ctx, f.game)
	s.Require().NoError(err)
	s.Len(members, 2)
}

// Round tests

func (s *Suite) TestInsertAndListRounds() {
	f := s.newFixture(3)

	s.insertRounds(f.game,
		&model.Round{RoundNumber: 2, P1Choice: model.ChoicePaper, P2Choice: model.ChoicePaper},
		&model.Round{RoundNumber: 1, P1Choice: model.ChoiceRock, P2Choice: model.ChoiceScissors, WinnerID: playerPtr(f.p1)},
	)

	rounds, err := s.Store.ListRounds(s.Ctx, f.game)
	s.Require().NoError(err)
	s.Require().Len(rounds, 2)
	s.Equal(1, rounds[0].RoundNumber)
	s.Equal(f.game, rounds[0].GameID)
	s.Equal(model.ChoiceRock, rounds[0].P1Choice)
	s.Equal(model.ChoiceScissors, rounds[0].P2Choice)
	s.Require().NotNil(rounds[0].WinnerID)
	s.Equal(f.p1, *rounds[0].WinnerID)
	s.Equal(2, rounds[1].RoundNumber)
	s.Nil(rounds[1].WinnerID)
}

func (s *Suite) TestInsertRoundRejectsDuplicateNumber() {
	f := s.newFixture(3)
	s.insertRounds(f.game, &model.Round{RoundNumber: 1, P1Choice: model.ChoiceRock, P2Choice: model.ChoiceRock})

	err := s.Store.UpdateGame(s.Ctx, f.game, func(ctx context.Context, tx storage.GameTx) error {
		return tx.InsertRound(ctx, &model.Round{RoundNumber: 1, P1Choice: model.ChoiceSpock, P2Choice: model.ChoiceSpock})
	})
	s.ErrorIs(err, model.ErrDuplicateRound)

	rounds, err := s.Store.ListRounds(s.Ctx, f.game)
	s.Require().NoError(err)
	s.Require().Len(rounds, 1)
	s.Equal(model.ChoiceRock, rounds[0].P1Choice)
}

func (s *Suite) TestRoundNumbersAreScopedPerGame() {
	a := s.newFixture(3)
	b := s.newFixture(3)

	round := &model.Round{RoundNumber: 1, P1Choice: model.ChoiceLizard, P2Choice: model.ChoiceLizard}
	s.insertRounds(a.game, round)
	s.insertRounds(b.game, round)

	roundsB, err := s.Store.ListRounds(s.Ctx, b.game)
	s.Require().NoError(err)
	s.Len(roundsB, 1)
}

func (s *Suite) TestUpdateGameRollsBackOnError() {
	f := s.newFixture(3)
	errBoom := errors.New("boom")

	err := s.Store.UpdateGame(s.Ctx, f.game, func(ctx context.Context, tx storage.GameTx) error {
		if err := tx.InsertRound(ctx, &model.Round{RoundNumber: 1, P1Choice: model.ChoiceRock, P2Choice: model.ChoiceScissors, WinnerID: playerPtr(f.p1)}); err != nil {
			return err
		}
		if err := tx.SetWinner(ctx, f.p1); err != nil {
			return err
		}
		return errBoom
	})
	s.ErrorIs(err, errBoom)

	rounds, err := s.Store.ListRounds(s.Ctx, f.game)
	s.Require().NoError(err)
	s.Empty(rounds)

	game, err := s.Store.GetGame(s.Ctx, f.game)
	s.Require().NoError(err)
	s.Nil(game.WinnerID)
}

func (s *Suite) TestUpdateGameNotFound() {
	called := false
	err := s.Store.UpdateGame(s.Ctx, 999, func(ctx context.Context, tx storage.GameTx) error {
		called = true
		return nil
	})
	s.ErrorIs(err, model.ErrGameNotFound)
	s.False(called)
}

func (s *Suite) TestGameTxExposesGameAndPlayers() {
	f := s.newFixture(2)

	err := s.Store.UpdateGame(s.Ctx, f.game, func(ctx context.Context, tx storage.GameTx) error {
		s.Equal(f.game, tx.Game().ID)
		s.Equal(f.session, tx.Game().SessionID)
		members, err := tx.Players(ctx)
		s.Require().NoError(err)
		s.Len(members, 2)
		return nil
	})
	s.Require().NoError(err)
}

// Aggregation tests

func (s *Suite) TestWinTalliesExcludeTiesAndBelowThreshold() {
	f := s.newFixture(2)
	s.insertRounds(f.game,
		&model.Round{RoundNumber: 1, P1Choice: model.ChoiceRock, P2Choice: model.ChoiceScissors, WinnerID: playerPtr(f.p1)},
		&model.Round{RoundNumber: 2, P1Choice: model.ChoiceRock, P2Choice: model.ChoiceRock},
		&model.Round{RoundNumber: 3, P1Choice: model.ChoiceRock, P2Choice: model.ChoicePaper, WinnerID: playerPtr(f.p2)},
		&model.Round{RoundNumber: 4, P1Choice: model.ChoiceSpock, P2Choice: model.ChoiceRock, WinnerID: playerPtr(f.p1)},
	)

	tallies, err := s.Store.WinTallies(s.Ctx, f.game, 2)
	s.Require().NoError(err)
	s.Equal([]model.WinTally{{PlayerID: f.p1, Wins: 2, ReachedAt: 4}}, tallies)

	tallies, err = s.Store.WinTallies(s.Ctx, f.game, 3)
	s.Require().NoError(err)
	s.Empty(tallies)
}

func (s *Suite) TestWinTalliesTrackEarliestThresholdRound() {
	f := s.newFixture(2)
	s.insertRounds(f.game,
		&model.Round{RoundNumber: 4, P1Choice: model.ChoiceRock, P2Choice: model.ChoiceScissors, WinnerID: playerPtr(f.p1)},
		&model.Round{RoundNumber: 1, P1Choice: model.ChoiceRock, P2Choice: model.ChoicePaper, WinnerID: playerPtr(f.p2)},
		&model.Round{RoundNumber: 2, P1Choice: model.ChoiceRock, P2Choice: model.ChoiceScissors, WinnerID: playerPtr(f.p1)},
		&model.Round{RoundNumber: 3, P1Choice: model.ChoiceRock, P2Choice: model.ChoicePaper, WinnerID: playerPtr(f.p2)},
	)

	tallies, err := s.Store.WinTallies(s.Ctx, f.game, 2)
	s.Require().NoError(err)
	s.Equal([]model.WinTally{
		{PlayerID: f.p1, Wins: 2, ReachedAt: 4},
		{PlayerID: f.p2, Wins: 2, ReachedAt: 3},
	}, tallies)
}

func (s *Suite) TestWinTalliesInsideTxSeePendingRounds() {
	f := s.newFixture(1)

	err := s.Store.UpdateGame(s.Ctx, f.game, func(ctx context.Context, tx storage.GameTx) error {
		if err := tx.InsertRound(ctx, &model.Round{RoundNumber: 1, P1Choice: model.ChoicePaper, P2Choice: model.ChoiceRock, WinnerID: playerPtr(f.p1)}); err != nil {
			return err
		}
		tallies, err := tx.WinTallies(ctx, 1)
		s.Require().NoError(err)
		s.Equal([]model.WinTally{{PlayerID: f.p1, Wins: 1, ReachedAt: 1}}, tallies)
		return nil
	})
	s.Require().NoError(err)
}

// Closure tests

func (s *Suite) TestSetWinnerAndEndSession() {
	f := s.newFixture(1)
	end := s.Now.Add(5 * time.Minute)

	var ended bool
	err := s.Store.UpdateGame(s.Ctx, f.game, func(ctx context.Context, tx storage.GameTx) error {
		if err := tx.SetWinner(ctx, f.p2); err != nil {
			return err
		}
		var err error
		ended, err = tx.EndSessionIfDecided(ctx, end)
		return err
	})
	s.Require().NoError(err)
	s.True(ended)

	game, err := s.Store.GetGame(s.Ctx, f.game)
	s.Require().NoError(err)
	s.Require().NotNil(game.WinnerID)
	s.Equal(f.p2, *game.WinnerID)

	session, err := s.Store.GetSession(s.Ctx, f.session)
	s.Require().NoError(err)
	s.Require().NotNil(session.EndTime)
	s.True(end.Equal(*session.EndTime))
	s.Equal(model.SessionStatusCompleted, session.Status)
}

func (s *Suite) TestSetWinnerOnlyOnce() {
	f := s.newFixture(1)

	err := s.Store.UpdateGame(s.Ctx, f.game, func(ctx context.Context, tx storage.GameTx) error {
		return tx.SetWinner(ctx, f.p1)
	})
	s.Require().NoError(err)

	err = s.Store.UpdateGame(s.Ctx, f.game, func(ctx context.Context, tx storage.GameTx) error {
		return tx.SetWinner(ctx, f.p2)
	})
	s.ErrorIs(err, model.ErrGameComplete)

	game, err := s.Store.GetGame(s.Ctx, f.game)
	s.Require().NoError(err)
	s.Equal(f.p1, *game.WinnerID)
}

func (s *Suite) TestSessionStaysActiveWhileAnotherGameIsUndecided() {
	f := s.newFixture(1)
	_, err := s.Store.CreateGame(s.Ctx, f.session, intPtr(1))
	s.Require().NoError(err)

	var ended bool
	err = s.Store.UpdateGame(s.Ctx, f.game, func(ctx context.Context, tx storage.GameTx) error {
		if err := tx.SetWinner(ctx, f.p1); err != nil {
			return err
		}
		var err error
		ended, err = tx.EndSessionIfDecided(ctx, s.Now)
		return err
	})
	s.Require().NoError(err)
	s.False(ended)

	session, err := s.Store.GetSession(s.Ctx, f.session)
	s.Require().NoError(err)
	s.Nil(session.EndTime)
	s.Equal(model.SessionStatusInProgress, session.Status)
}

func (s *Suite) TestEndSessionKeepsFirstEndTime() {
	f := s.newFixture(1)
	first := s.Now.Add(time.Minute)

	err := s.Store.UpdateGame(s.Ctx, f.game, func(ctx context.Context, tx storage.GameTx) error {
		if err := tx.SetWinner(ctx, f.p1); err != nil {
			return err
		}
		_, err := tx.EndSessionIfDecided(ctx, first)
		return err
	})
	s.Require().NoError(err)

	err = s.Store.UpdateGame(s.Ctx, f.game, func(ctx context.Context, tx storage.GameTx) error {
		ended, err := tx.EndSessionIfDecided(ctx, first.Add(time.Hour))
		s.True(ended)
		return err
	})
	s.Require().NoError(err)

	session, err := s.Store.GetSession(s.Ctx, f.session)
	s.Require().NoError(err)
	s.True(first.Equal(*session.EndTime))
}
