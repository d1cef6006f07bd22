package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsls-go/internal/api"
	"github.com/mcoot/rpsls-go/internal/api/apierr"
	"github.com/mcoot/rpsls-go/internal/api/response"
	"github.com/mcoot/rpsls-go/internal/factory"
	"github.com/mcoot/rpsls-go/internal/testutil"
)

// testServer wraps the router over an in-memory app with mocked dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	router := api.NewRouter(api.RouterConfig{
		Logger:          testutil.NopLogger(),
		PlayerService:   app.PlayerService,
		SessionService:  app.SessionService,
		GameController:  app.GameController,
		OpponentService: app.OpponentService,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierr.ErrorResponse](t, rr).Error.Code
}

func (ts *testServer) createPlayer(t *testing.T, name string) response.Player {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/players", map[string]any{"username": name})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[response.Player](t, rr)
}

// setupGame creates a session and a two-player game
func (ts *testServer) setupGame(t *testing.T, roundsToWin int) (response.Session, response.Game, response.Player, response.Player) {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	sess := decode[response.Session](t, rr)

	rr = ts.request(http.MethodPost, fmt.Sprintf("/api/v1/sessions/%d/games", sess.ID), map[string]any{"rounds_to_win": roundsToWin})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	g := decode[response.Game](t, rr)

	alice := ts.createPlayer(t, "alice")
	bob := ts.createPlayer(t, "bob")
	for _, p := range []response.Player{alice, bob} {
		rr = ts.request(http.MethodPost, fmt.Sprintf("/api/v1/games/%d/players", g.ID), map[string]any{"player_id": p.ID})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}
	return sess, g, alice, bob
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestCreateAndGetPlayer(t *testing.T) {
	ts := newTestServer(t)

	p := ts.createPlayer(t, "alice")
	assert.Equal(t, "alice", p.Username)
	assert.False(t, p.IsTemp)

	rr := ts.request(http.MethodGet, fmt.Sprintf("/api/v1/players/%d", p.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, p, decode[response.Player](t, rr))
}

func TestCreateTempPlayerGetsGuestName(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("abc123")

	rr := ts.request(http.MethodPost, "/api/v1/players", map[string]any{"is_temp": true})
	require.Equal(t, http.StatusCreated, rr.Code)

	p := decode[response.Player](t, rr)
	assert.Equal(t, "guest-abc123", p.Username)
	assert.True(t, p.IsTemp)
}

func TestCreatePlayerRequiresUsername(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/players", map[string]any{"username": "  "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidUsername, errorCode(t, rr))
}

func TestGetPlayerNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/players/999", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodePlayerNotFound, errorCode(t, rr))
}

func TestInvalidPathID(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/games/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/players", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStraightWinsDecideGameAndEndSession(t *testing.T) {
	ts := newTestServer(t)
	sess, g, alice, _ := ts.setupGame(t, 3)

	var last response.RoundResult
	for n := 1; n <= 3; n++ {
		rr := ts.request(http.MethodPost, fmt.Sprintf("/api/v1/games/%d/rounds", g.ID), map[string]any{
			"round_number": n,
			"p1_choice":    "Rock",
			"p2_choice":    "Scissors",
			"winner_id":    alice.ID,
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		last = decode[response.RoundResult](t, rr)
		if n < 3 {
			assert.Nil(t, last.Closure)
		}
	}

	require.NotNil(t, last.Closure)
	assert.Equal(t, alice.ID, last.Closure.WinnerID)
	assert.True(t, last.Closure.SessionEnded)

	rr := ts.request(http.MethodGet, fmt.Sprintf("/api/v1/sessions/%d", sess.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[response.Session](t, rr)
	assert.Equal(t, "Completed", got.Status)
	require.NotNil(t, got.EndTime)
	require.Len(t, got.Games, 1)
	require.NotNil(t, got.Games[0].WinnerID)
	assert.Equal(t, alice.ID, *got.Games[0].WinnerID)
}

func TestMixedOutcomeLeavesGameOpen(t *testing.T) {
	ts := newTestServer(t)
	_, g, alice, bob := ts.setupGame(t, 2)

	rounds := []map[string]any{
		{"round_number": 1, "p1_choice": "Rock", "p2_choice": "Scissors", "winner_id": alice.ID},
		{"round_number": 2, "p1_choice": "Rock", "p2_choice": "Paper", "winner_id": bob.ID},
		{"round_number": 3, "p1_choice": "Spock", "p2_choice": "Spock"},
	}
	for _, body := range rounds {
		rr := ts.request(http.MethodPost, fmt.Sprintf("/api/v1/games/%d/rounds", g.ID), body)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.Nil(t, decode[response.RoundResult](t, rr).Closure)
	}

	rr := ts.request(http.MethodGet, fmt.Sprintf("/api/v1/games/%d/winner", g.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decode[response.Winner](t, rr).WinnerID)

	rr = ts.request(http.MethodGet, fmt.Sprintf("/api/v1/games/%d", g.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	view := decode[response.Game](t, rr)
	assert.Nil(t, view.WinnerID)
	assert.Len(t, view.Players, 2)
	require.Len(t, view.Rounds, 3)
	assert.Nil(t, view.Rounds[2].WinnerID)
}

func TestRecordRoundErrors(t *testing.T) {
	ts := newTestServer(t)
	_, g, alice, _ := ts.setupGame(t, 3)
	path := fmt.Sprintf("/api/v1/games/%d/rounds", g.ID)

	rr := ts.request(http.MethodPost, path, map[string]any{"round_number": 1, "p1_choice": "Rock", "p2_choice": "Fire"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidChoice, errorCode(t, rr))

	rr = ts.request(http.MethodPost, path, map[string]any{"round_number": 0, "p1_choice": "Rock", "p2_choice": "Paper"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRound, errorCode(t, rr))

	rr = ts.request(http.MethodPost, path, map[string]any{"round_number": 1, "p1_choice": "Rock", "p2_choice": "Rock", "winner_id": alice.ID})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRound, errorCode(t, rr))

	rr = ts.request(http.MethodPost, path, map[string]any{"round_number": 1, "p1_choice": "Rock", "p2_choice": "Rock"})
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = ts.request(http.MethodPost, path, map[string]any{"round_number": 1, "p1_choice": "Paper", "p2_choice": "Paper"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeDuplicateRound, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/games/999/rounds", map[string]any{"round_number": 1, "p1_choice": "Rock", "p2_choice": "Rock"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeGameNotFound, errorCode(t, rr))
}

func TestMissingGameReportedBeforeBadChoice(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/games/999/rounds", map[string]any{"round_number": 1, "p1_choice": "Fire", "p2_choice": "Rock"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeGameNotFound, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/games/999/play", map[string]any{"round_number": 1, "p1_choice": "Rock", "p2_choice": "Fire"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeGameNotFound, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/games/999/computer", map[string]any{"choice": "Fire"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeGameNotFound, errorCode(t, rr))
}

func TestPlayNormalisesChoiceNames(t *testing.T) {
	ts := newTestServer(t)
	_, g, alice, _ := ts.setupGame(t, 3)

	rr := ts.request(http.MethodPost, fmt.Sprintf("/api/v1/games/%d/play", g.ID), map[string]any{"round_number": 1, "p1_choice": " spock", "p2_choice": "ROCK"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	result := decode[response.RoundResult](t, rr)
	assert.Equal(t, "Spock", result.Round.P1Choice)
	assert.Equal(t, "Rock", result.Round.P2Choice)
	require.NotNil(t, result.Round.WinnerID)
	assert.Equal(t, alice.ID, *result.Round.WinnerID)
}

func TestAddPlayerTwiceConflicts(t *testing.T) {
	ts := newTestServer(t)
	_, g, alice, _ := ts.setupGame(t, 1)

	rr := ts.request(http.MethodPost, fmt.Sprintf("/api/v1/games/%d/players", g.ID), map[string]any{"player_id": alice.ID})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeAlreadyInGame, errorCode(t, rr))
}

func TestCreateGameInUnknownSession(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/sessions/42/games", map[string]any{"rounds_to_win": 3})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeSessionNotFound, errorCode(t, rr))
}

func TestCreateGameWithoutThreshold(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/sessions", nil)
	sess := decode[response.Session](t, rr)

	rr = ts.request(http.MethodPost, fmt.Sprintf("/api/v1/sessions/%d/games", sess.ID), nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Nil(t, decode[response.Game](t, rr).RoundsToWin)
}

func TestPlayAdjudicatesWinner(t *testing.T) {
	ts := newTestServer(t)
	_, g, _, bob := ts.setupGame(t, 1)

	rr := ts.request(http.MethodPost, fmt.Sprintf("/api/v1/games/%d/play", g.ID), map[string]any{
		"round_number": 1,
		"p1_choice":    "lizard",
		"p2_choice":    "rock",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	result := decode[response.RoundResult](t, rr)
	require.NotNil(t, result.Round.WinnerID)
	assert.Equal(t, bob.ID, *result.Round.WinnerID)
	require.NotNil(t, result.Closure)
	assert.Equal(t, bob.ID, result.Closure.WinnerID)

	rr = ts.request(http.MethodPost, fmt.Sprintf("/api/v1/games/%d/play", g.ID), map[string]any{
		"round_number": 2,
		"p1_choice":    "rock",
		"p2_choice":    "rock",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeGameComplete, errorCode(t, rr))
}

func TestCloseGameByHand(t *testing.T) {
	ts := newTestServer(t)
	_, g, alice, _ := ts.setupGame(t, 5)

	rr := ts.request(http.MethodPost, fmt.Sprintf("/api/v1/games/%d/close", g.ID), map[string]any{"winner_id": alice.ID})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	closure := decode[response.Closure](t, rr)
	assert.Equal(t, alice.ID, closure.WinnerID)
	assert.True(t, closure.SessionEnded)
	assert.True(t, ts.app.MockClock.Now().Equal(closure.ClosedAt))
}

func TestPlayAgainstComputer(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/sessions", nil)
	sess := decode[response.Session](t, rr)
	rr = ts.request(http.MethodPost, fmt.Sprintf("/api/v1/sessions/%d/games", sess.ID), map[string]any{"rounds_to_win": 1})
	g := decode[response.Game](t, rr)

	alice := ts.createPlayer(t, "alice")
	rr = ts.request(http.MethodPost, fmt.Sprintf("/api/v1/games/%d/players", g.ID), map[string]any{"player_id": alice.ID})
	require.Equal(t, http.StatusCreated, rr.Code)

	ts.app.MockRandom.QueueString("cpu001")
	rr = ts.request(http.MethodPost, fmt.Sprintf("/api/v1/games/%d/players/computer", g.ID), nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, 2, decode[response.Seat](t, rr).Seat)

	// the random strategy picks the first choice, Rock
	ts.app.MockRandom.QueueIntn(0)
	rr = ts.request(http.MethodPost, fmt.Sprintf("/api/v1/games/%d/computer", g.ID), map[string]any{"choice": "Paper"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	result := decode[response.RoundResult](t, rr)
	assert.Equal(t, 1, result.Round.RoundNumber)
	assert.Equal(t, "Rock", result.Round.P2Choice)
	require.NotNil(t, result.Closure)
	assert.Equal(t, alice.ID, result.Closure.WinnerID)
}

func TestPlayComputerUnknownStrategy(t *testing.T) {
	ts := newTestServer(t)
	_, g, _, _ := ts.setupGame(t, 1)

	rr := ts.request(http.MethodPost, fmt.Sprintf("/api/v1/games/%d/computer", g.ID), map[string]any{"choice": "Rock", "strategy": "psychic"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeUnknownStrategy, errorCode(t, rr))
}

func TestListStrategies(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/computer/strategies", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"counter", "random"}, decode[response.Strategies](t, rr).Strategies)
}
