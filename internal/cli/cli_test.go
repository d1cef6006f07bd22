package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsls-go/internal/api"
	"github.com/mcoot/rpsls-go/internal/factory"
	"github.com/mcoot/rpsls-go/internal/testutil"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	app := factory.NewTestApp()
	srv := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:          testutil.NopLogger(),
		PlayerService:   app.PlayerService,
		SessionService:  app.SessionService,
		GameController:  app.GameController,
		OpponentService: app.OpponentService,
	}))
	t.Cleanup(srv.Close)
	return srv
}

// run executes the CLI against srv and returns stdout
func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--server", srv.URL}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func runJSON[T any](t *testing.T, srv *httptest.Server, args ...string) T {
	t.Helper()

	out, err := run(t, srv, append([]string{"-o", "json"}, args...)...)
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestHealth(t *testing.T) {
	srv := startServer(t)

	out, err := run(t, srv, "health")
	require.NoError(t, err)
	assert.Equal(t, "Status: ok\n", out)
}

func TestFullGameFlow(t *testing.T) {
	srv := startServer(t)

	alice := runJSON[Player](t, srv, "player", "create", "--name", "alice")
	bob := runJSON[Player](t, srv, "player", "create", "--name", "bob")
	sess := runJSON[Session](t, srv, "session", "start")
	g := runJSON[Game](t, srv, "session", "add-game", fmt.Sprint(sess.ID), "--rounds-to-win", "2")
	require.NotNil(t, g.RoundsToWin)

	for _, p := range []Player{alice, bob} {
		runJSON[Seat](t, srv, "game", "join", fmt.Sprint(g.ID), "--player", fmt.Sprint(p.ID))
	}

	r1 := runJSON[RoundResult](t, srv, "game", "round", fmt.Sprint(g.ID), "--round", "1", "--p1", "Spock", "--p2", "Rock", "--winner", fmt.Sprint(alice.ID))
	assert.Nil(t, r1.Closure)

	r2 := runJSON[RoundResult](t, srv, "game", "play", fmt.Sprint(g.ID), "--round", "2", "--p1", "Paper", "--p2", "Spock")
	require.NotNil(t, r2.Closure)
	assert.Equal(t, alice.ID, r2.Closure.WinnerID)
	assert.True(t, r2.Closure.SessionEnded)

	out, err := run(t, srv, "session", "get", fmt.Sprint(sess.ID))
	require.NoError(t, err)
	assert.Contains(t, out, "Status: Completed")
	assert.Contains(t, out, fmt.Sprintf("won by %d", alice.ID))
}

func TestGameTextOutput(t *testing.T) {
	srv := startServer(t)

	sess := runJSON[Session](t, srv, "session", "start")
	g := runJSON[Game](t, srv, "session", "add-game", fmt.Sprint(sess.ID))
	assert.Nil(t, g.RoundsToWin)

	out, err := run(t, srv, "game", "winner", fmt.Sprint(g.ID))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Game %d: no winner yet\n", g.ID), out)
}

func TestAPIErrorsAreReturned(t *testing.T) {
	srv := startServer(t)

	_, err := run(t, srv, "game", "get", "999")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "GAME_NOT_FOUND", apiErr.Code)
	assert.Equal(t, 404, apiErr.Status)
}

func TestInvalidIDIsRejectedLocally(t *testing.T) {
	srv := startServer(t)

	_, err := run(t, srv, "player", "get", "abc")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid id"))
}

func TestCreatePlayerRequiresNameUnlessTemp(t *testing.T) {
	srv := startServer(t)

	_, err := run(t, srv, "player", "create")
	require.Error(t, err)

	p := runJSON[Player](t, srv, "player", "create", "--temp")
	assert.True(t, p.IsTemp)
	assert.True(t, strings.HasPrefix(p.Username, "guest-"))
}

func TestLoadConfigFrom(t *testing.T) {
	c, err := LoadConfigFrom(map[string]string{
		"RPSLS_SERVER":  "http://rpsls.internal:9000",
		"RPSLS_VERBOSE": "true",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://rpsls.internal:9000", c.ServerURL)
	assert.Equal(t, "text", c.Output)
	assert.True(t, c.Verbose)
}

func TestLoadConfigFromRejectsMalformedValue(t *testing.T) {
	_, err := LoadConfigFrom(map[string]string{"RPSLS_VERBOSE": "maybe"})
	assert.Error(t, err)
}

func TestMalformedEnvironmentIsReported(t *testing.T) {
	srv := startServer(t)
	t.Setenv("RPSLS_VERBOSE", "maybe")

	_, err := run(t, srv, "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid environment")
}
