package e2e_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsls-go/internal/api"
	"github.com/mcoot/rpsls-go/internal/factory"
	"github.com/mcoot/rpsls-go/internal/testutil"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "rpsls-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/rpsls")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.Output()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// startTestServer runs the API over SQLite on an ephemeral port
func startTestServer(t *testing.T) string {
	t.Helper()

	logger := testutil.NopLogger()
	app, err := factory.New(factory.Config{
		Logger:         logger,
		StorageType:    factory.StorageTypeSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "e2e.db"),
		StorageTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		PlayerService:   app.PlayerService,
		SessionService:  app.SessionService,
		GameController:  app.GameController,
		OpponentService: app.OpponentService,
	})

	cfg := api.DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	server := api.NewServer(router, cfg, logger)
	require.NoError(t, server.Listen())

	go func() {
		if err := server.Serve(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
		_ = app.Close()
	})

	// Wait for server to be ready
	serverURL := "http://" + server.Addr()
	waitForServer(t, serverURL+"/api/v1/health")
	return serverURL
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type playerResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type sessionResponse struct {
	ID      int64   `json:"id"`
	Status  string  `json:"status"`
	EndTime *string `json:"end_time"`
	Games   []struct {
		ID       int64  `json:"id"`
		WinnerID *int64 `json:"winner_id"`
	} `json:"games"`
}

type roundResultResponse struct {
	Round struct {
		RoundNumber int    `json:"round_number"`
		WinnerID    *int64 `json:"winner_id"`
	} `json:"round"`
	Closure *struct {
		WinnerID     int64 `json:"winner_id"`
		SessionEnded bool  `json:"session_ended"`
	} `json:"closure"`
}

func runJSON[T any](t *testing.T, cli *cliRunner, args ...string) T {
	t.Helper()
	output, err := cli.run(args...)
	require.NoError(t, err, "output: %s", output)
	var v T
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	resp := runJSON[map[string]string](t, cli, "health")
	assert.Equal(t, "ok", resp["status"])
}

func TestCLI_FullGameFlow(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	alice := runJSON[playerResponse](t, cli, "player", "create", "--name", "alice")
	bob := runJSON[playerResponse](t, cli, "player", "create", "--name", "bob")
	sess := runJSON[idResponse](t, cli, "session", "start")
	game := runJSON[idResponse](t, cli, "session", "add-game", fmt.Sprint(sess.ID), "--rounds-to-win", "3")

	for _, p := range []playerResponse{alice, bob} {
		_, err := cli.run("game", "join", fmt.Sprint(game.ID), "--player", fmt.Sprint(p.ID))
		require.NoError(t, err)
	}

	// Three straight wins for alice
	var last roundResultResponse
	for n := 1; n <= 3; n++ {
		last = runJSON[roundResultResponse](t, cli, "game", "round", fmt.Sprint(game.ID),
			"--round", fmt.Sprint(n), "--p1", "Rock", "--p2", "Scissors", "--winner", fmt.Sprint(alice.ID))
	}
	require.NotNil(t, last.Closure)
	assert.Equal(t, alice.ID, last.Closure.WinnerID)
	assert.True(t, last.Closure.SessionEnded)

	got := runJSON[sessionResponse](t, cli, "session", "get", fmt.Sprint(sess.ID))
	assert.Equal(t, "Completed", got.Status)
	assert.NotNil(t, got.EndTime)
	require.Len(t, got.Games, 1)
	require.NotNil(t, got.Games[0].WinnerID)
	assert.Equal(t, alice.ID, *got.Games[0].WinnerID)

	// Decided games reject further rounds
	_, err := cli.run("game", "round", fmt.Sprint(game.ID), "--round", "4", "--p1", "Rock", "--p2", "Rock")
	assert.Error(t, err)
}

func TestCLI_PlayAgainstComputer(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	alice := runJSON[playerResponse](t, cli, "player", "create", "--name", "alice")
	sess := runJSON[idResponse](t, cli, "session", "start")
	game := runJSON[idResponse](t, cli, "session", "add-game", fmt.Sprint(sess.ID), "--rounds-to-win", "1")

	_, err := cli.run("game", "join", fmt.Sprint(game.ID), "--player", fmt.Sprint(alice.ID))
	require.NoError(t, err)
	_, err = cli.run("game", "join", fmt.Sprint(game.ID), "--computer")
	require.NoError(t, err)

	// Play until someone wins; ties do not decide the game
	for n := 1; n <= 50; n++ {
		res := runJSON[roundResultResponse](t, cli, "game", "vs-computer", fmt.Sprint(game.ID), "Spock", "--strategy", "counter")
		assert.Equal(t, n, res.Round.RoundNumber)
		if res.Closure != nil {
			assert.True(t, res.Closure.SessionEnded)
			return
		}
	}
	t.Fatal("game was not decided")
}
