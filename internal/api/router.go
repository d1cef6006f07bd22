package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsls-go/internal/api/handler"
	"github.com/mcoot/rpsls-go/internal/api/middleware"
	"github.com/mcoot/rpsls-go/internal/api/response"
	"github.com/mcoot/rpsls-go/internal/services/game"
	"github.com/mcoot/rpsls-go/internal/services/opponent"
	"github.com/mcoot/rpsls-go/internal/services/player"
	"github.com/mcoot/rpsls-go/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	PlayerService   *player.Service
	SessionService  *session.Service
	GameController  *game.Controller
	OpponentService *opponent.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.PlayerService)
	sessionHandler := handler.NewSessionHandler(cfg.SessionService, cfg.GameController)
	gameHandler := handler.NewGameHandler(cfg.GameController, cfg.OpponentService)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.RequestID())
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	// Player routes
	api.HandleFunc("/players", playerHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/players/{player_id}", playerHandler.Get).Methods(http.MethodGet)

	// Session routes
	api.HandleFunc("/sessions", sessionHandler.Start).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{session_id}", sessionHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{session_id}/games", sessionHandler.CreateGame).Methods(http.MethodPost)

	// Game routes
	api.HandleFunc("/games/{game_id}", gameHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/games/{game_id}/players", gameHandler.AddPlayer).Methods(http.MethodPost)
	api.HandleFunc("/games/{game_id}/players/computer", gameHandler.AddComputer).Methods(http.MethodPost)
	api.HandleFunc("/games/{game_id}/rounds", gameHandler.RecordRound).Methods(http.MethodPost)
	api.HandleFunc("/games/{game_id}/play", gameHandler.Play).Methods(http.MethodPost)
	api.HandleFunc("/games/{game_id}/computer", gameHandler.PlayComputer).Methods(http.MethodPost)
	api.HandleFunc("/games/{game_id}/winner", gameHandler.Winner).Methods(http.MethodGet)
	api.HandleFunc("/games/{game_id}/close", gameHandler.Close).Methods(http.MethodPost)
	api.HandleFunc("/computer/strategies", gameHandler.Strategies).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}
