package handler

import (
	"net/http"

	"github.com/mcoot/rpsls-go/internal/api/request"
	"github.com/mcoot/rpsls-go/internal/api/response"
	"github.com/mcoot/rpsls-go/internal/model"
	"github.com/mcoot/rpsls-go/internal/services/game"
	"github.com/mcoot/rpsls-go/internal/services/session"
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	sessionService *session.Service
	gameController *game.Controller
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *session.Service, gameController *game.Controller) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		gameController: gameController,
	}
}

// Start handles POST /api/v1/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessionService.StartSession(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.SessionFromModel(s))
}

// Get handles GET /api/v1/sessions/{session_id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "session_id")
	if err != nil {
		WriteError(w, err)
		return
	}

	view, err := h.sessionService.GetSessionView(r.Context(), model.SessionID(id))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.SessionFromView(view))
}

// CreateGame handles POST /api/v1/sessions/{session_id}/games
func (h *SessionHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "session_id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.CreateGameRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.gameController.CreateGame(r.Context(), model.SessionID(id), req.RoundsToWin)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.GameFromModel(g))
}
