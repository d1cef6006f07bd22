package handler

import (
	"net/http"

	"github.com/mcoot/rpsls-go/internal/api/request"
	"github.com/mcoot/rpsls-go/internal/api/response"
	"github.com/mcoot/rpsls-go/internal/model"
	"github.com/mcoot/rpsls-go/internal/services/player"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	playerService *player.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(playerService *player.Service) *PlayerHandler {
	return &PlayerHandler{
		playerService: playerService,
	}
}

// Create handles POST /api/v1/players
func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePlayerRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	p, err := h.playerService.CreatePlayer(r.Context(), req.Username, req.IsTemp)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.PlayerFromModel(p))
}

// Get handles GET /api/v1/players/{player_id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "player_id")
	if err != nil {
		WriteError(w, err)
		return
	}

	p, err := h.playerService.GetPlayer(r.Context(), model.PlayerID(id))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.PlayerFromModel(p))
}
