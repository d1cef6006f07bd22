package handler

import (
	"net/http"

	"github.com/mcoot/rpsls-go/internal/api/request"
	"github.com/mcoot/rpsls-go/internal/api/response"
	"github.com/mcoot/rpsls-go/internal/model"
	"github.com/mcoot/rpsls-go/internal/services/game"
	"github.com/mcoot/rpsls-go/internal/services/opponent"
)

// GameHandler handles game-related endpoints
type GameHandler struct {
	gameController  *game.Controller
	opponentService *opponent.Service
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameController *game.Controller, opponentService *opponent.Service) *GameHandler {
	return &GameHandler{
		gameController:  gameController,
		opponentService: opponentService,
	}
}

// Get handles GET /api/v1/games/{game_id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r, "game_id")
	if err != nil {
		WriteError(w, err)
		return
	}

	view, err := h.gameController.GetGameView(r.Context(), model.GameID(gameID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.GameFromView(view))
}

// AddPlayer handles POST /api/v1/games/{game_id}/players
func (h *GameHandler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r, "game_id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.AddPlayerRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.PlayerID < 1 {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}

	seat, err := h.gameController.AddPlayerToGame(r.Context(), model.GameID(gameID), model.PlayerID(req.PlayerID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.SeatFromModel(*seat))
}

// AddComputer handles POST /api/v1/games/{game_id}/players/computer
func (h *GameHandler) AddComputer(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r, "game_id")
	if err != nil {
		WriteError(w, err)
		return
	}

	seat, err := h.opponentService.JoinGame(r.Context(), model.GameID(gameID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.SeatFromModel(*seat))
}

// RecordRound handles POST /api/v1/games/{game_id}/rounds
func (h *GameHandler) RecordRound(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r, "game_id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.RecordRoundRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	in := game.RecordRoundInput{
		GameID:      model.GameID(gameID),
		RoundNumber: req.RoundNumber,
		P1Choice:    choiceOf(req.P1Choice),
		P2Choice:    choiceOf(req.P2Choice),
	}
	if req.WinnerID != nil {
		winner := model.PlayerID(*req.WinnerID)
		in.WinnerID = &winner
	}

	result, err := h.gameController.RecordRound(r.Context(), in)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.RoundResultFromService(result))
}

// Play handles POST /api/v1/games/{game_id}/play
func (h *GameHandler) Play(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r, "game_id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.PlayRoundRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	p1, p2 := choiceOf(req.P1Choice), choiceOf(req.P2Choice)
	result, err := h.gameController.PlayRound(r.Context(), model.GameID(gameID), req.RoundNumber, p1, p2)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.RoundResultFromService(result))
}

// PlayComputer handles POST /api/v1/games/{game_id}/computer
func (h *GameHandler) PlayComputer(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r, "game_id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.ComputerRoundRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	choice := choiceOf(req.Choice)
	strategy := req.Strategy
	if strategy == "" {
		strategy = opponent.StrategyRandom
	}

	result, err := h.opponentService.PlayRound(r.Context(), model.GameID(gameID), choice, strategy)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.RoundResultFromService(result))
}

// Strategies handles GET /api/v1/computer/strategies
func (h *GameHandler) Strategies(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, response.Strategies{Strategies: h.opponentService.Strategies()})
}

// Winner handles GET /api/v1/games/{game_id}/winner
func (h *GameHandler) Winner(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r, "game_id")
	if err != nil {
		WriteError(w, err)
		return
	}

	winner, err := h.gameController.EvaluateWinner(r.Context(), model.GameID(gameID))
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.Winner{GameID: gameID}
	if winner != nil {
		id := int64(*winner)
		resp.WinnerID = &id
	}
	response.OK(w, resp)
}

// Close handles POST /api/v1/games/{game_id}/close
func (h *GameHandler) Close(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r, "game_id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.CloseGameRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.WinnerID < 1 {
		WriteError(w, NewInvalidRequestError("winner_id is required"))
		return
	}

	closure, err := h.gameController.CloseGame(r.Context(), model.GameID(gameID), model.PlayerID(req.WinnerID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.ClosureFromModel(closure))
}

// choiceOf normalises a choice name. Unrecognised input passes through
// unchanged so the controller reports a missing game before a bad choice.
func choiceOf(s string) model.Choice {
	c, err := model.ParseChoice(s)
	if err != nil {
		return model.Choice(s)
	}
	return c
}
