package response

import (
	"time"

	"github.com/mcoot/rpsls-go/internal/model"
	"github.com/mcoot/rpsls-go/internal/services/game"
	"github.com/mcoot/rpsls-go/internal/services/session"
)

// Player represents a player in API responses
type Player struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	IsTemp    bool      `json:"is_temp"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:        int64(p.ID),
		Username:  p.Username,
		IsTemp:    p.IsTemp,
		CreatedAt: p.CreatedAt,
	}
}

// Session represents a session in API responses
type Session struct {
	ID        int64      `json:"id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Status    string     `json:"status"`
	Games     []Game     `json:"games,omitempty"`
}

// SessionFromModel converts model.Session
func SessionFromModel(s *model.Session) Session {
	return Session{
		ID:        int64(s.ID),
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Status:    string(s.Status),
	}
}

// SessionFromView converts a session with its games
func SessionFromView(v *session.View) Session {
	resp := SessionFromModel(v.Session)
	resp.Games = make([]Game, len(v.Games))
	for i, g := range v.Games {
		resp.Games[i] = GameFromModel(g)
	}
	return resp
}

// Seat is a player's place in a game
type Seat struct {
	PlayerID int64 `json:"player_id"`
	Seat     int   `json:"seat"`
}

// SeatFromModel converts model.PlayerGame
func SeatFromModel(pg model.PlayerGame) Seat {
	return Seat{PlayerID: int64(pg.PlayerID), Seat: pg.Seat}
}

// Round represents a recorded round
type Round struct {
	RoundNumber int    `json:"round_number"`
	P1Choice    string `json:"p1_choice"`
	P2Choice    string `json:"p2_choice"`
	WinnerID    *int64 `json:"winner_id"`
}

// RoundFromModel converts model.Round
func RoundFromModel(r *model.Round) Round {
	return Round{
		RoundNumber: r.RoundNumber,
		P1Choice:    string(r.P1Choice),
		P2Choice:    string(r.P2Choice),
		WinnerID:    playerIDPtr(r.WinnerID),
	}
}

// Game represents a game in API responses. Players and rounds are only
// populated on the single-game endpoint.
type Game struct {
	ID          int64   `json:"id"`
	SessionID   int64   `json:"session_id"`
	RoundsToWin *int    `json:"rounds_to_win"`
	WinnerID    *int64  `json:"winner_id"`
	Players     []Seat  `json:"players,omitempty"`
	Rounds      []Round `json:"rounds,omitempty"`
}

// GameFromModel converts model.Game
func GameFromModel(g *model.Game) Game {
	return Game{
		ID:          int64(g.ID),
		SessionID:   int64(g.SessionID),
		RoundsToWin: g.RoundsToWin,
		WinnerID:    playerIDPtr(g.WinnerID),
	}
}

// GameFromView converts a game with its roster and rounds
func GameFromView(v *game.GameView) Game {
	resp := GameFromModel(v.Game)
	resp.Players = make([]Seat, len(v.Players))
	for i, p := range v.Players {
		resp.Players[i] = SeatFromModel(p)
	}
	resp.Rounds = make([]Round, len(v.Rounds))
	for i, r := range v.Rounds {
		resp.Rounds[i] = RoundFromModel(r)
	}
	return resp
}

// Closure reports a game that has just been decided
type Closure struct {
	GameID       int64     `json:"game_id"`
	WinnerID     int64     `json:"winner_id"`
	SessionID    int64     `json:"session_id"`
	ClosedAt     time.Time `json:"closed_at"`
	SessionEnded bool      `json:"session_ended"`
}

// ClosureFromModel converts model.Closure. A nil closure stays nil.
func ClosureFromModel(c *model.Closure) *Closure {
	if c == nil {
		return nil
	}
	return &Closure{
		GameID:       int64(c.GameID),
		WinnerID:     int64(c.WinnerID),
		SessionID:    int64(c.SessionID),
		ClosedAt:     c.ClosedAt,
		SessionEnded: c.SessionEnded,
	}
}

// RoundResult is the response after recording a round
type RoundResult struct {
	Round   Round    `json:"round"`
	Closure *Closure `json:"closure,omitempty"`
}

// RoundResultFromService converts game.RoundResult
func RoundResultFromService(r *game.RoundResult) RoundResult {
	return RoundResult{
		Round:   RoundFromModel(r.Round),
		Closure: ClosureFromModel(r.Closure),
	}
}

// Winner is the response for the winner evaluation endpoint
type Winner struct {
	GameID   int64  `json:"game_id"`
	WinnerID *int64 `json:"winner_id"`
}

// Strategies lists the computer opponent strategies
type Strategies struct {
	Strategies []string `json:"strategies"`
}

func playerIDPtr(id *model.PlayerID) *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}
