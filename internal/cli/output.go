package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case Session:
		o.printSession(v)
	case Game:
		o.printGame(v)
	case Seat:
		fmt.Fprintf(o.w, "Player %d seated at %d\n", v.PlayerID, v.Seat)
	case RoundResult:
		o.printRoundResult(v)
	case Closure:
		o.printClosure(v)
	case Winner:
		o.printWinner(v)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	IsTemp    bool      `json:"is_temp"`
	CreatedAt time.Time `json:"created_at"`
}

// Session response type
type Session struct {
	ID        int64      `json:"id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Status    string     `json:"status"`
	Games     []Game     `json:"games,omitempty"`
}

// Game response type
type Game struct {
	ID          int64   `json:"id"`
	SessionID   int64   `json:"session_id"`
	RoundsToWin *int    `json:"rounds_to_win"`
	WinnerID    *int64  `json:"winner_id"`
	Players     []Seat  `json:"players,omitempty"`
	Rounds      []Round `json:"rounds,omitempty"`
}

// Seat response type
type Seat struct {
	PlayerID int64 `json:"player_id"`
	Seat     int   `json:"seat"`
}

// Round response type
type Round struct {
	RoundNumber int    `json:"round_number"`
	P1Choice    string `json:"p1_choice"`
	P2Choice    string `json:"p2_choice"`
	WinnerID    *int64 `json:"winner_id"`
}

// Closure response type
type Closure struct {
	GameID       int64     `json:"game_id"`
	WinnerID     int64     `json:"winner_id"`
	SessionID    int64     `json:"session_id"`
	ClosedAt     time.Time `json:"closed_at"`
	SessionEnded bool      `json:"session_ended"`
}

// RoundResult response type
type RoundResult struct {
	Round   Round    `json:"round"`
	Closure *Closure `json:"closure,omitempty"`
}

// Winner response type
type Winner struct {
	GameID   int64  `json:"game_id"`
	WinnerID *int64 `json:"winner_id"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p Player) {
	tempStr := "no"
	if p.IsTemp {
		tempStr = "yes"
	}
	fmt.Fprintf(o.w, "Player: %s (%d)\n", p.Username, p.ID)
	fmt.Fprintf(o.w, "Temporary: %s\n", tempStr)
}

func (o *Output) printSession(s Session) {
	fmt.Fprintf(o.w, "Session: %d\n", s.ID)
	fmt.Fprintf(o.w, "Status: %s\n", s.Status)
	fmt.Fprintf(o.w, "Started: %s\n", s.StartTime.Format(time.RFC3339))
	if s.EndTime != nil {
		fmt.Fprintf(o.w, "Ended: %s\n", s.EndTime.Format(time.RFC3339))
	}
	if len(s.Games) > 0 {
		fmt.Fprintf(o.w, "Games (%d):\n", len(s.Games))
		for _, g := range s.Games {
			fmt.Fprintf(o.w, "  - %d: %s\n", g.ID, gameStatus(g))
		}
	}
}

func (o *Output) printGame(g Game) {
	fmt.Fprintf(o.w, "Game: %d (session %d)\n", g.ID, g.SessionID)
	if g.RoundsToWin != nil {
		fmt.Fprintf(o.w, "Rounds to win: %d\n", *g.RoundsToWin)
	}
	fmt.Fprintf(o.w, "Status: %s\n", gameStatus(g))

	if len(g.Players) > 0 {
		seats := make([]string, len(g.Players))
		for i, p := range g.Players {
			seats[i] = fmt.Sprintf("P%d=%d", p.Seat, p.PlayerID)
		}
		fmt.Fprintf(o.w, "Players: %s\n", strings.Join(seats, ", "))
	}
	for _, r := range g.Rounds {
		o.printRound(r)
	}
}

func (o *Output) printRound(r Round) {
	result := "tie"
	if r.WinnerID != nil {
		result = fmt.Sprintf("won by %d", *r.WinnerID)
	}
	fmt.Fprintf(o.w, "  Round %d: %s vs %s, %s\n", r.RoundNumber, r.P1Choice, r.P2Choice, result)
}

func (o *Output) printRoundResult(r RoundResult) {
	o.printRound(r.Round)
	if r.Closure != nil {
		o.printClosure(*r.Closure)
	}
}

func (o *Output) printClosure(c Closure) {
	fmt.Fprintf(o.w, "Game %d won by player %d\n", c.GameID, c.WinnerID)
	if c.SessionEnded {
		fmt.Fprintf(o.w, "Session %d ended\n", c.SessionID)
	}
}

func (o *Output) printWinner(w Winner) {
	if w.WinnerID == nil {
		fmt.Fprintf(o.w, "Game %d: no winner yet\n", w.GameID)
		return
	}
	fmt.Fprintf(o.w, "Game %d: player %d has won\n", w.GameID, *w.WinnerID)
}

func gameStatus(g Game) string {
	if g.WinnerID != nil {
		return fmt.Sprintf("won by %d", *g.WinnerID)
	}
	return "in progress"
}
