package request

// CreatePlayerRequest is the request body for creating a player
type CreatePlayerRequest struct {
	Username string `json:"username"`
	IsTemp   bool   `json:"is_temp"`
}

// CreateGameRequest is the request body for adding a game to a session.
// Omitting rounds_to_win disables automatic win detection.
type CreateGameRequest struct {
	RoundsToWin *int `json:"rounds_to_win,omitempty"`
}

// AddPlayerRequest is the request body for seating a player in a game
type AddPlayerRequest struct {
	PlayerID int64 `json:"player_id"`
}

// RecordRoundRequest is the request body for recording a reported round
type RecordRoundRequest struct {
	RoundNumber int    `json:"round_number"`
	P1Choice    string `json:"p1_choice"`
	P2Choice    string `json:"p2_choice"`
	WinnerID    *int64 `json:"winner_id"`
}

// PlayRoundRequest is the request body for a round adjudicated by the server
type PlayRoundRequest struct {
	RoundNumber int    `json:"round_number"`
	P1Choice    string `json:"p1_choice"`
	P2Choice    string `json:"p2_choice"`
}

// ComputerRoundRequest is the request body for playing against the computer
type ComputerRoundRequest struct {
	Choice   string `json:"choice"`
	Strategy string `json:"strategy,omitempty"`
}

// CloseGameRequest is the request body for closing a game by hand
type CloseGameRequest struct {
	WinnerID int64 `json:"winner_id"`
}
