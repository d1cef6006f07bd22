package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/mcoot/rpsls-go/internal/model"
	"github.com/mcoot/rpsls-go/internal/storage"
)

// gameTx runs game writes inside an open SQL transaction
type gameTx struct {
	tx   *sql.Tx
	game *model.Game
}

var _ storage.GameTx = (*gameTx)(nil)

func (t *gameTx) Game() *model.Game {
	g := *t.game
	return &g
}

func (t *gameTx) Players(ctx context.Context) ([]model.PlayerGame, error) {
	return listMembers(ctx, t.tx, t.game.ID)
}

func (t *gameTx) InsertRound(ctx context.Context, round *model.Round) error {
	var winner sql.NullInt64
	if round.WinnerID != nil {
		winner = sql.NullInt64{Int64: int64(*round.WinnerID), Valid: true}
	}
	_, err := t.tx.ExecContext(
		ctx,
		`INSERT INTO rounds (game_id, round_number, p1_choice, p2_choice, winner_id)
		 VALUES (?, ?, ?, ?, ?)`,
		int64(t.game.ID),
		round.RoundNumber,
		string(round.P1Choice),
		string(round.P2Choice),
		winner,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return model.ErrDuplicateRound
		case isForeignKeyViolation(err):
			return model.ErrPlayerNotFound
		}
		return wrap("insert round", err)
	}
	return nil
}

func (t *gameTx) WinTallies(ctx context.Context, threshold int) ([]model.WinTally, error) {
	return winTallies(ctx, t.tx, t.game.ID, threshold)
}

func (t *gameTx) SetWinner(ctx context.Context, winnerID model.PlayerID) error {
	if t.game.WinnerID != nil {
		return model.ErrGameComplete
	}
	res, err := t.tx.ExecContext(
		ctx,
		`UPDATE games SET winner_id = ? WHERE id = ? AND winner_id IS NULL`,
		int64(winnerID),
		int64(t.game.ID),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrPlayerNotFound
		}
		return wrap("set winner", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("set winner", err)
	}
	if n == 0 {
		return model.ErrGameComplete
	}
	t.game.WinnerID = &winnerID
	return nil
}

func (t *gameTx) EndSessionIfDecided(ctx context.Context, endTime time.Time) (bool, error) {
	session, err := getSession(ctx, t.tx, t.game.SessionID)
	if err != nil {
		return false, err
	}
	if session.EndTime != nil {
		return true, nil
	}
	if t.game.WinnerID == nil {
		return false, nil
	}

	var undecided int
	err = t.tx.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM games WHERE session_id = ? AND winner_id IS NULL`,
		int64(session.ID),
	).Scan(&undecided)
	if err != nil {
		return false, wrap("count undecided games", err)
	}
	if undecided > 0 {
		return false, nil
	}

	_, err = t.tx.ExecContext(
		ctx,
		`UPDATE sessions SET end_time = ?, status = ? WHERE id = ? AND end_time IS NULL`,
		toMillis(endTime),
		string(model.SessionStatusCompleted),
		int64(session.ID),
	)
	if err != nil {
		return false, wrap("end session", err)
	}
	return true, nil
}
