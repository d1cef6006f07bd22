// Package sqlite provides a SQLite-backed match storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/mcoot/rpsls-go/internal/model"
	"github.com/mcoot/rpsls-go/internal/storage"
	"github.com/mcoot/rpsls-go/internal/storage/sqlite/migrations"
)

// Store persists match state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Storage = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies embedded migrations.
// Every transaction takes the write lock up front (BEGIN IMMEDIATE).
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// wrap maps driver errors into the storage category, leaving context
// cancellation untouched.
func wrap(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return model.StorageError(op, err)
}

func sqliteCode(err error) int {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	switch sqliteCode(err) {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	return sqliteCode(err) == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY
}

// queryer is the read side shared by *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Player operations

func (s *Store) CreatePlayer(ctx context.Context, username string, isTemp bool, createdAt time.Time) (model.PlayerID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO players (username, is_temp, created_at) VALUES (?, ?, ?)`,
		username,
		isTemp,
		toMillis(createdAt),
	)
	if err != nil {
		return 0, wrap("create player", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrap("create player", err)
	}
	return model.PlayerID(id), nil
}

func (s *Store) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		player    model.Player
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, username, is_temp, created_at FROM players WHERE id = ?`,
		int64(id),
	).Scan(&player.ID, &player.Username, &player.IsTemp, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, wrap("get player", err)
	}
	player.CreatedAt = fromMillis(createdAt)
	return &player, nil
}

// Session operations

func (s *Store) CreateSession(ctx context.Context, startTime time.Time) (model.SessionID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sessions (start_time, status) VALUES (?, ?)`,
		toMillis(startTime),
		string(model.SessionStatusInProgress),
	)
	if err != nil {
		return 0, wrap("create session", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrap("create session", err)
	}
	return model.SessionID(id), nil
}

func (s *Store) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return getSession(ctx, s.sqlDB, id)
}

func getSession(ctx context.Context, q queryer, id model.SessionID) (*model.Session, error) {
	var (
		session   model.Session
		startTime int64
		endTime   sql.NullInt64
		status    string
	)
	err := q.QueryRowContext(
		ctx,
		`SELECT id, start_time, end_time, status FROM sessions WHERE id = ?`,
		int64(id),
	).Scan(&session.ID, &startTime, &endTime, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrSessionNotFound
		}
		return nil, wrap("get session", err)
	}
	session.StartTime = fromMillis(startTime)
	if endTime.Valid {
		t := fromMillis(endTime.Int64)
		session.EndTime = &t
	}
	session.Status, err = model.ParseSessionStatus(status)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Game operations

func (s *Store) CreateGame(ctx context.Context, sessionID model.SessionID, roundsToWin *int) (model.GameID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var threshold sql.NullInt64
	if roundsToWin != nil {
		threshold = sql.NullInt64{Int64: int64(*roundsToWin), Valid: true}
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO games (session_id, rounds_to_win) VALUES (?, ?)`,
		int64(sessionID),
		threshold,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, model.ErrSessionNotFound
		}
		return 0, wrap("create game", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrap("create game", err)
	}
	return model.GameID(id), nil
}

const selectGame = `SELECT id, session_id, rounds_to_win, winner_id FROM games`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*model.Game, error) {
	var (
		game        model.Game
		roundsToWin sql.NullInt64
		winnerID    sql.NullInt64
	)
	if err := row.Scan(&game.ID, &game.SessionID, &roundsToWin, &winnerID); err != nil {
		return nil, err
	}
	if roundsToWin.Valid {
		n := int(roundsToWin.Int64)
		game.RoundsToWin = &n
	}
	if winnerID.Valid {
		w := model.PlayerID(winnerID.Int64)
		game.WinnerID = &w
	}
	return &game, nil
}

func getGame(ctx context.Context, q queryer, id model.GameID) (*model.Game, error) {
	game, err := scanGame(q.QueryRowContext(ctx, selectGame+` WHERE id = ?`, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrGameNotFound
		}
		return nil, wrap("get game", err)
	}
	return game, nil
}

func (s *Store) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return getGame(ctx, s.sqlDB, id)
}

func (s *Store) ListSessionGames(ctx context.Context, sessionID model.SessionID) ([]*model.Game, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, selectGame+` WHERE session_id = ? ORDER BY id`, int64(sessionID))
	if err != nil {
		return nil, wrap("list session games", err)
	}
	defer func() { _ = rows.Close() }()

	games := []*model.Game{}
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, wrap("scan game", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list session games", err)
	}
	return games, nil
}

// Membership operations

func (s *Store) AddPlayerToGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin add player", err)
	}
	defer func() { _ = tx.Rollback() }()

	game, err := getGame(ctx, tx, gameID)
	if err != nil {
		return err
	}
	if game.WinnerID != nil {
		return model.ErrGameComplete
	}
	var found int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM players WHERE id = ?`, int64(playerID)).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrPlayerNotFound
		}
		return wrap("check player", err)
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO player_games (game_id, player_id, seat)
		 SELECT ?, ?, COUNT(*) + 1 FROM player_games WHERE game_id = ?`,
		int64(gameID),
		int64(playerID),
		int64(gameID),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyInGame
		}
		return wrap("add player to game", err)
	}

	if err := tx.Commit(); err != nil {
		return wrap("commit add player", err)
	}
	return nil
}

func (s *Store) ListGamePlayers(ctx context.Context, gameID model.GameID) ([]model.PlayerGame, error) {
	if _, err := s.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	return listMembers(ctx, s.sqlDB, gameID)
}

func listMembers(ctx context.Context, q queryer, gameID model.GameID) ([]model.PlayerGame, error) {
	rows, err := q.QueryContext(
		ctx,
		`SELECT game_id, player_id, seat FROM player_games WHERE game_id = ? ORDER BY seat`,
		int64(gameID),
	)
	if err != nil {
		return nil, wrap("list members", err)
	}
	defer func() { _ = rows.Close() }()

	members := []model.PlayerGame{}
	for rows.Next() {
		var m model.PlayerGame
		if err := rows.Scan(&m.GameID, &m.PlayerID, &m.Seat); err != nil {
			return nil, wrap("scan member", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list members", err)
	}
	return members, nil
}

// Round operations

func (s *Store) ListRounds(ctx context.Context, gameID model.GameID) ([]*model.Round, error) {
	if _, err := s.GetGame(ctx, gameID); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT game_id, round_number, p1_choice, p2_choice, winner_id
		 FROM rounds WHERE game_id = ? ORDER BY round_number`,
		int64(gameID),
	)
	if err != nil {
		return nil, wrap("list rounds", err)
	}
	defer func() { _ = rows.Close() }()

	rounds := []*model.Round{}
	for rows.Next() {
		var (
			r        model.Round
			winnerID sql.NullInt64
		)
		if err := rows.Scan(&r.GameID, &r.RoundNumber, &r.P1Choice, &r.P2Choice, &winnerID); err != nil {
			return nil, wrap("scan round", err)
		}
		if winnerID.Valid {
			w := model.PlayerID(winnerID.Int64)
			r.WinnerID = &w
		}
		rounds = append(rounds, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list rounds", err)
	}
	return rounds, nil
}

func (s *Store) WinTallies(ctx context.Context, gameID model.GameID, threshold int) ([]model.WinTally, error) {
	if _, err := s.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	return winTallies(ctx, s.sqlDB, gameID, threshold)
}

// winTallyQuery groups non-tie rounds by winner and reports, per qualifying
// player, the round number of their threshold-th win.
const winTallyQuery = `
SELECT r.winner_id,
       COUNT(*) AS wins,
       (SELECT r2.round_number FROM rounds r2
         WHERE r2.game_id = r.game_id AND r2.winner_id = r.winner_id
         ORDER BY r2.round_number
         LIMIT 1 OFFSET ?) AS reached_at
FROM rounds r
WHERE r.game_id = ? AND r.winner_id IS NOT NULL
GROUP BY r.winner_id
HAVING COUNT(*) >= ?
ORDER BY r.winner_id`

func winTallies(ctx context.Context, q queryer, gameID model.GameID, threshold int) ([]model.WinTally, error) {
	if threshold < 1 {
		return nil, nil
	}

	rows, err := q.QueryContext(ctx, winTallyQuery, threshold-1, int64(gameID), threshold)
	if err != nil {
		return nil, wrap("win tallies", err)
	}
	defer func() { _ = rows.Close() }()

	var tallies []model.WinTally
	for rows.Next() {
		var t model.WinTally
		if err := rows.Scan(&t.PlayerID, &t.Wins, &t.ReachedAt); err != nil {
			return nil, wrap("scan win tally", err)
		}
		tallies = append(tallies, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("win tallies", err)
	}
	return tallies, nil
}

// Unit of work

func (s *Store) UpdateGame(ctx context.Context, gameID model.GameID, fn func(ctx context.Context, tx storage.GameTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin update game", err)
	}
	defer func() { _ = tx.Rollback() }()

	game, err := getGame(ctx, tx, gameID)
	if err != nil {
		return err
	}

	if err := fn(ctx, &gameTx{tx: tx, game: game}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrap("commit update game", err)
	}
	return nil
}
