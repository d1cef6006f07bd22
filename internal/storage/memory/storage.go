package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/rpsls-go/internal/model"
	"github.com/mcoot/rpsls-go/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players  map[model.PlayerID]*model.Player
	sessions map[model.SessionID]*model.Session
	games    map[model.GameID]*model.Game
	members  map[model.GameID][]model.PlayerGame
	rounds   map[model.GameID]map[int]*model.Round

	nextPlayerID  model.PlayerID
	nextSessionID model.SessionID
	nextGameID    model.GameID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:  make(map[model.PlayerID]*model.Player),
		sessions: make(map[model.SessionID]*model.Session),
		games:    make(map[model.GameID]*model.Game),
		members:  make(map[model.GameID][]model.PlayerGame),
		rounds:   make(map[model.GameID]map[int]*model.Round),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, username string, isTemp bool, createdAt time.Time) (model.PlayerID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPlayerID++
	id := s.nextPlayerID
	s.players[id] = &model.Player{ID: id, Username: username, IsTemp: isTemp, CreatedAt: createdAt}
	return id, nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, startTime time.Time) (model.SessionID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSessionID++
	id := s.nextSessionID
	s.sessions[id] = &model.Session{ID: id, StartTime: startTime, Status: model.SessionStatusInProgress}
	return id, nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return copySession(session), nil
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, sessionID model.SessionID, roundsToWin *int) (model.GameID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return 0, model.ErrSessionNotFound
	}
	s.nextGameID++
	id := s.nextGameID
	game := &model.Game{ID: id, SessionID: sessionID}
	if roundsToWin != nil {
		n := *roundsToWin
		game.RoundsToWin = &n
	}
	s.games[id] = game
	s.rounds[id] = make(map[int]*model.Round)
	return id, nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return copyGame(game), nil
}

func (s *Storage) ListSessionGames(ctx context.Context, sessionID model.SessionID) ([]*model.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, model.ErrSessionNotFound
	}
	games := []*model.Game{}
	for _, g := range s.games {
		if g.SessionID == sessionID {
			games = append(games, copyGame(g))
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

// Membership operations

func (s *Storage) AddPlayerToGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[gameID]
	if !ok {
		return model.ErrGameNotFound
	}
	if game.WinnerID != nil {
		return model.ErrGameComplete
	}
	if _, ok := s.players[playerID]; !ok {
		return model.ErrPlayerNotFound
	}
	for _, m := range s.members[gameID] {
		if m.PlayerID == playerID {
			return model.ErrAlreadyInGame
		}
	}
	seat := len(s.members[gameID]) + 1
	s.members[gameID] = append(s.members[gameID], model.PlayerGame{GameID: gameID, PlayerID: playerID, Seat: seat})
	return nil
}

func (s *Storage) ListGamePlayers(ctx context.Context, gameID model.GameID) ([]model.PlayerGame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.games[gameID]; !ok {
		return nil, model.ErrGameNotFound
	}
	result := make([]model.PlayerGame, len(s.members[gameID]))
	copy(result, s.members[gameID])
	return result, nil
}

// Round operations

func (s *Storage) ListRounds(ctx context.Context, gameID model.GameID) ([]*model.Round, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.games[gameID]; !ok {
		return nil, model.ErrGameNotFound
	}
	return s.roundsLocked(gameID, nil), nil
}

func (s *Storage) WinTallies(ctx context.Context, gameID model.GameID, threshold int) ([]model.WinTally, error) {
	rounds, err := s.ListRounds(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return model.TallyWins(rounds, threshold), nil
}

// roundsLocked returns the committed rounds of a game plus any pending ones,
// ordered by round number. Caller must hold the lock.
func (s *Storage) roundsLocked(gameID model.GameID, pending []*model.Round) []*model.Round {
	result := make([]*model.Round, 0, len(s.rounds[gameID])+len(pending))
	for _, r := range s.rounds[gameID] {
		result = append(result, copyRound(r))
	}
	for _, r := range pending {
		result = append(result, copyRound(r))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RoundNumber < result[j].RoundNumber })
	return result
}

// Unit of work

func (s *Storage) UpdateGame(ctx context.Context, gameID model.GameID, fn func(ctx context.Context, tx storage.GameTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[gameID]
	if !ok {
		return model.ErrGameNotFound
	}

	tx := &gameTx{store: s, game: copyGame(game)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// gameTx stages writes until the unit of work commits
type gameTx struct {
	store *Storage
	game  *model.Game

	pendingRounds []*model.Round
	winnerSet     bool
	sessionEnd    *time.Time
}

var _ storage.GameTx = (*gameTx)(nil)

func (t *gameTx) Game() *model.Game {
	return copyGame(t.game)
}

func (t *gameTx) Players(ctx context.Context) ([]model.PlayerGame, error) {
	result := make([]model.PlayerGame, len(t.store.members[t.game.ID]))
	copy(result, t.store.members[t.game.ID])
	return result, nil
}

func (t *gameTx) InsertRound(ctx context.Context, round *model.Round) error {
	if _, exists := t.store.rounds[t.game.ID][round.RoundNumber]; exists {
		return model.ErrDuplicateRound
	}
	for _, r := range t.pendingRounds {
		if r.RoundNumber == round.RoundNumber {
			return model.ErrDuplicateRound
		}
	}
	if round.WinnerID != nil {
		if _, ok := t.store.players[*round.WinnerID]; !ok {
			return model.ErrPlayerNotFound
		}
	}
	r := copyRound(round)
	r.GameID = t.game.ID
	t.pendingRounds = append(t.pendingRounds, r)
	return nil
}

func (t *gameTx) WinTallies(ctx context.Context, threshold int) ([]model.WinTally, error) {
	return model.TallyWins(t.store.roundsLocked(t.game.ID, t.pendingRounds), threshold), nil
}

func (t *gameTx) SetWinner(ctx context.Context, winnerID model.PlayerID) error {
	if t.game.WinnerID != nil {
		return model.ErrGameComplete
	}
	if _, ok := t.store.players[winnerID]; !ok {
		return model.ErrPlayerNotFound
	}
	t.game.WinnerID = &winnerID
	t.winnerSet = true
	return nil
}

func (t *gameTx) EndSessionIfDecided(ctx context.Context, endTime time.Time) (bool, error) {
	session, ok := t.store.sessions[t.game.SessionID]
	if !ok {
		return false, model.ErrSessionNotFound
	}
	if session.EndTime != nil {
		return true, nil
	}
	for _, g := range t.store.games {
		if g.SessionID != session.ID || g.ID == t.game.ID {
			continue
		}
		if g.WinnerID == nil {
			return false, nil
		}
	}
	if t.game.WinnerID == nil {
		return false, nil
	}
	t.sessionEnd = &endTime
	return true, nil
}

// commit applies the staged writes. Caller must hold the store lock.
func (t *gameTx) commit() {
	for _, r := range t.pendingRounds {
		t.store.rounds[t.game.ID][r.RoundNumber] = r
	}
	if t.winnerSet {
		w := *t.game.WinnerID
		t.store.games[t.game.ID].WinnerID = &w
	}
	if t.sessionEnd != nil {
		session := t.store.sessions[t.game.SessionID]
		end := *t.sessionEnd
		session.EndTime = &end
		session.Status = model.SessionStatusCompleted
	}
}

func copyGame(g *model.Game) *model.Game {
	c := *g
	if g.RoundsToWin != nil {
		n := *g.RoundsToWin
		c.RoundsToWin = &n
	}
	if g.WinnerID != nil {
		w := *g.WinnerID
		c.WinnerID = &w
	}
	return &c
}

func copySession(s *model.Session) *model.Session {
	c := *s
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	return &c
}

func copyRound(r *model.Round) *model.Round {
	c := *r
	if r.WinnerID != nil {
		w := *r.WinnerID
		c.WinnerID = &w
	}
	return &c
}
