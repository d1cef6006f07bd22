package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rpsls-go/internal/model"
	"github.com/mcoot/rpsls-go/internal/storage"
)

var errTxConflict = errors.New("too many concurrent modifications")

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, model.StorageError("ping redis", err)
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// getter is the read side shared by *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getJSON[T any](ctx context.Context, g getter, key string, notFound error) (*T, error) {
	data, err := g.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound
		}
		return nil, model.StorageError("get "+key, err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, model.StorageError("decode "+key, err)
	}
	return &v, nil
}

// watch runs fn as an optimistic transaction over keys, retrying when a
// watched key changes before EXEC.
func (s *Storage) watch(ctx context.Context, op string, fn func(tx *redis.Tx) error, keys ...string) error {
	attempts := s.cfg.MaxTxRetries
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		var fnErr error
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			fnErr = fn(tx)
			return fnErr
		}, keys...)

		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case fnErr != nil && err == fnErr: //nolint:errorlint // identity check on our own error
			return err
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			return model.StorageError(op, err)
		}
	}
	return model.StorageError(op, errTxConflict)
}

func (s *Storage) nextID(ctx context.Context, key string) (int64, error) {
	id, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, model.StorageError("incr "+key, err)
	}
	return id, nil
}

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, username string, isTemp bool, createdAt time.Time) (model.PlayerID, error) {
	id, err := s.nextID(ctx, playerSeqKey())
	if err != nil {
		return 0, err
	}

	player := &model.Player{
		ID:        model.PlayerID(id),
		Username:  username,
		IsTemp:    isTemp,
		CreatedAt: createdAt,
	}
	data, err := json.Marshal(player)
	if err != nil {
		return 0, model.StorageError("encode player", err)
	}

	// Apply TTL only for temporary players
	var ttl time.Duration
	if isTemp {
		ttl = s.cfg.TempPlayerTTL
	}

	if err := s.client.Set(ctx, playerKey(player.ID), data, ttl).Err(); err != nil {
		return 0, model.StorageError("save player", err)
	}
	return player.ID, nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return getJSON[model.Player](ctx, s.client, playerKey(id), model.ErrPlayerNotFound)
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, startTime time.Time) (model.SessionID, error) {
	id, err := s.nextID(ctx, sessionSeqKey())
	if err != nil {
		return 0, err
	}

	session := &model.Session{
		ID:        model.SessionID(id),
		StartTime: startTime,
		Status:    model.SessionStatusInProgress,
	}
	data, err := json.Marshal(session)
	if err != nil {
		return 0, model.StorageError("encode session", err)
	}

	if err := s.client.Set(ctx, sessionKey(session.ID), data, 0).Err(); err != nil {
		return 0, model.StorageError("save session", err)
	}
	return session.ID, nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return getJSON[model.Session](ctx, s.client, sessionKey(id), model.ErrSessionNotFound)
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, sessionID model.SessionID, roundsToWin *int) (model.GameID, error) {
	exists, err := s.client.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return 0, model.StorageError("check session", err)
	}
	if exists == 0 {
		return 0, model.ErrSessionNotFound
	}

	id, err := s.nextID(ctx, gameSeqKey())
	if err != nil {
		return 0, err
	}

	game := &model.Game{
		ID:          model.GameID(id),
		SessionID:   sessionID,
		RoundsToWin: roundsToWin,
	}
	data, err := json.Marshal(game)
	if err != nil {
		return 0, model.StorageError("encode game", err)
	}

	// Save game and session index together
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, gameKey(game.ID), data, 0)
		pipe.ZAdd(ctx, sessionGamesKey(sessionID), redis.Z{Score: float64(id), Member: game.ID.String()})
		return nil
	})
	if err != nil {
		return 0, model.StorageError("save game", err)
	}
	return game.ID, nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	return getJSON[model.Game](ctx, s.client, gameKey(id), model.ErrGameNotFound)
}

func (s *Storage) ListSessionGames(ctx context.Context, sessionID model.SessionID) ([]*model.Game, error) {
	exists, err := s.client.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, model.StorageError("check session", err)
	}
	if exists == 0 {
		return nil, model.ErrSessionNotFound
	}

	ids, err := s.client.ZRange(ctx, sessionGamesKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, model.StorageError("list session games", err)
	}
	return loadGames(ctx, s.client, ids)
}

// mgetter is the batch read side shared by *redis.Client and *redis.Tx
type mgetter interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

func loadGames(ctx context.Context, g mgetter, ids []string) ([]*model.Game, error) {
	games := make([]*model.Game, 0, len(ids))
	if len(ids) == 0 {
		return games, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = gameKeyFromString(id)
	}

	// Fetch all games in one round trip using MGET
	values, err := g.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, model.StorageError("load games", err)
	}

	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var game model.Game
		if err := json.Unmarshal([]byte(str), &game); err != nil {
			return nil, model.StorageError("decode game", err)
		}
		games = append(games, &game)
	}
	return games, nil
}

// Membership operations

// AddPlayerToGame seats a player. A seated temporary player loses its TTL,
// since rounds and closures refer to it for the rest of the game.
func (s *Storage) AddPlayerToGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error {
	key := membersKey(gameID)
	pKey := playerKey(playerID)
	return s.watch(ctx, "add player to game", func(tx *redis.Tx) error {
		game, err := getJSON[model.Game](ctx, tx, gameKey(gameID), model.ErrGameNotFound)
		if err != nil {
			return err
		}
		if game.WinnerID != nil {
			return model.ErrGameComplete
		}
		counts, err := tx.Exists(ctx, pKey).Result()
		if err != nil {
			return model.StorageError("check player", err)
		}
		if counts == 0 {
			return model.ErrPlayerNotFound
		}

		already, err := tx.HExists(ctx, key, playerID.String()).Result()
		if err != nil {
			return model.StorageError("check membership", err)
		}
		if already {
			return model.ErrAlreadyInGame
		}

		seats, err := tx.HLen(ctx, key).Result()
		if err != nil {
			return model.StorageError("count members", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, playerID.String(), seats+1)
			pipe.Persist(ctx, pKey)
			return nil
		})
		if err != nil {
			return model.StorageError("save membership", err)
		}
		return nil
	}, key, gameKey(gameID), pKey)
}

func (s *Storage) ListGamePlayers(ctx context.Context, gameID model.GameID) ([]model.PlayerGame, error) {
	exists, err := s.client.Exists(ctx, gameKey(gameID)).Result()
	if err != nil {
		return nil, model.StorageError("check game", err)
	}
	if exists == 0 {
		return nil, model.ErrGameNotFound
	}
	return listMembers(ctx, s.client, gameID)
}

// hgetaller is the hash read side shared by *redis.Client and *redis.Tx
type hgetaller interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func listMembers(ctx context.Context, h hgetaller, gameID model.GameID) ([]model.PlayerGame, error) {
	fields, err := h.HGetAll(ctx, membersKey(gameID)).Result()
	if err != nil {
		return nil, model.StorageError("list members", err)
	}

	members := make([]model.PlayerGame, 0, len(fields))
	for pid, seat := range fields {
		id, err := strconv.ParseInt(pid, 10, 64)
		if err != nil {
			return nil, model.StorageError("decode member", err)
		}
		n, err := strconv.Atoi(seat)
		if err != nil {
			return nil, model.StorageError("decode seat", err)
		}
		members = append(members, model.PlayerGame{GameID: gameID, PlayerID: model.PlayerID(id), Seat: n})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Seat < members[j].Seat })
	return members, nil
}

// Round operations

func (s *Storage) ListRounds(ctx context.Context, gameID model.GameID) ([]*model.Round, error) {
	exists, err := s.client.Exists(ctx, gameKey(gameID)).Result()
	if err != nil {
		return nil, model.StorageError("check game", err)
	}
	if exists == 0 {
		return nil, model.ErrGameNotFound
	}
	return listRounds(ctx, s.client, gameID, nil)
}

func (s *Storage) WinTallies(ctx context.Context, gameID model.GameID, threshold int) ([]model.WinTally, error) {
	rounds, err := s.ListRounds(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return model.TallyWins(rounds, threshold), nil
}

// hvalser is the hash values read side shared by *redis.Client and *redis.Tx
type hvalser interface {
	HVals(ctx context.Context, key string) *redis.StringSliceCmd
}

func listRounds(ctx context.Context, h hvalser, gameID model.GameID, pending []*model.Round) ([]*model.Round, error) {
	values, err := h.HVals(ctx, roundsKey(gameID)).Result()
	if err != nil {
		return nil, model.StorageError("list rounds", err)
	}

	rounds := make([]*model.Round, 0, len(values)+len(pending))
	for _, val := range values {
		var round model.Round
		if err := json.Unmarshal([]byte(val), &round); err != nil {
			return nil, model.StorageError("decode round", err)
		}
		rounds = append(rounds, &round)
	}
	rounds = append(rounds, pending...)
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].RoundNumber < rounds[j].RoundNumber })
	return rounds, nil
}

// Unit of work

func (s *Storage) UpdateGame(ctx context.Context, gameID model.GameID, fn func(ctx context.Context, tx storage.GameTx) error) error {
	return s.watch(ctx, "update game", func(tx *redis.Tx) error {
		game, err := getJSON[model.Game](ctx, tx, gameKey(gameID), model.ErrGameNotFound)
		if err != nil {
			return err
		}

		gtx := &gameTx{tx: tx, game: game}
		if err := fn(ctx, gtx); err != nil {
			return err
		}
		return gtx.commit(ctx)
	}, gameKey(gameID), roundsKey(gameID), membersKey(gameID))
}
