package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rpsls-go/internal/model"
	"github.com/mcoot/rpsls-go/internal/storage"
)

// gameTx reads through a WATCHed connection and queues writes for EXEC
type gameTx struct {
	tx   *redis.Tx
	game *model.Game

	pendingRounds []*model.Round
	winnerSet     bool
	endedSession  *model.Session
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
	for _, r := range t.pendingRounds {
		if r.RoundNumber == round.RoundNumber {
			return model.ErrDuplicateRound
		}
	}

	exists, err := t.tx.HExists(ctx, roundsKey(t.game.ID), strconv.Itoa(round.RoundNumber)).Result()
	if err != nil {
		return model.StorageError("check round", err)
	}
	if exists {
		return model.ErrDuplicateRound
	}

	if round.WinnerID != nil {
		if err := t.checkPlayer(ctx, *round.WinnerID); err != nil {
			return err
		}
	}

	r := *round
	r.GameID = t.game.ID
	t.pendingRounds = append(t.pendingRounds, &r)
	return nil
}

// checkPlayer accepts any seated player, then falls back to the player key
// for winners outside the roster.
func (t *gameTx) checkPlayer(ctx context.Context, id model.PlayerID) error {
	seated, err := t.tx.HExists(ctx, membersKey(t.game.ID), id.String()).Result()
	if err != nil {
		return model.StorageError("check membership", err)
	}
	if seated {
		return nil
	}
	n, err := t.tx.Exists(ctx, playerKey(id)).Result()
	if err != nil {
		return model.StorageError("check winner", err)
	}
	if n == 0 {
		return model.ErrPlayerNotFound
	}
	return nil
}

func (t *gameTx) WinTallies(ctx context.Context, threshold int) ([]model.WinTally, error) {
	rounds, err := listRounds(ctx, t.tx, t.game.ID, t.pendingRounds)
	if err != nil {
		return nil, err
	}
	return model.TallyWins(rounds, threshold), nil
}

func (t *gameTx) SetWinner(ctx context.Context, winnerID model.PlayerID) error {
	if t.game.WinnerID != nil {
		return model.ErrGameComplete
	}
	if err := t.checkPlayer(ctx, winnerID); err != nil {
		return err
	}
	t.game.WinnerID = &winnerID
	t.winnerSet = true
	return nil
}

func (t *gameTx) EndSessionIfDecided(ctx context.Context, endTime time.Time) (bool, error) {
	sKey := sessionKey(t.game.SessionID)
	idxKey := sessionGamesKey(t.game.SessionID)

	// Sibling games decide whether the session ends, so a concurrent
	// closure elsewhere in the session must abort this transaction.
	if err := t.tx.Watch(ctx, sKey, idxKey).Err(); err != nil {
		return false, model.StorageError("watch session", err)
	}

	session, err := getJSON[model.Session](ctx, t.tx, sKey, model.ErrSessionNotFound)
	if err != nil {
		return false, err
	}
	if session.EndTime != nil {
		return true, nil
	}
	if t.game.WinnerID == nil {
		return false, nil
	}

	ids, err := t.tx.ZRange(ctx, idxKey, 0, -1).Result()
	if err != nil {
		return false, model.StorageError("list session games", err)
	}
	var siblings []string
	for _, id := range ids {
		if id != t.game.ID.String() {
			siblings = append(siblings, id)
		}
	}
	if len(siblings) > 0 {
		keys := make([]string, len(siblings))
		for i, id := range siblings {
			keys[i] = gameKeyFromString(id)
		}
		if err := t.tx.Watch(ctx, keys...).Err(); err != nil {
			return false, model.StorageError("watch session games", err)
		}
	}

	games, err := loadGames(ctx, t.tx, siblings)
	if err != nil {
		return false, err
	}
	for _, g := range games {
		if g.WinnerID == nil {
			return false, nil
		}
	}

	end := endTime
	session.EndTime = &end
	session.Status = model.SessionStatusCompleted
	t.endedSession = session
	return true, nil
}

// commit writes the queued changes in one MULTI/EXEC block
func (t *gameTx) commit(ctx context.Context) error {
	if len(t.pendingRounds) == 0 && !t.winnerSet && t.endedSession == nil {
		return nil
	}

	rounds := make(map[string]any, len(t.pendingRounds))
	for _, r := range t.pendingRounds {
		data, err := json.Marshal(r)
		if err != nil {
			return model.StorageError("encode round", err)
		}
		rounds[strconv.Itoa(r.RoundNumber)] = data
	}

	var gameData, sessionData []byte
	var err error
	if t.winnerSet {
		if gameData, err = json.Marshal(t.game); err != nil {
			return model.StorageError("encode game", err)
		}
	}
	if t.endedSession != nil {
		if sessionData, err = json.Marshal(t.endedSession); err != nil {
			return model.StorageError("encode session", err)
		}
	}

	_, err = t.tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(rounds) > 0 {
			pipe.HSet(ctx, roundsKey(t.game.ID), rounds)
		}
		if gameData != nil {
			pipe.Set(ctx, gameKey(t.game.ID), gameData, redis.KeepTTL)
		}
		if sessionData != nil {
			pipe.Set(ctx, sessionKey(t.endedSession.ID), sessionData, redis.KeepTTL)
		}
		return nil
	})
	if err != nil {
		return model.StorageError("commit game", err)
	}
	return nil
}
