package redis

import (
	"fmt"

	"github.com/mcoot/rpsls-go/internal/model"
)

// Key prefix for all rpsls data
const keyPrefix = "rpsls"

// Sequence keys used with INCR to generate identifiers

func playerSeqKey() string {
	return fmt.Sprintf("%s:seq:player", keyPrefix)
}

func sessionSeqKey() string {
	return fmt.Sprintf("%s:seq:session", keyPrefix)
}

func gameSeqKey() string {
	return fmt.Sprintf("%s:seq:game", keyPrefix)
}

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%d", keyPrefix, id)
}

// sessionKey returns the Redis key for a Session
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%d", keyPrefix, id)
}

// sessionGamesKey returns the ZSET of game IDs in a session, scored by ID
func sessionGamesKey(id model.SessionID) string {
	return fmt.Sprintf("%s:idx:session_games:%d", keyPrefix, id)
}

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%d", keyPrefix, id)
}

// gameKeyFromString returns the game key for an ID read back from an index
func gameKeyFromString(id string) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// membersKey returns the HASH of player ID -> seat for a game
func membersKey(id model.GameID) string {
	return fmt.Sprintf("%s:members:%d", keyPrefix, id)
}

// roundsKey returns the HASH of round number -> round for a game
func roundsKey(id model.GameID) string {
	return fmt.Sprintf("%s:rounds:%d", keyPrefix, id)
}
