package model

import (
	"strconv"
	"time"
)

// PlayerID uniquely identifies a player. IDs are generated by the store.
type PlayerID int64

func (id PlayerID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Player is a game participant
type Player struct {
	ID        PlayerID
	Username  string
	IsTemp    bool // true for ephemeral guests
	CreatedAt time.Time
}
