package model

import "sort"

// Round is one exchange of choices within a game. Rounds are append-only.
type Round struct {
	GameID      GameID
	RoundNumber int // 1-based, unique per game
	P1Choice    Choice
	P2Choice    Choice

	// WinnerID is nil for a tie
	WinnerID *PlayerID
}

// IsTie returns true if the round has no winner
func (r *Round) IsTie() bool {
	return r.WinnerID == nil
}

// Validate checks the round against its choices. Membership of the winner
// is checked by the engine since it needs the game roster.
func (r *Round) Validate() error {
	if r.RoundNumber < 1 {
		return ErrInvalidRoundNumber
	}
	outcome, err := Adjudicate(r.P1Choice, r.P2Choice)
	if err != nil {
		return err
	}
	if outcome == OutcomeTie && r.WinnerID != nil {
		return ErrInvalidRoundWinner
	}
	return nil
}

// WinTally is one player's aggregated round wins within a game
type WinTally struct {
	PlayerID PlayerID
	Wins     int

	// ReachedAt is the round number of the player's threshold-th win
	ReachedAt int
}

// TallyWins groups rounds by winner, skipping ties, and returns the groups
// with at least threshold wins ordered by player ID. Rounds may be in any order.
func TallyWins(rounds []*Round, threshold int) []WinTally {
	if threshold < 1 {
		return nil
	}

	ordered := make([]*Round, len(rounds))
	copy(ordered, rounds)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].RoundNumber < ordered[j].RoundNumber
	})

	byPlayer := make(map[PlayerID]*WinTally)
	for _, r := range ordered {
		if r.WinnerID == nil {
			continue
		}
		t, ok := byPlayer[*r.WinnerID]
		if !ok {
			t = &WinTally{PlayerID: *r.WinnerID}
			byPlayer[*r.WinnerID] = t
		}
		t.Wins++
		if t.Wins == threshold {
			t.ReachedAt = r.RoundNumber
		}
	}

	var result []WinTally
	for _, t := range byPlayer {
		if t.Wins >= threshold {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PlayerID < result[j].PlayerID
	})
	return result
}

// FirstToThreshold picks the winner among qualifying tallies: the earliest
// round reaching the threshold, then the lowest player ID.
func FirstToThreshold(tallies []WinTally) (PlayerID, bool) {
	if len(tallies) == 0 {
		return 0, false
	}
	best := tallies[0]
	for _, t := range tallies[1:] {
		if t.ReachedAt < best.ReachedAt ||
			(t.ReachedAt == best.ReachedAt && t.PlayerID < best.PlayerID) {
			best = t
		}
	}
	return best.PlayerID, true
}
