package opponent

import (
	"github.com/mcoot/rpsls-go/internal/dependencies/random"
	"github.com/mcoot/rpsls-go/internal/model"
)

// Strategy chooses the computer's move given the rounds played so far
type Strategy interface {
	Choose(history []*model.Round) model.Choice
}

// RandomStrategy picks uniformly among the five choices
type RandomStrategy struct {
	random random.Random
}

// NewRandomStrategy creates a new RandomStrategy
func NewRandomStrategy(rnd random.Random) *RandomStrategy {
	return &RandomStrategy{random: rnd}
}

func (s *RandomStrategy) Choose(history []*model.Round) model.Choice {
	return random.Pick(s.random, model.Choices)
}

// CounterStrategy assumes seat 1 repeats its last move and plays one of
// the two choices that beat it. With no history it plays randomly.
type CounterStrategy struct {
	random random.Random
}

// NewCounterStrategy creates a new CounterStrategy
func NewCounterStrategy(rnd random.Random) *CounterStrategy {
	return &CounterStrategy{random: rnd}
}

func (s *CounterStrategy) Choose(history []*model.Round) model.Choice {
	var last *model.Round
	for _, r := range history {
		if last == nil || r.RoundNumber > last.RoundNumber {
			last = r
		}
	}
	if last == nil {
		return random.Pick(s.random, model.Choices)
	}

	counters := Counters(last.P1Choice)
	return random.Pick(s.random, counters)
}

// Counters returns the choices that defeat c, in canonical order
func Counters(c model.Choice) []model.Choice {
	var result []model.Choice
	for _, candidate := range model.Choices {
		if candidate.Beats(c) {
			result = append(result, candidate)
		}
	}
	return result
}
