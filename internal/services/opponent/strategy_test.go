package opponent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/rpsls-go/internal/dependencies/mocks"
	"github.com/mcoot/rpsls-go/internal/model"
)

func TestRandomStrategyUsesRandomIndex(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueIntn(0, 3, 4)
	strategy := NewRandomStrategy(rnd)

	assert.Equal(t, model.ChoiceRock, strategy.Choose(nil))
	assert.Equal(t, model.ChoiceLizard, strategy.Choose(nil))
	assert.Equal(t, model.ChoiceSpock, strategy.Choose(nil))
}

func TestCountersBeatTheGivenChoice(t *testing.T) {
	for _, c := range model.Choices {
		counters := Counters(c)
		assert.Len(t, counters, 2, "choice %s", c)
		for _, counter := range counters {
			assert.True(t, counter.Beats(c), "%s should beat %s", counter, c)
		}
	}
	assert.Equal(t, []model.Choice{model.ChoicePaper, model.ChoiceSpock}, Counters(model.ChoiceRock))
}

func TestCounterStrategyCountersLatestRound(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueIntn(1)
	strategy := NewCounterStrategy(rnd)

	history := []*model.Round{
		{RoundNumber: 2, P1Choice: model.ChoiceLizard, P2Choice: model.ChoiceRock},
		{RoundNumber: 1, P1Choice: model.ChoiceRock, P2Choice: model.ChoiceRock},
	}

	// Lizard is beaten by Rock and Scissors
	assert.Equal(t, model.ChoiceScissors, strategy.Choose(history))
}

func TestCounterStrategyWithoutHistoryIsRandom(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueIntn(2)
	strategy := NewCounterStrategy(rnd)

	assert.Equal(t, model.ChoiceScissors, strategy.Choose(nil))
}
