package model

import "strings"

// Choice is a move in rock-paper-scissors-lizard-spock
type Choice string

const (
	ChoiceRock     Choice = "Rock"
	ChoicePaper    Choice = "Paper"
	ChoiceScissors Choice = "Scissors"
	ChoiceLizard   Choice = "Lizard"
	ChoiceSpock    Choice = "Spock"
)

// Choices lists every valid choice in canonical order
var Choices = []Choice{ChoiceRock, ChoicePaper, ChoiceScissors, ChoiceLizard, ChoiceSpock}

// beats maps each choice to the two choices it defeats
var beats = map[Choice][2]Choice{
	ChoiceRock:     {ChoiceScissors, ChoiceLizard},
	ChoicePaper:    {ChoiceRock, ChoiceSpock},
	ChoiceScissors: {ChoicePaper, ChoiceLizard},
	ChoiceLizard:   {ChoicePaper, ChoiceSpock},
	ChoiceSpock:    {ChoiceScissors, ChoiceRock},
}

// Valid reports whether c is one of the five choices
func (c Choice) Valid() bool {
	_, ok := beats[c]
	return ok
}

// Beats reports whether c defeats other
func (c Choice) Beats(other Choice) bool {
	defeated, ok := beats[c]
	if !ok {
		return false
	}
	return defeated[0] == other || defeated[1] == other
}

// ParseChoice converts a case-insensitive name into a Choice
func ParseChoice(s string) (Choice, error) {
	s = strings.TrimSpace(s)
	for _, c := range Choices {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", ErrInvalidChoice
}

// Outcome is the adjudicated result of a round
type Outcome int

const (
	OutcomeTie Outcome = iota
	OutcomePlayer1
	OutcomePlayer2
)

// Adjudicate decides a round between two valid choices
func Adjudicate(p1, p2 Choice) (Outcome, error) {
	if !p1.Valid() || !p2.Valid() {
		return OutcomeTie, ErrInvalidChoice
	}
	switch {
	case p1 == p2:
		return OutcomeTie, nil
	case p1.Beats(p2):
		return OutcomePlayer1, nil
	default:
		return OutcomePlayer2, nil
	}
}
