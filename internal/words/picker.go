package words

import (
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/robalobadob/wordle/apps/engine/internal/daily"
	"github.com/robalobadob/wordle/apps/engine/internal/game"
)

// Picker chooses the secret word for a new session.
type Picker interface {
	Pick(d game.Difficulty, answers []string) (string, error)
}

var errNoAnswers = errors.New("no answers to pick from")

// RandomPicker picks a cryptographically random answer.
type RandomPicker struct{}

func (RandomPicker) Pick(_ game.Difficulty, answers []string) (string, error) {
	if len(answers) == 0 {
		return "", errNoAnswers
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(answers))))
	if err != nil {
		return "", err
	}
	return answers[n.Int64()], nil
}

// DailyPicker gives every session of a difficulty the same answer for the
// current UTC date.
type DailyPicker struct {
	Salt string
	Now  func() time.Time // defaults to time.Now
}

func (p DailyPicker) Pick(d game.Difficulty, answers []string) (string, error) {
	if len(answers) == 0 {
		return "", errNoAnswers
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return answers[daily.WordIndex(now(), p.Salt, d.ID, len(answers))], nil
}

// NewPicker maps the WORD_PICK setting to a Picker.
func NewPicker(mode, salt string) (Picker, error) {
	switch mode {
	case "", "random":
		return RandomPicker{}, nil
	case "daily":
		return DailyPicker{Salt: salt}, nil
	}
	return nil, errors.New("words: unknown pick mode " + mode)
}
