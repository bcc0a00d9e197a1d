// internal/game/session.go
//
// Session lifecycle: in_progress → won | lost.
//
// State transitions (Submit):
//   - All positions Correct → won (on any attempt, including the first).
//   - Else if the attempt count reaches MaxAttempts → lost.
//   - Terminal sessions reject every further guess.
//
// Submit never leaves a partially applied attempt behind: every check runs
// before the session is mutated.

package game

import (
	"fmt"
	"time"
)

// NewSession creates an in-progress session for difficulty d.
// The secret must have exactly d.WordLength letters; ErrSecretMismatch is
// returned otherwise (the secret is never truncated or padded).
func NewSession(id, owner string, d Difficulty, secret string, now time.Time) (*Session, error) {
	if d.ID == "" || d.WordLength <= 0 {
		return nil, ErrInvalidDifficulty
	}
	secret = Normalize(secret)
	if n := WordLength(secret); n != d.WordLength {
		return nil, fmt.Errorf("%w: difficulty %q wants %d letters, got %d", ErrSecretMismatch, d.ID, d.WordLength, n)
	}
	return &Session{
		ID:           id,
		Owner:        owner,
		DifficultyID: d.ID,
		WordLength:   d.WordLength,
		SecretWord:   secret,
		Attempts:     []Attempt{},
		Status:       StatusInProgress,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CheckGuess runs the checks Submit performs before the dictionary gate:
// terminal state first, then length.
func (s *Session) CheckGuess(word string) error {
	if s.Status.Terminal() || len(s.Attempts) >= MaxAttempts {
		return ErrSessionTerminal
	}
	if n := WordLength(Normalize(word)); n != s.WordLength {
		return fmt.Errorf("%w: want %d letters, got %d", ErrInvalidLength, s.WordLength, n)
	}
	return nil
}

// Submit scores word, appends the attempt and recomputes the status.
// It returns a copy of the new attempt.
func (s *Session) Submit(word string, at time.Time) (Attempt, error) {
	if err := s.CheckGuess(word); err != nil {
		return Attempt{}, err
	}
	word = Normalize(word)
	a := Attempt{
		Word:        word,
		Result:      Evaluate(word, s.SecretWord),
		SubmittedAt: at,
	}
	s.Attempts = append(s.Attempts, a)
	s.UpdatedAt = at

	switch {
	case allCorrect(a.Result):
		s.Status = StatusWon
	case len(s.Attempts) >= MaxAttempts:
		s.Status = StatusLost
	}
	if s.Status.Terminal() {
		t := at
		s.FinishedAt = &t
	}

	a.Result = append([]LetterResult(nil), a.Result...)
	return a, nil
}

// AttemptsLeft reports how many guesses remain.
func (s *Session) AttemptsLeft() int {
	if s.Status.Terminal() {
		return 0
	}
	return MaxAttempts - len(s.Attempts)
}
