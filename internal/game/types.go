// internal/game/types.go
//
// Core type definitions for the word-guessing engine.
// Defines:
//   - Classification: per-letter result of a guess (correct/elsewhere/absent).
//   - Status: lifecycle state of a session (in_progress/won/lost).
//   - Difficulty, LetterResult, Attempt, Session.

package game

import "time"

// MaxAttempts is the number of guesses a session allows before it is lost.
const MaxAttempts = 6

// Classification is the evaluation result for a single letter of a guess.
type Classification string

const (
	// Correct: right letter, right position.
	Correct Classification = "correct"
	// Elsewhere: letter is in the secret at another, still unconsumed, position.
	Elsewhere Classification = "elsewhere"
	// Absent: letter not in the secret, or every occurrence already consumed.
	Absent Classification = "absent"
)

// rank orders classifications for the letter-status precedence.
func (c Classification) rank() int {
	switch c {
	case Correct:
		return 3
	case Elsewhere:
		return 2
	case Absent:
		return 1
	}
	return 0
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// Terminal reports whether no further attempts may be appended.
func (s Status) Terminal() bool { return s == StatusWon || s == StatusLost }

// Difficulty is supplied by the catalog and never mutated.
type Difficulty struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	WordLength  int    `json:"wordLength"`
}

// Resolution is what the catalog hands out for a new session.
type Resolution struct {
	SecretWord string
	WordLength int
}

// LetterResult is the classification of one position of a guess.
type LetterResult struct {
	Position       int            `json:"position"`
	Letter         string         `json:"letter"`
	Classification Classification `json:"classification"`
}

// Attempt is one submitted guess together with its scoring.
type Attempt struct {
	Word        string         `json:"word"`
	Result      []LetterResult `json:"result"`
	SubmittedAt time.Time      `json:"submittedAt"`
}

// Session holds the state of a single game owned by one owner key.
type Session struct {
	ID           string     `json:"sessionId"`
	Owner        string     `json:"owner,omitempty"`
	DifficultyID string     `json:"difficultyId"`
	WordLength   int        `json:"wordLength"`
	SecretWord   string     `json:"secretWord"`
	Attempts     []Attempt  `json:"attempts"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
}

// Clone returns a deep copy so stores and callers never share attempt slices.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Attempts = make([]Attempt, len(s.Attempts))
	for i, a := range s.Attempts {
		a.Result = append([]LetterResult(nil), a.Result...)
		out.Attempts[i] = a
	}
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		out.FinishedAt = &t
	}
	return &out
}
