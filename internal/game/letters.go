package game

import "github.com/samber/lo"

// LetterStatus maps an upper-case letter to the best classification seen.
type LetterStatus map[string]Classification

// Aggregate folds every attempt's results into a per-letter status.
// A letter's status is only ever upgraded: Correct > Elsewhere > Absent.
// The result does not depend on the order of attempts.
func Aggregate(attempts []Attempt) LetterStatus {
	return lo.Reduce(attempts, func(acc LetterStatus, a Attempt, _ int) LetterStatus {
		for _, r := range a.Result {
			if r.Classification.rank() > acc[r.Letter].rank() {
				acc[r.Letter] = r.Classification
			}
		}
		return acc
	}, LetterStatus{})
}

// LetterStatus recomputes the keyboard hints for the session.
func (s *Session) LetterStatus() LetterStatus { return Aggregate(s.Attempts) }
