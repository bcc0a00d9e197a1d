// internal/game/engine.go
//
// Word evaluation for the guessing engine.
// Responsibilities:
//   - Normalize guess and secret (upper-case, rune-wise).
//   - Score a guess using the two-pass algorithm so duplicate letters are
//     credited at most as many times as they occur in the secret.
//
// Notes:
//   - Evaluate is pure; callers validate length before calling it.
package game

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Normalize trims and upper-cases a word so comparisons are case-insensitive.
func Normalize(word string) string {
	return strings.ToUpper(strings.TrimSpace(word))
}

// WordLength returns the number of letters in w.
func WordLength(w string) int { return utf8.RuneCountInString(w) }

// Evaluate scores guess against secret, one LetterResult per position in
// guess order.
//
// Pass 1:
//   - Mark exact matches Correct; the secret's letter at that position is
//     consumed and never matched again.
//
// Pass 2:
//   - For each remaining position, in increasing index order, consume one
//     occurrence of the letter from what is left of the secret (Elsewhere)
//     or mark Absent.
//
// Evaluate panics if the inputs differ in length.
func Evaluate(guess, secret string) []LetterResult {
	g := []rune(Normalize(guess))
	s := []rune(Normalize(secret))
	if len(g) != len(s) {
		panic(fmt.Sprintf("game: evaluate length mismatch: %d != %d", len(g), len(s)))
	}

	n := len(g)
	out := make([]LetterResult, n)
	pool := make(map[rune]int, n)

	// First pass: hits, and the multiset of unconsumed secret letters.
	for i := 0; i < n; i++ {
		out[i] = LetterResult{Position: i, Letter: string(g[i])}
		if g[i] == s[i] {
			out[i].Classification = Correct
		} else {
			pool[s[i]]++
		}
	}

	// Second pass: elsewhere/absent for the rest.
	for i := 0; i < n; i++ {
		if out[i].Classification == Correct {
			continue
		}
		if pool[g[i]] > 0 {
			out[i].Classification = Elsewhere
			pool[g[i]]--
		} else {
			out[i].Classification = Absent
		}
	}
	return out
}

// allCorrect reports whether every position was a hit.
func allCorrect(res []LetterResult) bool {
	for _, r := range res {
		if r.Classification != Correct {
			return false
		}
	}
	return len(res) > 0
}
