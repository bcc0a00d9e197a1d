package game

import (
	"math/rand"
	"strings"
	"testing"
)

func classes(res []LetterResult) string {
	var b strings.Builder
	for _, r := range res {
		switch r.Classification {
		case Correct:
			b.WriteByte('C')
		case Elsewhere:
			b.WriteByte('E')
		case Absent:
			b.WriteByte('A')
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		secret, guess string
		want          string
	}{
		{"WORD", "WORD", "CCCC"},
		{"ABCD", "DCBA", "EEEE"},
		// SPEED has two E's and neither is hit, so both guessed E's are credited.
		{"SPEED", "ERASE", "EAAEE"},
		// One E is hit at index 2; the other is still free for index 0.
		{"SPEED", "EVENT", "EACAA"},
		{"ABBEY", "BABES", "EECCA"},
		// APPLE has two P's: one hit, one elsewhere, the third guessed P gets nothing.
		{"APPLE", "PAPPY", "EECAA"},
		{"CRANE", "EERIE", "AAEAC"},
		{"LLAMA", "ALLOY", "ECEAA"},
		{"word", "WoRd", "CCCC"},
		{"PUZZLE", "ZZZZZZ", "AACCAA"},
	}
	for _, tt := range tests {
		t.Run(tt.secret+"/"+tt.guess, func(t *testing.T) {
			got := classes(Evaluate(tt.guess, tt.secret))
			if got != tt.want {
				t.Fatalf("Evaluate(%q, %q) = %s, want %s", tt.guess, tt.secret, got, tt.want)
			}
		})
	}
}

func TestEvaluateKeepsGuessOrder(t *testing.T) {
	res := Evaluate("erase", "speed")
	for i, want := range []string{"E", "R", "A", "S", "E"} {
		if res[i].Position != i {
			t.Fatalf("position %d = %d", i, res[i].Position)
		}
		if res[i].Letter != want {
			t.Fatalf("letter %d = %q, want %q", i, res[i].Letter, want)
		}
	}
}

func TestEvaluateNeverOvercreditsLetters(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const alphabet = "ABCDE"
	word := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return string(b)
	}

	for i := 0; i < 2000; i++ {
		n := 3 + rng.Intn(4)
		secret, guess := word(n), word(n)
		res := Evaluate(guess, secret)
		if len(res) != n {
			t.Fatalf("len = %d, want %d", len(res), n)
		}

		credited := map[string]int{}
		for j, r := range res {
			switch r.Classification {
			case Correct:
				if guess[j] != secret[j] {
					t.Fatalf("%s/%s: position %d marked correct", secret, guess, j)
				}
				credited[r.Letter]++
			case Elsewhere:
				credited[r.Letter]++
			case Absent:
			default:
				t.Fatalf("%s/%s: unexpected classification %q", secret, guess, r.Classification)
			}
		}
		for letter, c := range credited {
			if occ := strings.Count(secret, letter); c > occ {
				t.Fatalf("%s/%s: letter %s credited %d times, secret has %d", secret, guess, letter, c, occ)
			}
		}
	}
}

func TestEvaluatePanicsOnLengthMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Evaluate("ABC", "ABCD")
}
