// internal/words/words.go
//
// Difficulty catalog and dictionary for the game engine.
//
// Responsibilities:
//   - Load one answers list and one accepted-guesses list per difficulty from
//     an fs.FS (embedded assets by default, or a directory from WORDS_DIR).
//   - Resolve a difficulty into a secret word via a Picker.
//   - Answer dictionary lookups (answers ∪ allowed) per difficulty.
//
// Word lists:
//   - "<id>_answers.txt": candidate secrets, required, must not be empty.
//   - "<id>_allowed.txt": extra valid guesses, optional.
//
// Constraints:
//   • Words must be alphabetic and exactly the difficulty's length.
//   • Lists are normalized to upper case; invalid lines are dropped.

package words

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/robalobadob/wordle/apps/engine/internal/game"
)

// Defaults returns the built-in difficulty table.
func Defaults() []game.Difficulty {
	return []game.Difficulty{
		{ID: "easy", DisplayName: "Easy (4 letters)", WordLength: 4},
		{ID: "medium", DisplayName: "Medium (5 letters)", WordLength: 5},
		{ID: "hard", DisplayName: "Hard (6 letters)", WordLength: 6},
	}
}

// list holds the loaded words of one difficulty.
type list struct {
	difficulty game.Difficulty
	answers    []string            // candidate secrets
	allowed    map[string]struct{} // answers ∪ accepted guesses
}

// Catalog serves difficulties, secrets and dictionary lookups.
// It is read-only after Load and safe for concurrent use.
type Catalog struct {
	order  []game.Difficulty
	lists  map[string]*list
	picker Picker
}

// Load reads the word lists for every difficulty from fsys.
func Load(fsys fs.FS, difficulties []game.Difficulty, picker Picker) (*Catalog, error) {
	if picker == nil {
		picker = RandomPicker{}
	}
	c := &Catalog{lists: make(map[string]*list, len(difficulties)), picker: picker}

	for _, d := range difficulties {
		if d.ID == "" || d.WordLength <= 0 {
			return nil, fmt.Errorf("words: invalid difficulty %+v", d)
		}
		answers, err := readList(fsys, d.ID+"_answers.txt", d.WordLength)
		if err != nil {
			return nil, err
		}
		if len(answers) == 0 {
			return nil, fmt.Errorf("words: answers list for %q is empty", d.ID)
		}
		extra, err := readList(fsys, d.ID+"_allowed.txt", d.WordLength)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}

		allowed := lo.SliceToMap(append(extra, answers...), func(w string) (string, struct{}) {
			return w, struct{}{}
		})
		c.lists[d.ID] = &list{difficulty: d, answers: answers, allowed: allowed}
		c.order = append(c.order, d)
	}
	return c, nil
}

// readList loads one word per line, keeping only valid words of length n.
func readList(fsys fs.FS, name string, n int) ([]string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	words := lo.FilterMap(lines, func(line string, _ int) (string, bool) {
		w := game.Normalize(line)
		if w == "" || strings.HasPrefix(w, "#") {
			return "", false
		}
		return w, game.WordLength(w) == n && isAlpha(w)
	})
	return lo.Uniq(words), nil
}

// isAlpha reports whether s consists of letters only.
func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Difficulties returns the difficulties in configuration order.
func (c *Catalog) Difficulties(ctx context.Context) ([]game.Difficulty, error) {
	return append([]game.Difficulty(nil), c.order...), ctx.Err()
}

// Resolve picks a secret word for a new session of difficulty id.
func (c *Catalog) Resolve(ctx context.Context, id string) (game.Resolution, error) {
	if err := ctx.Err(); err != nil {
		return game.Resolution{}, err
	}
	l, ok := c.lists[id]
	if !ok {
		return game.Resolution{}, game.ErrDifficultyNotFound
	}
	w, err := c.picker.Pick(l.difficulty, l.answers)
	if err != nil {
		return game.Resolution{}, fmt.Errorf("pick %s word: %w", id, err)
	}
	return game.Resolution{SecretWord: w, WordLength: l.difficulty.WordLength}, nil
}

// IsValidWord reports whether word is an accepted guess for difficulty id.
func (c *Catalog) IsValidWord(ctx context.Context, word, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l, ok := c.lists[id]
	if !ok {
		return false, game.ErrDifficultyNotFound
	}
	_, found := l.allowed[game.Normalize(word)]
	return found, nil
}

// Counts returns (answers, allowed) sizes per difficulty.
func (c *Catalog) Counts() map[string][2]int {
	return lo.MapValues(c.lists, func(l *list, _ string) [2]int {
		return [2]int{len(l.answers), len(l.allowed)}
	})
}
