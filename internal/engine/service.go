// internal/engine/service.go
//
// Caller-facing game service.
// Responsibilities:
//   - Create sessions from the difficulty catalog (and validate what it returns).
//   - Serialize guess submission per (owner, session): read → evaluate →
//     append → recompute status → persist.
//   - Look up, list and clear an owner's sessions.
//
// Notes:
//   - The service keeps no game state of its own; the Repository is the
//     only place sessions live between calls.
//   - An empty owner means anonymous play: sessions are created but never
//     persisted, and Play runs guesses against a caller-held session.
//   - Repository, catalog and dictionary failures come back wrapped in a
//     *game.CollaboratorError.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/robalobadob/wordle/apps/engine/internal/game"
	"github.com/robalobadob/wordle/apps/engine/internal/store"
)

// Catalog supplies difficulties and secret words.
// Resolve returns game.ErrDifficultyNotFound for unknown IDs.
type Catalog interface {
	Difficulties(ctx context.Context) ([]game.Difficulty, error)
	Resolve(ctx context.Context, difficultyID string) (game.Resolution, error)
}

// Dictionary decides whether a guess is a real word for a difficulty.
type Dictionary interface {
	IsValidWord(ctx context.Context, word, difficultyID string) (bool, error)
}

// Outcome is the result of one accepted guess.
type Outcome struct {
	Result       []game.LetterResult `json:"result"`
	Status       game.Status         `json:"status"`
	AttemptsLeft int                 `json:"attemptsLeft"`
	// Finished is true only for the call that moved the session into a
	// terminal state.
	Finished bool          `json:"-"`
	Session  *game.Session `json:"-"`
}

// Service implements the game operations on top of its collaborators.
type Service struct {
	catalog Catalog
	dict    Dictionary
	repo    store.Repository
	locks   *keyedLocks
	now     func() time.Time
	newID   func() string
	log     zerolog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithIDs replaces the session ID generator.
func WithIDs(newID func() string) Option { return func(s *Service) { s.newID = newID } }

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

// New constructs a Service.
func New(c Catalog, d Dictionary, r store.Repository, opts ...Option) *Service {
	s := &Service{
		catalog: c,
		dict:    d,
		repo:    r,
		locks:   newKeyedLocks(),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		log:     log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Difficulties lists the catalog's difficulties.
func (s *Service) Difficulties(ctx context.Context) ([]game.Difficulty, error) {
	ds, err := s.catalog.Difficulties(ctx)
	if err != nil {
		return nil, game.Collaborator("list difficulties", err)
	}
	return ds, nil
}

// CreateSession starts a new in-progress session. With an empty owner the
// session is returned but not stored.
func (s *Service) CreateSession(ctx context.Context, difficultyID, owner string) (*game.Session, error) {
	ds, err := s.catalog.Difficulties(ctx)
	if err != nil {
		return nil, game.Collaborator("list difficulties", err)
	}
	d, ok := lo.Find(ds, func(d game.Difficulty) bool { return d.ID == difficultyID })
	if !ok {
		return nil, fmt.Errorf("%w: %q", game.ErrInvalidDifficulty, difficultyID)
	}

	res, err := s.catalog.Resolve(ctx, difficultyID)
	if errors.Is(err, game.ErrDifficultyNotFound) {
		return nil, fmt.Errorf("%w: %q", game.ErrInvalidDifficulty, difficultyID)
	}
	if err != nil {
		return nil, game.Collaborator("resolve difficulty", err)
	}
	if res.WordLength != d.WordLength {
		return nil, game.Collaborator("resolve difficulty",
			fmt.Errorf("%w: difficulty %q declares %d letters, catalog returned %d",
				game.ErrSecretMismatch, d.ID, d.WordLength, res.WordLength))
	}

	sess, err := game.NewSession(s.newID(), owner, d, res.SecretWord, s.now())
	if errors.Is(err, game.ErrSecretMismatch) {
		return nil, game.Collaborator("resolve difficulty", err)
	}
	if err != nil {
		return nil, err
	}

	if owner != "" {
		if err := s.repo.Put(ctx, owner, sess); err != nil {
			return nil, game.Collaborator("put session", err)
		}
	}
	s.log.Info().Str("session", sess.ID).Str("difficulty", d.ID).Bool("ephemeral", owner == "").Msg("session created")
	return sess, nil
}

// SubmitGuess applies word to the owner's session. Concurrent submissions to
// the same session are linearized; the second one sees the first's attempt.
func (s *Service) SubmitGuess(ctx context.Context, sessionID, word, owner string) (Outcome, error) {
	if owner == "" {
		return Outcome{}, game.ErrSessionNotFound
	}
	unlock := s.locks.Lock(lockKey(owner, sessionID))
	defer unlock()

	sess, err := s.load(ctx, owner, sessionID)
	if err != nil {
		return Outcome{}, err
	}
	out, err := s.apply(ctx, sess, word)
	if err != nil {
		return Outcome{}, err
	}
	if err := s.repo.Put(ctx, owner, sess); err != nil {
		return Outcome{}, game.Collaborator("put session", err)
	}
	out.Session = sess.Clone()
	return out, nil
}

// Play applies word to a caller-held session without touching the
// repository. It is the anonymous counterpart of SubmitGuess; the caller is
// responsible for not sharing sess between goroutines.
func (s *Service) Play(ctx context.Context, sess *game.Session, word string) (Outcome, error) {
	if sess == nil {
		return Outcome{}, game.ErrSessionNotFound
	}
	out, err := s.apply(ctx, sess, word)
	if err != nil {
		return Outcome{}, err
	}
	out.Session = sess.Clone()
	return out, nil
}

// apply runs the submission checks in order (terminal, length, dictionary)
// and only then mutates sess.
func (s *Service) apply(ctx context.Context, sess *game.Session, word string) (Outcome, error) {
	if err := sess.CheckGuess(word); err != nil {
		return Outcome{}, err
	}
	word = game.Normalize(word)
	ok, err := s.dict.IsValidWord(ctx, word, sess.DifficultyID)
	if err != nil {
		return Outcome{}, game.Collaborator("dictionary lookup", err)
	}
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", game.ErrNotInDictionary, word)
	}

	a, err := sess.Submit(word, s.now())
	if err != nil {
		return Outcome{}, err
	}

	ev := s.log.Debug()
	if sess.Status.Terminal() {
		ev = s.log.Info()
	}
	ev.Str("session", sess.ID).
		Int("attempt", len(sess.Attempts)).
		Str("status", string(sess.Status)).
		Msg("guess applied")

	return Outcome{
		Result:       a.Result,
		Status:       sess.Status,
		AttemptsLeft: sess.AttemptsLeft(),
		Finished:     sess.Status.Terminal(),
	}, nil
}

// GetSession returns the owner's session or game.ErrSessionNotFound.
func (s *Service) GetSession(ctx context.Context, sessionID, owner string) (*game.Session, error) {
	if owner == "" {
		return nil, game.ErrSessionNotFound
	}
	return s.load(ctx, owner, sessionID)
}

// ListActiveSessions returns every stored session of owner, keyed by ID.
func (s *Service) ListActiveSessions(ctx context.Context, owner string) (map[string]*game.Session, error) {
	if owner == "" {
		return map[string]*game.Session{}, nil
	}
	all, err := s.repo.ListAll(ctx, owner)
	if err != nil {
		return nil, game.Collaborator("list sessions", err)
	}
	return all, nil
}

// ClearSession removes the session. Clearing a missing session succeeds.
func (s *Service) ClearSession(ctx context.Context, sessionID, owner string) error {
	if owner == "" {
		return nil
	}
	unlock := s.locks.Lock(lockKey(owner, sessionID))
	defer unlock()
	if err := s.repo.Delete(ctx, owner, sessionID); err != nil {
		return game.Collaborator("delete session", err)
	}
	s.log.Info().Str("session", sessionID).Msg("session cleared")
	return nil
}

// ClearAll removes every session of owner.
func (s *Service) ClearAll(ctx context.Context, owner string) error {
	all, err := s.ListActiveSessions(ctx, owner)
	if err != nil {
		return err
	}
	for id := range all {
		if err := s.ClearSession(ctx, id, owner); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) load(ctx context.Context, owner, sessionID string) (*game.Session, error) {
	sess, err := s.repo.Get(ctx, owner, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", game.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, game.Collaborator("get session", err)
	}
	return sess, nil
}

func lockKey(owner, sessionID string) string { return owner + "\x00" + sessionID }
