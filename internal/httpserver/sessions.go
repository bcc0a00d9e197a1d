package httpserver

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/robalobadob/wordle/apps/engine/internal/game"
)

// mountSessionRoutes registers /sessions/*. r already carries optional auth.
func (s *Server) mountSessionRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/", s.handleListSessions)
		r.Delete("/", s.handleClearAll)
		r.Get("/{id}", s.handleGetSession)
		r.Delete("/{id}", s.handleClearSession)
		r.With(s.rateLimited).Post("/{id}/guesses", s.handleGuess)
	})
}

// sessionView is the wire shape of a session. The secret only appears once
// the game is over.
type sessionView struct {
	SessionID    string            `json:"sessionId"`
	DifficultyID string            `json:"difficultyId"`
	WordLength   int               `json:"wordLength"`
	Status       game.Status       `json:"status"`
	Attempts     []game.Attempt    `json:"attempts"`
	AttemptsLeft int               `json:"attemptsLeft"`
	LetterStatus game.LetterStatus `json:"letterStatus"`
	Answer       string            `json:"answer,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	FinishedAt   *time.Time        `json:"finishedAt,omitempty"`
}

func viewOf(sess *game.Session) sessionView {
	v := sessionView{
		SessionID:    sess.ID,
		DifficultyID: sess.DifficultyID,
		WordLength:   sess.WordLength,
		Status:       sess.Status,
		Attempts:     sess.Attempts,
		AttemptsLeft: sess.AttemptsLeft(),
		LetterStatus: sess.LetterStatus(),
		CreatedAt:    sess.CreatedAt,
		UpdatedAt:    sess.UpdatedAt,
		FinishedAt:   sess.FinishedAt,
	}
	if sess.Status.Terminal() {
		v.Answer = sess.SecretWord
	}
	return v
}

func (s *Server) handleDifficulties(w http.ResponseWriter, r *http.Request) {
	ds, err := s.games.Difficulties(r.Context())
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"difficulties": ds})
}

type createSessionReq struct {
	DifficultyID string `json:"difficultyId"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	sess, err := s.games.CreateSession(r.Context(), req.DifficultyID, s.ownerFor(w, r))
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	all, err := s.games.ListActiveSessions(r.Context(), s.ownerFor(w, r))
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	views := lo.MapToSlice(all, func(_ string, sess *game.Session) sessionView { return viewOf(sess) })
	slices.SortFunc(views, func(a, b sessionView) int { return a.CreatedAt.Compare(b.CreatedAt) })
	writeJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.games.GetSession(r.Context(), chi.URLParam(r, "id"), s.ownerFor(w, r))
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	if err := s.games.ClearSession(r.Context(), chi.URLParam(r, "id"), s.ownerFor(w, r)); err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := s.games.ClearAll(r.Context(), s.ownerFor(w, r)); err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type guessReq struct {
	Word string `json:"word"`
}

type guessRes struct {
	Result       []game.LetterResult `json:"result"`
	Status       game.Status         `json:"status"`
	AttemptsLeft int                 `json:"attemptsLeft"`
	Session      sessionView         `json:"session"`
}

// handleGuess submits a guess and, when it ends the game for a signed-in
// user, records the result in their stats (best effort).
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	out, err := s.games.SubmitGuess(r.Context(), chi.URLParam(r, "id"), req.Word, s.ownerFor(w, r))
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	if me := currentUser(r); me != nil && out.Finished {
		if err := s.bumpStats(r.Context(), me.ID, out.Status == game.StatusWon); err != nil {
			log.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
		}
	}
	writeJSON(w, http.StatusOK, guessRes{
		Result:       out.Result,
		Status:       out.Status,
		AttemptsLeft: out.AttemptsLeft,
		Session:      viewOf(out.Session),
	})
}

// writeGameError maps engine errors to HTTP statuses.
func writeGameError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		code   string
	)
	switch {
	case errors.Is(err, game.ErrInvalidDifficulty):
		status, code = http.StatusNotFound, "invalid_difficulty"
	case errors.Is(err, game.ErrSessionNotFound):
		status, code = http.StatusNotFound, "session_not_found"
	case errors.Is(err, game.ErrInvalidLength):
		status, code = http.StatusUnprocessableEntity, "invalid_length"
	case errors.Is(err, game.ErrNotInDictionary):
		status, code = http.StatusUnprocessableEntity, "not_in_dictionary"
	case errors.Is(err, game.ErrSessionTerminal):
		status, code = http.StatusConflict, "session_terminal"
	case errors.Is(err, game.ErrCollaborator):
		status, code = http.StatusServiceUnavailable, "unavailable"
	default:
		status, code = http.StatusInternalServerError, "internal"
	}
	if status >= 500 {
		log.Error().Err(err).Str("req_id", chimw.GetReqID(r.Context())).Msg(code)
		writeError(w, status, code, "")
		return
	}
	writeError(w, status, code, err.Error())
}
