package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"

	"github.com/robalobadob/wordle/apps/engine/internal/config"
	"github.com/robalobadob/wordle/apps/engine/internal/db"
	"github.com/robalobadob/wordle/apps/engine/internal/engine"
	"github.com/robalobadob/wordle/apps/engine/internal/game"
	"github.com/robalobadob/wordle/apps/engine/internal/store"
	"github.com/robalobadob/wordle/apps/engine/internal/words"
)

// firstPicker always hands out the first answer, so tests know the secret.
type firstPicker struct{}

func (firstPicker) Pick(_ game.Difficulty, answers []string) (string, error) { return answers[0], nil }

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		JWTExpiresDays: 1,
		CookieName:     "wordle_token",
		ClientOrigin:   "http://localhost:5173",
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
}

func newTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.Disabled)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	conn, err := db.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	catalog, err := words.Load(fstest.MapFS{
		"medium_answers.txt": {Data: []byte("LUCKY\nTHINK\n")},
		"medium_allowed.txt": {Data: []byte("CRANE\n")},
	}, []game.Difficulty{{ID: "medium", DisplayName: "Medium (5 letters)", WordLength: 5}}, firstPicker{})
	if err != nil {
		t.Fatalf("words.Load: %v", err)
	}

	svc := engine.New(catalog, catalog, store.NewMemory(), engine.WithLogger(zerolog.Nop()))
	ts := httptest.NewServer(New(cfg, svc, conn, catalog).Router())
	t.Cleanup(ts.Close)
	return ts
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, ts *httptest.Server) *client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &client{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

// do sends a JSON request and returns the status and raw response body.
func (c *client) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		c.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	raw, _ := io.ReadAll(res.Body)
	return res.StatusCode, raw
}

// expect sends a request, checks the status and decodes the body into out.
func (c *client) expect(method, path string, body any, wantStatus int, out any) {
	c.t.Helper()
	status, raw := c.do(method, path, body)
	if status != wantStatus {
		c.t.Fatalf("%s %s: status %d, want %d: %s", method, path, status, wantStatus, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.t.Fatalf("%s %s: decode %s: %v", method, path, raw, err)
		}
	}
}

func (c *client) newSession() sessionView {
	c.t.Helper()
	var v sessionView
	c.expect(http.MethodPost, "/sessions", createSessionReq{DifficultyID: "medium"}, http.StatusCreated, &v)
	return v
}

func TestHealthAndDifficulties(t *testing.T) {
	ts := newTestServer(t, testConfig())
	c := newClient(t, ts)

	c.expect(http.MethodGet, "/health", nil, http.StatusOK, nil)

	var body struct {
		Difficulties []game.Difficulty `json:"difficulties"`
	}
	c.expect(http.MethodGet, "/difficulties", nil, http.StatusOK, &body)
	if len(body.Difficulties) != 1 || body.Difficulties[0].WordLength != 5 {
		t.Fatalf("difficulties = %+v", body.Difficulties)
	}

	var counts map[string]map[string]int
	c.expect(http.MethodGet, "/debug/words", nil, http.StatusOK, &counts)
	if counts["medium"]["answers"] != 2 || counts["medium"]["allowed"] != 3 {
		t.Fatalf("counts = %v", counts)
	}

	c.expect(http.MethodGet, "/nope", nil, http.StatusNotFound, nil)
}

func TestGuestGameFlow(t *testing.T) {
	ts := newTestServer(t, testConfig())
	c := newClient(t, ts)

	status, raw := c.do(http.MethodPost, "/sessions", createSessionReq{DifficultyID: "medium"})
	if status != http.StatusCreated {
		t.Fatalf("create: %d %s", status, raw)
	}
	if strings.Contains(string(raw), "LUCKY") {
		t.Fatalf("secret leaked while in progress: %s", raw)
	}
	var sess sessionView
	_ = json.Unmarshal(raw, &sess)
	path := "/sessions/" + sess.SessionID + "/guesses"

	var res guessRes
	c.expect(http.MethodPost, path, guessReq{Word: "crane"}, http.StatusOK, &res)
	if res.Status != game.StatusInProgress || res.AttemptsLeft != 5 || res.Session.Answer != "" {
		t.Fatalf("first guess = %+v", res)
	}

	var e errorBody
	c.expect(http.MethodPost, path, guessReq{Word: "zzzzz"}, http.StatusUnprocessableEntity, &e)
	if e.Error != "not_in_dictionary" {
		t.Fatalf("error = %+v", e)
	}
	c.expect(http.MethodPost, path, guessReq{Word: "ab"}, http.StatusUnprocessableEntity, &e)
	if e.Error != "invalid_length" {
		t.Fatalf("error = %+v", e)
	}

	c.expect(http.MethodPost, path, guessReq{Word: "Lucky"}, http.StatusOK, &res)
	if res.Status != game.StatusWon || res.Session.Answer != "LUCKY" || len(res.Session.Attempts) != 2 {
		t.Fatalf("winning guess = %+v", res)
	}
	c.expect(http.MethodPost, path, guessReq{Word: "think"}, http.StatusConflict, &e)
	if e.Error != "session_terminal" {
		t.Fatalf("error = %+v", e)
	}

	var got sessionView
	c.expect(http.MethodGet, "/sessions/"+sess.SessionID, nil, http.StatusOK, &got)
	if got.LetterStatus["L"] != game.Correct || got.LetterStatus["R"] != game.Absent || got.LetterStatus["C"] != game.Correct {
		t.Fatalf("letterStatus = %v", got.LetterStatus)
	}

	c.expect(http.MethodDelete, "/sessions/"+sess.SessionID, nil, http.StatusOK, nil)
	c.expect(http.MethodDelete, "/sessions/"+sess.SessionID, nil, http.StatusOK, nil)
	c.expect(http.MethodGet, "/sessions/"+sess.SessionID, nil, http.StatusNotFound, nil)
}

func TestGuestLosesAfterSixGuesses(t *testing.T) {
	ts := newTestServer(t, testConfig())
	c := newClient(t, ts)
	sess := c.newSession()
	path := "/sessions/" + sess.SessionID + "/guesses"

	var res guessRes
	for i := 0; i < game.MaxAttempts; i++ {
		c.expect(http.MethodPost, path, guessReq{Word: "THINK"}, http.StatusOK, &res)
	}
	if res.Status != game.StatusLost || res.AttemptsLeft != 0 || res.Session.Answer != "LUCKY" {
		t.Fatalf("last guess = %+v", res)
	}
}

func TestSessionErrors(t *testing.T) {
	ts := newTestServer(t, testConfig())
	c := newClient(t, ts)

	var e errorBody
	c.expect(http.MethodPost, "/sessions", createSessionReq{DifficultyID: "impossible"}, http.StatusNotFound, &e)
	if e.Error != "invalid_difficulty" {
		t.Fatalf("error = %+v", e)
	}
	c.expect(http.MethodGet, "/sessions/missing", nil, http.StatusNotFound, &e)
	if e.Error != "session_not_found" {
		t.Fatalf("error = %+v", e)
	}
	if status, _ := c.do(http.MethodPost, "/sessions", "not an object"); status != http.StatusBadRequest {
		t.Fatalf("bad json status = %d", status)
	}
}

func TestSessionsAreScopedToOwner(t *testing.T) {
	ts := newTestServer(t, testConfig())
	alice, bob := newClient(t, ts), newClient(t, ts)

	a := alice.newSession()
	alice.newSession()
	bob.newSession()

	bob.expect(http.MethodGet, "/sessions/"+a.SessionID, nil, http.StatusNotFound, nil)
	bob.expect(http.MethodPost, "/sessions/"+a.SessionID+"/guesses", guessReq{Word: "LUCKY"}, http.StatusNotFound, nil)

	var list struct {
		Sessions []sessionView `json:"sessions"`
	}
	alice.expect(http.MethodGet, "/sessions", nil, http.StatusOK, &list)
	if len(list.Sessions) != 2 {
		t.Fatalf("alice sessions = %d", len(list.Sessions))
	}

	alice.expect(http.MethodDelete, "/sessions", nil, http.StatusOK, nil)
	alice.expect(http.MethodGet, "/sessions", nil, http.StatusOK, &list)
	if len(list.Sessions) != 0 {
		t.Fatalf("after clear: %d sessions", len(list.Sessions))
	}
	bob.expect(http.MethodGet, "/sessions", nil, http.StatusOK, &list)
	if len(list.Sessions) != 1 {
		t.Fatalf("bob sessions = %d", len(list.Sessions))
	}
}

type statsBody struct {
	GamesPlayed int     `json:"gamesPlayed"`
	Wins        int     `json:"wins"`
	Streak      int     `json:"streak"`
	MaxStreak   int     `json:"maxStreak"`
	WinRate     float64 `json:"winRate"`
}

func TestAccountsAndStats(t *testing.T) {
	ts := newTestServer(t, testConfig())
	c := newClient(t, ts)
	creds := credentials{Username: "wordsmith", Password: "correct horse"}

	c.expect(http.MethodGet, "/stats/me", nil, http.StatusUnauthorized, nil)
	c.expect(http.MethodPost, "/auth/signup", creds, http.StatusCreated, nil)
	c.expect(http.MethodPost, "/auth/signup", credentials{Username: "WordSmith", Password: "another pw"}, http.StatusConflict, nil)
	c.expect(http.MethodPost, "/auth/signup", credentials{Username: "x", Password: "short"}, http.StatusBadRequest, nil)

	var me authUser
	c.expect(http.MethodGet, "/auth/me", nil, http.StatusOK, &me)
	if me.Username != "wordsmith" || me.ID == "" {
		t.Fatalf("me = %+v", me)
	}

	// One win, then one loss.
	win := c.newSession()
	c.expect(http.MethodPost, "/sessions/"+win.SessionID+"/guesses", guessReq{Word: "LUCKY"}, http.StatusOK, nil)
	lose := c.newSession()
	for i := 0; i < game.MaxAttempts; i++ {
		c.expect(http.MethodPost, "/sessions/"+lose.SessionID+"/guesses", guessReq{Word: "CRANE"}, http.StatusOK, nil)
	}

	var st statsBody
	c.expect(http.MethodGet, "/stats/me", nil, http.StatusOK, &st)
	if st.GamesPlayed != 2 || st.Wins != 1 || st.Streak != 0 || st.MaxStreak != 1 || st.WinRate != 0.5 {
		t.Fatalf("stats = %+v", st)
	}

	// Logout drops the account's sessions.
	c.newSession()
	c.expect(http.MethodPost, "/auth/logout", nil, http.StatusOK, nil)
	c.expect(http.MethodGet, "/auth/me", nil, http.StatusUnauthorized, nil)

	c.expect(http.MethodPost, "/auth/login", credentials{Username: "wordsmith", Password: "wrong password"}, http.StatusUnauthorized, nil)
	c.expect(http.MethodPost, "/auth/login", creds, http.StatusOK, nil)
	var list struct {
		Sessions []sessionView `json:"sessions"`
	}
	c.expect(http.MethodGet, "/sessions", nil, http.StatusOK, &list)
	if len(list.Sessions) != 0 {
		t.Fatalf("sessions after logout = %d", len(list.Sessions))
	}
}

func TestBearerToken(t *testing.T) {
	ts := newTestServer(t, testConfig())
	c := newClient(t, ts)
	c.expect(http.MethodPost, "/auth/signup", credentials{Username: "bearer_user", Password: "password1"}, http.StatusCreated, nil)

	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	var tok string
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == testConfig().CookieName {
			tok = ck.Value
		}
	}
	if tok == "" {
		t.Fatal("auth cookie not set")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("bearer status = %d", res.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok+"x")
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("tampered token status = %d", res.StatusCode)
	}
}

func TestGuessesAreRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS, cfg.RateLimitBurst = 1, 2
	ts := newTestServer(t, cfg)
	c := newClient(t, ts)
	sess := c.newSession()
	path := "/sessions/" + sess.SessionID + "/guesses"

	c.expect(http.MethodPost, path, guessReq{Word: "THINK"}, http.StatusOK, nil)
	c.expect(http.MethodPost, path, guessReq{Word: "THINK"}, http.StatusOK, nil)
	var e errorBody
	c.expect(http.MethodPost, path, guessReq{Word: "THINK"}, http.StatusTooManyRequests, &e)
	if e.Error != "rate_limited" {
		t.Fatalf("error = %+v", e)
	}
	// Other routes are not limited.
	c.expect(http.MethodGet, "/sessions/"+sess.SessionID, nil, http.StatusOK, nil)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, testConfig())
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/sessions", nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNoContent || res.Header.Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("preflight = %d %v", res.StatusCode, res.Header)
	}
}
