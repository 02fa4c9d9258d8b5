package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/pokersignup/internal/api/apierr"
	"github.com/mcoot/pokersignup/internal/api/response"
	"github.com/mcoot/pokersignup/internal/factory"
	"github.com/mcoot/pokersignup/internal/model"
	"github.com/mcoot/pokersignup/internal/testutil"
)

// testServer wraps the API handler around a TestApp
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	app := factory.NewTestApp("admin")
	t.Cleanup(func() { _ = app.Close() })
	return &testServer{handler: app.APIRouter(), app: app}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) register(t *testing.T, username string) (string, response.Player) {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/players/register", map[string]string{
		"username":              username,
		"email":                 username + "@example.com",
		"first_name":            strings.ToUpper(username[:1]) + username[1:],
		"password":              "secret123",
		"password_confirmation": "secret123",
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.SessionToken, resp.Player
}

func (ts *testServer) createGame(t *testing.T, adminToken string, maxPlayers int, in time.Duration) response.Game {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/admin/games", map[string]any{
		"title":        "Friday game",
		"location":     "Basement",
		"scheduled_at": testutil.Epoch.Add(in),
		"max_players":  maxPlayers,
		"min_players":  1,
	}, adminToken)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var g response.Game
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &g))
	return g
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierr.ErrorResponse](t, rr).Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[response.Health](t, rr).Status)
}

func TestRegisterLoginLogout(t *testing.T) {
	ts := newTestServer(t)

	token, player := ts.register(t, "alice")
	assert.Equal(t, "alice", player.Username)
	assert.Equal(t, "Alice", player.DisplayName)
	assert.False(t, player.IsAdmin)

	rr := ts.request(http.MethodPost, "/api/v1/players/login", map[string]string{
		"username": "alice",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	login := decode[response.AuthResponse](t, rr)
	assert.NotEqual(t, token, login.SessionToken)
	assert.NotNil(t, login.Player.LastLoginAt)

	rr = ts.request(http.MethodGet, "/api/v1/players/me", nil, login.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, player.ID, decode[response.Player](t, rr).ID)

	rr = ts.request(http.MethodPost, "/api/v1/players/logout", nil, login.SessionToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/players/me", nil, login.SessionToken)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/players/register", map[string]string{
		"username":              "bob",
		"email":                 "bob@example.com",
		"password":              "a",
		"password_confirmation": "b",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	ts.register(t, "bob")
	rr = ts.request(http.MethodPost, "/api/v1/players/register", map[string]string{
		"username":              "bob",
		"email":                 "other@example.com",
		"password":              "a",
		"password_confirmation": "a",
	}, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeUsernameExists, errorCode(t, rr))
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/players/login", map[string]string{
		"username": "alice",
		"password": "nope",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, errorCode(t, rr))
}

func TestSessionCookieAuth(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "alice")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/players/me", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGamesRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/games", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "alice")

	rr := ts.request(http.MethodGet, "/api/v1/admin/players", nil, token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeForbidden, errorCode(t, rr))
}

func TestJoinLeaveFlow(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.register(t, "admin")
	aliceToken, alice := ts.register(t, "alice")
	bobToken, bob := ts.register(t, "bob")

	g := ts.createGame(t, adminToken, 1, 48*time.Hour)
	joinPath := "/api/v1/games/" + g.ID + "/join"
	leavePath := "/api/v1/games/" + g.ID + "/leave"

	rr := ts.request(http.MethodPost, joinPath, nil, aliceToken)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	join := decode[response.JoinResponse](t, rr)
	assert.Equal(t, "confirmed", join.Outcome)
	assert.Equal(t, "confirmed", join.Game.MyPlacement)
	require.Len(t, join.Game.Confirmed, 1)
	assert.Equal(t, "Alice", join.Game.Confirmed[0].DisplayName)

	rr = ts.request(http.MethodPost, joinPath, nil, bobToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "waitlisted", decode[response.JoinResponse](t, rr).Outcome)

	rr = ts.request(http.MethodPost, joinPath, nil, bobToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "already_joined", decode[response.JoinResponse](t, rr).Outcome)

	rr = ts.request(http.MethodGet, "/api/v1/games/"+g.ID+"/capacity", nil, bobToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, response.Capacity{Confirmed: 1, Capacity: 1, Waiting: 1, MinPlayers: 1, OpenSeats: 0, Full: true, HasMinimum: true},
		decode[response.Capacity](t, rr))

	rr = ts.request(http.MethodPost, leavePath, nil, aliceToken)
	require.Equal(t, http.StatusOK, rr.Code)
	leave := decode[response.LeaveResponse](t, rr)
	assert.Equal(t, alice.ID, leave.PlayerID)
	assert.Equal(t, "confirmed", leave.Placement)
	require.NotNil(t, leave.Promoted)
	assert.Equal(t, bob.ID, *leave.Promoted)

	rr = ts.request(http.MethodPost, leavePath, nil, aliceToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeNotInGame, errorCode(t, rr))
}

func TestJoinPastGame(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.register(t, "admin")
	aliceToken, _ := ts.register(t, "alice")

	g := ts.createGame(t, adminToken, 4, time.Hour)
	ts.app.MockClock.Advance(2 * time.Hour)

	rr := ts.request(http.MethodPost, "/api/v1/games/"+g.ID+"/join", nil, aliceToken)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodePastGame, errorCode(t, rr))
}

func TestJoinUnknownGame(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/games/nope/join", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeGameNotFound, errorCode(t, rr))
}

func TestListGames(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.register(t, "admin")

	ts.createGame(t, adminToken, 4, 3*time.Hour)
	ts.createGame(t, adminToken, 4, time.Hour)
	ts.app.MockClock.Advance(2 * time.Hour)

	rr := ts.request(http.MethodGet, "/api/v1/games", nil, adminToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[response.GameList](t, rr).Games, 1)

	rr = ts.request(http.MethodGet, "/api/v1/games?when=past", nil, adminToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[response.GameList](t, rr).Games, 1)

	rr = ts.request(http.MethodGet, "/api/v1/games?when=tomorrow", nil, adminToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminGameManagement(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.register(t, "admin")
	aliceToken, alice := ts.register(t, "alice")
	bobToken, bob := ts.register(t, "bob")

	g := ts.createGame(t, adminToken, 1, 48*time.Hour)
	ts.request(http.MethodPost, "/api/v1/games/"+g.ID+"/join", nil, aliceToken)
	ts.request(http.MethodPost, "/api/v1/games/"+g.ID+"/join", nil, bobToken)

	rr := ts.request(http.MethodPatch, "/api/v1/admin/games/"+g.ID, map[string]any{"max_players": 0}, adminToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodPatch, "/api/v1/admin/games/"+g.ID, map[string]any{"max_players": 2}, adminToken)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[response.UpdateGameResponse](t, rr)
	assert.Equal(t, []string{bob.ID}, updated.Promoted)
	assert.Len(t, updated.Game.Confirmed, 2)

	rr = ts.request(http.MethodPatch, "/api/v1/admin/games/"+g.ID, map[string]any{"max_players": 1}, adminToken)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeCapacityBelowConfirmed, errorCode(t, rr))

	rr = ts.request(http.MethodDelete, "/api/v1/admin/games/"+g.ID+"/players/"+alice.ID, nil, adminToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, alice.ID, decode[response.LeaveResponse](t, rr).PlayerID)

	rr = ts.request(http.MethodDelete, "/api/v1/admin/games/"+g.ID, nil, adminToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/games/"+g.ID, nil, adminToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminPlayerManagement(t *testing.T) {
	ts := newTestServer(t)
	adminToken, admin := ts.register(t, "admin")
	aliceToken, alice := ts.register(t, "alice")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/players/import",
		strings.NewReader("carol@example.com#Carol#Danvers\nalice@example.com#A#B\nbroken\n"))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	imported := decode[response.ImportResponse](t, rr)
	assert.Equal(t, 1, imported.Created)
	assert.Equal(t, 1, imported.Skipped)
	assert.Len(t, imported.Rejected, 1)

	rr = ts.request(http.MethodGet, "/api/v1/admin/players", nil, adminToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[response.PlayerList](t, rr).Players, 3)

	rr = ts.request(http.MethodPatch, "/api/v1/admin/players/"+alice.ID, map[string]any{"is_admin": true}, adminToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[response.Player](t, rr).IsAdmin)

	// Promotion takes effect on the existing session
	rr = ts.request(http.MethodGet, "/api/v1/admin/players", nil, aliceToken)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPatch, "/api/v1/admin/players/"+admin.ID, map[string]any{"is_admin": false}, adminToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// eventStream is an open SSE connection read line by line
type eventStream struct {
	t     *testing.T
	ctx   context.Context
	lines chan string
}

// openEventStream connects to a game's event stream and waits until the hub has registered it
func (ts *testServer) openEventStream(t *testing.T, gameID, token string) *eventStream {
	t.Helper()
	server := httptest.NewServer(ts.handler)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/games/"+gameID+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		close(lines)
	}()

	stream := &eventStream{t: t, ctx: ctx, lines: lines}
	assert.Equal(t, "event: connected", stream.next())

	require.Eventually(t, func() bool {
		hub := ts.app.HubManager.GetHub(model.GameID(gameID))
		return hub != nil && hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	return stream
}

// read returns the next line, or false once the server has ended the stream
func (s *eventStream) read() (string, bool) {
	select {
	case line, ok := <-s.lines:
		return line, ok
	case <-s.ctx.Done():
		s.t.Fatal("timed out waiting for event")
		return "", false
	}
}

func (s *eventStream) next() string {
	line, ok := s.read()
	require.True(s.t, ok, "stream closed")
	return line
}

// skipTo reads until the named event and returns its data line
func (s *eventStream) skipTo(event string) string {
	for s.next() != "event: "+event {
	}
	return s.next()
}

func TestGameEventsStream(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.register(t, "admin")
	aliceToken, _ := ts.register(t, "alice")
	g := ts.createGame(t, adminToken, 2, 48*time.Hour)

	stream := ts.openEventStream(t, g.ID, adminToken)

	rr := ts.request(http.MethodPost, "/api/v1/games/"+g.ID+"/join", nil, aliceToken)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Contains(t, stream.skipTo("roster-update"), `"action":"joined"`)
}

func TestDeletingWatchedGameEndsStream(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.register(t, "admin")
	aliceToken, _ := ts.register(t, "alice")
	g := ts.createGame(t, adminToken, 2, 48*time.Hour)

	stream := ts.openEventStream(t, g.ID, aliceToken)

	rr := ts.request(http.MethodDelete, "/api/v1/admin/games/"+g.ID, nil, adminToken)
	require.Equal(t, http.StatusNoContent, rr.Code)

	assert.Contains(t, stream.skipTo("game-deleted"), `"game_id":"`+g.ID+`"`)
	for {
		if _, ok := stream.read(); !ok {
			break
		}
	}
	assert.Nil(t, ts.app.HubManager.GetHub(model.GameID(g.ID)))
}
