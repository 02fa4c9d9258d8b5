package e2e_test

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/pokersignup/internal/api/response"
	"github.com/mcoot/pokersignup/internal/factory"
	"github.com/mcoot/pokersignup/internal/services/auth"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "pokersignup-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/pokersignup")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) args(args ...string) []string {
	return append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)
}

func (r *cliRunner) run(args ...string) (string, error) {
	cmd := exec.Command(r.binaryPath, r.args(args...)...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := r.run(args...)
	require.NoError(t, err, out)
	return out
}

func runJSON[T any](t *testing.T, r *cliRunner, args ...string) T {
	t.Helper()
	var v T
	out := r.mustRun(t, args...)
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

func startTestServer(t *testing.T) string {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	authCfg := auth.DefaultConfig()
	authCfg.AdminUsernames = []string{"admin"}

	app, err := factory.New(factory.Config{
		AuthConfig: authCfg,
		Logger:     slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	})
	require.NoError(t, err)

	server := &http.Server{
		Addr:    addr,
		Handler: app.APIRouter(),
	}

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	t.Cleanup(func() {
		_ = app.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})

	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")
	return serverURL
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

func register(t *testing.T, r *cliRunner, username string) response.AuthResponse {
	t.Helper()
	return runJSON[response.AuthResponse](t, r, "player", "register",
		"--user", username, "--email", username+"@example.com", "--pass", "secret")
}

func TestCLIHealth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	serverURL := startTestServer(t)
	cli := newCLIRunner(t, serverURL)

	health := runJSON[response.Health](t, cli, "health")
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "memory", health.Storage)
}

func TestCLISignupFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	serverURL := startTestServer(t)
	admin := newCLIRunner(t, serverURL)
	alice := &cliRunner{binaryPath: admin.binaryPath, serverURL: serverURL, tokenFile: filepath.Join(t.TempDir(), "token")}
	bob := &cliRunner{binaryPath: admin.binaryPath, serverURL: serverURL, tokenFile: filepath.Join(t.TempDir(), "token")}

	adminAuth := register(t, admin, "admin")
	require.True(t, adminAuth.Player.IsAdmin)
	register(t, alice, "alice")
	bobAuth := register(t, bob, "bob")

	at := time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	game := runJSON[response.Game](t, admin, "admin", "game", "create",
		"--title", "Friday night", "--at", at, "--max", "1", "--min", "1")

	// Non-admins cannot schedule games
	_, err := alice.run("admin", "game", "create", "--at", at)
	assert.Error(t, err)

	join := runJSON[response.JoinResponse](t, alice, "game", "join", game.ID)
	assert.Equal(t, "confirmed", join.Outcome)

	join = runJSON[response.JoinResponse](t, bob, "game", "join", game.ID)
	assert.Equal(t, "waitlisted", join.Outcome)

	status := runJSON[response.Capacity](t, bob, "game", "status", game.ID)
	assert.Equal(t, 1, status.Confirmed)
	assert.Equal(t, 1, status.Waiting)

	leave := runJSON[response.LeaveResponse](t, alice, "game", "leave", game.ID)
	assert.Equal(t, "confirmed", leave.Placement)
	require.NotNil(t, leave.Promoted)
	assert.Equal(t, bobAuth.Player.ID, *leave.Promoted)

	// Leaving twice is an error
	out, err := alice.run("game", "leave", game.ID)
	assert.Error(t, err)
	assert.Contains(t, out, "NOT_IN_GAME")

	got := runJSON[response.Game](t, bob, "game", "get", game.ID)
	assert.Equal(t, "confirmed", got.MyPlacement)

	list := runJSON[response.GameList](t, bob, "game", "list")
	require.Len(t, list.Games, 1)
	assert.Equal(t, game.ID, list.Games[0].ID)

	admin.mustRun(t, "admin", "game", "delete", game.ID)
	list = runJSON[response.GameList](t, bob, "game", "list")
	assert.Empty(t, list.Games)
}

func TestCLIEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	serverURL := startTestServer(t)
	admin := newCLIRunner(t, serverURL)
	alice := &cliRunner{binaryPath: admin.binaryPath, serverURL: serverURL, tokenFile: filepath.Join(t.TempDir(), "token")}

	register(t, admin, "admin")
	alicePlayer := register(t, alice, "alice").Player

	at := time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	game := runJSON[response.Game](t, admin, "admin", "game", "create", "--at", at, "--max", "4")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, admin.binaryPath, admin.args("game", "events", game.ID, "--json")...)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	lines := bufio.NewScanner(stdout)
	nextEvent := func() (string, string) {
		require.True(t, lines.Scan(), "event stream ended")
		var evt struct {
			Event string `json:"event"`
			Data  string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(lines.Bytes(), &evt))
		return evt.Event, evt.Data
	}

	name, _ := nextEvent()
	require.Equal(t, "connected", name)

	alice.mustRun(t, "game", "join", game.ID)

	name, data := nextEvent()
	assert.Equal(t, "roster-update", name)
	assert.Contains(t, data, alicePlayer.ID)

	// Deleting the game ends the stream
	admin.mustRun(t, "admin", "game", "delete", game.ID)
	name, _ = nextEvent()
	assert.Equal(t, "game-deleted", name)

	assert.False(t, lines.Scan())
	assert.NoError(t, cmd.Wait())
}
