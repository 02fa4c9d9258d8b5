package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/pokersignup/internal/model"
	"github.com/mcoot/pokersignup/internal/testutil"
)

func receive(t *testing.T, client *Client) string {
	t.Helper()
	select {
	case msg := <-client.send:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
		return ""
	}
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, time.Second, 5*time.Millisecond)
}

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{"single line data", "test-event", "hello world", "event: test-event\ndata: hello world\n\n"},
		{"multi-line data", "roster-update", "{\n  \"a\": 1\n}", "event: roster-update\ndata: {\ndata:   \"a\": 1\ndata: }\n\n"},
		{"empty data", "ping", "", "event: ping\ndata: \n\n"},
		{"carriage returns", "test", "line1\r\nline2", "event: test\ndata: line1\ndata: line2\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(formatSSEMessage(tt.eventName, tt.data)))
		})
	}
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"hello"}, splitLines("hello"))
	assert.Equal(t, []string{"line1", "line2"}, splitLines("line1\nline2"))
	assert.Equal(t, []string{"line1"}, splitLines("line1\n"))
	assert.Equal(t, []string{""}, splitLines(""))
	assert.Equal(t, []string{"line1", "line2"}, splitLines("line1\r\nline2\r\n"))
}

func TestHubRegisterAndBroadcast(t *testing.T) {
	hub := NewHub("g1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "player1")
	require.True(t, hub.Register(client))
	waitForClients(t, hub, 1)

	hub.BroadcastEvent("test-event", "test data")

	assert.Equal(t, "event: test-event\ndata: test data\n\n", receive(t, client))
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub("g1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "player1")
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.Unregister(client)
	waitForClients(t, hub, 0)

	_, open := <-client.send
	assert.False(t, open)
}

func TestHubBroadcastToMultipleClients(t *testing.T) {
	hub := NewHub("g1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	clients := []*Client{NewClient(hub, "p1"), NewClient(hub, "p2"), NewClient(hub, "p3")}
	for _, c := range clients {
		hub.Register(c)
	}
	waitForClients(t, hub, 3)

	hub.BroadcastEvent("update", "data")

	for _, c := range clients {
		assert.Equal(t, "event: update\ndata: data\n\n", receive(t, c))
	}
}

func TestHubClosedRejectsRegistration(t *testing.T) {
	hub := NewHub("g1", testutil.NopLogger())
	hub.Close()
	hub.Close()

	assert.False(t, hub.Register(NewClient(hub, "late")))
	hub.Unregister(NewClient(hub, "late"))
}

func TestHubCloseWithDeliversQueuedThenFinal(t *testing.T) {
	hub := NewHub("g1", testutil.NopLogger())
	client := NewClient(hub, "player1")
	go hub.Run()

	require.True(t, hub.Register(client))
	waitForClients(t, hub, 1)

	hub.BroadcastEvent("update", "first")
	hub.CloseWith(formatSSEMessage("bye", "last"))

	assert.Equal(t, "event: update\ndata: first\n\n", receive(t, client))
	assert.Equal(t, "event: bye\ndata: last\n\n", receive(t, client))
	_, open := <-client.send
	assert.False(t, open)

	assert.False(t, hub.Register(NewClient(hub, "late")))
	hub.CloseWith([]byte("ignored"))
}

func TestHubManager(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()

	assert.Nil(t, manager.GetHub("g1"))

	hub1 := manager.GetOrCreateHub("g1")
	assert.Same(t, hub1, manager.GetOrCreateHub("g1"))
	assert.Same(t, hub1, manager.GetHub("g1"))
	assert.NotSame(t, hub1, manager.GetOrCreateHub("g2"))

	manager.RemoveHub("g1", nil)
	assert.Nil(t, manager.GetHub("g1"))

	manager.RemoveHub("missing", nil)
}

func TestHubManagerRemoveHubWithFarewell(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()

	client := manager.Join("g1", "watcher")
	require.NotNil(t, client)
	waitForClients(t, client.hub, 1)

	manager.RemoveHub("g1", formatSSEMessage("game-deleted", "{}"))

	assert.Equal(t, "event: game-deleted\ndata: {}\n\n", receive(t, client))
	_, open := <-client.send
	assert.False(t, open)
	assert.Nil(t, manager.GetHub("g1"))
}

func TestHubManagerJoinReplacesClosedHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()

	// Closed by a cleanup that ran between lookup and registration
	stale := manager.GetOrCreateHub("g1")
	stale.Close()

	client := manager.Join("g1", "watcher")
	require.NotNil(t, client)
	assert.NotSame(t, stale, client.hub)
	assert.Same(t, client.hub, manager.GetHub("g1"))
	waitForClients(t, client.hub, 1)
}

func TestHubManagerCleanupEmptyHubs(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()

	manager.GetOrCreateHub(model.GameID("empty"))
	active := manager.GetOrCreateHub(model.GameID("active"))
	active.Register(NewClient(active, "player1"))
	waitForClients(t, active, 1)

	assert.Equal(t, 1, manager.CleanupEmptyHubs())
	assert.Nil(t, manager.GetHub("empty"))
	assert.NotNil(t, manager.GetHub("active"))
}
