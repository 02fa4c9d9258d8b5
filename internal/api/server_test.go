package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/pokersignup/internal/api"
	"github.com/mcoot/pokersignup/internal/testutil"
)

func TestServerServesAndRunsShutdownHooks(t *testing.T) {
	cfg := api.DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.ShutdownTimeout = time.Second

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	server := api.NewServer(handler, cfg, testutil.NopLogger())

	hookRan := make(chan struct{})
	server.OnShutdown(func() { close(hookRan) })

	require.NoError(t, server.Listen())
	assert.NotEqual(t, "127.0.0.1:0", server.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	resp, err := http.Get("http://" + server.Addr() + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	require.NoError(t, server.Shutdown(context.Background()))
	require.NoError(t, <-errCh)

	select {
	case <-hookRan:
	case <-time.After(time.Second):
		t.Fatal("shutdown hook did not run")
	}
}
