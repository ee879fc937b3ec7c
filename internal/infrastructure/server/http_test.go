package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPServer_StartStop(t *testing.T) {
	srv := NewHTTPServer("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(context.Background()) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get("http://" + srv.Addr())
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 2*time.Second, 10*time.Millisecond)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	assert.NoError(t, <-errc)
}

func TestHTTPServer_StopBeforeStart(t *testing.T) {
	srv := NewHTTPServer("127.0.0.1:0", http.NotFoundHandler())
	assert.NoError(t, srv.Stop(context.Background()))
}

func TestHTTPServer_ListenError(t *testing.T) {
	srv := NewHTTPServer("256.0.0.1:bad", http.NotFoundHandler())
	assert.Error(t, srv.Start(context.Background()))
}

func TestHTTPServer_StartAfterStopDoesNotServe(t *testing.T) {
	srv := NewHTTPServer("127.0.0.1:0", http.NotFoundHandler())
	require.NoError(t, srv.Stop(context.Background()))

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(context.Background()) }()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept serving after Stop")
	}
	assert.Equal(t, "127.0.0.1:0", srv.Addr(), "never listened")
}
