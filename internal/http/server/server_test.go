package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(Config{ShutdownTimeout: time.Second}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNew_Timeouts(t *testing.T) {
	s := New(Config{Addr: ":0", ReadTimeout: 2 * time.Second, WriteTimeout: 3 * time.Second}, http.NotFoundHandler())
	assert.Equal(t, 2*time.Second, s.srv.ReadTimeout)
	assert.Equal(t, 3*time.Second, s.srv.WriteTimeout)
	assert.NotZero(t, s.srv.ReadHeaderTimeout)
	assert.Equal(t, 15*time.Second, s.shutdownTimeout)
}
