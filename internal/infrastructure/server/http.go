package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type HTTPServer struct {
	addr    string
	handler http.Handler

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	stopped  bool
}

var _ Server = (*HTTPServer)(nil)

func NewHTTPServer(addr string, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		addr:    addr,
		handler: handler,
	}
}

// Start listens on the configured address and serves until Stop is called.
// WriteTimeout stays unset because relay connections are long-lived streams.
// Once Stop has run, Start returns nil without listening.
func (h *HTTPServer) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}

	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.listener = ln
	h.srv = &http.Server{
		Handler:           h.handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	srv := h.srv
	h.mu.Unlock()

	var eg errgroup.Group
	eg.Go(func() error {
		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	return eg.Wait()
}

// Addr returns the bound address once Start has begun listening.
func (h *HTTPServer) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.listener == nil {
		return h.addr
	}
	return h.listener.Addr().String()
}

// Stop shuts the server down. Called before Start, it keeps Start from
// serving at all.
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.mu.Lock()
	h.stopped = true
	srv := h.srv
	h.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
