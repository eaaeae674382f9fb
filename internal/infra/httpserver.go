package infra

import (
	"context"
	"net/http"
	"time"
)

// HTTPServer hosts the trigger surface. Stage triggers do their external work
// inside the request, so the write timeout must outlast the slowest stage
// rather than a typical API response.
type HTTPServer struct {
	server *http.Server
}

type HTTPServerOptions struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func NewHTTPServer(opts HTTPServerOptions, handler http.Handler) *HTTPServer {
	return &HTTPServer{server: &http.Server{
		Addr:              ":" + opts.Port,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
	}}
}

// Start blocks serving requests until Shutdown is called or the listener
// fails. Returns http.ErrServerClosed after a clean shutdown.
func (s *HTTPServer) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests, bounded by ctx. In-flight stage
// invocations finish recording their job state before the process exits.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
