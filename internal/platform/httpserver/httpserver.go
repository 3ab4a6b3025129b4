// Package httpserver constructs the registry's HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the server for the registry API. The registry only exchanges
// small JSON bodies, so the timeouts are tight: a client that stalls mid
// headers or sits idle is cut loose rather than pinning a connection.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
