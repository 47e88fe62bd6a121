// Package httpserver constructs the http.Server the binary listens on.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server for addr. ReadHeaderTimeout is set so a client that
// stalls mid-headers cannot hold a connection open indefinitely.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
