// Package httpserver builds the http.Server with gateway-wide timeouts so
// main stays declarative.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server with sane production timeouts. Write is generous
// because passport uploads and upstream relays ride the same server.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
