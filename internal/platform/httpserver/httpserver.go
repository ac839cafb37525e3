// Package httpserver builds the engine's HTTP listener.
package httpserver

import (
	"net/http"
	"time"
)

// New returns the command API server with bounded timeouts. Writes get a wider
// window than reads since claim and sale commands cross into postgres.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
