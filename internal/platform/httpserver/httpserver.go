package httpserver

import (
	"net/http"
	"time"
)

// New builds the transfer API server. Timeouts are sized for mobile
// clients on slow rural connections: payloads are small (photo evidence
// travels as URL lists, not uploads) but headers and bodies can trickle.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
