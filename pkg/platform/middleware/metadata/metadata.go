// Package metadata captures per-request metadata into the context: request
// id, request time, client ip, device fingerprint, and app version. The
// fingerprint and ip feed fraud prevention data; the request id correlates
// logs and audit entries.
package metadata

import (
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fowlgate/pkg/requestcontext"
)

const (
	headerRequestID         = "X-Request-Id"
	headerDeviceFingerprint = "X-Device-Fingerprint"
	headerAppVersion        = "X-App-Version"
)

// Capture installs request metadata into the context. Mount it before any
// handler that logs, audits, or generates fraud prevention data.
func Capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		ctx = requestcontext.WithClientIP(ctx, clientIP(r))

		if fp := r.Header.Get(headerDeviceFingerprint); fp != "" {
			ctx = requestcontext.WithDeviceFingerprint(ctx, fp)
		}
		if v := r.Header.Get(headerAppVersion); v != "" {
			ctx = requestcontext.WithAppVersion(ctx, v)
		}

		w.Header().Set(headerRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
