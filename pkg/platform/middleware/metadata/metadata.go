// Package metadata carries per-request client metadata (address, user agent,
// request ID) through the context so audit events can record it without the
// grants knowing about HTTP.
package metadata

import (
	"context"
	"net"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{}

// Request is the metadata captured at the edge.
type Request struct {
	ID        string
	ClientIP  string
	UserAgent string
}

// ClientMetadata stores the Request for r in the context. It must run after
// the request ID middleware.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		md := Request{
			ID:        chimw.GetReqID(r.Context()),
			ClientIP:  ClientIPFromRequest(r),
			UserAgent: r.Header.Get("User-Agent"),
		}
		next.ServeHTTP(w, r.WithContext(WithRequest(r.Context(), md)))
	})
}

func WithRequest(ctx context.Context, md Request) context.Context {
	return context.WithValue(ctx, ctxKey{}, md)
}

// From returns the metadata stored by ClientMetadata, if any.
func From(ctx context.Context) (Request, bool) {
	md, ok := ctx.Value(ctxKey{}).(Request)
	return md, ok
}

// ClientIPFromRequest prefers the first X-Forwarded-For hop, then X-Real-IP,
// then the peer address.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
