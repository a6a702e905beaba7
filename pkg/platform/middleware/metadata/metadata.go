// Package metadata captures request-scoped client context (IP, user agent,
// correlation ID, acting principal) so downstream services read it from the
// context instead of the request.
package metadata

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"finbooks/pkg/requestcontext"
)

// Capture is the outermost middleware for every route. Authentication happens
// upstream at the gateway; the resolved principal arrives in trusted headers.
func Capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)

		if actorID := r.Header.Get("X-Actor-ID"); actorID != "" {
			ctx = requestcontext.WithActorID(ctx, actorID)
		}
		if teamID := r.Header.Get("X-Team-ID"); teamID != "" {
			ctx = requestcontext.WithTeamID(ctx, teamID)
		}

		ctx = requestcontext.WithClientMetadata(ctx, clientIP(r), normalizeUserAgent(r.UserAgent()))

		// One timestamp per request, so everything audited inside it agrees.
		ctx = requestcontext.WithTime(ctx, time.Now().UTC())

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP resolves the original client address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		return strings.TrimSpace(ips[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// normalizeUserAgent reduces a raw User-Agent to "Browser x.y (OS)" so audit
// records stay readable without storing the whole string.
func normalizeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	var b strings.Builder
	b.WriteString(name)
	if version != "" {
		b.WriteString(" " + version)
	}
	if os := ua.OS(); os != "" {
		b.WriteString(" (" + os + ")")
	}
	return b.String()
}
