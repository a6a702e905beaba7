package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbooks/pkg/requestcontext"
)

func capture(t *testing.T, prepare func(*http.Request)) (values captured, header http.Header) {
	t.Helper()

	var got captured
	handler := Capture(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestTime, hasTime := requestcontext.Time(r.Context())
		got = captured{
			requestID:   requestcontext.RequestID(r.Context()),
			actorID:     requestcontext.ActorID(r.Context()),
			teamID:      requestcontext.TeamID(r.Context()),
			clientIP:    requestcontext.ClientIP(r.Context()),
			userAgent:   requestcontext.UserAgent(r.Context()),
			requestTime: requestTime,
			hasTime:     hasTime,
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	prepare(req)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return got, rec.Header()
}

type captured struct {
	requestID   string
	actorID     string
	teamID      string
	clientIP    string
	userAgent   string
	requestTime time.Time
	hasTime     bool
}

func TestCapture(t *testing.T) {
	t.Run("propagates trusted headers into the context", func(t *testing.T) {
		got, header := capture(t, func(r *http.Request) {
			r.Header.Set("X-Request-ID", "req-42")
			r.Header.Set("X-Actor-ID", "user-1")
			r.Header.Set("X-Team-ID", "team-9")
		})

		assert.Equal(t, "req-42", got.requestID)
		assert.Equal(t, "user-1", got.actorID)
		assert.Equal(t, "team-9", got.teamID)
		assert.Equal(t, "req-42", header.Get("X-Request-ID"))
	})

	t.Run("generates a request ID when none arrives", func(t *testing.T) {
		got, header := capture(t, func(*http.Request) {})
		require.NotEmpty(t, got.requestID)
		assert.Equal(t, got.requestID, header.Get("X-Request-ID"))
	})

	t.Run("prefers forwarded client addresses", func(t *testing.T) {
		got, _ := capture(t, func(r *http.Request) {
			r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
			r.Header.Set("X-Real-IP", "10.0.0.1")
		})
		assert.Equal(t, "203.0.113.7", got.clientIP)
	})

	t.Run("falls back to the remote address", func(t *testing.T) {
		got, _ := capture(t, func(*http.Request) {})
		assert.NotEmpty(t, got.clientIP)
	})

	t.Run("stamps a request time", func(t *testing.T) {
		got, _ := capture(t, func(*http.Request) {})
		require.True(t, got.hasTime)
		assert.WithinDuration(t, time.Now(), got.requestTime, time.Minute)
	})
}

func TestNormalizeUserAgent(t *testing.T) {
	t.Run("empty stays empty", func(t *testing.T) {
		assert.Empty(t, normalizeUserAgent(""))
	})

	t.Run("browser string is condensed", func(t *testing.T) {
		raw := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
		assert.Equal(t, "Chrome 120.0.0.0 (Windows 10)", normalizeUserAgent(raw))
	})

	t.Run("tool identifiers survive", func(t *testing.T) {
		assert.Contains(t, normalizeUserAgent("curl/8.5.0"), "curl")
	})
}
