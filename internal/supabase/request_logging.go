package supabase

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingTransport logs one line per request. The service key is never logged.
type loggingTransport struct {
	next http.RoundTripper
}

func (t loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}

	start := time.Now()
	resp, err := next.RoundTrip(req)

	fields := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	log := slog.Default().With("component", "supabase")
	if err != nil {
		log.Warn("request failed", append(fields, "err", err)...)
		return resp, err
	}

	fields = append(fields, "status", resp.StatusCode)
	switch {
	case resp.StatusCode >= 500:
		log.Error("request complete", fields...)
	case resp.StatusCode >= 400:
		log.Warn("request complete", fields...)
	default:
		log.Debug("request complete", fields...)
	}
	return resp, nil
}
