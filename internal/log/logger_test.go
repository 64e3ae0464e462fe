package log

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentLedger, Output: &buf})

	logger.Info("recorded", FieldRemoved, 2)
	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "removed=2") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	logger.WithComponent(ComponentPersist).Debug("saved")
	if !strings.Contains(buf.String(), "component=persist") {
		t.Fatalf("component override missing: %s", buf.String())
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithOperation(OpRecord).WithGroup("2025-01-01T00:00:00.000Z", []string{"A"}).WithError(nil)
	if len(f.ToSlice()) != 6 {
		t.Fatalf("expected 3 pairs, got %v", f.ToSlice())
	}
	if _, ok := f[FieldError]; ok {
		t.Fatalf("nil error must not add a field")
	}
}

func TestMiddlewareLogsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Output: &buf})

	var seen *Logger
	h := Middleware(logger, func(*http.Request) string { return "req_1" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if seen == nil || seen.Component() != ComponentHTTP {
		t.Fatalf("request logger not in context")
	}
	out := buf.String()
	for _, want := range []string{"request_id=req_1", "path=/api/state", "status_code=418"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
}
