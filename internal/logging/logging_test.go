package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// capture installs a debug JSON logger writing to a buffer for the rest of
// the test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Init(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf})
	t.Cleanup(func() { Init(Config{Level: LevelInfo}) })
	return &buf
}

// lines decodes every JSON log line in buf.
func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("log line %q is not JSON: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func only(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	got := lines(t, buf)
	if len(got) != 1 {
		t.Fatalf("got %d log lines, want 1:\n%s", len(got), buf.String())
	}
	return got[0]
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"", LevelInfo, true},
		{" warn ", LevelWarn, true},
		{"warning", LevelWarn, true},
		{"error", LevelError, true},
		{"verbose", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"json", FormatJSON, true},
		{"", FormatJSON, true},
		{"Text", FormatText, true},
		{"xml", FormatJSON, false},
	}
	for _, tt := range tests {
		got, ok := ParseFormat(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseFormat(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Output: &buf})
	l.Info("parsed", "work", "gleanings")
	l.Warn("count mismatch", "work", "gleanings")

	got := lines(t, &buf)
	if len(got) != 1 || got[0]["msg"] != "count mismatch" {
		t.Errorf("lines = %v, want only the warning", got)
	}
}

func TestNewTimestampIsRFC3339(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Output: &buf}).Info("hello")

	m := only(t, &buf)
	ts, _ := m["time"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time = %q, not RFC3339: %v", ts, err)
	}
	if !strings.HasSuffix(ts, "Z") {
		t.Errorf("time = %q, want UTC", ts)
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Format: FormatText, Output: &buf}).Info("loaded", "work", "cdb")
	if got := buf.String(); !strings.Contains(got, "msg=loaded") || !strings.Contains(got, "work=cdb") {
		t.Errorf("text output = %q", got)
	}
}

func TestRequestIDContext(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID(empty) = %q, want empty", got)
	}
	ctx := WithRequestID(context.Background(), "req-42")
	if got := GetRequestID(ctx); got != "req-42" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-42")
	}

	buf := capture(t)
	InfoContext(ctx, "search", "query", "remover")
	m := only(t, buf)
	if m["request_id"] != "req-42" || m["query"] != "remover" {
		t.Errorf("log line = %v", m)
	}
}

func TestPackageHelpers(t *testing.T) {
	buf := capture(t)
	Debug("d")
	Info("i")
	Warn("w")
	Error("e")
	ErrorContext(context.Background(), "ec")

	want := []struct{ msg, level string }{
		{"d", "DEBUG"}, {"i", "INFO"}, {"w", "WARN"}, {"e", "ERROR"}, {"ec", "ERROR"},
	}
	got := lines(t, buf)
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i]["msg"] != w.msg || got[i]["level"] != w.level {
			t.Errorf("line %d = %v, want msg %q level %q", i, got[i], w.msg, w.level)
		}
	}
}

func TestHTTPRequest(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "INFO"},
		{http.StatusServiceUnavailable, "ERROR"},
	}
	for _, tt := range tests {
		buf := capture(t)
		ctx := WithRequestID(context.Background(), "abc")
		HTTPRequest(ctx, "GET", "/ref/g2", tt.status, 1500*time.Millisecond, "bytes", 12)

		m := only(t, buf)
		if m["level"] != tt.level {
			t.Errorf("status %d: level = %v, want %s", tt.status, m["level"], tt.level)
		}
		if m["msg"] != "http_request" || m["status_code"] != float64(tt.status) ||
			m["duration_ms"] != float64(1500) || m["bytes"] != float64(12) || m["request_id"] != "abc" {
			t.Errorf("status %d: log line = %v", tt.status, m)
		}
	}
}

func TestEventHelpers(t *testing.T) {
	tests := []struct {
		name   string
		log    func()
		msg    string
		level  string
		fields map[string]any
	}{
		{
			name:   "extraction",
			log:    func() { ExtractionEvent("gleanings", 3, 20*time.Millisecond) },
			msg:    "extraction",
			level:  "INFO",
			fields: map[string]any{"work": "gleanings", "records": float64(3), "duration_ms": float64(20)},
		},
		{
			name:   "extraction error",
			log:    func() { ExtractionError("cdb", errors.New("no subtitle"), "ref_id", "c3") },
			msg:    "extraction_error",
			level:  "ERROR",
			fields: map[string]any{"work": "cdb", "error": "no subtitle", "ref_id": "c3"},
		},
		{
			name:   "update",
			log:    func() { UpdateEvent("prayers", "changed", "added", 2) },
			msg:    "snapshot_update",
			level:  "INFO",
			fields: map[string]any{"work": "prayers", "status": "changed", "added": float64(2)},
		},
		{
			name:   "websocket",
			log:    func() { WebSocketEvent("connect", 4) },
			msg:    "websocket_event",
			level:  "INFO",
			fields: map[string]any{"event": "connect", "client_count": float64(4)},
		},
		{
			name:   "startup",
			log:    func() { ServerStartup("api", "http", 8080, "host", "localhost") },
			msg:    "server_startup",
			level:  "INFO",
			fields: map[string]any{"server_type": "api", "protocol": "http", "port": float64(8080), "host": "localhost"},
		},
		{
			name:   "security",
			log:    func() { SecurityEvent("rate_limited", "api", "ip", "10.0.0.1") },
			msg:    "security_event",
			level:  "WARN",
			fields: map[string]any{"event": "rate_limited", "component": "api", "ip": "10.0.0.1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t)
			tt.log()
			m := only(t, buf)
			if m["msg"] != tt.msg || m["level"] != tt.level {
				t.Errorf("msg, level = %v, %v, want %s, %s", m["msg"], m["level"], tt.msg, tt.level)
			}
			for k, v := range tt.fields {
				if m[k] != v {
					t.Errorf("%s = %v (%T), want %v", k, m[k], m[k], v)
				}
			}
		})
	}
}

func TestValidRequestID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"abc-123", true},
		{"trace_1.2", true},
		{uuid.NewString(), true},
		{"", false},
		{"has space", false},
		{"line\nbreak", false},
		{strings.Repeat("a", maxRequestIDLen), true},
		{strings.Repeat("a", maxRequestIDLen+1), false},
	}
	for _, tt := range tests {
		if got := validRequestID(tt.id); got != tt.want {
			t.Errorf("validRequestID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated", "", false},
		{"kept", "client-7", true},
		{"replaced", "bad id\r\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/gleanings", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			header := w.Header().Get(RequestIDHeader)
			if header != seen {
				t.Errorf("header %q != context %q", header, seen)
			}
			if tt.keep {
				if seen != tt.incoming {
					t.Errorf("request id = %q, want %q", seen, tt.incoming)
				}
				return
			}
			if _, err := uuid.Parse(seen); err != nil {
				t.Errorf("request id %q is not a UUID: %v", seen, err)
			}
		})
	}
}

func TestCombinedMiddleware(t *testing.T) {
	buf := capture(t)
	h := CombinedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello"))
	}))
	req := httptest.NewRequest(http.MethodPost, "/search", nil)
	req.Header.Set(RequestIDHeader, "r1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTeapot)
	}
	m := only(t, buf)
	if m["method"] != "POST" || m["path"] != "/search" || m["status_code"] != float64(http.StatusTeapot) {
		t.Errorf("log line = %v", m)
	}
	if m["bytes"] != float64(5) || m["request_id"] != "r1" {
		t.Errorf("bytes, request_id = %v, %v", m["bytes"], m["request_id"])
	}
}

func TestLoggingMiddlewareDefaultsToOK(t *testing.T) {
	buf := capture(t)
	h := LoggingMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if m := only(t, buf); m["status_code"] != float64(http.StatusOK) {
		t.Errorf("status_code = %v, want 200", m["status_code"])
	}
}

func TestResponseWriterHijackUnsupported(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	if _, _, err := rw.Hijack(); err == nil {
		t.Error("Hijack() on a recorder should fail")
	}
	if rw.status != 0 {
		t.Errorf("status = %d after a failed hijack, want 0", rw.status)
	}
	if rw.Unwrap() == nil {
		t.Error("Unwrap() returned nil")
	}
}
