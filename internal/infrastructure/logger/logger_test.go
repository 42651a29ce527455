package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestLogHTTPRequestCarriesRequestFields(t *testing.T) {
	l, logs := newObserved()

	l.WithRequestID("req-1").WithUserID("u-1").LogHTTPRequest("GET", "/api/v1/boards/b", "curl", "10.0.0.1", 200, 1.5, nil)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != zapcore.InfoLevel {
		t.Fatalf("expected info level, got %s", entry.Level)
	}
	fields := entry.ContextMap()
	if fields["request_id"] != "req-1" {
		t.Fatalf("expected request_id req-1, got %v", fields["request_id"])
	}
	if fields["user_id"] != "u-1" {
		t.Fatalf("expected user_id u-1, got %v", fields["user_id"])
	}
	if fields["status_code"] != int64(200) {
		t.Fatalf("expected status_code 200, got %v", fields["status_code"])
	}
}

func TestLogHTTPRequestFailure(t *testing.T) {
	l, logs := newObserved()

	l.WithRequestID("req-2").LogHTTPRequest("POST", "/api/v1/boards/b/drag", "curl", "10.0.0.1", 500, 3, errors.New("store down"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %s", entries[0].Level)
	}
	fields := entries[0].ContextMap()
	if fields["error"] != "store down" {
		t.Fatalf("expected error field %q, got %v", "store down", fields["error"])
	}
	if fields["request_id"] != "req-2" {
		t.Fatalf("expected request_id req-2, got %v", fields["request_id"])
	}
}
