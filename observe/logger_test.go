package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestJSONLogger_WritesFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "request processed", F("mode", "hybrid"), F("duration_ms", 12.5))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e["level"] != "info" || e["msg"] != "request processed" {
		t.Errorf("level/msg = %v/%v", e["level"], e["msg"])
	}
	if e["mode"] != "hybrid" || e["duration_ms"] != 12.5 {
		t.Errorf("fields = %v", e)
	}
	if _, ok := e["timestamp"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestJSONLogger_WithAddsBaseFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerWithWriter("debug", &buf)
	scoped := base.With(F("component", "dispatch"))

	scoped.Debug(context.Background(), "scoped")
	base.Debug(context.Background(), "unscoped")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0]["component"] != "dispatch" {
		t.Errorf("scoped entry missing component: %v", entries[0])
	}
	if _, ok := entries[1]["component"]; ok {
		t.Errorf("With must not mutate the parent logger: %v", entries[1])
	}
}

func TestJSONLogger_RedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "call",
		F("content", "my private draft"),
		F("token", "eyJhbGciOi"),
		F("api_key", "sk-123"),
		F("kind", "completion"),
	)

	out := buf.String()
	for _, secret := range []string{"my private draft", "eyJhbGciOi", "sk-123"} {
		if strings.Contains(out, secret) {
			t.Errorf("log output leaked %q: %s", secret, out)
		}
	}
	if !strings.Contains(out, "completion") {
		t.Errorf("non-sensitive field missing: %s", out)
	}
}

func TestJSONLogger_ErrorValuesAreStrings(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerWithWriter("info", &buf).Error(context.Background(), "failed", F("error", errors.New("boom")))

	entries := decodeLines(t, &buf)
	if entries[0]["error"] != "boom" {
		t.Errorf("error field = %v, want boom", entries[0]["error"])
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  int
	}{
		{"debug", 4},
		{"info", 3},
		{"warn", 2},
		{"error", 1},
	}
	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(tc.level, &buf)
			ctx := context.Background()
			logger.Debug(ctx, "d")
			logger.Info(ctx, "i")
			logger.Warn(ctx, "w")
			logger.Error(ctx, "e")

			if got := len(decodeLines(t, &buf)); got != tc.want {
				t.Errorf("entries = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug": LevelDebug,
		"info":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
		"":      LevelInfo,
		"loud":  LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestZapLogger_WritesJSONAndRedacts(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZapLogger("info", &buf).With(F("service", "modeflow"))

	logger.Debug(context.Background(), "dropped")
	logger.Warn(context.Background(), "slow request", F("duration_ms", 1500), F("content", "secret text"))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1: %s", len(entries), buf.String())
	}
	e := entries[0]
	if e["msg"] != "slow request" || e["level"] != "warn" {
		t.Errorf("msg/level = %v/%v", e["msg"], e["level"])
	}
	if e["service"] != "modeflow" {
		t.Errorf("With field missing: %v", e)
	}
	if e["content"] != redactedValue {
		t.Errorf("content = %v, want redacted", e["content"])
	}
}

func TestZapLogger_NilFallsBackToNop(t *testing.T) {
	ZapLogger(nil).Info(context.Background(), "ignored")
}

func TestNewLoggerFromConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, closeFn, err := NewLoggerFromConfig(LoggingConfig{Enabled: true, Level: "info", File: path})
	if err != nil {
		t.Fatalf("NewLoggerFromConfig() error = %v", err)
	}

	logger.Info(context.Background(), "to file", F("mode", "manual"))
	if err := closeFn(); err != nil {
		t.Fatalf("close error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file content = %q", data)
	}
}
