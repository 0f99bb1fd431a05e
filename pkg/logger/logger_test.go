package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gopkg.in/natefinch/lumberjack.v2"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expect    slog.Level
		expectErr bool
	}{
		{"debug", "debug", slog.LevelDebug, false},
		{"default-info", "", slog.LevelInfo, false},
		{"warn", "warn", slog.LevelWarn, false},
		{"warning", "WARNING", slog.LevelWarn, false},
		{"error", "error", slog.LevelError, false},
		{"invalid", "verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := levelFromString(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error for input %q", tt.input)
				}
				if !strings.Contains(err.Error(), "invalid log level") {
					t.Fatalf("unexpected error message: %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if level != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, level)
			}
		})
	}
}

func TestNewWithWriterFormats(t *testing.T) {
	t.Run("json in production", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := NewWithWriter(Config{Level: "info", Environment: "production"}, &buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		l.Info("hello", "k", "v")

		var record map[string]any
		if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
		}
		if record["msg"] != "hello" || record["k"] != "v" {
			t.Fatalf("unexpected record: %v", record)
		}
	})

	t.Run("text for console", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := NewWithWriter(Config{Level: "debug", Format: "console"}, &buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		l.Debug("hello")
		if !strings.Contains(buf.String(), "msg=hello") {
			t.Fatalf("expected text output, got %q", buf.String())
		}
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		l, _ := NewWithWriter(Config{Level: "warn"}, &buf)
		l.Info("dropped")
		if buf.Len() != 0 {
			t.Fatalf("info should be filtered at warn level, got %q", buf.String())
		}
	})
}

func TestOutputUsesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	w := output(Config{File: path, MaxBackups: 3})

	lj, ok := w.(*lumberjack.Logger)
	if !ok {
		t.Fatalf("expected *lumberjack.Logger, got %T", w)
	}
	defer lj.Close()

	if lj.Filename != path || lj.MaxSize != 100 || lj.MaxBackups != 3 {
		t.Fatalf("unexpected lumberjack settings: %+v", lj)
	}
}

func TestLogTranscription(t *testing.T) {
	var buf bytes.Buffer
	l, _ := NewWithWriter(Config{Format: "json"}, &buf)

	LogTranscription(l, "go-whisper", "a.wav", 10, 5, "WHISPER_HTTP_ERROR")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if record["level"] != "ERROR" || record["error_code"] != "WHISPER_HTTP_ERROR" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestInitAndL(t *testing.T) {
	t.Cleanup(func() {
		// reset singleton for other tests
		once = sync.Once{}
		global = nil
	})

	logger, err := Init(Config{Level: "debug", Environment: "dev", WithSource: true})
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}

	if logger == nil {
		t.Fatalf("Init returned nil logger")
	}

	if L() != logger {
		t.Fatalf("L did not return initialized logger")
	}

	// second init should return same instance without error
	logger2, err := Init(Config{Level: "info", Environment: "prod"})
	if err != nil {
		t.Fatalf("unexpected error on second init: %v", err)
	}
	if logger2 != logger {
		t.Fatalf("expected same logger instance on re-init")
	}
}
