package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(Meta{Source: "dump.bin", Device: "mlx5_0"}, zapcore.DebugLevel, &buf)

	l.Info("dump normalized", map[string]any{"words": 4})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}
	if entry["message"] != "dump normalized" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["source"] != "dump.bin" {
		t.Errorf("source = %v", entry["source"])
	}
	if entry["device"] != "mlx5_0" {
		t.Errorf("device = %v", entry["device"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["words"] != float64(4) {
		t.Errorf("fields = %v", entry["fields"])
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(Meta{}, zapcore.WarnLevel, &buf)

	l.Debug("hidden", nil)
	l.Info("hidden", nil)
	l.Warn("shown", nil)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("entries below warn were written: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn entry missing: %s", out)
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(Meta{}, zapcore.InfoLevel, &buf).With(map[string]any{"kind": "text"})
	l.Info("classified", nil)

	if !strings.Contains(buf.String(), `"kind":"text"`) {
		t.Errorf("child field missing: %s", buf.String())
	}
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger

	// Must not panic
	l.Debug("x", nil)
	l.Info("x", nil)
	l.Warn("x", nil)
	l.Error("x", nil)
	l.Sugar().Infof("x %d", 1)
	if l.With(map[string]any{"a": 1}) != nil {
		t.Error("With on nil logger should return nil")
	}
	if err := l.Sync(); err != nil {
		t.Errorf("Sync on nil logger: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"trace", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
