package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func withBuffer(t *testing.T, level LogLevel, format string) *bytes.Buffer {
	t.Helper()
	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Init(Config{Level: level, Writer: &buf, Format: format}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { _ = Close() })
	return &buf
}

func TestInit_RejectsSecondCall(t *testing.T) {
	withBuffer(t, LevelInfo, "text")

	if err := Init(Config{}); err == nil {
		t.Fatal("expected error on second Init")
	}
}

func TestGetLogger_LazyDefault(t *testing.T) {
	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	t.Cleanup(func() { _ = Close() })

	if GetLogger() == nil {
		t.Fatal("GetLogger returned nil before Init")
	}
}

func TestWithLock_AddsField(t *testing.T) {
	buf := withBuffer(t, LevelDebug, "text")

	WithLock("sessions").Debug("acquired", "mode", "read")

	out := buf.String()
	if !strings.Contains(out, "lock=sessions") {
		t.Errorf("expected lock field in %q", out)
	}
	if !strings.Contains(out, "mode=read") {
		t.Errorf("expected mode field in %q", out)
	}
}

func TestWithHandle_JSON(t *testing.T) {
	buf := withBuffer(t, LevelDebug, "json")

	WithHandle("orders", 7).Info("released")

	out := buf.String()
	if !strings.Contains(out, `"lock":"orders"`) || !strings.Contains(out, `"handle":7`) {
		t.Errorf("unexpected JSON output %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := withBuffer(t, LevelWarn, "text")

	Debug("hidden")
	Info("hidden too")
	WithContainer("set", "tags").Warn("shown")
	WithError(errors.New("boom")).Error("failed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug/info leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "container=set") || !strings.Contains(out, "error=boom") {
		t.Errorf("missing expected fields: %q", out)
	}
}
