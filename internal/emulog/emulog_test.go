package emulog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestHandlerFormatsMessageAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, false)
	logger.Info("trap fired", "flag", "SAZ", "pc", 2048)

	line := buf.String()
	if !strings.Contains(line, "INFO: trap fired") {
		t.Fatalf("missing level/message: %q", line)
	}
	if !strings.Contains(line, "flag=SAZ") || !strings.Contains(line, "pc=2048") {
		t.Fatalf("missing attrs: %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("expected a trailing newline: %q", line)
	}
}

func TestHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn, false)
	logger.Info("should be suppressed")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be suppressed") {
		t.Fatalf("info record was not filtered: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestHandlerDebugDuplicatesToWriterOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, true)
	logger.Info("one line")

	out := buf.String()
	if strings.Count(out, "one line") != 1 {
		t.Fatalf("expected the primary writer to receive exactly one copy, got %q", out)
	}
}
