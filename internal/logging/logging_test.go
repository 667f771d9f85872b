package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewSelectsHandler(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "debug", Format: "auto"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Debug("command committed", "operation", "add_site")
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("non-terminal auto output should be JSON: %v (%q)", err, buf.String())
	}
	if record["operation"] != "add_site" || record["level"] != "DEBUG" {
		t.Fatalf("unexpected record %v", record)
	}

	buf.Reset()
	logger, err = New(&buf, Options{Format: "text"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Debug("hidden")
	logger.Warn("command rejected", "kind", "not_found")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "kind=not_found") {
		t.Fatalf("unexpected text output %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"": slog.LevelInfo, "DEBUG": slog.LevelDebug, "warning": slog.LevelWarn, "error": slog.LevelError}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected unknown level error")
	}
	if _, err := New(&bytes.Buffer{}, Options{Format: "xml"}); err == nil {
		t.Fatalf("expected unknown format error")
	}
}
