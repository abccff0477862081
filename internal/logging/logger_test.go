package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"mixed case Trace", "Trace", LevelTrace},
		{"unknown defaults to info", "verbose", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	for _, s := range []string{"", "info", "DEBUG", "trace"} {
		if !ValidLevel(s) {
			t.Errorf("ValidLevel(%q) = false, want true", s)
		}
	}
	if ValidLevel("warn") {
		t.Error("ValidLevel(\"warn\") = true, want false")
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtTrace bool
		logAtDebug bool
	}{
		{"info filters debug", "info", false, false},
		{"debug passes debug", "debug", false, true},
		{"trace passes trace", "trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Log(t.Context(), LevelTrace, "trace message")
			if got := strings.Contains(buf.String(), "trace message"); got != tt.logAtTrace {
				t.Errorf("trace message visible = %v, want %v (buf: %q)", got, tt.logAtTrace, buf.String())
			}

			buf.Reset()
			logger.Debug("debug message")
			if got := strings.Contains(buf.String(), "debug message"); got != tt.logAtDebug {
				t.Errorf("debug message visible = %v, want %v (buf: %q)", got, tt.logAtDebug, buf.String())
			}
		})
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("trace", &buf).Log(t.Context(), LevelTrace, "agent update")
	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected level=TRACE in %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger.Enabled(t.Context(), slog.LevelError) {
		t.Error("Discard logger should not be enabled at error level")
	}
}

func TestNewEventLogger_InfoLevel(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLogger(dir, "info")
	if el != nil {
		t.Error("expected nil EventLogger at info level")
	}

	// Nil logger is still usable.
	el.LogStep(StepEvent{Step: 1})
	el.LogSweepPoint(SweepPointEvent{Trust: 0.5})
	if el.Path() != "" {
		t.Errorf("Path() on nil = %q, want empty", el.Path())
	}

	if _, err := os.Stat(filepath.Join(dir, EventsFile)); err == nil {
		t.Errorf("%s should not exist at info level", EventsFile)
	}
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("parse line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestEventLogger_LogStep(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLogger(dir, "debug")
	if el == nil {
		t.Fatal("expected non-nil EventLogger at debug level")
	}
	defer el.Close()

	el.LogStep(StepEvent{
		RunID:      "run-1",
		Step:       30,
		Phase:      "correction-boost",
		Rate:       0.1,
		Mean:       0.52,
		GroupMeans: map[string]float64{"female": 0.5, "male": 0.54},
	})
	el.LogSweepPoint(SweepPointEvent{RunID: "run-2", SweepID: "sweep-1", Trust: 0.3, FinalBelief: 0.61})

	lines := readLines(t, el.Path())
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	step := lines[0]
	if step["event"] != "step" {
		t.Errorf("event = %v, want step", step["event"])
	}
	if _, ok := step["time"]; !ok {
		t.Error("expected time field")
	}
	data, ok := step["data"].(map[string]any)
	if !ok {
		t.Fatalf("data = %T, want object", step["data"])
	}
	if data["phase"] != "correction-boost" || data["step"] != 30.0 || data["rate"] != 0.1 {
		t.Errorf("unexpected step payload: %v", data)
	}
	if _, ok := data["trust"]; ok {
		t.Error("trust should be omitted when unset")
	}

	if lines[1]["event"] != "sweep_point" {
		t.Errorf("event = %v, want sweep_point", lines[1]["event"])
	}
}

func TestEventLogger_Appends(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		el := NewEventLogger(dir, "debug")
		el.LogStep(StepEvent{Step: i})
		el.Close()
	}
	if lines := readLines(t, filepath.Join(dir, EventsFile)); len(lines) != 2 {
		t.Errorf("got %d lines across reopen, want 2", len(lines))
	}
}

func TestEventLogger_LogAfterClose(t *testing.T) {
	el := NewEventLogger(t.TempDir(), "debug")
	el.Close()
	el.LogStep(StepEvent{Step: 1})
	el.Close()
}

func TestNewEventLogger_CreatesDirWithPrivatePermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "run")
	el := NewEventLogger(dir, "debug")
	if el == nil {
		t.Fatal("expected non-nil EventLogger when dir needs creation")
	}
	defer el.Close()
	el.LogStep(StepEvent{Step: 0})

	info, err := os.Stat(filepath.Join(dir, EventsFile))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}
