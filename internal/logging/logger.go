// Package logging provides leveled logging and step tracing for beliefsim.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - An EventLogger for structured JSONL step traces (<output>/steps.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug. At this level every agent
// update of every step is logged.
const LevelTrace = slog.LevelDebug - 4

// EventsFile is the name of the JSONL trace written by EventLogger.
const EventsFile = "steps.jsonl"

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// ValidLevel reports whether s names a supported level.
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "", "info", "debug", "trace":
		return true
	}
	return false
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}

// StepEvent is one completed simulation step.
type StepEvent struct {
	RunID          string             `json:"run_id"`
	Step           int                `json:"step"`
	Phase          string             `json:"phase"`
	Rate           float64            `json:"rate"`
	Trust          *float64           `json:"trust,omitempty"`
	Mean           float64            `json:"mean"`
	GroupMeans     map[string]float64 `json:"group_means"`
	Corrections    int                `json:"corrections"`
	Misinformation int                `json:"misinformation"`
	Silent         int                `json:"silent"`
}

// SweepPointEvent is one finished trust-sweep point.
type SweepPointEvent struct {
	RunID       string  `json:"run_id"`
	SweepID     string  `json:"sweep_id"`
	Trust       float64 `json:"trust"`
	FinalBelief float64 `json:"final_belief"`
}

// EventLogger writes structured simulation events to a JSONL file.
// It is safe for concurrent use. A nil EventLogger is safe to use;
// all methods are no-ops on nil receiver.
type EventLogger struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewEventLogger creates an event logger writing to dir/steps.jsonl.
// At "info" level (the default), returns nil and no file is created.
// At "debug" or "trace" level, the file is opened for append.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func NewEventLogger(dir string, level string) *EventLogger {
	if ParseLevel(level) == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, EventsFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &EventLogger{file: f, path: path}
}

// Path returns the trace file path, or "" on a nil logger.
func (el *EventLogger) Path() string {
	if el == nil {
		return ""
	}
	return el.path
}

// LogStep records a completed step.
func (el *EventLogger) LogStep(ev StepEvent) {
	el.write("step", ev)
}

// LogSweepPoint records a finished sweep point.
func (el *EventLogger) LogSweepPoint(ev SweepPointEvent) {
	el.write("sweep_point", ev)
}

func (el *EventLogger) write(kind string, payload any) {
	if el == nil {
		return
	}
	el.writeLine(struct {
		Time  string `json:"time"`
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{
		Time:  time.Now().UTC().Format(time.RFC3339Nano),
		Event: kind,
		Data:  payload,
	})
}

func (el *EventLogger) writeLine(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	data = append(data, '\n')

	el.mu.Lock()
	defer el.mu.Unlock()
	if el.file == nil {
		return
	}
	_, _ = el.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (el *EventLogger) Close() {
	if el == nil {
		return
	}

	el.mu.Lock()
	defer el.mu.Unlock()

	if el.file != nil {
		el.file.Close()
		el.file = nil
	}
}
