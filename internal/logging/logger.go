// Package logging provides leveled operational logging and a JSONL run
// journal:
//   - A leveled slog.Logger for stderr
//   - A Journal that appends one JSON object per run lifecycle event
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

// LevelTrace is a custom slog level below Debug.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a level name to a slog.Level.
// Supported values: "error", "warn", "info", "debug", "trace"
// (case-insensitive). Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled text logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, handlerOptions(level)))
}

// NewJSONLogger is NewLogger with one JSON object per record.
func NewJSONLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, handlerOptions(level)))
}

// New picks the handler by format name ("json" or anything else for text).
func New(level, format string, w io.Writer) *slog.Logger {
	if strings.EqualFold(format, "json") {
		return NewJSONLogger(level, w)
	}
	return NewLogger(level, w)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func handlerOptions(level string) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
}

// Journal appends run lifecycle events to a JSONL file.
// It is safe for concurrent use. A nil Journal is safe to use; all methods
// are no-ops on a nil receiver.
type Journal struct {
	mu   sync.Mutex
	w    io.WriteCloser
	now  func() time.Time
	fail error
}

// OpenJournal opens dir/runs.jsonl for append, creating dir if needed.
func OpenJournal(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "runs.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return NewJournal(f), nil
}

// NewJournal wraps an open writer. The journal owns w and closes it on Close.
func NewJournal(w io.WriteCloser) *Journal {
	return &Journal{w: w, now: time.Now}
}

// Log writes event as a single JSON line with a "time" field added. The
// caller's map is not mutated. The first write error is kept and reported
// by Close.
func (j *Journal) Log(event map[string]any) {
	if j == nil {
		return
	}
	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w == nil {
		return
	}
	entry["time"] = j.now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		j.keep(err)
		return
	}
	data = append(data, '\n')
	if _, err := j.w.Write(data); err != nil {
		j.keep(err)
	}
}

func (j *Journal) keep(err error) {
	if j.fail == nil {
		j.fail = err
	}
}

// Close closes the underlying writer and returns the first error seen.
// Safe to call on a nil receiver and more than once.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w == nil {
		return j.fail
	}
	if err := j.w.Close(); err != nil {
		j.keep(err)
	}
	j.w = nil
	return j.fail
}
