package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// BufferedLogHandler implements slog.Handler and keeps records in memory as
// JSON lines. Tests install it to assert on what a stage logged:
//
//	handler := logging.NewBufferedLogHandler(nil)
//	logging.SetLogger(slog.New(handler))
//	defer logging.SetLogger(nil)
//
//	// ... assemble a document ...
//
//	if handler.Count("skipped table") != 1 { ... }
type BufferedLogHandler struct {
	level      slog.Leveler
	state      *bufferState
	preAttrs   []slog.Attr
	groupNames []string
}

// bufferState is shared by a handler and every handler derived from it.
type bufferState struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

// NewBufferedLogHandler creates a handler with an empty buffer. A nil opts
// captures every level.
func NewBufferedLogHandler(opts *slog.HandlerOptions) *BufferedLogHandler {
	h := &BufferedLogHandler{state: &bufferState{}}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func (h *BufferedLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.level == nil {
		return true
	}
	return level >= h.level.Level()
}

func (h *BufferedLogHandler) Handle(_ context.Context, r slog.Record) error {
	entry := logEntry{
		Level:    r.Level.String(),
		Message:  r.Message,
		DateTime: r.Time.Format(time.DateTime),
	}
	for _, attr := range h.preAttrs {
		entry.Attrs = append(entry.Attrs, h.prefixedAttr(attr))
	}
	r.Attrs(func(attr slog.Attr) bool {
		entry.Attrs = append(entry.Attrs, h.prefixedAttr(attr))
		return true
	})

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	h.state.buffer.Write(data)
	h.state.buffer.WriteByte('\n')
	return nil
}

func (h *BufferedLogHandler) prefixedAttr(attr slog.Attr) string {
	if len(h.groupNames) == 0 {
		return attr.String()
	}
	return strings.Join(h.groupNames, ".") + "." + attr.String()
}

func (h *BufferedLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, 0, len(h.preAttrs)+len(attrs))
	newAttrs = append(newAttrs, h.preAttrs...)
	newAttrs = append(newAttrs, attrs...)
	return &BufferedLogHandler{
		level:      h.level,
		state:      h.state,
		preAttrs:   newAttrs,
		groupNames: h.groupNames,
	}
}

func (h *BufferedLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, 0, len(h.groupNames)+1)
	newGroups = append(newGroups, h.groupNames...)
	newGroups = append(newGroups, name)
	return &BufferedLogHandler{
		level:      h.level,
		state:      h.state,
		preAttrs:   h.preAttrs,
		groupNames: newGroups,
	}
}

// String returns everything captured so far.
func (h *BufferedLogHandler) String() string {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	return h.state.buffer.String()
}

// Reset clears the buffer.
func (h *BufferedLogHandler) Reset() {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	h.state.buffer.Reset()
}

// Contains reports whether the captured output contains s.
func (h *BufferedLogHandler) Contains(s string) bool {
	return strings.Contains(h.String(), s)
}

// Count returns how many captured records have the given message.
func (h *BufferedLogHandler) Count(message string) int {
	n := 0
	for _, line := range strings.Split(strings.TrimSpace(h.String()), "\n") {
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil && e.Message == message {
			n++
		}
	}
	return n
}

type logEntry struct {
	Level    string   `json:"level"`
	Message  string   `json:"message"`
	DateTime string   `json:"datetime"`
	Attrs    []string `json:"attrs,omitempty"`
}
