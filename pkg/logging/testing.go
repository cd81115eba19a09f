package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// TestLogger captures structured log output so tests can assert on the
// fields connectors and the aggregator emit.
type TestLogger struct {
	*zerolog.Logger
	buf *syncBuffer
}

// syncBuffer lets concurrent connector goroutines share one capture.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewTestLogger creates a trace-level JSON logger writing to memory.
func NewTestLogger(t testing.TB) *TestLogger {
	t.Helper()

	buf := &syncBuffer{}
	oldLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(oldLevel)
	})

	logger := zerolog.New(buf).Level(zerolog.TraceLevel).With().Timestamp().Logger()
	return &TestLogger{Logger: &logger, buf: buf}
}

// Output returns the raw captured output.
func (tl *TestLogger) Output() string {
	return tl.buf.String()
}

// Contains reports whether the raw output contains substr.
func (tl *TestLogger) Contains(substr string) bool {
	return strings.Contains(tl.Output(), substr)
}

// AssertContains fails t when the raw output lacks substr.
func (tl *TestLogger) AssertContains(t testing.TB, substr string) {
	t.Helper()
	if !tl.Contains(substr) {
		t.Errorf("log output does not contain %q\noutput:\n%s", substr, tl.Output())
	}
}

// Entries decodes every captured line. Lines that are not JSON are skipped.
func (tl *TestLogger) Entries() []map[string]any {
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(tl.Output()), "\n") {
		var e map[string]any
		if json.Unmarshal([]byte(line), &e) == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

// Find returns the entries whose fields include every key/value in want.
// Values are compared by their printed form, so 2 matches "2".
func (tl *TestLogger) Find(want map[string]any) []map[string]any {
	var out []map[string]any
	for _, e := range tl.Entries() {
		if matches(e, want) {
			out = append(out, e)
		}
	}
	return out
}

// AssertEntry fails t unless some entry carries every field in want.
func (tl *TestLogger) AssertEntry(t testing.TB, want map[string]any) {
	t.Helper()
	if len(tl.Find(want)) == 0 {
		t.Errorf("no log entry with fields %v\noutput:\n%s", want, tl.Output())
	}
}

// Stages returns the "stage" values logged for city, in order.
func (tl *TestLogger) Stages(city string) []string {
	var stages []string
	for _, e := range tl.Find(map[string]any{"city": city}) {
		if s, ok := e["stage"].(string); ok {
			stages = append(stages, s)
		}
	}
	return stages
}

func matches(entry, want map[string]any) bool {
	for k, v := range want {
		got, ok := entry[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

// NewNopLogger creates a logger that discards all output.
func NewNopLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// CaptureLoggingForTest installs a TestLogger as the default logger until
// the test ends.
func CaptureLoggingForTest(t testing.TB) *TestLogger {
	t.Helper()

	original := Default()
	testLogger := NewTestLogger(t)
	SetDefault(*testLogger.Logger)
	t.Cleanup(func() {
		SetDefault(*original)
	})
	return testLogger
}
