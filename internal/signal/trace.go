package signal

import (
	"fmt"
	"sync"
)

// Trace collects debug lines produced while evaluating signals. A nil
// *Trace disables debug output; all methods are safe on nil.
type Trace struct {
	mu    sync.Mutex
	lines []string
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

// Enabled reports whether debug output is being collected.
func (t *Trace) Enabled() bool {
	return t != nil
}

// Printf appends a formatted line.
func (t *Trace) Printf(format string, args ...interface{}) {
	if t == nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	t.mu.Lock()
	t.lines = append(t.lines, line)
	t.mu.Unlock()
}

// Lines returns a copy of the collected lines.
func (t *Trace) Lines() []string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}
