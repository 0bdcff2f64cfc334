package output

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/parascan/parascan/pkg/jsonutil"
)

// Compile-time interface check.
var _ Hook = (*JSONLWriter)(nil)

// JSONLWriter appends findings to a file as one JSON object per line.
// The format is append-friendly so interrupted scans keep every
// finding emitted before cancellation.
type JSONLWriter struct {
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	path string
}

// NewJSONLWriter opens (or creates) the findings file for appending.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open findings file: %w", err)
	}
	return &JSONLWriter{f: f, w: bufio.NewWriter(f), path: path}, nil
}

// Path returns the output file path.
func (j *JSONLWriter) Path() string { return j.path }

// EventTypes implements Hook; only findings are written.
func (*JSONLWriter) EventTypes() []EventType {
	return []EventType{EventTypeFinding}
}

// OnEvent implements Hook.
func (j *JSONLWriter) OnEvent(_ context.Context, event Event) error {
	e, ok := event.(*FindingEvent)
	if !ok {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return nil
	}
	if err := jsonutil.MarshalWrite(j.w, e.Finding); err != nil {
		return fmt.Errorf("write finding: %w", err)
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write finding: %w", err)
	}
	// Flush per finding so a crash loses nothing.
	return j.w.Flush()
}

// Close flushes and closes the file.
func (j *JSONLWriter) Close(context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return nil
	}
	if err := j.w.Flush(); err != nil {
		j.f.Close()
		j.f = nil
		return err
	}
	err := j.f.Close()
	j.f = nil
	return err
}
