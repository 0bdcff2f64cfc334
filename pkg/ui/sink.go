package ui

import (
	"fmt"
	"os"
	"sync"

	"github.com/parascan/parascan/pkg/finding"
)

var _ finding.Sink = (*StreamSink)(nil)

// StreamSink prints each finding to stdout the moment it is confirmed,
// one styled line per finding. It prints in silent mode too: silent
// suppresses the banner and summaries, not the findings themselves.
type StreamSink struct {
	mu sync.Mutex
}

// NewStreamSink returns a console finding stream.
func NewStreamSink() *StreamSink { return &StreamSink{} }

// Emit implements finding.Sink.
func (s *StreamSink) Emit(f finding.Finding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(os.Stdout, FormatFinding(f))
	return nil
}

// Close implements finding.Sink.
func (*StreamSink) Close() error { return nil }
