package records

import (
	"bufio"
	"fmt"
	"io"

	"mad-dla/internal/sims/dla"
)

// DefaultSummaryEvery is the particle count interval between summary lines.
const DefaultSummaryEvery = 100

// Summary writes "{count} {clusterRadius}" whenever the held particle count,
// seed included, reaches a multiple of its interval.
type Summary struct {
	w      *bufio.Writer
	closer io.Closer
	every  int
	lines  int
	err    error
}

// NewSummary wraps w. every <= 0 selects DefaultSummaryEvery.
func NewSummary(w io.Writer, every int) *Summary {
	if every <= 0 {
		every = DefaultSummaryEvery
	}
	return &Summary{w: bufio.NewWriter(w), every: every}
}

// OpenSummary opens path for append.
func OpenSummary(path string, every int) (*Summary, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	s := NewSummary(f, every)
	s.closer = f
	return s, nil
}

// Stick implements dla.Sink.
func (s *Summary) Stick(ev dla.StickEvent) {
	if s.err != nil || ev.Count%s.every != 0 {
		return
	}
	if _, err := fmt.Fprintf(s.w, "%d %s\n", ev.Count, formatFloat(ev.ClusterRadius)); err != nil {
		s.err = fmt.Errorf("records: summary: %w", err)
		return
	}
	s.lines++
}

// Lines returns the number of summary lines written.
func (s *Summary) Lines() int { return s.lines }

// Flush pushes buffered lines to the underlying writer.
func (s *Summary) Flush() error {
	if err := s.w.Flush(); err != nil && s.err == nil {
		s.err = fmt.Errorf("records: summary: %w", err)
	}
	return s.err
}

// Close flushes and closes a file opened by OpenSummary.
func (s *Summary) Close() error {
	err := s.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
		s.closer = nil
	}
	return err
}
