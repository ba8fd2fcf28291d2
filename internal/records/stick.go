// Package records turns engine stick events into append-only record
// streams: a per-stick CSV and a periodic size summary.
package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"mad-dla/internal/sims/dla"
)

// StickHeader names the StickCSV columns. The header is only written when
// requested; plain runs emit bare rows.
var StickHeader = []string{"index", "x", "y", "z", "cluster_radius", "stick_probability", "fractal_dim"}

// StickCSV writes one row per stick event:
// index,x,y,z,clusterRadius,stickProbability,fractalDim. An undefined
// fractal dimension leaves the last field empty.
type StickCSV struct {
	w      *csv.Writer
	closer io.Closer
	rows   int
	err    error
}

// NewStickCSV wraps w. The caller keeps ownership of w.
func NewStickCSV(w io.Writer) *StickCSV {
	return &StickCSV{w: csv.NewWriter(w)}
}

// OpenStickCSV opens path for append, creating it if needed. The header is
// written only when the file starts empty and header is true.
func OpenStickCSV(path string, header bool) (*StickCSV, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	s := NewStickCSV(f)
	s.closer = f
	if header {
		if err := writeHeaderIfEmpty(f, s.w, StickHeader); err != nil {
			f.Close()
			return nil, err
		}
	}
	return s, nil
}

// WriteHeader writes the column header row.
func (s *StickCSV) WriteHeader() error {
	if err := s.w.Write(StickHeader); err != nil {
		s.keep(err)
		return err
	}
	return nil
}

// Stick implements dla.Sink.
func (s *StickCSV) Stick(ev dla.StickEvent) {
	if s.err != nil {
		return
	}
	if err := s.w.Write(StickRow(ev)); err != nil {
		s.keep(err)
		return
	}
	s.rows++
}

// StickRow renders ev as CSV fields.
func StickRow(ev dla.StickEvent) []string {
	dim := ""
	if d, ok := ev.FractalDimension(); ok {
		dim = formatFloat(d)
	}
	return []string{
		strconv.Itoa(ev.Index),
		strconv.Itoa(ev.X),
		strconv.Itoa(ev.Y),
		strconv.Itoa(ev.Z),
		formatFloat(ev.ClusterRadius),
		formatFloat(ev.StickProbability),
		dim,
	}
}

// Rows returns the number of event rows written.
func (s *StickCSV) Rows() int { return s.rows }

// Flush pushes buffered rows to the underlying writer.
func (s *StickCSV) Flush() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.keep(err)
	}
	return s.err
}

// Close flushes and, when the writer was opened by OpenStickCSV, closes
// the file.
func (s *StickCSV) Close() error {
	err := s.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
		s.closer = nil
	}
	return err
}

func (s *StickCSV) keep(err error) {
	if s.err == nil {
		s.err = fmt.Errorf("records: stick csv: %w", err)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// openAppend opens path for append, creating it and its parent directories.
func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

func writeHeaderIfEmpty(f *os.File, w *csv.Writer, header []string) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() > 0 {
		return nil
	}
	if err := w.Write(header); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
