package mapyrus

import (
	"fmt"
	"io"
)

// OutputSink receives finished shapes from the interpreter. Real
// implementations encode pages to an output format; the core only
// guarantees that Close is called at most once per context that
// opened a sink, and always when that context is popped, even after
// an error.
type OutputSink interface {
	// Configure prepares a page of the given size. Options carries
	// driver-specific settings as a free-form string.
	Configure(name string, width, height float64, options string) error
	// SetAttributes applies drawing attributes before following
	// Stroke and Fill calls.
	SetAttributes(color Color, lineWidth float64) error
	// Stroke draws the outline of the path.
	Stroke(path *GeometricPath) error
	// Fill fills the interior of the path.
	Fill(path *GeometricPath) error
	// Close finishes the page.
	Close() error
}

// TraceSink is an OutputSink that writes each operation as a line of
// text, for debugging scripts without a real output driver attached.
type TraceSink struct {
	w      io.Writer
	closed bool
}

// NewTraceSink returns a TraceSink writing to w.
func NewTraceSink(w io.Writer) *TraceSink {
	return &TraceSink{w: w}
}

func (s *TraceSink) Configure(name string, width, height float64, options string) error {
	fmt.Fprintf(s.w, "newpage %s %s x %s %s\n",
		name, formatNumber(width), formatNumber(height), options)
	return nil
}

func (s *TraceSink) SetAttributes(color Color, lineWidth float64) error {
	fmt.Fprintf(s.w, "attributes color=%s linewidth=%s\n",
		color, formatNumber(lineWidth))
	return nil
}

func (s *TraceSink) Stroke(path *GeometricPath) error {
	fmt.Fprintf(s.w, "stroke %s\n", path.ToGeometry().StringValue())
	return nil
}

func (s *TraceSink) Fill(path *GeometricPath) error {
	fmt.Fprintf(s.w, "fill %s\n", path.ToGeometry().StringValue())
	return nil
}

func (s *TraceSink) Close() error {
	if !s.closed {
		fmt.Fprintln(s.w, "endpage")
		s.closed = true
	}
	return nil
}
