package main

import (
	"bufio"
	"io"

	"github.com/kbukum/slotpipe/errors"
)

const maxLineSize = 1 << 20

// lineSource yields lines without their terminator. A read error ends the
// stream and is kept for Err.
type lineSource struct {
	name    string
	scanner *bufio.Scanner
	err     error
}

func newLineSource(name string, r io.Reader) *lineSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &lineSource{name: name, scanner: sc}
}

func (s *lineSource) Next() (string, bool) {
	if s.scanner.Scan() {
		return s.scanner.Text(), true
	}
	if err := s.scanner.Err(); err != nil {
		s.err = errors.SourceFailed(s.name, err)
	}
	return "", false
}

// Err returns SOURCE_FAILED if reading stopped on an error.
func (s *lineSource) Err() error { return s.err }

// lineSink writes one line per item through a buffer. After the first write
// error every further item is dropped and the error is kept for Err.
type lineSink struct {
	name    string
	w       *bufio.Writer
	written int64
	err     error
}

func newLineSink(name string, w io.Writer) *lineSink {
	return &lineSink{name: name, w: bufio.NewWriter(w)}
}

func (s *lineSink) Accept(line string) {
	if s.err != nil {
		return
	}
	if _, err := s.w.WriteString(line); err != nil {
		s.err = errors.SinkFailed(s.name, err)
		return
	}
	if err := s.w.WriteByte('\n'); err != nil {
		s.err = errors.SinkFailed(s.name, err)
		return
	}
	s.written++
}

// Flush writes buffered lines. Only call it once the consumer has exited.
func (s *lineSink) Flush() error {
	if s.err != nil {
		return s.err
	}
	if err := s.w.Flush(); err != nil {
		s.err = errors.SinkFailed(s.name, err)
	}
	return s.err
}

// Err returns SINK_FAILED if a write failed.
func (s *lineSink) Err() error { return s.err }
