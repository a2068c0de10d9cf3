// Package driver turns external price sources into a stream of
// market.DayPrice records.
//
// A Driver is stateful and reads one source at a time. Callers open it
// against a source, call Next until it reports the end of the source (or
// EOF returns true), then Close it. Drivers are not safe for concurrent use.
package driver

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rustyeddy/jantrader/market"
	"github.com/ulikunitz/xz"
)

// Driver reads end-of-day records from a source.
type Driver interface {
	// Open acquires source (a path, URL, symbol...). Opening an already open
	// driver closes the previous source first and resets its counters.
	Open(ctx context.Context, source string) error

	// Next returns the next record in source order. ok is false at the end
	// of the source. A malformed record yields a *ParseError and the zero
	// DayPrice.
	Next() (p market.DayPrice, ok bool, err error)

	// EOF reports whether the source is exhausted.
	EOF() bool

	// Close releases the source. It is safe to call more than once and the
	// driver may be opened again afterwards.
	Close() error
}

// ParseError reports a malformed or out-of-schema record.
type ParseError struct {
	Source string // file path, URL, table or symbol the record came from
	Line   int    // 1-based physical line, 0 when the source has no lines
	Record int    // 1-based data record, header excluded
	Field  string
	Err    error
}

func (e *ParseError) Error() string {
	var parts []string
	if e.Source != "" {
		parts = append(parts, e.Source)
	}

	// header rows have a line but no record
	switch {
	case e.Line > 0 && e.Record > 0:
		parts = append(parts, fmt.Sprintf("line %d (record %d)", e.Line, e.Record))
	case e.Line > 0:
		parts = append(parts, fmt.Sprintf("line %d", e.Line))
	case e.Record > 0:
		parts = append(parts, fmt.Sprintf("(record %d)", e.Record))
	}

	if e.Field != "" {
		parts = append(parts, "field "+e.Field)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return "driver: " + strings.Join(parts, ": ")
}

func (e *ParseError) Unwrap() error { return e.Err }

// openFile opens path for reading, transparently decompressing .gz and .xz
// files.
func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		return &stackReader{Reader: zr, closers: []io.Closer{zr, f}}, nil

	case ".xz":
		xr, err := xz.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz %s: %w", path, err)
		}
		return &stackReader{Reader: xr, closers: []io.Closer{f}}, nil
	}

	return f, nil
}

// stackReader closes a decompressor and the file under it.
type stackReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackReader) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
