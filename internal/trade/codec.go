//-------------------------------------------------------------------------
//
// Trade Ingest
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package trade

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Writer writes trades as comma-separated lines with no header.
type Writer struct {
	csv  *csv.Writer
	out  *countingWriter
	rows int64
}

// NewWriter creates a Writer. Output is buffered; call Flush when done.
func NewWriter(w io.Writer) *Writer {
	out := &countingWriter{w: w}
	return &Writer{
		csv: csv.NewWriter(out),
		out: out,
	}
}

// Write writes a single trade.
func (w *Writer) Write(t Trade) error {
	if err := w.csv.Write(t.Record()); err != nil {
		return fmt.Errorf("failed to write trade %d: %w", w.rows+1, err)
	}
	w.rows++
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// Rows returns the number of trades written.
func (w *Writer) Rows() int64 {
	return w.rows
}

// Bytes returns the number of bytes flushed to the underlying writer.
func (w *Writer) Bytes() int64 {
	return w.out.n
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Reader decodes trades written by Writer.
type Reader struct {
	csv *csv.Reader
}

// NewReader creates a Reader.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &Reader{csv: cr}
}

// Read returns the next trade, or io.EOF when the input is exhausted.
// Malformed records are reported as *ParseError.
func (r *Reader) Read() (Trade, error) {
	fields, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Trade{}, io.EOF
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return Trade{}, &ParseError{Line: pe.Line, Err: pe.Err}
		}
		return Trade{}, err
	}

	t, err := Parse(fields)
	if err != nil {
		line, _ := r.csv.FieldPos(0)
		return Trade{}, &ParseError{Line: line, Err: err}
	}
	return t, nil
}

// ParseError reports a malformed line in a trade file.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidatingReader passes a trade file through unchanged while decoding
// every record. A malformed record surfaces as a read error, so a consumer
// such as COPY FROM STDIN aborts instead of loading it.
//
// Bytes may be handed out before the record they belong to is fully
// checked; the error still arrives before io.EOF.
//
// Err and Rows may be called while another goroutine is still reading.
type ValidatingReader struct {
	dec *Reader
	buf bytes.Buffer

	mu   sync.Mutex
	rows int64
	err  error
}

// NewValidatingReader wraps r.
func NewValidatingReader(r io.Reader) *ValidatingReader {
	v := &ValidatingReader{}
	v.dec = NewReader(io.TeeReader(r, &v.buf))
	return v
}

func (v *ValidatingReader) Read(p []byte) (int, error) {
	for {
		err := v.Err()
		if err != nil {
			return 0, err
		}
		if v.buf.Len() > 0 {
			return v.buf.Read(p)
		}
		if v.done() {
			return 0, io.EOF
		}

		_, err = v.dec.Read()
		v.mu.Lock()
		if err != nil {
			v.err = err
		} else {
			v.rows++
		}
		v.mu.Unlock()
	}
}

func (v *ValidatingReader) done() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return errors.Is(v.err, io.EOF)
}

// Err returns the first decoding error, if any. Reaching the end of the
// input is not an error.
func (v *ValidatingReader) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if errors.Is(v.err, io.EOF) {
		return nil
	}
	return v.err
}

// Rows returns the number of records validated so far.
func (v *ValidatingReader) Rows() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rows
}
