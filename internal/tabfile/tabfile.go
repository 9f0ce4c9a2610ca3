// Package tabfile reads and writes the line-oriented, tab-delimited text
// files used for every persisted structure: one header row, then one record
// per line with a fixed number of columns.
package tabfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrFormat is returned for malformed files: a missing header, a record with
// the wrong number of columns, or a non-numeric value in a numeric column.
var ErrFormat = errors.New("malformed tab-delimited file")

// maxLine bounds a single record. Membership lists for large groups are long.
const maxLine = 256 << 20

// Reader iterates over the records of a tab-delimited file.
type Reader struct {
	sc     *bufio.Scanner
	cols   int
	line   int
	header []string
	fields []string
	err    error
}

// NewReader consumes the header row of r and returns a reader that insists
// every record has exactly cols columns. A cols of zero takes the column count
// from the header.
func NewReader(r io.Reader, cols int) (*Reader, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	tr := &Reader{sc: sc, cols: cols}
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: missing header", ErrFormat)
	}
	tr.line = 1
	tr.header = split(sc.Text())
	if tr.cols <= 0 {
		tr.cols = len(tr.header)
	}
	if len(tr.header) != tr.cols {
		return nil, fmt.Errorf("%w: header has %d columns, want %d", ErrFormat, len(tr.header), tr.cols)
	}
	return tr, nil
}

// Header returns the column names from the header row.
func (r *Reader) Header() []string {
	return r.header
}

// Next advances to the next record. Blank lines are skipped. It returns
// false at end of input or on the first error; check Err afterwards.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	for r.sc.Scan() {
		r.line++
		text := r.sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := split(text)
		if len(fields) != r.cols {
			r.err = fmt.Errorf("%w: line %d has %d columns, want %d", ErrFormat, r.line, len(fields), r.cols)
			return false
		}
		r.fields = fields
		return true
	}
	r.err = r.sc.Err()
	return false
}

// Fields returns the columns of the current record.
func (r *Reader) Fields() []string {
	return r.fields
}

// Get returns column i of the current record.
func (r *Reader) Get(i int) string {
	return r.fields[i]
}

// Int parses column i of the current record as an integer.
func (r *Reader) Int(i int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(r.fields[i]))
	if err != nil {
		return 0, fmt.Errorf("%w: line %d column %d: %q is not an integer", ErrFormat, r.line, i+1, r.fields[i])
	}
	return v, nil
}

// Line returns the 1-based line number of the current record.
func (r *Reader) Line() int {
	return r.line
}

// Err returns the first error encountered by Next.
func (r *Reader) Err() error {
	return r.err
}

func split(line string) []string {
	return strings.Split(strings.TrimSuffix(line, "\r"), "\t")
}

// Writer emits a header row followed by records.
type Writer struct {
	w    *bufio.Writer
	cols int
}

// NewWriter writes the header row to w.
func NewWriter(w io.Writer, header ...string) (*Writer, error) {
	tw := &Writer{w: bufio.NewWriter(w), cols: len(header)}
	if err := tw.Write(header...); err != nil {
		return nil, err
	}
	return tw, nil
}

// Write emits one record. Fields must not contain tabs or line breaks.
func (w *Writer) Write(fields ...string) error {
	if len(fields) != w.cols {
		return fmt.Errorf("%w: record has %d columns, want %d", ErrFormat, len(fields), w.cols)
	}
	for i, f := range fields {
		if strings.ContainsAny(f, "\t\r\n") {
			return fmt.Errorf("%w: column %d value %q contains a tab or line break", ErrFormat, i+1, f)
		}
		if i > 0 {
			if err := w.w.WriteByte('\t'); err != nil {
				return err
			}
		}
		if _, err := w.w.WriteString(f); err != nil {
			return err
		}
	}
	return w.w.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// SplitList splits a comma-joined list into trimmed, non-empty items.
func SplitList(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
