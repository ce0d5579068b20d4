package extract

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Row is a parsed extract row keyed by header name. RawFields preserves the
// original field order so a rejected row can be logged verbatim.
type Row struct {
	LineNumber int
	Data       map[string]string
	RawFields  []string
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// Raw reconstructs the row as it appeared in the source file
func (r *Row) Raw() string {
	return strings.Join(r.RawFields, ",")
}

// CSVSource reads a single CSV extract file in batches. Files are expected
// to be UTF-8 with a header row; a leading BOM is tolerated and stripped.
type CSVSource struct {
	name      string
	file      io.ReadCloser
	reader    *csv.Reader
	headers   []string
	headerMap map[string]int
	line      int
}

// OpenCSV opens the named extract file under dir and reads its header row.
func OpenCSV(dir, name string) (*CSVSource, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("open extract %s: %w", name, err)
	}

	src, err := NewCSVSource(name, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return src, nil
}

// NewCSVSource wraps an already-open reader. The caller keeps ownership of
// closing r unless it is an io.ReadCloser, in which case Close passes through.
func NewCSVSource(name string, r io.Reader) (*CSVSource, error) {
	buf := bufio.NewReader(r)

	// Detect and strip UTF-8 BOM
	head, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read extract %s: %w", name, err)
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	if err := validateUTF8(buf); err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}

	src := &CSVSource{
		name:      name,
		headerMap: make(map[string]int),
		line:      1,
	}
	if rc, ok := r.(io.ReadCloser); ok {
		src.file = rc
	}

	src.reader = csv.NewReader(buf)
	src.reader.LazyQuotes = true
	src.reader.TrimLeadingSpace = true
	src.reader.FieldsPerRecord = -1

	if err := src.parseHeader(); err != nil {
		return nil, err
	}
	return src, nil
}

func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("encoding check: %w", err)
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}
	if !utf8.Valid(content[:utf8ClampRight(content)]) {
		return ErrInvalidEncoding
	}
	return nil
}

// utf8ClampRight trims at most 3 trailing bytes so a multi-byte rune split by
// the peek window is not flagged as invalid.
func utf8ClampRight(b []byte) int {
	end := len(b)
	for i := 0; i < 3 && end > 0; i++ {
		if utf8.RuneStart(b[end-1]) {
			r, _ := utf8.DecodeRune(b[end-1:])
			if r == utf8.RuneError {
				end--
				continue
			}
			break
		}
		end--
	}
	return end
}

func (s *CSVSource) parseHeader() error {
	record, err := s.reader.Read()
	if err == io.EOF {
		return fmt.Errorf("extract %s: %w", s.name, ErrMissingHeader)
	}
	if err != nil {
		return fmt.Errorf("extract %s: read header: %w", s.name, err)
	}

	s.headers = make([]string, len(record))
	for i, h := range record {
		h = strings.TrimSpace(h)
		s.headers[i] = h
		s.headerMap[h] = i
	}
	return nil
}

// Name returns the source file name for provenance stamping
func (s *CSVSource) Name() string {
	return s.name
}

// Headers returns the parsed header names
func (s *CSVSource) Headers() []string {
	return s.headers
}

// MissingHeaders reports which of the required headers are absent
func (s *CSVSource) MissingHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if _, ok := s.headerMap[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// ReadBatch reads up to n rows. Completely empty rows are skipped. It returns
// io.EOF alongside the final (possibly non-empty) batch when the file is
// exhausted. A malformed row aborts the batch with the row's line number in
// the error; partial results read before the failure are still returned.
func (s *CSVSource) ReadBatch(ctx context.Context, n int) ([]*Row, error) {
	rows := make([]*Row, 0, n)

	for len(rows) < n {
		if err := ctx.Err(); err != nil {
			return rows, err
		}

		record, err := s.reader.Read()
		if err == io.EOF {
			return rows, io.EOF
		}
		s.line++
		if err != nil {
			return rows, fmt.Errorf("extract %s: row %d: %w", s.name, s.line, err)
		}

		row := &Row{
			LineNumber: s.line,
			Data:       make(map[string]string, len(s.headers)),
			RawFields:  record,
		}
		for i, header := range s.headers {
			if i < len(record) {
				row.Data[header] = strings.TrimSpace(record[i])
			} else {
				row.Data[header] = ""
			}
		}

		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Close releases the underlying file when the source owns one
func (s *CSVSource) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
