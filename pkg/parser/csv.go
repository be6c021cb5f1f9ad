package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// ParseWarning represents a non-fatal issue encountered during parsing.
type ParseWarning struct {
	Row     int    `json:"row"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Options controls how a delimited table is read.
type Options struct {
	// Delimiter separates fields. Zero means comma.
	Delimiter rune
	// Strict aborts on malformed rows instead of skipping them with a warning.
	Strict bool
}

// Row is one data row keyed by header name. Cells missing from a short row
// are absent from Values rather than padded.
type Row struct {
	// Index is the 1-based position of the row among data rows.
	Index int
	// Line is the line in the source file where the row starts.
	Line   int
	Values map[string]string
}

// Get returns the value of column and whether the row carries it.
func (r Row) Get(column string) (string, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// Table is a parsed delimited file.
type Table struct {
	Header   []string       `json:"header"`
	Rows     []Row          `json:"rows"`
	Warnings []ParseWarning `json:"warnings"`
	Encoding string         `json:"encoding"`
}

// ParseDelimiter converts a configured delimiter string into a rune.
// "tab" and `\t` are accepted for tab-separated files.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	if r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}

// ReadFile reads and parses the delimited file at path.
func ReadFile(path string, opts Options) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	table, err := Parse(data, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return table, nil
}

// Parse parses delimited bytes into a header and rows keyed by header name.
// A header row is required. A file with a header and no data rows yields an
// empty table.
func Parse(data []byte, opts Options) (*Table, error) {
	decoded, enc, err := DetectAndDecode(data)
	if err != nil {
		return nil, fmt.Errorf("encoding detection failed: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	// Row lengths are checked below so short rows can be reported per column.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file: no header row found")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{
		Header:   headers,
		Rows:     make([]Row, 0),
		Encoding: enc,
	}
	headerCount := len(headers)
	index := 0

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		index++

		if err != nil {
			line := 0
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.StartLine
			}
			if opts.Strict {
				return nil, fmt.Errorf("row %d: %w", index, err)
			}
			table.Warnings = append(table.Warnings, ParseWarning{
				Row:     index,
				Line:    line,
				Message: fmt.Sprintf("parse error: %v", err),
			})
			continue
		}

		line, _ := reader.FieldPos(0)
		if len(row) < headerCount {
			table.Warnings = append(table.Warnings, ParseWarning{
				Row:     index,
				Line:    line,
				Message: fmt.Sprintf("row has %d columns, expected %d; trailing columns are missing", len(row), headerCount),
			})
		} else if len(row) > headerCount {
			table.Warnings = append(table.Warnings, ParseWarning{
				Row:     index,
				Line:    line,
				Message: fmt.Sprintf("row has %d columns, expected %d; ignoring extra columns", len(row), headerCount),
			})
			row = row[:headerCount]
		}

		values := make(map[string]string, headerCount)
		for i, v := range row {
			values[headers[i]] = v
		}
		table.Rows = append(table.Rows, Row{Index: index, Line: line, Values: values})
	}

	return table, nil
}
