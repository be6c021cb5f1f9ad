package schema

import (
	"fmt"
	"strings"
)

// ConfigError reports a field-map or registry problem: a missing or malformed
// document, a missing key, or a referenced column absent from a header.
type ConfigError struct {
	Key        string
	Column     string
	Suggestion string
	Err        error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config")
	if e.Key != "" {
		fmt.Fprintf(&b, " key %q", e.Key)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %q?)", e.Suggestion)
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FieldMappingError reports a referenced column missing from a log row.
type FieldMappingError struct {
	Column string
	Row    int
	Line   int
}

func (e *FieldMappingError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("row %d (line %d): column %q not present", e.Row, e.Line, e.Column)
	}
	return fmt.Sprintf("row %d: column %q not present", e.Row, e.Column)
}

// TimestampParseError reports an assembled local timestamp that does not
// match the configured format.
type TimestampParseError struct {
	Value  string
	Format string
	Row    int
	Reason string
}

func (e *TimestampParseError) Error() string {
	msg := fmt.Sprintf("timestamp %q does not match format %q", e.Value, e.Format)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	return msg
}
