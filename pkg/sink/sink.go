// Package sink persists maintenance records.
package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MadKrok/essais-python/pkg/engine"
	"github.com/MadKrok/essais-python/pkg/schema"
)

// DefaultDir is the output directory used when none is configured.
const DefaultDir = "json_files"

var _ engine.Sink = (*DirSink)(nil)
var _ engine.Sink = (*WriterSink)(nil)

// nameReplacer keeps generated names inside the output directory.
var nameReplacer = strings.NewReplacer("/", "-", `\`, "-")

// DirSink writes each record to <dir>/<name>.json, overwriting existing files.
type DirSink struct {
	dir string
}

// NewDirSink creates dir if needed and returns a sink writing into it.
func NewDirSink(dir string) (*DirSink, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// Path returns the file a record named name is written to.
func (s *DirSink) Path(name string) string {
	return filepath.Join(s.dir, FileName(name))
}

// FileName is the file name for a record name.
func FileName(name string) string {
	return nameReplacer.Replace(name) + ".json"
}

func (s *DirSink) Write(name string, rec *schema.MaintenanceRecord) error {
	data, err := engine.MarshalRecord(rec)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.Path(name), data, 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// WriterSink writes one JSON object per line to w.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink returns a sink writing newline-delimited JSON to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Write(_ string, rec *schema.MaintenanceRecord) error {
	data, err := engine.MarshalRecord(rec)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
