package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/MadKrok/essais-python/pkg/parser"
	"github.com/MadKrok/essais-python/pkg/schema"
)

// Sink receives each record with its generated output name.
type Sink interface {
	Write(name string, rec *schema.MaintenanceRecord) error
}

// ExportOptions tunes a batch run.
type ExportOptions struct {
	// Lenient skips rows whose timestamp or columns cannot be read and reports
	// them in the result instead of aborting the batch.
	Lenient bool
	Logger  *slog.Logger
}

// ExportResult describes a finished (or aborted) batch run.
type ExportResult struct {
	RowsRead       int `json:"rowsRead"`
	RecordsWritten int `json:"recordsWritten"`
	RegistryHits   int `json:"registryHits"`
	RegistryMisses int `json:"registryMisses"`
	// HitsByAsset is keyed by the registry's short id, not the id as logged.
	HitsByAsset map[string]int        `json:"hitsByAsset"`
	Unknown     []UnknownAssetRows    `json:"unknown"`
	Skipped     []SkippedRow          `json:"skipped"`
	Warnings    []parser.ParseWarning `json:"warnings"`
	// Errors aggregates the row errors of skipped rows.
	Errors *multierror.Error `json:"-"`
}

// UnknownAssetRows lists the rows referencing an asset absent from the registry.
type UnknownAssetRows struct {
	ID   string `json:"id"`
	Rows []int  `json:"rows"`
}

// SkippedRow is a row dropped in lenient mode.
type SkippedRow struct {
	Row    int    `json:"row"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Exporter runs RecordTransformer over every row of a maintenance log.
type Exporter struct {
	fields      *schema.FieldMap
	registry    *AssetRegistry
	transformer *schema.Transformer
	opts        ExportOptions
	log         *slog.Logger
}

// NewExporter wires the transformer for one deployment.
func NewExporter(fields *schema.FieldMap, registry *AssetRegistry, opts ExportOptions) (*Exporter, error) {
	normalizer, err := NewTimestampNormalizer(fields)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{
		fields:      fields,
		registry:    registry,
		transformer: schema.NewTransformer(fields, registry, normalizer),
		opts:        opts,
		log:         log,
	}, nil
}

// RunFile reads the maintenance log at path and exports it.
func (e *Exporter) RunFile(ctx context.Context, path string, delimiter rune, sink Sink) (*ExportResult, error) {
	table, err := parser.ReadFile(path, parser.Options{Delimiter: delimiter, Strict: !e.opts.Lenient})
	if err != nil {
		return nil, fmt.Errorf("maintenance log: %w", err)
	}
	e.log.Debug("maintenance log loaded",
		"path", path, "rows", len(table.Rows), "encoding", table.Encoding)
	return e.Run(ctx, table, sink)
}

// Run exports every row of table in file order. The header is checked against
// the field map before the first record is produced. In strict mode the first
// failing row aborts the run; records already handed to the sink stay written.
func (e *Exporter) Run(ctx context.Context, table *parser.Table, sink Sink) (*ExportResult, error) {
	if err := e.fields.ValidateHeader(table.Header); err != nil {
		return nil, err
	}

	result := &ExportResult{
		HitsByAsset: make(map[string]int),
		Unknown:     make([]UnknownAssetRows, 0),
		Skipped:     make([]SkippedRow, 0),
		Warnings:    table.Warnings,
	}
	for _, w := range table.Warnings {
		e.log.Warn("maintenance log row", "row", w.Row, "line", w.Line, "warning", w.Message)
	}
	unknownIndex := make(map[string]int)

	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("export interrupted after %d records: %w", result.RecordsWritten, err)
		}
		result.RowsRead++

		rec, err := e.transformer.Transform(row)
		if err != nil {
			if e.opts.Lenient && isRowError(err) {
				e.log.Warn("skipping row", "row", row.Index, "line", row.Line, "error", err)
				result.Skipped = append(result.Skipped, SkippedRow{Row: row.Index, Line: row.Line, Reason: err.Error()})
				result.Errors = multierror.Append(result.Errors, err)
				continue
			}
			return result, err
		}

		shortName := row.Values[e.fields.AssetColumn]
		if entry, ok := e.registry.Lookup(shortName); ok {
			result.RegistryHits++
			result.HitsByAsset[entry.ShortID]++
		} else {
			result.RegistryMisses++
			i, seen := unknownIndex[shortName]
			if !seen {
				i = len(result.Unknown)
				unknownIndex[shortName] = i
				result.Unknown = append(result.Unknown, UnknownAssetRows{ID: shortName})
			}
			result.Unknown[i].Rows = append(result.Unknown[i].Rows, row.Index)
		}

		name := rec.Name()
		if err := sink.Write(name, rec); err != nil {
			return result, fmt.Errorf("row %d: write %s: %w", row.Index, name, err)
		}
		result.RecordsWritten++
		e.log.Debug("record written", "row", row.Index, "name", name)
	}

	return result, nil
}

func isRowError(err error) bool {
	var fieldErr *schema.FieldMappingError
	var tsErr *schema.TimestampParseError
	return errors.As(err, &fieldErr) || errors.As(err, &tsErr)
}
