package schema

import (
	"errors"
	"strings"
	"time"

	"github.com/MadKrok/essais-python/pkg/parser"
)

// AssetResolver resolves raw asset ids from the log against the registry.
type AssetResolver interface {
	ResolveName(id string) string
	ResolveCoordinate(id string, axis Axis) string
}

// TimestampConverter assembles and converts local log timestamps.
type TimestampConverter interface {
	Assemble(row parser.Row, parts []ColumnPart) (string, error)
	ToUTC(local string) (time.Time, error)
	DefaultEnd(start time.Time) time.Time
	Format(t time.Time) string
}

// Transformer turns raw maintenance-log rows into MaintenanceRecords.
type Transformer struct {
	fields *FieldMap
	assets AssetResolver
	clock  TimestampConverter
}

// NewTransformer returns a Transformer for one deployment.
func NewTransformer(fields *FieldMap, assets AssetResolver, clock TimestampConverter) *Transformer {
	return &Transformer{fields: fields, assets: assets, clock: clock}
}

// Transform builds the record for one row.
func (t *Transformer) Transform(row parser.Row) (*MaintenanceRecord, error) {
	start, err := t.timestamp(row, t.fields.TimestampColumns)
	if err != nil {
		return nil, err
	}

	var end time.Time
	if t.fields.EndProvided {
		end, err = t.timestamp(row, t.fields.EndTimestampColumns)
		if err != nil {
			return nil, err
		}
	} else {
		end = t.clock.DefaultEnd(start)
	}

	var action strings.Builder
	for _, a := range t.fields.Actions {
		v, err := Value(row, a.Column)
		if err != nil {
			return nil, err
		}
		action.WriteString(a.Description)
		action.WriteString(v)
	}

	shortName, err := Value(row, t.fields.AssetColumn)
	if err != nil {
		return nil, err
	}

	typ := t.fields.StaticType
	if t.fields.TypeColumn != "" {
		if typ, err = Value(row, t.fields.TypeColumn); err != nil {
			return nil, err
		}
	}

	maintenanceType := t.fields.StaticMaintenanceType
	if t.fields.MaintenanceTypeColumn != "" {
		if maintenanceType, err = Value(row, t.fields.MaintenanceTypeColumn); err != nil {
			return nil, err
		}
	}

	logger, err := Value(row, t.fields.LoggerColumn)
	if err != nil {
		return nil, err
	}

	return &MaintenanceRecord{
		Logger:            logger,
		IDAsset:           t.assets.ResolveName(shortName),
		Timestamp:         t.clock.Format(start),
		TimestampEnd:      t.clock.Format(end),
		Type:              typ,
		MaintenanceType:   maintenanceType,
		MaintenanceAction: action.String(),
		ResetBaseline:     0,
		ResetAgan:         0,
		GPSLatitude:       t.assets.ResolveCoordinate(shortName, AxisLat),
		GPSLongitude:      t.assets.ResolveCoordinate(shortName, AxisLong),
	}, nil
}

func (t *Transformer) timestamp(row parser.Row, parts []ColumnPart) (time.Time, error) {
	local, err := t.clock.Assemble(row, parts)
	if err != nil {
		return time.Time{}, err
	}
	utc, err := t.clock.ToUTC(local)
	if err != nil {
		var perr *TimestampParseError
		if errors.As(err, &perr) && perr.Row == 0 {
			perr.Row = row.Index
		}
		return time.Time{}, err
	}
	return utc, nil
}

// Value returns the row value of column or a FieldMappingError.
func Value(row parser.Row, column string) (string, error) {
	v, ok := row.Get(column)
	if !ok {
		return "", &FieldMappingError{Column: column, Row: row.Index, Line: row.Line}
	}
	return v, nil
}
