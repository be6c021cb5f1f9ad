package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Field-map document keys.
const (
	KeyLocalTZ              = "local_tz"
	KeyDateTimeFormat       = "maintenance_log_datetime_format"
	KeyTimestampColCount    = "col_number_for_timestamp"
	KeyTimestampColPrefix   = "local_timestamp_col"
	KeySeparatorPrefix      = "local_timestamp_col_separator"
	KeyEndProvided          = "maintenance_end_timestamp_provided"
	KeyEndColPrefix         = "local_timestamp_end_col"
	KeyActionColCount       = "col_number_for_maintenance_action"
	KeyDescriptionColPrefix = "description_col"
	KeyActionColPrefix      = "action_col"
	KeyIDAssetCol           = "id_asset_col"
	KeyLoggerCol            = "logger_col"
	KeyTypeCol              = "type_col"
	KeyMaintenanceTypeCol   = "maintenance_type_col"
	KeyType                 = "type"
	KeyMaintenanceType      = "maintenance_type"
)

// EndProvidedYes is the flag value declaring end-timestamp columns.
const EndProvidedYes = "yes"

// DocumentFormat is the syntax of a field-map document.
type DocumentFormat string

const (
	FormatJSON DocumentFormat = "json"
	FormatYAML DocumentFormat = "yaml"
)

// FormatFromPath picks the document syntax from the file extension; anything
// other than .yaml/.yml is read as JSON.
func FormatFromPath(path string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// FieldMapDocument is a parsed but unresolved field-map document. Keys are only
// looked up by Compile, so a missing key is reported when it is first needed.
type FieldMapDocument struct {
	values map[string]any
}

// LoadFieldMap reads the field-map document at path.
func LoadFieldMap(path string) (*FieldMapDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("read field map: %w", err)}
	}
	return ParseFieldMap(data, FormatFromPath(path))
}

// ParseFieldMap parses a field-map document. It fails only if the data is not
// a well-formed key/value document.
func ParseFieldMap(data []byte, format DocumentFormat) (*FieldMapDocument, error) {
	values := make(map[string]any)
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("malformed YAML field map: %w", err)}
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&values); err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("malformed JSON field map: %w", err)}
		}
		if dec.More() {
			return nil, &ConfigError{Err: errors.New("malformed JSON field map: trailing data after document")}
		}
	}
	if values == nil {
		return nil, &ConfigError{Err: errors.New("field map document is empty")}
	}
	return &FieldMapDocument{values: values}, nil
}

// String returns the string value of key.
func (d *FieldMapDocument) String(key string) (string, error) {
	v, ok := d.values[key]
	if !ok {
		return "", &ConfigError{Key: key, Err: errors.New("missing key")}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ConfigError{Key: key, Err: fmt.Errorf("expected a string, got %T", v)}
	}
	return s, nil
}

// Int returns the non-negative integer value of key. JSON numbers, YAML
// integers and numeric strings are accepted.
func (d *FieldMapDocument) Int(key string) (int, error) {
	v, ok := d.values[key]
	if !ok {
		return 0, &ConfigError{Key: key, Err: errors.New("missing key")}
	}
	var n int
	switch val := v.(type) {
	case json.Number:
		i, err := strconv.Atoi(val.String())
		if err != nil {
			return 0, &ConfigError{Key: key, Err: fmt.Errorf("expected an integer, got %s", val)}
		}
		n = i
	case int:
		n = val
	case float64:
		if val != math.Trunc(val) {
			return 0, &ConfigError{Key: key, Err: fmt.Errorf("expected an integer, got %v", val)}
		}
		n = int(val)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, &ConfigError{Key: key, Err: fmt.Errorf("expected an integer, got %q", val)}
		}
		n = i
	default:
		return 0, &ConfigError{Key: key, Err: fmt.Errorf("expected an integer, got %T", v)}
	}
	if n < 0 {
		return 0, &ConfigError{Key: key, Err: fmt.Errorf("must not be negative, got %d", n)}
	}
	return n, nil
}

// flag reads a yes/no style key. The string "yes" and a boolean true are set.
func (d *FieldMapDocument) flag(key string) (bool, error) {
	v, ok := d.values[key]
	if !ok {
		return false, &ConfigError{Key: key, Err: errors.New("missing key")}
	}
	switch val := v.(type) {
	case string:
		return val == EndProvidedYes, nil
	case bool:
		return val, nil
	default:
		return false, nil
	}
}

// FieldMap is the resolved field mapping of one deployment. Indexed document
// keys are held as ordered slices.
type FieldMap struct {
	Location       *time.Location
	DateTimeFormat string

	TimestampColumns    []ColumnPart
	EndProvided         bool
	EndTimestampColumns []ColumnPart

	Actions []ActionPart

	AssetColumn           string
	LoggerColumn          string
	TypeColumn            string
	MaintenanceTypeColumn string
	StaticType            string
	StaticMaintenanceType string
}

// Compile resolves the document into a FieldMap. Static fallbacks and end
// columns are only required when the document says they are used.
// Every other key is resolved here, before any row is read, so an incomplete
// document fails even for a log with no data rows.
func (d *FieldMapDocument) Compile() (*FieldMap, error) {
	fm := &FieldMap{}

	tz, err := d.String(KeyLocalTZ)
	if err != nil {
		return nil, err
	}
	// LoadLocation maps "" to UTC and "Local" to the host zone; neither names a deployment.
	if tz == "" || tz == "Local" {
		return nil, &ConfigError{Key: KeyLocalTZ, Err: fmt.Errorf("%q is not an IANA timezone name", tz)}
	}
	fm.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, &ConfigError{Key: KeyLocalTZ, Err: fmt.Errorf("unknown IANA timezone %q: %w", tz, err)}
	}

	if fm.DateTimeFormat, err = d.String(KeyDateTimeFormat); err != nil {
		return nil, err
	}

	n, err := d.Int(KeyTimestampColCount)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &ConfigError{Key: KeyTimestampColCount, Err: errors.New("at least one timestamp column is required")}
	}
	fm.TimestampColumns, err = d.columnParts(KeyTimestampColPrefix, n)
	if err != nil {
		return nil, err
	}

	if fm.EndProvided, err = d.flag(KeyEndProvided); err != nil {
		return nil, err
	}
	if fm.EndProvided {
		fm.EndTimestampColumns = make([]ColumnPart, n)
		for i, part := range fm.TimestampColumns {
			col, err := d.String(indexedKey(KeyEndColPrefix, i+1))
			if err != nil {
				return nil, err
			}
			fm.EndTimestampColumns[i] = ColumnPart{Column: col, Separator: part.Separator}
		}
	}

	m, err := d.Int(KeyActionColCount)
	if err != nil {
		return nil, err
	}
	fm.Actions = make([]ActionPart, m)
	for j := 1; j <= m; j++ {
		desc, err := d.String(indexedKey(KeyDescriptionColPrefix, j))
		if err != nil {
			return nil, err
		}
		col, err := d.String(indexedKey(KeyActionColPrefix, j))
		if err != nil {
			return nil, err
		}
		fm.Actions[j-1] = ActionPart{Description: desc, Column: col}
	}

	if fm.AssetColumn, err = d.String(KeyIDAssetCol); err != nil {
		return nil, err
	}
	if fm.LoggerColumn, err = d.String(KeyLoggerCol); err != nil {
		return nil, err
	}

	if fm.TypeColumn, err = d.String(KeyTypeCol); err != nil {
		return nil, err
	}
	if fm.TypeColumn == "" {
		if fm.StaticType, err = d.String(KeyType); err != nil {
			return nil, err
		}
	}

	if fm.MaintenanceTypeColumn, err = d.String(KeyMaintenanceTypeCol); err != nil {
		return nil, err
	}
	if fm.MaintenanceTypeColumn == "" {
		if fm.StaticMaintenanceType, err = d.String(KeyMaintenanceType); err != nil {
			return nil, err
		}
	}

	return fm, nil
}

func (d *FieldMapDocument) columnParts(prefix string, n int) ([]ColumnPart, error) {
	parts := make([]ColumnPart, n)
	for i := 1; i <= n; i++ {
		col, err := d.String(indexedKey(prefix, i))
		if err != nil {
			return nil, err
		}
		sep, err := d.String(indexedKey(KeySeparatorPrefix, i))
		if err != nil {
			return nil, err
		}
		parts[i-1] = ColumnPart{Column: col, Separator: sep}
	}
	return parts, nil
}

func indexedKey(prefix string, i int) string {
	return prefix + strconv.Itoa(i)
}

// Columns returns every log column the map references, in first-reference order.
func (fm *FieldMap) Columns() []string {
	seen := make(map[string]bool)
	var cols []string
	add := func(c string) {
		if c == "" || seen[c] {
			return
		}
		seen[c] = true
		cols = append(cols, c)
	}
	for _, p := range fm.TimestampColumns {
		add(p.Column)
	}
	for _, p := range fm.EndTimestampColumns {
		add(p.Column)
	}
	for _, a := range fm.Actions {
		add(a.Column)
	}
	add(fm.AssetColumn)
	add(fm.LoggerColumn)
	add(fm.TypeColumn)
	add(fm.MaintenanceTypeColumn)
	return cols
}

// ValidateHeader checks that every referenced column exists in the log header.
func (fm *FieldMap) ValidateHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, col := range fm.Columns() {
		if !present[col] {
			return &ConfigError{
				Column:     col,
				Suggestion: SuggestHeader(header, col),
				Err:        errors.New("not found in maintenance log header"),
			}
		}
	}
	return nil
}
