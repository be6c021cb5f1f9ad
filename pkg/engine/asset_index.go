package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/MadKrok/essais-python/pkg/parser"
	"github.com/MadKrok/essais-python/pkg/schema"
)

// degreeMarkers are stripped from registry coordinates. The second form is the
// UTF-8 degree sign read back as Windows-1252 ("Â°"), as found in one
// deployment's coordinate export. The longer marker must be removed first.
var degreeMarkers = []string{"Â°", "°"}

// AssetRegistry is the read-only index of monitored assets, keyed by short id.
type AssetRegistry struct {
	byID      map[string]*schema.AssetEntry
	ids       []string
	Conflicts []RegistryConflict `json:"conflicts"`
	Stats     RegistryStats      `json:"stats"`
}

// RegistryStats contains aggregate statistics about the loaded registry.
type RegistryStats struct {
	TotalRows    int `json:"totalRows"`
	UniqueAssets int `json:"uniqueAssets"`
	Duplicates   int `json:"duplicates"`
}

// LoadAssetRegistry reads the registry table at path once and indexes it.
func LoadAssetRegistry(path string, delimiter rune) (*AssetRegistry, error) {
	table, err := parser.ReadFile(path, parser.Options{Delimiter: delimiter, Strict: true})
	if err != nil {
		return nil, &schema.ConfigError{Err: fmt.Errorf("asset registry: %w", err)}
	}
	return BuildAssetRegistry(table)
}

// BuildAssetRegistry indexes a parsed registry table. The first row for an id
// wins; later rows with the same id are recorded as conflicts when they differ.
func BuildAssetRegistry(table *parser.Table) (*AssetRegistry, error) {
	cols := make(map[string]string, len(schema.RegistryHeaders))
	for _, want := range schema.RegistryHeaders {
		got, ok := schema.MatchHeader(table.Header, want)
		if !ok {
			return nil, &schema.ConfigError{
				Column:     want,
				Suggestion: schema.SuggestHeader(table.Header, want),
				Err:        errors.New("required header missing from asset registry"),
			}
		}
		cols[want] = got
	}

	registry := &AssetRegistry{
		byID: make(map[string]*schema.AssetEntry, len(table.Rows)),
	}

	for _, row := range table.Rows {
		entry := &schema.AssetEntry{
			ShortID:   row.Values[cols[schema.HeaderSwitch]],
			LongName:  row.Values[cols[schema.HeaderLongName]],
			Latitude:  row.Values[cols[schema.HeaderLat]],
			Longitude: row.Values[cols[schema.HeaderLong]],
		}
		key := assetKey(entry.ShortID)

		if first, exists := registry.byID[key]; exists {
			registry.Stats.Duplicates++
			registry.Conflicts = append(registry.Conflicts, DetectConflicts(first, entry)...)
			continue
		}
		registry.byID[key] = entry
		registry.ids = append(registry.ids, entry.ShortID)
	}

	sort.Strings(registry.ids)
	registry.Stats.TotalRows = len(table.Rows)
	registry.Stats.UniqueAssets = len(registry.byID)

	return registry, nil
}

func assetKey(id string) string {
	return norm.NFC.String(id)
}

// Len is the number of distinct assets.
func (r *AssetRegistry) Len() int {
	return len(r.byID)
}

// IDs returns the registered short ids in sorted order.
func (r *AssetRegistry) IDs() []string {
	return append([]string(nil), r.ids...)
}

// Has reports whether id is a monitored asset.
func (r *AssetRegistry) Has(id string) bool {
	_, ok := r.byID[assetKey(id)]
	return ok
}

// Lookup returns the registry entry for id.
func (r *AssetRegistry) Lookup(id string) (*schema.AssetEntry, bool) {
	entry, ok := r.byID[assetKey(id)]
	return entry, ok
}

// ResolveName returns the long name of a monitored asset. Unmonitored assets
// keep their raw id.
func (r *AssetRegistry) ResolveName(id string) string {
	if entry, ok := r.Lookup(id); ok {
		return entry.LongName
	}
	return id
}

// ResolveCoordinate returns a decimal-degree coordinate with degree markers
// stripped, or schema.NotAvailable for unmonitored assets.
func (r *AssetRegistry) ResolveCoordinate(id string, axis schema.Axis) string {
	entry, ok := r.Lookup(id)
	if !ok {
		return schema.NotAvailable
	}
	switch axis {
	case schema.AxisLat:
		return StripDegrees(entry.Latitude)
	case schema.AxisLong:
		return StripDegrees(entry.Longitude)
	default:
		return schema.NotAvailable
	}
}

// Suggest returns the registered id closest to an unknown id. It is used for
// reporting only; resolution never falls back to it.
func (r *AssetRegistry) Suggest(id string) (string, bool) {
	if r.Has(id) {
		return "", false
	}
	return closestMatch(id, r.ids)
}

// StripDegrees removes degree markers and surrounding whitespace from a coordinate.
func StripDegrees(coord string) string {
	for _, m := range degreeMarkers {
		coord = strings.ReplaceAll(coord, m, "")
	}
	return strings.TrimSpace(coord)
}
