package report

import (
	"log/slog"

	"github.com/MadKrok/essais-python/pkg/engine"
)

// UnknownAsset is an asset id found in the log but not in the registry.
// Its records keep the raw id and "N/A" coordinates.
type UnknownAsset struct {
	ID         string `json:"id"`
	Rows       []int  `json:"rows"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Summary is the end-of-run report of a batch export.
type Summary struct {
	RowsRead          int                       `json:"rowsRead"`
	RecordsWritten    int                       `json:"recordsWritten"`
	RegistryHits      int                       `json:"registryHits"`
	RegistryMisses    int                       `json:"registryMisses"`
	UnknownAssets     []UnknownAsset            `json:"unknownAssets"`
	IdleAssets        []string                  `json:"idleAssets"`
	Skipped           []engine.SkippedRow       `json:"skipped"`
	RegistryConflicts []engine.RegistryConflict `json:"registryConflicts"`
	RegistryAssets    int                       `json:"registryAssets"`

	result *engine.ExportResult
}

// BuildSummary compiles an export result against the registry it ran with.
// Unknown ids get the closest registered id as a suggestion when one is
// unambiguous; registered assets with no logged event are listed as idle.
func BuildSummary(result *engine.ExportResult, registry *engine.AssetRegistry) *Summary {
	s := &Summary{
		UnknownAssets:     make([]UnknownAsset, 0),
		IdleAssets:        make([]string, 0),
		Skipped:           make([]engine.SkippedRow, 0),
		RegistryConflicts: make([]engine.RegistryConflict, 0),
		result:            result,
	}

	if registry != nil {
		s.RegistryAssets = registry.Len()
		s.RegistryConflicts = append(s.RegistryConflicts, registry.Conflicts...)
	}
	if result == nil {
		return s
	}

	s.RowsRead = result.RowsRead
	s.RecordsWritten = result.RecordsWritten
	s.RegistryHits = result.RegistryHits
	s.RegistryMisses = result.RegistryMisses
	s.Skipped = append(s.Skipped, result.Skipped...)

	for _, u := range result.Unknown {
		entry := UnknownAsset{ID: u.ID, Rows: u.Rows}
		if registry != nil {
			if suggestion, ok := registry.Suggest(u.ID); ok {
				entry.Suggestion = suggestion
			}
		}
		s.UnknownAssets = append(s.UnknownAssets, entry)
	}

	if registry != nil {
		for _, id := range registry.IDs() {
			if result.HitsByAsset[id] == 0 {
				s.IdleAssets = append(s.IdleAssets, id)
			}
		}
	}

	return s
}

// Err returns the aggregated errors of rows skipped in lenient mode, or nil.
func (s *Summary) Err() error {
	if s.result == nil {
		return nil
	}
	return s.result.Errors.ErrorOrNil()
}

// Log writes the summary to log: one info line, an info line per unknown
// asset, a warning per skipped row and registry conflict, and an error line
// with the aggregated row errors when rows were skipped.
func (s *Summary) Log(log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	log.Info("export finished",
		"rows", s.RowsRead,
		"written", s.RecordsWritten,
		"registry_hits", s.RegistryHits,
		"registry_misses", s.RegistryMisses,
		"skipped", len(s.Skipped),
		"idle_assets", len(s.IdleAssets),
	)
	for _, u := range s.UnknownAssets {
		attrs := []any{"id", u.ID, "rows", u.Rows}
		if u.Suggestion != "" {
			attrs = append(attrs, "did_you_mean", u.Suggestion)
		}
		log.Info("asset not in registry", attrs...)
	}
	for _, sk := range s.Skipped {
		log.Warn("row skipped", "row", sk.Row, "line", sk.Line, "reason", sk.Reason)
	}
	for _, c := range s.RegistryConflicts {
		log.Warn("duplicate registry entry ignored",
			"id", c.ShortID, "field", c.Field, "kept", c.KeptValue, "ignored", c.IgnoredValue)
	}
	if err := s.Err(); err != nil {
		log.Error("rows dropped from export", "count", len(s.Skipped), "error", err)
	}
}
