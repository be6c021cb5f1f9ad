package engine

import (
	"github.com/MadKrok/essais-python/pkg/schema"
)

// RegistryConflict represents a duplicate registry row that disagrees with the
// first row for the same asset. Resolution is always "first_wins".
type RegistryConflict struct {
	ShortID      string `json:"shortId"`
	Field        string `json:"field"`
	KeptValue    string `json:"keptValue"`
	IgnoredValue string `json:"ignoredValue"`
	Resolution   string `json:"resolution"`
}

// DetectConflicts compares a duplicate registry row against the kept one.
// Compared fields: long name, latitude, longitude (coordinates after degree stripping).
func DetectConflicts(kept, dup *schema.AssetEntry) []RegistryConflict {
	var conflicts []RegistryConflict

	compare := func(field, a, b string) {
		if a != b {
			conflicts = append(conflicts, RegistryConflict{
				ShortID:      kept.ShortID,
				Field:        field,
				KeptValue:    a,
				IgnoredValue: b,
				Resolution:   "first_wins",
			})
		}
	}

	compare(schema.HeaderLongName, kept.LongName, dup.LongName)
	compare(schema.HeaderLat, StripDegrees(kept.Latitude), StripDegrees(dup.Latitude))
	compare(schema.HeaderLong, StripDegrees(kept.Longitude), StripDegrees(dup.Longitude))

	return conflicts
}
