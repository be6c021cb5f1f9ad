package engine

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/MadKrok/essais-python/pkg/schema"
)

// MarshalRecord serializes a record as a flat JSON object in field order,
// followed by a newline. HTML characters are written as-is.
func MarshalRecord(rec *schema.MaintenanceRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("failed to serialize record %s: %w", rec.Name(), err)
	}
	return buf.Bytes(), nil
}
