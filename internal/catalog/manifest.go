package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNoDocuments is returned when a manifest decodes cleanly but carries
// nothing assembly can use.
var ErrNoDocuments = errors.New("manifest contains no documents")

// Manifest is the hand-off format the discovery collaborator submits.
type Manifest struct {
	Documents []Record `json:"documents"`
}

// DecodeManifest reads a manifest, fills derived record fields the
// collaborator may have left empty, and deduplicates on (title, url).
func DecodeManifest(r io.Reader) ([]Record, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if len(m.Documents) == 0 {
		return nil, ErrNoDocuments
	}

	records := make([]Record, 0, len(m.Documents))
	for i, rec := range m.Documents {
		if rec.Title == "" {
			return nil, fmt.Errorf("manifest document %d: title is required", i)
		}
		if rec.Section == "" {
			return nil, fmt.Errorf("manifest document %d (%s): section is required", i, rec.Title)
		}
		if rec.Subsection == "" {
			rec.Subsection = ExtractSubsection(rec.Title)
		}
		if rec.Filename == "" {
			rec.Filename = cleanFilename(rec.Section, rec.Title)
		}
		records = append(records, rec)
	}

	return Dedup(records), nil
}
