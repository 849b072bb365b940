package catalog

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeManifest(t *testing.T) {
	body := `{
		"documents": [
			{"title": "GEN-0.1 Prefacio", "section": "GEN", "url": "https://ais.example.gob.ar/d/1", "version": "AMDT 10"},
			{"title": "AD-2.0 Aeródromos", "section": "AD", "url": "https://ais.example.gob.ar/d/2", "local_path": "/tmp/ad.pdf"},
			{"title": "GEN-0.1 Prefacio", "section": "GEN", "url": "https://ais.example.gob.ar/d/1"}
		]
	}`

	records, err := DecodeManifest(strings.NewReader(body))
	if err != nil {
		t.Fatalf("DecodeManifest: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records after dedup, got %d", len(records))
	}
	if records[0].Subsection != "GEN-0.1" {
		t.Errorf("subsection not derived, got %q", records[0].Subsection)
	}
	if records[0].Filename == "" {
		t.Error("filename not derived")
	}
	if records[1].LocalPath != "/tmp/ad.pdf" {
		t.Errorf("local path lost: %q", records[1].LocalPath)
	}
}

func TestDecodeManifest_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"documents": [`},
		{"missing title", `{"documents": [{"section": "GEN"}]}`},
		{"missing section", `{"documents": [{"title": "GEN-0.1"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeManifest(strings.NewReader(tt.body)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDecodeManifest_Empty(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader(`{"documents": []}`))
	if !errors.Is(err, ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}
