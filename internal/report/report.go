// Package report writes the run manifest describing every catalogued
// document and whether its source file made it to disk.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nvarela/aipbundler/internal/catalog"
)

const fileName = "metadata.json"

type documentEntry struct {
	Title      string `json:"title"`
	Section    string `json:"section"`
	Subsection string `json:"subsection,omitempty"`
	Version    string `json:"version,omitempty"`
	URL        string `json:"url,omitempty"`
	Filename   string `json:"filename"`
	Downloaded bool   `json:"downloaded"`
	Excluded   bool   `json:"excluded,omitempty"`
}

// Report is the persisted run manifest.
type Report struct {
	GeneratedAt    time.Time       `json:"generated_at"`
	TotalDocuments int             `json:"total_documents"`
	Documents      []documentEntry `json:"documents"`
}

// Build snapshots the current download state of every record. Excluded
// records appear in the manifest too, flagged but never downloaded.
func Build(records, excluded []catalog.Record, now time.Time) Report {
	docs := make([]documentEntry, 0, len(records)+len(excluded))
	for _, rec := range records {
		docs = append(docs, entry(rec, false))
	}
	for _, rec := range excluded {
		docs = append(docs, entry(rec, true))
	}
	return Report{
		GeneratedAt:    now.UTC(),
		TotalDocuments: len(docs),
		Documents:      docs,
	}
}

func entry(rec catalog.Record, excluded bool) documentEntry {
	return documentEntry{
		Title:      rec.Title,
		Section:    rec.Section,
		Subsection: rec.Subsection,
		Version:    rec.Version,
		URL:        rec.URL,
		Filename:   rec.Filename,
		Downloaded: rec.Downloaded(),
		Excluded:   excluded,
	}
}

// Write persists the report under dir, replacing any previous run's file.
func Write(dir string, rep Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, fileName)
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Read loads a previously written report.
func Read(dir string) (Report, error) {
	data, err := os.ReadFile(filepath.Join(dir, fileName))
	if err != nil {
		return Report{}, err
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	return rep, nil
}
