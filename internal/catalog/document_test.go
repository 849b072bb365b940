package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractSubsection(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"AD-2.0 Aeródromos - Datos del AD SAN FERNANDO", "AD-2.0"},
		{"GEN-0.1 Prefacio", "GEN-0.1"},
		{"ENR-1.1 Reglas generales", "ENR-1.1"},
		{"Cartas de aproximación", ""},
		{"ad-2.0 lowercase prefix", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExtractSubsection(tt.title); got != tt.want {
			t.Errorf("ExtractSubsection(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestNewRecord_Filename(t *testing.T) {
	rec := NewRecord("GEN-0.1 Prefacio (edición 2024)", "https://example.com/x.pdf", "GEN", "AMDT 10")
	if rec.Filename != "GEN_GEN-01_Prefacio_edición_2024.pdf" {
		t.Errorf("unexpected filename: %q", rec.Filename)
	}
	if rec.Subsection != "GEN-0.1" {
		t.Errorf("unexpected subsection: %q", rec.Subsection)
	}
	if rec.Version != "AMDT 10" {
		t.Errorf("unexpected version: %q", rec.Version)
	}
}

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		name  string
		rec   Record
		width int
		want  string
	}{
		{
			name:  "strips section prefix",
			rec:   Record{Title: "GEN-0.1 Prefacio", Section: "GEN"},
			width: 80,
			want:  "0.1 Prefacio",
		},
		{
			name:  "truncates long titles with ellipsis",
			rec:   Record{Title: strings.Repeat("a", 100), Section: "GEN"},
			width: 80,
			want:  strings.Repeat("a", 80) + "...",
		},
		{
			name:  "short title unchanged",
			rec:   Record{Title: "ENR-1.1 Reglas", Section: "AD"},
			width: 80,
			want:  "ENR-1.1 Reglas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.DisplayTitle(tt.width); got != tt.want {
				t.Errorf("DisplayTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDownloaded(t *testing.T) {
	if (Record{}).Downloaded() {
		t.Error("record without local path reported as downloaded")
	}
	if (Record{LocalPath: "/nonexistent/file.pdf"}).Downloaded() {
		t.Error("record with missing file reported as downloaded")
	}

	f := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(f, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !(Record{LocalPath: f}).Downloaded() {
		t.Error("record with existing file reported as not downloaded")
	}
}
