package assemble

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvarela/aipbundler/internal/catalog"
)

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTOCBuilder_Build(t *testing.T) {
	groups, pages := planFixture(t)
	b := NewTOCBuilder(3, 80, testLog())

	toc, err := b.Build(groups, pages, t.TempDir())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := filepath.Base(toc.Path); got != "indice.pdf" {
		t.Errorf("index file = %q, want indice.pdf", got)
	}
	info, err := os.Stat(toc.Path)
	if err != nil {
		t.Fatalf("index not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("index file is empty")
	}

	// Three short entries fit on one page; padding keeps the configured
	// front-matter reservation so document offsets stay valid.
	if toc.Pages != 3 {
		t.Errorf("index pages = %d, want 3", toc.Pages)
	}
	wantOffsets := []int{3, 4, 6}
	for i, e := range toc.Plan.Entries {
		if e.Page != wantOffsets[i] {
			t.Errorf("entry %d page = %d, want %d", i, e.Page, wantOffsets[i])
		}
	}
}

// A long index overflows the reserved front matter; the builder must
// re-plan so printed numbers account for the index's own growth.
func TestTOCBuilder_ReplansWhenIndexOverflows(t *testing.T) {
	dir := t.TempDir()
	records := make([]catalog.Record, 0, 200)
	for i := 0; i < 200; i++ {
		title := fmt.Sprintf("GEN-1.%d Documento de prueba número %d", i, i)
		rec := catalog.NewRecord(title, fmt.Sprintf("https://example.com/doc-%d.pdf", i), "GEN", "")
		rec.LocalPath = filepath.Join(dir, fmt.Sprintf("doc-%d.pdf", i))
		if err := os.WriteFile(rec.LocalPath, []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatal(err)
		}
		records = append(records, rec)
	}
	groups := catalog.GroupBySection(records, sectionOrder)
	b := NewTOCBuilder(3, 80, testLog())

	toc, err := b.Build(groups, func(catalog.Record) int { return 1 }, t.TempDir())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if toc.Pages <= 3 {
		t.Fatalf("index pages = %d, want more than the reserved 3", toc.Pages)
	}
	if toc.Plan.StartPage != toc.Pages {
		t.Errorf("plan start = %d, rendered pages = %d; offsets must match the rendered index",
			toc.Plan.StartPage, toc.Pages)
	}
}

func TestSectionArtifactName(t *testing.T) {
	got := sectionArtifactName("AIP_Argentina_", "gen")
	if want := "AIP_Argentina_GEN.pdf"; got != want {
		t.Errorf("sectionArtifactName = %q, want %q", got, want)
	}
}
