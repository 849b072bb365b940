package assemble

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nvarela/aipbundler/internal/catalog"
)

const (
	tocTitle    = "Índice de Contenidos"
	tocSubtitle = "Publicación de Información Aeronáutica (AIP) - República Argentina"
	dotLeader   = "....................................."
)

// TOC is the rendered front-matter index plus the plan its page numbers
// were computed from.
type TOC struct {
	Path  string
	Pages int
	Plan  Plan
}

// TOCBuilder renders the index document. Its page-number column is the
// assembly plan's offsets, so index numbers and bookmark targets come from
// one traversal.
type TOCBuilder struct {
	startPage  int
	titleWidth int
	log        *slog.Logger
}

func NewTOCBuilder(startPage, titleWidth int, log *slog.Logger) *TOCBuilder {
	return &TOCBuilder{
		startPage:  startPage,
		titleWidth: titleWidth,
		log:        log,
	}
}

// Build renders the index into dir. The configured start page reserves room
// for the cover area: an index shorter than that is padded with blank
// pages. An index that outgrows the assumption is re-planned once with the
// larger count, so the printed numbers stay exact.
func (b *TOCBuilder) Build(groups catalog.Groups, pages PageCounter, dir string) (TOC, error) {
	start := b.startPage
	var toc TOC
	for attempt := 0; attempt < 2; attempt++ {
		plan := ComputePlan(groups, pages, start, b.titleWidth)
		path, rendered, err := b.render(plan, dir, start)
		if err != nil {
			return TOC{}, err
		}
		toc = TOC{Path: path, Pages: rendered, Plan: plan}
		if rendered == start {
			return toc, nil
		}
		start = rendered
	}

	b.log.Warn("index page numbers are approximate",
		"rendered_pages", toc.Pages, "planned_start", toc.Plan.StartPage)
	return toc, nil
}

func (b *TOCBuilder) render(plan Plan, dir string, minPages int) (string, int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create temp dir: %w", err)
	}
	path := filepath.Join(dir, "indice.pdf")

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(36, 72, 36)
	pdf.SetAutoPageBreak(true, 72)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 30, tr(tocTitle), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 14, tr(tocSubtitle), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 14, tr("Generado: "+time.Now().Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(20)

	entryIdx := 0
	for _, section := range plan.Sections {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 22, tr(section.Title), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 12)
		for range section.Kids {
			e := plan.Entries[entryIdx]
			entryIdx++
			line := fmt.Sprintf("%s %s %d", e.Title, dotLeader, e.Page)
			pdf.SetX(56)
			pdf.CellFormat(0, 16, tr(line), "", 1, "L", false, 0, "")
		}
		pdf.Ln(12)
	}

	// Reserve the cover area: the first document starts no earlier than the
	// configured start page.
	for pdf.PageCount() < minPages {
		pdf.AddPage()
	}

	pages := pdf.PageCount()
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", 0, fmt.Errorf("write index pdf: %w", err)
	}
	return path, pages, nil
}

// sectionArtifactName builds the per-section output filename, e.g.
// "AIP_Argentina_GEN.pdf".
func sectionArtifactName(prefix, section string) string {
	return prefix + strings.ToUpper(section) + ".pdf"
}
