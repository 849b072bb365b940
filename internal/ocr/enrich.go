package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nvarela/aipbundler/internal/inspect"
)

// ErrNotEnabled is returned when recognition is requested but OCR support
// was not compiled in. Rebuild with -tags ocr to enable it.
var ErrNotEnabled = errors.New("ocr support not enabled; rebuild with -tags ocr")

// Recognizer turns a page image into text.
type Recognizer interface {
	Recognize(imageData []byte) (string, error)
	Close() error
}

// Text layer anchor, in points from the top-left page corner.
const (
	textAnchorX = 50.0
	textAnchorY = 50.0
)

// Enricher produces searchable replacements for scanned documents. The
// rebuilt file has exactly one page per source page with the source page
// geometry; assembly offsets depend on that.
type Enricher struct {
	raster Rasterizer
	rec    Recognizer // nil when no backend is available
	scale  float64
	stats  *Stats
	log    *slog.Logger

	backendWarn sync.Once
}

func NewEnricher(raster Rasterizer, rec Recognizer, scale float64, stats *Stats, log *slog.Logger) *Enricher {
	return &Enricher{
		raster: raster,
		rec:    rec,
		scale:  scale,
		stats:  stats,
		log:    log,
	}
}

// EnrichIfNeeded rebuilds the document at path as rasterized pages with an
// invisible text layer when the inspection result calls for it. It returns
// the path to use for assembly and whether that path is a temporary
// enriched file the caller must delete after use.
func (e *Enricher) EnrichIfNeeded(path string, res inspect.Result, tempDir string) (string, bool, error) {
	if !res.NeedsEnrichment() {
		return path, false, nil
	}

	outPath, pages, err := e.enrich(path, tempDir)
	if err != nil {
		return path, false, err
	}
	if pages != res.PageCount {
		// A rebuilt file with a different page count would silently
		// desynchronize every later bookmark; use the original instead.
		os.Remove(outPath)
		return path, false, fmt.Errorf("enriched page count %d != source %d for %s", pages, res.PageCount, path)
	}

	e.log.Info("document enriched", "path", path, "pages", pages)
	return outPath, true, nil
}

func (e *Enricher) enrich(path, tempDir string) (string, int, error) {
	images, err := e.raster.Rasterize(path, e.scale)
	if err != nil {
		return "", 0, fmt.Errorf("rasterize %s: %w", path, err)
	}
	if len(images) == 0 {
		return "", 0, fmt.Errorf("rasterize %s: no pages", path)
	}

	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create temp dir: %w", err)
	}
	outPath := filepath.Join(tempDir, strings.TrimSuffix(filepath.Base(path), ".pdf")+".ocr.pdf")

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: images[0].Width, Ht: images[0].Height},
	})
	// Overflowing text must never add a page: one source page, one output page.
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, img := range images {
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: img.Width, Ht: img.Height})

		name := fmt.Sprintf("page-%d", i+1)
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.PNG))
		pdf.ImageOptions(name, 0, 0, img.Width, img.Height, false, opts, 0, "")

		text := e.recognizePage(i+1, img)
		if text == "" {
			continue
		}
		// White-on-white layer: searchable without altering appearance.
		pdf.SetTextColor(255, 255, 255)
		pdf.SetXY(textAnchorX, textAnchorY)
		pdf.MultiCell(img.Width-2*textAnchorX, 14, tr(text), "", "L", false)
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return "", 0, fmt.Errorf("write enriched pdf: %w", err)
	}
	return outPath, len(images), nil
}

// recognizePage runs the backend on one page. Backend absence is reported
// once per run; a single page failure only loses that page's text layer.
func (e *Enricher) recognizePage(pageNr int, img PageImage) string {
	if e.rec == nil {
		e.backendWarn.Do(func() {
			e.log.Warn("ocr backend unavailable; emitting image-only pages")
		})
		return ""
	}

	start := time.Now()
	text, err := e.rec.Recognize(img.PNG)
	if e.stats != nil {
		e.stats.Record(time.Since(start).Milliseconds())
	}
	if err != nil {
		e.log.Warn("ocr failed for page", "page", pageNr, "error", err)
		return ""
	}
	return text
}
