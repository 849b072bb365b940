// Package inspect opens source PDFs and reports what assembly needs to know
// about them: page count, per-page text presence, and per-page image
// presence. Text comes from the embedded content streams; a page whose
// extractable text is shorter than the configured threshold counts as
// having no meaningful text.
package inspect

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Page describes one page of an inspected document.
type Page struct {
	HasMeaningfulText bool
	HasImages         bool
}

// Result is the outcome of inspecting one document.
type Result struct {
	PageCount int
	Pages     []Page
}

// NeedsEnrichment reports whether any page carries images but no meaningful
// text, the trigger for the OCR enrichment step.
func (r Result) NeedsEnrichment() bool {
	for _, p := range r.Pages {
		if p.HasImages && !p.HasMeaningfulText {
			return true
		}
	}
	return false
}

// Inspector reads PDF structure. Zero-value is not usable; construct with New.
type Inspector struct {
	minTextChars int
	conf         *model.Configuration
}

func New(minTextChars int) *Inspector {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Inspector{
		minTextChars: minTextChars,
		conf:         conf,
	}
}

// Inspect opens the PDF at path and reports per-page findings. An
// unreadable or corrupt file yields a zero Result and an error; callers
// treat the document as unusable for exact page-offset purposes and fall
// back to an estimated page count.
func (i *Inspector) Inspect(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, i.conf)
	if err != nil {
		return Result{}, fmt.Errorf("read pdf %s: %w", path, err)
	}
	if ctx.PageCount <= 0 {
		return Result{}, fmt.Errorf("pdf %s has no pages", path)
	}

	res := Result{
		PageCount: ctx.PageCount,
		Pages:     make([]Page, ctx.PageCount),
	}
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		res.Pages[pageNr-1].HasImages = len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0
	}

	i.fillTextPresence(path, &res)
	return res, nil
}

// fillTextPresence marks pages whose plain text meets the threshold. Text
// extraction failures leave a page marked textless; that only errs toward
// running OCR on it.
func (i *Inspector) fillTextPresence(path string, res *Result) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	numPages := reader.NumPage()
	for pageNr := 1; pageNr <= numPages && pageNr <= res.PageCount; pageNr++ {
		page := reader.Page(pageNr)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i.meaningful(text) {
			res.Pages[pageNr-1].HasMeaningfulText = true
		}
	}
}

// meaningful applies the text threshold in characters, not bytes, so
// accented Spanish text is not counted double.
func (i *Inspector) meaningful(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= i.minTextChars
}
