package assemble

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFMerger is the pdfcpu-backed Merger used in production.
type PDFMerger struct {
	conf *model.Configuration
}

func NewPDFMerger() *PDFMerger {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFMerger{conf: conf}
}

func (m *PDFMerger) Merge(files []string, out string) error {
	if len(files) == 0 {
		return fmt.Errorf("merge: no input files")
	}
	return api.MergeCreateFile(files, out, false, m.conf)
}

func (m *PDFMerger) SetBookmarks(in, out string, roots []Node) error {
	bms := toBookmarks(roots)
	if len(bms) == 0 {
		return api.OptimizeFile(in, out, m.conf)
	}
	return api.AddBookmarksFile(in, out, bms, true, m.conf)
}

// toBookmarks converts zero-based page offsets to pdfcpu's one-based
// PageFrom fields.
func toBookmarks(nodes []Node) []pdfcpu.Bookmark {
	out := make([]pdfcpu.Bookmark, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, pdfcpu.Bookmark{
			Title:    n.Title,
			PageFrom: n.Offset + 1,
			Kids:     toBookmarks(n.Kids),
		})
	}
	return out
}
