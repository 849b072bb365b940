package ocr

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// PageImage is one rasterized page. Width and Height are the page size in
// points; the PNG itself is rendered at the enrichment scale factor.
type PageImage struct {
	PNG    []byte
	Width  float64
	Height float64
}

// Rasterizer renders every page of a PDF to an image.
type Rasterizer interface {
	Rasterize(path string, scale float64) ([]PageImage, error)
}

// FitzRasterizer renders pages with MuPDF.
type FitzRasterizer struct{}

// Rasterize renders each page at scale times the nominal 72 DPI. The page
// geometry reported alongside each image is the original page box, so a
// rebuilt page keeps the source dimensions regardless of scale.
func (FitzRasterizer) Rasterize(path string, scale float64) ([]PageImage, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf for raster: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	pages := make([]PageImage, 0, numPages)
	for i := 0; i < numPages; i++ {
		bounds, err := doc.Bound(i)
		if err != nil {
			return nil, fmt.Errorf("page %d bounds: %w", i+1, err)
		}
		png, err := doc.ImagePNG(i, 72*scale)
		if err != nil {
			return nil, fmt.Errorf("rasterize page %d: %w", i+1, err)
		}
		pages = append(pages, PageImage{
			PNG:    png,
			Width:  float64(bounds.Dx()),
			Height: float64(bounds.Dy()),
		})
	}
	return pages, nil
}
