//go:build !ocr

// Package ocr decides whether a document needs a recognition pass and, when
// it does, rebuilds the document as rasterized pages with an invisible
// recognized-text layer.
//
// This is the stub recognition client used when the "ocr" build tag is not
// set. NewClient reports the backend as unavailable; the enricher then
// degrades to image-only pages. Rebuild with -tags ocr (Tesseract required)
// to enable recognition.
package ocr

// Client is a stub recognition client.
type Client struct{}

// NewClient reports that recognition support is not compiled in.
func NewClient(lang string) (*Client, error) {
	return nil, ErrNotEnabled
}

// Close is a no-op. Safe on a nil client.
func (c *Client) Close() error {
	return nil
}

// Recognize always fails with ErrNotEnabled.
func (c *Client) Recognize(imageData []byte) (string, error) {
	return "", ErrNotEnabled
}
