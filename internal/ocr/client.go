//go:build ocr

// Package ocr decides whether a document needs a recognition pass and, when
// it does, rebuilds the document as rasterized pages with an invisible
// recognized-text layer.
//
// This file wraps the Tesseract engine via gosseract and is compiled only
// with the "ocr" build tag. It requires Tesseract on the system:
//
//	apt-get install tesseract-ocr tesseract-ocr-spa
package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Client wraps Tesseract for page recognition.
type Client struct {
	client *gosseract.Client
}

// NewClient creates a recognition client for the given language (e.g.
// "spa"). Close it when no longer needed.
func NewClient(lang string) (*Client, error) {
	c := gosseract.NewClient()
	if lang != "" {
		if err := c.SetLanguage(lang); err != nil {
			c.Close()
			return nil, fmt.Errorf("set ocr language %q: %w", lang, err)
		}
	}
	return &Client{client: c}, nil
}

// Close releases engine resources.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Recognize runs OCR over PNG image data and returns the trimmed text.
func (c *Client) Recognize(imageData []byte) (string, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return strings.TrimSpace(text), nil
}
