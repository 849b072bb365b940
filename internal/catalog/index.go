package catalog

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ParseIndex extracts document records from an AIP listing page for one
// section. The listing is a table whose rows carry the document title in the
// first cell and a download link (labelled with the amendment stamp) in the
// last cell. Pagination and browser navigation are the crawler's problem;
// this only reads a page it is handed.
func ParseIndex(r io.Reader, baseURL, section string) ([]Record, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse index html: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var records []Record
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			if rec, ok := parseRow(n, base, section); ok {
				records = append(records, rec)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return Dedup(records), nil
}

// parseRow reads one table row: title from the first cell, link and version
// stamp from the anchor in the last cell.
func parseRow(tr *html.Node, base *url.URL, section string) (Record, bool) {
	var cells []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, c)
		}
	}
	if len(cells) < 2 {
		return Record{}, false
	}

	title := strings.TrimSpace(nodeText(cells[0]))
	link := findAnchor(cells[len(cells)-1])
	if title == "" || link == nil {
		return Record{}, false
	}

	href := attr(link, "href")
	if href == "" {
		return Record{}, false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return Record{}, false
	}

	version := strings.TrimSpace(nodeText(link))
	return NewRecord(title, base.ResolveReference(ref).String(), section, version), true
}

func findAnchor(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "a" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if a := findAnchor(c); a != nil {
			return a
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
