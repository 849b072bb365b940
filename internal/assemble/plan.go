// Package assemble turns a grouped document set into one combined,
// bookmarked PDF, or into per-section PDFs when the combined artifact grows
// past the size threshold.
package assemble

import (
	"github.com/nvarela/aipbundler/internal/catalog"
)

// PageCounter reports the page count to budget for a record. Implementations
// return the real count when the file is readable and a fixed estimate when
// it is not.
type PageCounter func(rec catalog.Record) int

// Entry is one index line: a document's display title and the absolute page
// offset its content starts at.
type Entry struct {
	Title   string `json:"title"`
	Section string `json:"section"`
	Page    int    `json:"page"`
}

// Node is a bookmark: a named jump target at an absolute page offset,
// optionally with nested children. Section nodes carry their documents as
// kids; hierarchy is explicit, never implied by output order.
type Node struct {
	Title  string
	Offset int
	Kids   []Node
}

// Plan is the offset accounting shared by the index renderer and the
// assembler. Both consume the same traversal so their numbers cannot
// diverge: offsets advance section by section, document by document, in the
// exact order pages are emitted.
type Plan struct {
	Entries    []Entry
	Sections   []Node
	StartPage  int
	TotalPages int
}

// ComputePlan walks the grouped records in traversal order, assigning each
// document the running offset and advancing it by the document's page
// count. startPage is the offset of the first document: the page count of
// the front-matter index in the combined artifact, zero for a standalone
// section artifact.
func ComputePlan(groups catalog.Groups, pages PageCounter, startPage, titleWidth int) Plan {
	plan := Plan{StartPage: startPage}
	offset := startPage

	for _, section := range groups.Order {
		node := Node{Title: section, Offset: offset}
		for _, rec := range groups.Records[section] {
			title := rec.DisplayTitle(titleWidth)
			plan.Entries = append(plan.Entries, Entry{
				Title:   title,
				Section: section,
				Page:    offset,
			})
			node.Kids = append(node.Kids, Node{Title: title, Offset: offset})
			offset += pages(rec)
		}
		plan.Sections = append(plan.Sections, node)
	}

	plan.TotalPages = offset
	return plan
}
