package catalog

import (
	"os"
	"regexp"
	"strings"
)

// Record describes one source PDF of the publication. Records are created
// once by the discovery side and read-only afterward.
type Record struct {
	Title      string `json:"title"`
	Section    string `json:"section"`
	Subsection string `json:"subsection,omitempty"`
	Version    string `json:"version,omitempty"`
	URL        string `json:"url,omitempty"`
	Filename   string `json:"filename"`

	// LocalPath is set once the document has been downloaded. Empty means
	// the record is excluded from assembly.
	LocalPath string `json:"local_path,omitempty"`
}

var (
	subsectionRe = regexp.MustCompile(`^([A-Z]+-[\d.]+)`)
	unsafeRe     = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// NewRecord builds a record from discovery output, deriving the subsection
// from the title and a filesystem-safe filename.
func NewRecord(title, url, section, version string) Record {
	title = strings.TrimSpace(title)
	return Record{
		Title:      title,
		Section:    section,
		Subsection: ExtractSubsection(title),
		Version:    strings.TrimSpace(version),
		URL:        url,
		Filename:   cleanFilename(section, title),
	}
}

// ExtractSubsection pulls the classification prefix from a document title,
// e.g. "AD-2.0 Aeródromos" yields "AD-2.0". Empty when the title has none.
func ExtractSubsection(title string) string {
	return subsectionRe.FindString(title)
}

// Downloaded reports whether the record points at an existing local file.
func (r Record) Downloaded() bool {
	if r.LocalPath == "" {
		return false
	}
	_, err := os.Stat(r.LocalPath)
	return err == nil
}

// DisplayTitle strips the section-name prefix from the title and truncates
// it to width runes, appending an ellipsis when cut. Used for bookmark
// labels and index lines.
func (r Record) DisplayTitle(width int) string {
	title := strings.TrimSpace(strings.Replace(r.Title, r.Section+"-", "", 1))
	runes := []rune(title)
	if width > 0 && len(runes) > width {
		return string(runes[:width]) + "..."
	}
	return title
}

func cleanFilename(section, title string) string {
	clean := unsafeRe.ReplaceAllString(title, "")
	clean = spaceRe.ReplaceAllString(strings.TrimSpace(clean), "_")
	return section + "_" + clean + ".pdf"
}
