package assemble

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/nvarela/aipbundler/internal/catalog"
	"github.com/nvarela/aipbundler/internal/config"
	"github.com/nvarela/aipbundler/internal/inspect"
)

// ErrNothingToAssemble is returned when no record points at a usable local
// file. This is the only fatal assembly condition; everything else degrades.
var ErrNothingToAssemble = errors.New("no downloaded documents to assemble")

// Inspector reports page structure for one document.
type Inspector interface {
	Inspect(path string) (inspect.Result, error)
}

// Enricher optionally replaces a scanned document with a searchable rebuild.
type Enricher interface {
	EnrichIfNeeded(path string, res inspect.Result, tempDir string) (string, bool, error)
}

// Merger concatenates page streams and applies a bookmark tree.
type Merger interface {
	Merge(files []string, out string) error
	SetBookmarks(in, out string, roots []Node) error
}

// Outcome describes one finished assembly run. Exactly one of CombinedPath
// or SectionPaths is populated.
type Outcome struct {
	CombinedPath string   `json:"combined_path,omitempty"`
	SectionPaths []string `json:"section_paths,omitempty"`
	Split        bool     `json:"split"`
	SplitReason  string   `json:"split_reason,omitempty"`
	CombinedSize int64    `json:"combined_size,omitempty"`
	TotalPages   int      `json:"total_pages"`
	Entries      []Entry  `json:"entries"`
	Skipped      []string `json:"skipped,omitempty"`
	Enriched     []string `json:"enriched,omitempty"`
}

// docState tracks one grouped document across the run: its inspection
// result and the path its pages are merged from (the original file, or a
// temporary enriched rebuild that must be deleted afterward).
type docState struct {
	res       inspect.Result
	readable  bool
	mergePath string
	temp      bool
	enriched  bool
}

// Assembler drives the run: inspect, enrich, index, merge, size-route.
// Page-offset bookkeeping is strictly sequential; only the enrichment
// prepass fans out, and it completes before any page is emitted.
type Assembler struct {
	cfg       config.Config
	inspector Inspector
	enricher  Enricher
	merger    Merger
	toc       *TOCBuilder
	log       *slog.Logger
}

func New(cfg config.Config, inspector Inspector, enricher Enricher, merger Merger, log *slog.Logger) *Assembler {
	return &Assembler{
		cfg:       cfg,
		inspector: inspector,
		enricher:  enricher,
		merger:    merger,
		toc:       NewTOCBuilder(cfg.TOCStartPage, cfg.TitleWidth, log),
		log:       log,
	}
}

// Run assembles the given records into the output directory.
func (a *Assembler) Run(records []catalog.Record) (*Outcome, error) {
	groups := catalog.GroupBySection(records, a.cfg.Sections)
	if groups.Len() == 0 {
		return nil, ErrNothingToAssemble
	}

	outcome := &Outcome{}
	states := a.inspectAll(groups, outcome)
	defer a.cleanup(states)

	// Budget counter for the index: exact counts where possible, the fixed
	// estimate for documents that would not open. Those documents still get
	// an index line so the numbers stay approximately aligned.
	budget := func(rec catalog.Record) int {
		if st := states[rec.LocalPath]; st != nil && st.readable {
			return st.res.PageCount
		}
		return a.cfg.FallbackPageCount
	}

	a.enrichAll(groups, states, outcome)

	// Only documents that actually open contribute pages; the plan driving
	// the bookmarks walks exactly that set.
	mergeable := filterGroups(groups, func(rec catalog.Record) bool {
		st := states[rec.LocalPath]
		return st != nil && st.readable
	})
	exact := func(rec catalog.Record) int { return states[rec.LocalPath].res.PageCount }

	combined, err := a.buildCombined(groups, mergeable, states, budget, exact, outcome)
	if err != nil {
		a.log.Error("combined assembly failed, falling back to per-section artifacts", "error", err)
		return a.splitBySections(mergeable, states, exact, outcome, "merge_error")
	}

	size := combined.size
	a.log.Info("combined artifact written", "path", combined.path, "size_bytes", size, "pages", combined.pages)
	if size > a.cfg.SizeThresholdBytes() {
		a.log.Warn("combined artifact exceeds size threshold, splitting by section",
			"size_bytes", size, "threshold_bytes", a.cfg.SizeThresholdBytes())
		os.Remove(combined.path)
		return a.splitBySections(mergeable, states, exact, outcome, "oversize")
	}

	outcome.CombinedPath = combined.path
	outcome.CombinedSize = size
	outcome.TotalPages = combined.pages
	return outcome, nil
}

func (a *Assembler) inspectAll(groups catalog.Groups, outcome *Outcome) map[string]*docState {
	states := make(map[string]*docState, groups.Len())
	groups.Walk(func(_ string, rec catalog.Record) {
		st := &docState{}
		states[rec.LocalPath] = st
		res, err := a.inspector.Inspect(rec.LocalPath)
		if err != nil {
			a.log.Warn("document skipped: unreadable source", "title", rec.Title, "path", rec.LocalPath, "error", err)
			outcome.Skipped = append(outcome.Skipped, rec.Title)
			return
		}
		st.res = res
		st.readable = true
		st.mergePath = rec.LocalPath
	})
	return states
}

// enrichAll runs the OCR decision for every readable document. Recognition
// may fan out up to the configured concurrency; results land in per-document
// state before the sequential merge starts, so emission order is unaffected.
func (a *Assembler) enrichAll(groups catalog.Groups, states map[string]*docState, outcome *Outcome) {
	sem := make(chan struct{}, a.cfg.MaxConcurrentOCR)
	var wg sync.WaitGroup

	groups.Walk(func(_ string, rec catalog.Record) {
		st := states[rec.LocalPath]
		if st == nil || !st.readable || !st.res.NeedsEnrichment() {
			return
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(rec catalog.Record, st *docState) {
			defer wg.Done()
			defer func() { <-sem }()

			path, temp, err := a.enricher.EnrichIfNeeded(rec.LocalPath, st.res, a.cfg.TempDir)
			if err != nil {
				a.log.Warn("enrichment failed, merging original", "title", rec.Title, "error", err)
				return
			}
			st.mergePath = path
			st.temp = temp
			st.enriched = temp
		}(rec, st)
	})
	wg.Wait()

	groups.Walk(func(_ string, rec catalog.Record) {
		if st := states[rec.LocalPath]; st != nil && st.enriched {
			outcome.Enriched = append(outcome.Enriched, rec.Title)
		}
	})
}

type combinedArtifact struct {
	path  string
	size  int64
	pages int
}

func (a *Assembler) buildCombined(all, mergeable catalog.Groups, states map[string]*docState,
	budget, exact PageCounter, outcome *Outcome) (combinedArtifact, error) {

	// The index simulates offsets over the full grouped set (estimates
	// included) so skipped documents still appear in it.
	toc, err := a.toc.Build(all, budget, a.cfg.TempDir)
	if err != nil {
		return combinedArtifact{}, fmt.Errorf("build index: %w", err)
	}
	defer os.Remove(toc.Path)
	outcome.Entries = toc.Plan.Entries

	plan := ComputePlan(mergeable, exact, toc.Pages, a.cfg.TitleWidth)

	files := []string{toc.Path}
	mergeable.Walk(func(_ string, rec catalog.Record) {
		files = append(files, states[rec.LocalPath].mergePath)
	})

	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return combinedArtifact{}, fmt.Errorf("create output dir: %w", err)
	}
	tmpOut := filepath.Join(a.cfg.TempDir, "combined-unbookmarked.pdf")
	defer os.Remove(tmpOut)

	if err := a.merger.Merge(files, tmpOut); err != nil {
		return combinedArtifact{}, fmt.Errorf("merge combined: %w", err)
	}

	roots := []Node{{Title: tocTitle, Offset: 0}}
	for _, node := range plan.Sections {
		if len(node.Kids) > 0 {
			roots = append(roots, node)
		}
	}
	finalPath := filepath.Join(a.cfg.OutputDir, a.cfg.CombinedName)
	if err := a.merger.SetBookmarks(tmpOut, finalPath, roots); err != nil {
		return combinedArtifact{}, fmt.Errorf("apply bookmarks: %w", err)
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return combinedArtifact{}, fmt.Errorf("stat combined: %w", err)
	}
	return combinedArtifact{path: finalPath, size: info.Size(), pages: plan.TotalPages}, nil
}

// splitBySections builds one artifact per non-empty section, each starting
// at offset zero with its own bookmark tree. A failing section is logged
// and skipped; the others still come out.
func (a *Assembler) splitBySections(mergeable catalog.Groups, states map[string]*docState,
	exact PageCounter, outcome *Outcome, reason string) (*Outcome, error) {

	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.MkdirAll(a.cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	totalPages := 0
	for _, section := range mergeable.Order {
		recs := mergeable.Records[section]
		if len(recs) == 0 {
			continue
		}
		sub := catalog.Groups{
			Order:   []string{section},
			Records: map[string][]catalog.Record{section: recs},
		}
		plan := ComputePlan(sub, exact, 0, a.cfg.TitleWidth)

		var files []string
		sub.Walk(func(_ string, rec catalog.Record) {
			files = append(files, states[rec.LocalPath].mergePath)
		})

		tmpOut := filepath.Join(a.cfg.TempDir, "section-"+section+".pdf")
		finalPath := filepath.Join(a.cfg.OutputDir, sectionArtifactName(a.cfg.SectionPrefix, section))

		if err := a.merger.Merge(files, tmpOut); err != nil {
			a.log.Error("section merge failed", "section", section, "error", err)
			os.Remove(tmpOut)
			continue
		}
		if err := a.merger.SetBookmarks(tmpOut, finalPath, plan.Sections); err != nil {
			a.log.Error("section bookmarks failed", "section", section, "error", err)
			os.Remove(tmpOut)
			continue
		}
		os.Remove(tmpOut)

		if info, err := os.Stat(finalPath); err == nil {
			a.log.Info("section artifact written", "section", section, "path", finalPath, "size_bytes", info.Size())
		}
		outcome.SectionPaths = append(outcome.SectionPaths, finalPath)
		totalPages += plan.TotalPages
	}

	if len(outcome.SectionPaths) == 0 {
		return nil, fmt.Errorf("per-section fallback produced no artifacts")
	}
	outcome.Split = true
	outcome.SplitReason = reason
	outcome.TotalPages = totalPages
	return outcome, nil
}

// cleanup removes temporary enriched files on every exit path.
func (a *Assembler) cleanup(states map[string]*docState) {
	for _, st := range states {
		if st.temp && st.mergePath != "" {
			if err := os.Remove(st.mergePath); err != nil && !os.IsNotExist(err) {
				a.log.Warn("temp enriched file not removed", "path", st.mergePath, "error", err)
			}
		}
	}
}

func filterGroups(groups catalog.Groups, keep func(catalog.Record) bool) catalog.Groups {
	out := catalog.Groups{
		Order:   groups.Order,
		Records: make(map[string][]catalog.Record, len(groups.Order)),
	}
	for _, section := range groups.Order {
		var kept []catalog.Record
		for _, rec := range groups.Records[section] {
			if keep(rec) {
				kept = append(kept, rec)
			}
		}
		out.Records[section] = kept
	}
	return out
}
