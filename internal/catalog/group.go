package catalog

import (
	"sort"
	"strings"
)

// Groups holds records bucketed by section in a fixed traversal order.
// Grouping and sort are deterministic for a given input set; the page-offset
// simulation depends on that.
type Groups struct {
	Order   []string
	Records map[string][]Record
}

// GroupBySection filters records to those with an existing local file,
// buckets them by section in the given order, and sorts each bucket by
// title. Records whose section is not in the order list are dropped.
func GroupBySection(records []Record, order []string) Groups {
	g := Groups{
		Order:   order,
		Records: make(map[string][]Record, len(order)),
	}
	known := make(map[string]bool, len(order))
	for _, s := range order {
		known[s] = true
		g.Records[s] = nil
	}

	for _, r := range records {
		if !known[r.Section] || !r.Downloaded() {
			continue
		}
		g.Records[r.Section] = append(g.Records[r.Section], r)
	}

	for _, s := range order {
		bucket := g.Records[s]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Title < bucket[j].Title
		})
	}

	return g
}

// Walk visits every grouped record in traversal order.
func (g Groups) Walk(fn func(section string, rec Record)) {
	for _, s := range g.Order {
		for _, rec := range g.Records[s] {
			fn(s, rec)
		}
	}
}

// Len returns the total number of grouped records.
func (g Groups) Len() int {
	n := 0
	for _, s := range g.Order {
		n += len(g.Records[s])
	}
	return n
}

// Dedup removes records sharing the same (title, url) identity, keeping the
// first occurrence. Discovery may see the same row on multiple listing pages.
func Dedup(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	out := records[:0]
	for _, r := range records {
		id := r.Title + "|" + r.URL
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, r)
	}
	return out
}

// ExcludeSubsections drops records whose subsection starts with any of the
// given prefixes. Used to strip administrative documents (amendment
// registers and the like) from a reduced bundle.
func ExcludeSubsections(records []Record, prefixes []string) (kept, excluded []Record) {
	if len(prefixes) == 0 {
		return records, nil
	}
	for _, r := range records {
		dropped := false
		for _, p := range prefixes {
			if p != "" && strings.HasPrefix(r.Subsection, p) {
				dropped = true
				break
			}
		}
		if dropped {
			excluded = append(excluded, r)
		} else {
			kept = append(kept, r)
		}
	}
	return kept, excluded
}
