package guides

import (
	"sort"
	"strings"
)

// CategoryKey derives the catalog key for a configured directory.
func CategoryKey(dir string) string {
	return strings.ReplaceAll(strings.ToLower(dir), "-", "_")
}

// SortEntries orders entries in place. The primary category follows the
// curated order with unlisted ids after all listed ones, keeping discovery
// order among themselves; every other category sorts by id.
func SortEntries(entries []Entry, category, primary string, order []string) {
	if category != primary {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
		return
	}
	rank := make(map[string]int, len(order))
	for i, id := range order {
		if _, dup := rank[id]; !dup {
			rank[id] = i
		}
	}
	pos := func(id string) int {
		if r, ok := rank[id]; ok {
			return r
		}
		return len(order)
	}
	sort.SliceStable(entries, func(i, j int) bool { return pos(entries[i].ID) < pos(entries[j].ID) })
}
