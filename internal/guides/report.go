package guides

import (
	"strconv"

	"github.com/inful/mdfp"
)

// ChangeReport summarizes how a crawl differs from the previous catalog.
type ChangeReport struct {
	Added     int
	Changed   int
	Removed   int
	Unchanged int
}

// Empty reports whether nothing changed.
func (r ChangeReport) Empty() bool {
	return r.Added == 0 && r.Changed == 0 && r.Removed == 0
}

// Fingerprint hashes an entry's title and content.
func Fingerprint(e Entry) string {
	return mdfp.CalculateFingerprintFromParts("name: "+strconv.Quote(e.Name), e.Content)
}

// Compare fingerprints the previous and the new catalog per category and id.
func Compare(prev map[string][]Entry, next *Catalog) ChangeReport {
	old := map[string]string{}
	for cat, entries := range prev {
		for _, e := range entries {
			old[cat+"\x00"+e.ID] = Fingerprint(e)
		}
	}
	var r ChangeReport
	seen := map[string]bool{}
	for _, cat := range next.Keys() {
		for _, e := range next.Entries(cat) {
			k := cat + "\x00" + e.ID
			seen[k] = true
			fp, ok := old[k]
			switch {
			case !ok:
				r.Added++
			case fp != Fingerprint(e):
				r.Changed++
			default:
				r.Unchanged++
			}
		}
	}
	for k := range old {
		if !seen[k] {
			r.Removed++
		}
	}
	return r
}
