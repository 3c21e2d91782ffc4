package guides

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesync/internal/forge"
)

type fakeSource struct {
	dirs  map[string][]string // dir -> file paths
	files map[string]string   // path -> content
	fail  map[string]bool
}

func (f *fakeSource) ListFiles(_ context.Context, dir, ext string) ([]forge.ContentEntry, error) {
	var out []forge.ContentEntry
	for _, p := range f.dirs[dir] {
		if strings.HasSuffix(p, ext) {
			out = append(out, forge.ContentEntry{Type: forge.TypeFile, Name: filepath.Base(p), Path: p, DownloadURL: "raw://" + p})
		}
	}
	return out, nil
}

func (f *fakeSource) RawFile(_ context.Context, e forge.ContentEntry) ([]byte, error) {
	if f.fail[e.Path] {
		return nil, errors.New("boom")
	}
	return []byte(f.files[e.Path]), nil
}

func newFake() *fakeSource {
	return &fakeSource{
		dirs: map[string][]string{
			"Documentation": {
				"Documentation/zeta.md",
				"Documentation/faq.md",
				"Documentation/index.md",
				"Documentation/alpha.md",
				"Documentation/broken.md",
			},
			"CONTRIBUTING_GUIDE": {
				"CONTRIBUTING_GUIDE/b.md",
				"CONTRIBUTING_GUIDE/a.md",
			},
			"Empty-Dir": {},
		},
		files: map[string]string{
			"Documentation/zeta.md":  "no heading here",
			"Documentation/faq.md":   "# FAQ\nSee [install](installation.md#linux).",
			"Documentation/index.md": "# Welcome\n",
			"Documentation/alpha.md": "# Alpha <beta>\n",
			"CONTRIBUTING_GUIDE/b.md": "# B\n",
			"CONTRIBUTING_GUIDE/a.md": "# A\n",
		},
		fail: map[string]bool{"Documentation/broken.md": true},
	}
}

func testOptions(out string) Options {
	return Options{
		Directories:     []string{"Documentation", "CONTRIBUTING_GUIDE", "Empty-Dir"},
		Extension:       ".md",
		PrimaryCategory: "documentation",
		Order:           []string{"Documentation-index", "Documentation-quick-start", "Documentation-faq"},
		Output:          out,
	}
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestCrawl(t *testing.T) {
	c := NewCrawler(newFake(), testOptions(""), nil)
	cat, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"documentation", "contributing_guide"}, cat.Keys())
	assert.Equal(t,
		[]string{"Documentation-index", "Documentation-faq", "Documentation-zeta", "Documentation-alpha"},
		ids(cat.Entries("documentation")))
	assert.Equal(t, []string{"CONTRIBUTING_GUIDE-a", "CONTRIBUTING_GUIDE-b"}, ids(cat.Entries("contributing_guide")))

	docs := cat.Entries("documentation")
	assert.Equal(t, "Welcome", docs[0].Name)
	assert.Equal(t, "FAQ", docs[1].Name)
	assert.Equal(t, "# FAQ\nSee [install](#Documentation-installation#linux).", docs[1].Content)
	assert.Equal(t, "zeta", docs[2].Name)
}

func TestCrawl_LogsFailedDocumentID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	_, err := NewCrawler(newFake(), testOptions(""), nil).Crawl(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Failed to process document")
	assert.Contains(t, buf.String(), "doc_id=Documentation-broken")
}

func TestRun_WritesOrderedCatalogAndReportsChanges(t *testing.T) {
	out := filepath.Join(t.TempDir(), "public", "guides.json")
	src := newFake()

	first, err := NewCrawler(src, testOptions(out), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, first.Report.Added)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)
	assert.Less(t, strings.Index(text, `"documentation"`), strings.Index(text, `"contributing_guide"`))
	assert.Contains(t, text, "Alpha <beta>")
	assert.NotContains(t, text, "empty_dir")

	src.files["Documentation/index.md"] = "# Welcome back\n"
	delete(src.files, "CONTRIBUTING_GUIDE/b.md")
	src.dirs["CONTRIBUTING_GUIDE"] = []string{"CONTRIBUTING_GUIDE/a.md"}

	second, err := NewCrawler(src, testOptions(out), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ChangeReport{Added: 0, Changed: 1, Removed: 1, Unchanged: 4}, second.Report)
}

func TestSortEntries(t *testing.T) {
	entries := []Entry{{ID: "x"}, {ID: "c"}, {ID: "a"}, {ID: "y"}, {ID: "b"}}
	SortEntries(entries, "documentation", "documentation", []string{"a", "b", "c"})
	assert.Equal(t, []string{"a", "b", "c", "x", "y"}, ids(entries))

	entries = []Entry{{ID: "y"}, {ID: "x"}, {ID: "b"}}
	SortEntries(entries, "documentation", "documentation", []string{"b"})
	assert.Equal(t, []string{"b", "y", "x"}, ids(entries), "unlisted ids keep discovery order")

	entries = []Entry{{ID: "y"}, {ID: "x"}, {ID: "b"}}
	SortEntries(entries, "contributing_guide", "documentation", []string{"y"})
	assert.Equal(t, []string{"b", "x", "y"}, ids(entries))
}

func TestCategoryKey(t *testing.T) {
	assert.Equal(t, "documentation", CategoryKey("Documentation"))
	assert.Equal(t, "contributing_guide", CategoryKey("CONTRIBUTING-GUIDE"))
}

func TestCatalogMarshalKeepsInsertionOrder(t *testing.T) {
	cat := NewCatalog()
	cat.Set("zeta", []Entry{{ID: "z", Name: "Z", Content: "<b>"}})
	cat.Set("alpha", nil)
	data, err := cat.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":[{"id":"z","name":"Z","content":"<b>"}],"alpha":[]}`, string(data))
}
