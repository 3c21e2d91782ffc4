package markdown

import (
	"path"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ExtractTitle returns the text of the first level-1 heading, or the
// filename-derived fallback when the document has none.
func ExtractTitle(content []byte, docPath string) string {
	if title := firstHeading(content); title != "" {
		return title
	}
	return FallbackTitle(docPath)
}

// FallbackTitle turns "docs/quick-start_guide.md" into "quick start guide".
func FallbackTitle(docPath string) string {
	name := strings.ReplaceAll(path.Base(docPath), ".md", "")
	return strings.NewReplacer("-", " ", "_", " ").Replace(name)
}

func firstHeading(content []byte) string {
	root := goldmark.New().Parser().Parse(text.NewReader(content))
	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok || h.Level != 1 {
			return gmast.WalkContinue, nil
		}
		lines := h.Lines()
		parts := make([]string, 0, lines.Len())
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			parts = append(parts, strings.TrimSpace(string(seg.Value(content))))
		}
		title = strings.TrimSpace(strings.Join(parts, " "))
		if title == "" {
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkStop, nil
	})
	return title
}
