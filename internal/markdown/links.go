// Package markdown turns repository markdown into self-contained catalog entries.
package markdown

import (
	"path"
	"regexp"
	"strings"
)

// DefaultExtension is the document extension used when none is configured.
const DefaultExtension = ".md"

var (
	// [text](target.md) with an optional #fragment.
	docLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+\.md)(#[^)]*)?\)`)
	schemePattern  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

// EntryID derives the flat catalog id for a repository-relative document path:
// separators become "-" and the extension is dropped.
func EntryID(docPath string) string {
	flat := strings.ReplaceAll(docPath, "/", "-")
	return strings.TrimSuffix(flat, path.Ext(flat))
}

// RewriteLinks rewrites relative links to other documents into in-page anchors
// pointing at the target's entry id, keeping any fragment. A leading "/"
// resolves from the repository root. Links carrying a
// URL scheme are left as they are.
func RewriteLinks(content, docPath string) string {
	if !strings.Contains(content, ".md") {
		return content
	}
	dir := path.Dir(docPath)
	return docLinkPattern.ReplaceAllStringFunc(content, func(m string) string {
		sub := docLinkPattern.FindStringSubmatch(m)
		text, target, fragment := sub[1], sub[2], sub[3]
		if schemePattern.MatchString(target) {
			return m
		}
		var resolved string
		if strings.HasPrefix(target, "/") {
			resolved = path.Clean(strings.TrimPrefix(target, "/"))
		} else {
			resolved = path.Clean(path.Join(dir, target))
		}
		return "[" + text + "](#" + EntryID(resolved) + fragment + ")"
	})
}
