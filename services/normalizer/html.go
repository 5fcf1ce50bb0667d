package normalizer

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// HTMLToText strips tags, decodes a fixed set of entities and collapses whitespace.
// Tags are removed before entities are decoded so an escaped "&lt;b&gt;" survives as text.
func HTMLToText(html string) string {
	text := tagPattern.ReplaceAllString(html, " ")
	text = entityReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}
