// Package markdown reduces Markdown to plain text so document bodies can be
// tokenized without structural syntax leaking into the index.
package markdown

import (
	"regexp"
	"strings"
)

var (
	imagePattern      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkPattern       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	refLinkPattern    = regexp.MustCompile(`\[([^\]]*)\]\[[^\]]*\]`)
	inlineCodePattern = regexp.MustCompile("`([^`]*)`")
	boldPattern       = regexp.MustCompile(`(\*\*|__)(.*?)(\*\*|__)`)
	emphasisPattern   = regexp.MustCompile(`(\*|_)(.*?)(\*|_)`)
	strikePattern     = regexp.MustCompile(`~~(.*?)~~`)
	headerPattern     = regexp.MustCompile(`^#{1,6}\s+`)
	bulletPattern     = regexp.MustCompile(`^\s*([-*+]|\d+[.)])\s+`)
	quotePattern      = regexp.MustCompile(`^\s*>+\s?`)
	setextPattern     = regexp.MustCompile(`^(=+|-{2,})\s*$`)
	rulePattern       = regexp.MustCompile(`^\s*([-*_]\s*){3,}$`)
	htmlTagPattern    = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
)

// Strip removes structural Markdown syntax: headers lose their markers,
// emphasis and inline code unwrap to their text, links and images reduce to
// their text, code fences unwrap to their contents, and blockquote/list
// markers disappear. The output is plain text suitable for tokenization.
func Strip(input string) string {
	var out []string
	inFence := false

	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			// Fence contents stay verbatim, only the fence markers go.
			out = append(out, line)
			continue
		}
		if rulePattern.MatchString(trimmed) || setextPattern.MatchString(trimmed) {
			continue
		}
		out = append(out, stripInline(line))
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

func stripInline(line string) string {
	line = headerPattern.ReplaceAllString(line, "")
	line = quotePattern.ReplaceAllString(line, "")
	line = bulletPattern.ReplaceAllString(line, "")
	line = imagePattern.ReplaceAllString(line, "$1")
	line = linkPattern.ReplaceAllString(line, "$1")
	line = refLinkPattern.ReplaceAllString(line, "$1")
	line = inlineCodePattern.ReplaceAllString(line, "$1")
	line = boldPattern.ReplaceAllString(line, "$2")
	line = emphasisPattern.ReplaceAllString(line, "$2")
	line = strikePattern.ReplaceAllString(line, "$1")
	line = htmlTagPattern.ReplaceAllString(line, " ")
	return line
}
