package services

import (
	"fmt"
	"strings"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// ContextDelimiter separates entries in a rendered context block.
const ContextDelimiter = "\n\n---\n\n"

const ellipsis = "..."

// FormatContext renders scored documents into a text block for a language
// model. Each entry carries its sequence number, relevance when a similarity
// is known, title, source, an excerpt and the summary if any.
func FormatContext(docs []domain.ScoredDocument) string {
	entries := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Document == nil {
			continue
		}
		entries = append(entries, formatEntry(len(entries)+1, d))
	}
	return strings.Join(entries, ContextDelimiter)
}

func formatEntry(n int, d domain.ScoredDocument) string {
	doc := d.Document
	var b strings.Builder

	fmt.Fprintf(&b, "[%d] %s\n", n, doc.Title)
	if d.Similarity != nil {
		fmt.Fprintf(&b, "Relevance: %.0f%%\n", *d.Similarity*100)
	}
	if src := doc.EffectiveSource(); src != "" {
		fmt.Fprintf(&b, "Source: %s\n", src)
	}
	b.WriteString(Excerpt(doc.Content, domain.DefaultExcerptRunes))
	if doc.Summary != "" {
		fmt.Fprintf(&b, "\nSummary: %s", doc.Summary)
	}
	return b.String()
}

// Excerpt caps content at maxRunes characters, appending an ellipsis when
// anything was cut.
func Excerpt(content string, maxRunes int) string {
	content = strings.TrimSpace(content)
	if maxRunes <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= maxRunes {
		return content
	}
	return string(runes[:maxRunes]) + ellipsis
}
