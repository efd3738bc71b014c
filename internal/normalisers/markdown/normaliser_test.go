package markdown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, []string{"text/markdown", "text/x-markdown"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_FrontMatter(t *testing.T) {
	content := `---
title: F2P Monetization Guide
url: https://blog.aloha-corp.com/f2p
source: blog.aloha-corp.com
source_type: blog
summary: Pricing for free-to-play games.
tags: [games, pricing]
date: 2025-03-01
author: Kai
---
# Ignored Heading

Battle passes **outperform** loot boxes.
`
	raw := &domain.RawDocument{
		URI:      "/notes/f2p.md",
		MIMEType: "text/markdown",
		Content:  []byte(content),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	doc := result.Document

	assert.Equal(t, "F2P Monetization Guide", doc.Title)
	assert.Equal(t, "https://blog.aloha-corp.com/f2p", doc.URL)
	assert.Equal(t, "blog.aloha-corp.com", doc.Source)
	assert.Equal(t, domain.SourceTypeBlog, doc.SourceType)
	assert.Equal(t, "Pricing for free-to-play games.", doc.Summary)
	assert.Equal(t, []string{"games", "pricing"}, doc.Metadata[domain.MetaTags])
	assert.Equal(t, "Kai", doc.Metadata["author"])
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), doc.CreatedAt)
	assert.Equal(t, "Ignored Heading\n\nBattle passes outperform loot boxes.", doc.Content)
	assert.NotContains(t, doc.Content, "title:")
}

func TestNormalise_HeadingAndFilenameTitles(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		content string
		want    string
	}{
		{"first h1", "/a.md", "intro\n# Real Title\n## Sub", "Real Title"},
		{"filename fallback", "/docs/getting_started-guide.md", "no heading here", "getting started guide"},
		{"h2 is not a title", "/x/readme.md", "## Section", "readme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New().Normalise(context.Background(), &domain.RawDocument{
				URI:     tt.uri,
				Content: []byte(tt.content),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Document.Title)
			assert.Equal(t, domain.SourceTypeMarkdown, result.Document.SourceType)
			assert.Equal(t, tt.uri, result.Document.Metadata[domain.MetaFilePath])
			assert.Empty(t, result.Document.URL)
		})
	}
}

func TestNormalise_MetadataTitleWins(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:      "/a.md",
		Content:  []byte("# Heading"),
		Metadata: map[string]any{"title": "From Caller"},
	})
	require.NoError(t, err)
	assert.Equal(t, "From Caller", result.Document.Title)
}

func TestNormalise_InvalidFrontMatter(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "/bad.md",
		Content: []byte("---\ntitle: [unclosed\n---\nbody"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantBody string
		wantFM   string
	}{
		{"none", "# Title\nbody", "# Title\nbody", ""},
		{"empty block", "---\n---\nbody", "body", ""},
		{"unterminated is body", "---\ntitle: x\nbody", "---\ntitle: x\nbody", ""},
		{"horizontal rule is not front matter", "--- not yaml\ntext", "--- not yaml\ntext", ""},
		{"byte order mark", "\ufeff---\ntitle: T\n---\nbody", "body", "T"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, _, body, err := splitFrontMatter([]byte(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(body))
			assert.Equal(t, tt.wantFM, fm.Title)
		})
	}
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"headings", "# One\n## Two", "One\nTwo"},
		{"links keep text", "see [the docs](https://x.io) now", "see the docs now"},
		{"images keep alt", "![diagram](a.png)", "diagram"},
		{"emphasis", "**bold** and _italic_ and snake_case_name", "bold and italic and snake_case_name"},
		{"inline code kept", "run `go test` first", "run go test first"},
		{"fenced code kept", "```go\nfmt.Println(1)\n```", "fmt.Println(1)"},
		{"lists", "- a\n* b\n1. c\n2) d", "a\nb\nc\nd"},
		{"blockquote", "> quoted", "quoted"},
		{"horizontal rule", "a\n\n---\n\nb", "a\n\nb"},
		{"table rule", "| a | b |\n|---|:-:|\n| 1 | 2 |", "| a | b |\n\n| 1 | 2 |"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripMarkdown(tt.input))
		})
	}
}
