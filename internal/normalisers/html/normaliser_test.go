package html

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

const article = `<!DOCTYPE html>
<html lang="en">
<head>
  <title>F2P Monetization &amp; Retention</title>
  <meta name="description" content="How free-to-play games earn.">
  <link rel="canonical" href="https://blog.aloha-corp.com/f2p">
  <style>body { color: red }</style>
  <script>var tracking = true;</script>
</head>
<body>
  <nav><a href="/">Home</a> | <a href="/blog">Blog</a></nav>
  <article>
    <h1>Monetization</h1>
    <p>Battle passes   beat <b>loot boxes</b>.</p>
    <ul><li>Cosmetics</li><li>Season&nbsp;passes</li></ul>
    <noscript>Enable JavaScript</noscript>
  </article>
  <!-- comment -->
</body>
</html>`

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, []string{"text/html", "application/xhtml+xml"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_Article(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/saved/f2p.html",
		MIMEType: "text/html",
		Content:  []byte(article),
		Source:   "blog.aloha-corp.com",
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	doc := result.Document

	assert.Equal(t, "F2P Monetization & Retention", doc.Title)
	assert.Equal(t, "How free-to-play games earn.", doc.Summary)
	assert.Equal(t, "https://blog.aloha-corp.com/f2p", doc.URL)
	assert.Equal(t, "en", doc.Language)
	assert.Equal(t, "blog.aloha-corp.com", doc.Source)
	assert.Equal(t, domain.SourceTypeWeb, doc.SourceType)
	assert.Equal(t, "html", doc.Metadata["format"])
	assert.Equal(t, "/saved/f2p.html", doc.Metadata[domain.MetaFilePath])

	assert.Equal(t, "Monetization\nBattle passes beat loot boxes.\nCosmetics\nSeason passes", doc.Content)
	for _, unwanted := range []string{"tracking", "color", "Home", "Enable JavaScript", "comment", "F2P Monetization"} {
		assert.NotContains(t, doc.Content, unwanted)
	}
}

func TestNormalise_WebURIWinsOverCanonical(t *testing.T) {
	raw := &domain.RawDocument{
		URI:     "https://mirror.example.org/post",
		Content: []byte(article),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "https://mirror.example.org/post", result.Document.URL)
}

func TestNormalise_TitleFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"og title", `<head><meta property="og:title" content="OG Title"></head><p>x</p>`, "OG Title"},
		{"filename", `<p>no title</p>`, "release notes"},
		{"empty title tag", `<title>  </title><p>x</p>`, "release notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New().Normalise(context.Background(), &domain.RawDocument{
				URI:     "/docs/release-notes.html",
				Content: []byte(tt.content),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Document.Title)
		})
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "just text", "just text"},
		{"entities", "<p>Tom &amp; Jerry &lt;3</p>", "Tom & Jerry <3"},
		{"line breaks", "one<br>two<br/>three", "one\ntwo\nthree"},
		{"table rows", "<table><tr><td>a</td><td>b</td></tr><tr><td>c</td></tr></table>", "ab\nc"},
		{"inline elements join", "<p>hel<em>lo</em> world</p>", "hello world"},
		{"unclosed tags", "<div><p>open", "open"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractText(tt.input))
		})
	}
}

func TestParse_LargeDocument(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for range 500 {
		b.WriteString("<p>paragraph</p>")
	}
	b.WriteString("</body></html>")

	page, err := Parse(strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, 500, strings.Count(page.Text, "paragraph"))
	assert.Equal(t, 499, strings.Count(page.Text, "\n"))
}
