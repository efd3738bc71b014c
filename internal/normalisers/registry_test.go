package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
)

// stubNormaliser records the MIME type it was called with.
type stubNormaliser struct {
	name     string
	types    []string
	priority int
	seen     string
}

func (s *stubNormaliser) SupportedMIMETypes() []string { return s.types }
func (s *stubNormaliser) Priority() int                { return s.priority }

func (s *stubNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	s.seen = raw.MIMEType
	return &driven.NormaliseResult{Document: domain.KnowledgeDocument{Title: s.name}}, nil
}

func TestRegistry_PicksHighestPriority(t *testing.T) {
	fallback := &stubNormaliser{name: "fallback", types: []string{"text/plain", "text/markdown"}, priority: 5}
	markdown := &stubNormaliser{name: "markdown", types: []string{"text/markdown"}, priority: 90}
	r := NewRegistry(fallback, markdown)

	res, err := r.Normalise(context.Background(), &domain.RawDocument{URI: "notes/a.md"})
	require.NoError(t, err)
	assert.Equal(t, "markdown", res.Document.Title)
	assert.Equal(t, "text/markdown", markdown.seen)

	res, err = r.Normalise(context.Background(), &domain.RawDocument{URI: "notes/a.txt"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", res.Document.Title)
}

func TestRegistry_ExplicitMIMETypeWins(t *testing.T) {
	html := &stubNormaliser{name: "html", types: []string{"text/html"}, priority: 50}
	r := NewRegistry(html)

	raw := &domain.RawDocument{URI: "page.txt", MIMEType: "Text/HTML; charset=utf-8"}
	res, err := r.Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "html", res.Document.Title)
	assert.Equal(t, "text/html", html.seen)
	assert.Equal(t, "Text/HTML; charset=utf-8", raw.MIMEType, "caller's raw document is not modified")
}

func TestRegistry_Errors(t *testing.T) {
	r := NewRegistry(&stubNormaliser{types: []string{"text/plain"}, priority: 5})

	_, err := r.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = r.Normalise(context.Background(), &domain.RawDocument{URI: "Makefile"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = r.Normalise(context.Background(), &domain.RawDocument{URI: "report.pdf"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_SupportsAndExtensions(t *testing.T) {
	r := NewRegistry(
		&stubNormaliser{types: []string{"text/markdown"}, priority: 90},
		&stubNormaliser{types: []string{"message/rfc822"}, priority: 50},
	)

	assert.True(t, r.Supports("a/b/README.MD"))
	assert.True(t, r.Supports("issue.eml"))
	assert.False(t, r.Supports("page.html"))
	assert.False(t, r.Supports("noext"))

	assert.Equal(t, []string{".eml", ".markdown", ".md", ".mdx"}, r.Extensions())
	assert.Equal(t, []string{"message/rfc822", "text/markdown"}, r.SupportedMIMETypes())
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"guide.md", "text/markdown"},
		{"https://aloha-corp.com/post.HTML", "text/html"},
		{"deck.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"paper.pdf", "application/pdf"},
		{"newsletter.eml", "message/rfc822"},
		{"noext", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMIMEType(tt.path))
		})
	}
}
