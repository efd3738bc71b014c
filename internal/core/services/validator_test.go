package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

func TestSourceValidator_IsTrusted(t *testing.T) {
	v := NewSourceValidator(nil)

	tests := []struct {
		url  string
		want bool
	}{
		{"", true},
		{"https://blog.aloha-corp.com/f2p", true},
		{"https://example.com/post", false},
		{"http://EXAMPLE.org", false},
		{"https://docs.example.net/a", false},
		{"https://www.test.com", false},
		{"example.com/post", false},
		{"https://notexample.com", true},
		{"https://fake.com.evil.io", true},
		{"http://[::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			doc := &domain.KnowledgeDocument{ID: "d", URL: tt.url}
			assert.Equal(t, tt.want, v.IsTrusted(doc))
		})
	}
}

func TestSourceValidator_CustomList(t *testing.T) {
	v := NewSourceValidator([]string{" Staging.Internal. ", ""})

	assert.Equal(t, []string{"staging.internal"}, v.BlockedHosts())
	assert.False(t, v.IsTrusted(&domain.KnowledgeDocument{URL: "https://staging.internal/x"}))
	assert.True(t, v.IsTrusted(&domain.KnowledgeDocument{URL: "https://example.com"}))
}

func TestSourceValidator_EmptyListBlocksNothing(t *testing.T) {
	v := NewSourceValidator([]string{})

	assert.Empty(t, v.BlockedHosts())
	assert.True(t, v.IsTrusted(&domain.KnowledgeDocument{URL: "https://example.com"}))
}

func TestSourceValidator_Filter(t *testing.T) {
	v := NewSourceValidator(nil)
	docs := []domain.ScoredDocument{
		{Document: &domain.KnowledgeDocument{ID: "1", URL: "https://example.com/a"}},
		{Document: &domain.KnowledgeDocument{ID: "2", URL: "https://aloha-corp.com/b"}},
		{Document: nil},
		{Document: &domain.KnowledgeDocument{ID: "3"}},
	}

	got := v.Filter(docs)

	assert.Equal(t, []string{"2", "3"}, ids(got))
}
