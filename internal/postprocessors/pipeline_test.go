package postprocessors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// mockProcessor is a test processor that returns predefined chunks.
type mockProcessor struct {
	name   string
	chunks []*domain.KnowledgeDocument
	err    error
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Process(_ context.Context, _ *domain.KnowledgeDocument, chunks []*domain.KnowledgeDocument) ([]*domain.KnowledgeDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.chunks != nil {
		return m.chunks, nil
	}
	return chunks, nil
}

func testDoc() *domain.KnowledgeDocument {
	return &domain.KnowledgeDocument{ID: "test-doc", Content: "test content"}
}

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	require.NotNil(t, p)
	assert.Equal(t, 0, p.Len())

	p.Add(&mockProcessor{name: "test"})
	assert.Equal(t, 1, p.Len())
}

func TestPipeline_Process_NilDocument(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestPipeline_Process_EmptyPipeline(t *testing.T) {
	chunks, err := NewPipeline().Process(context.Background(), testDoc())
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestPipeline_Process_MultipleProcessors(t *testing.T) {
	first := []*domain.KnowledgeDocument{{ID: "chunk-1", Content: "first"}}
	second := []*domain.KnowledgeDocument{
		{ID: "chunk-1", Content: "modified"},
		{ID: "chunk-2", Content: "added"},
	}

	p := NewPipeline(
		&mockProcessor{name: "first", chunks: first},
		&mockProcessor{name: "second", chunks: second},
	)

	chunks, err := p.Process(context.Background(), testDoc())
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestPipeline_Process_PassthroughProcessor(t *testing.T) {
	initial := []*domain.KnowledgeDocument{{ID: "chunk-1", Content: "test"}}

	p := NewPipeline(
		&mockProcessor{name: "chunker", chunks: initial},
		&mockProcessor{name: "passthrough"},
	)

	chunks, err := p.Process(context.Background(), testDoc())
	require.NoError(t, err)
	assert.Equal(t, initial, chunks)
}

func TestPipeline_Process_ProcessorError(t *testing.T) {
	p := NewPipeline(&mockProcessor{name: "failing", err: errors.New("processor failed")})

	_, err := p.Process(context.Background(), testDoc())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "processor failing")
}

func TestBuildPipeline(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	t.Run("from chunking settings", func(t *testing.T) {
		p, err := BuildPipeline(r, domain.PipelineConfigFor(domain.ChunkingSettings{Size: 50, Overlap: 10}))
		require.NoError(t, err)
		assert.Equal(t, 1, p.Len())

		doc := &domain.KnowledgeDocument{ID: "p", Content: strings.Repeat("word ", 40)}
		chunks, err := p.Process(context.Background(), doc)
		require.NoError(t, err)
		assert.Greater(t, len(chunks), 1)
	})

	t.Run("unknown processor", func(t *testing.T) {
		_, err := BuildPipeline(r, domain.PipelineConfig{Processors: []string{"stemmer"}})
		assert.True(t, errors.Is(err, domain.ErrUnsupportedType))
	})
}
