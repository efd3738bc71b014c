package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

func TestQueryBuilder_Filters(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var b queryBuilder
	first := b.arg("seed")
	cond := b.filters("d", domain.SearchFilters{Source: "blog", SourceType: "web", DateFrom: &from, DateTo: &to})

	assert.Equal(t, "$1", first)
	assert.Equal(t, "d.source = $2 AND d.source_type = $3 AND d.created_at >= $4 AND d.created_at <= $5", cond)
	assert.Equal(t, []any{"seed", "blog", "web", from, to}, b.args)
}

func TestQueryBuilder_NoFilters(t *testing.T) {
	var b queryBuilder
	assert.Empty(t, b.filters("", domain.SearchFilters{}))
	assert.Empty(t, b.args)
}

func TestListDocumentsQuery(t *testing.T) {
	query, args := listDocumentsQuery(domain.SearchFilters{Source: "wiki"}, 10)

	assert.Contains(t, query, "WHERE parent_id IS NULL AND source = $1")
	assert.Contains(t, query, "ORDER BY created_at DESC, id LIMIT $2")
	assert.Equal(t, []any{"wiki", 10}, args)

	query, args = listDocumentsQuery(domain.SearchFilters{}, 0)
	assert.NotContains(t, query, "LIMIT")
	assert.Empty(t, args)
}

func TestSearchQuery(t *testing.T) {
	query, args, ok := searchQuery("Game & monetization!", domain.SearchFilters{SourceType: "blog"}, 5)
	require.True(t, ok)

	assert.Contains(t, query, "ts_rank_cd(search, websearch_to_tsquery('simple', $1))")
	assert.Contains(t, query, "search @@ websearch_to_tsquery('simple', $1)")
	assert.Contains(t, query, "AND source_type = $2")
	assert.Contains(t, query, "LIMIT $3")
	assert.Equal(t, []any{"game or monetization", "blog", 5}, args)

	_, _, ok = searchQuery(" !? ", domain.SearchFilters{}, 5)
	assert.False(t, ok)
}

func TestTSQuery(t *testing.T) {
	assert.Equal(t, "f2p or guide", tsQuery("F2P: guide"))
	assert.Equal(t, "", tsQuery("-- ;"))
}

func TestFloat32Array(t *testing.T) {
	assert.Nil(t, float32Array(nil))
	assert.NotNil(t, float32Array([]float32{1}))
}

func TestNewStore_RequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), " ")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// TestStore_Integration runs against a live database when
// ALOHA_TEST_POSTGRES_DSN is set.
func TestStore_Integration(t *testing.T) {
	dsn := os.Getenv("ALOHA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ALOHA_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	store, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	docs := store.DocumentStore()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := "it-" + now.Format("150405.000000")

	parent := &domain.KnowledgeDocument{
		ID: id, Title: "F2P Monetization Guide", Content: "battle passes",
		URL: "https://aloha-corp.com/" + id, Source: "aloha-corp.com",
		CreatedAt: now, UpdatedAt: now,
	}
	parent.SetEmbedding([]float32{1, 0}, "m")
	pid := id
	chunk := &domain.KnowledgeDocument{
		ID: id + "-0", Content: "monetization chunk", ParentID: &pid,
		TotalChunks: 1, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, docs.SaveDocument(ctx, parent, []*domain.KnowledgeDocument{chunk}))
	t.Cleanup(func() { _ = docs.DeleteDocument(ctx, id) })

	got, err := docs.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, got.Embedding)
	assert.True(t, now.Equal(got.CreatedAt))

	found, err := docs.FindByURL(ctx, parent.URL)
	require.NoError(t, err)
	assert.Equal(t, id, found.ID)

	hits, err := store.SearchEngine().Search(ctx, "monetization", domain.SearchFilters{Source: "aloha-corp.com"}, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)

	embedded, err := store.VectorStore().ListEmbedded(ctx, domain.SearchFilters{Source: "aloha-corp.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, embedded)

	require.NoError(t, docs.DeleteDocument(ctx, id))
	_, err = docs.GetDocument(ctx, id+"-0")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
