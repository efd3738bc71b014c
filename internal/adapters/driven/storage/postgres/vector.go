package postgres

import (
	"context"
	"fmt"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// ListEmbedded returns documents with an embedding that pass the filters.
func (s *vectorStore) ListEmbedded(ctx context.Context, filters domain.SearchFilters) ([]*domain.KnowledgeDocument, error) {
	var b queryBuilder
	query := "SELECT " + documentColumns + " FROM documents WHERE embedding IS NOT NULL"
	if cond := b.filters("", filters); cond != "" {
		query += " AND " + cond
	}
	query += " ORDER BY id"

	rows, err := s.store.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("querying embedded documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}
