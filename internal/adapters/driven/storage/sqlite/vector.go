package sqlite

import (
	"context"
	"fmt"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore. Scoring happens in the caller;
// the store only returns candidates that carry an embedding.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// ListEmbedded returns documents with an embedding that pass the filters.
func (s *vectorStore) ListEmbedded(ctx context.Context, filters domain.SearchFilters) ([]*domain.KnowledgeDocument, error) {
	query := "SELECT " + documentColumns + " FROM documents WHERE embedding IS NOT NULL"
	cond, args := filterClause("", filters)
	if cond != "" {
		query += " AND " + cond
	}
	query += " ORDER BY id"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying embedded documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}
