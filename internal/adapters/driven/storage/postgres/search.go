package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
)

// searchEngine implements driven.SearchEngine over the generated tsvector.
type searchEngine struct {
	store *Store
}

var _ driven.SearchEngine = (*searchEngine)(nil)

// Search ranks parents and chunks with ts_rank_cd.
func (s *searchEngine) Search(ctx context.Context, query string, filters domain.SearchFilters, limit int) ([]driven.LexicalHit, error) {
	sqlQuery, args, ok := searchQuery(query, filters, limit)
	if !ok {
		return []driven.LexicalHit{}, nil
	}

	rows, err := s.store.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("full-text search: %w", err)
	}
	defer rows.Close()

	hits := make([]driven.LexicalHit, 0)
	for rows.Next() {
		var rank float64
		doc, err := scanDocument(rows, &rank)
		if err != nil {
			return nil, err
		}
		hits = append(hits, driven.LexicalHit{Document: doc, Rank: rank})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return hits, nil
}

// searchQuery builds the ranked full-text query. ok is false when the query
// has no searchable terms.
func searchQuery(query string, filters domain.SearchFilters, limit int) (string, []any, bool) {
	terms := tsQuery(query)
	if terms == "" {
		return "", nil, false
	}

	var b queryBuilder
	tsq := "websearch_to_tsquery('simple', " + b.arg(terms) + ")"

	var sb strings.Builder
	sb.WriteString("SELECT " + documentColumns + ", ts_rank_cd(search, " + tsq + ") AS score")
	sb.WriteString(" FROM documents WHERE search @@ " + tsq)
	if cond := b.filters("", filters); cond != "" {
		sb.WriteString(" AND " + cond)
	}
	sb.WriteString(" ORDER BY score DESC, id")
	if limit > 0 {
		sb.WriteString(" LIMIT " + b.arg(limit))
	}
	return sb.String(), b.args, true
}
