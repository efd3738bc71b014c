package driven

import (
	"context"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// SearchEngine provides full-text search over document title and content.
// Parent and chunk rows are both candidates.
type SearchEngine interface {
	// Search ranks documents matching the query after applying the filters.
	// Hits are ordered by Rank descending. An empty query yields no hits.
	Search(ctx context.Context, query string, filters domain.SearchFilters, limit int) ([]LexicalHit, error)
}

// LexicalHit represents a full-text match.
type LexicalHit struct {
	// Document is the matched row.
	Document *domain.KnowledgeDocument

	// Rank is the engine relevance score, higher is better.
	// Scales differ between engines (bm25, ts_rank_cd).
	Rank float64
}
