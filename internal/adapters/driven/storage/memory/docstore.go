package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interfaces.
var (
	_ driven.DocumentStore = (*DocumentStore)(nil)
	_ driven.SearchEngine  = (*DocumentStore)(nil)
	_ driven.VectorStore   = (*DocumentStore)(nil)
)

// DocumentStore is an in-memory implementation of the document, lexical
// search and vector ports. Lexical ranking is a weighted term count.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.KnowledgeDocument
	chunks    map[string][]string

	// pingErr, when set, is returned by Ping.
	pingErr error
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*domain.KnowledgeDocument),
		chunks:    make(map[string][]string),
	}
}

// SetPingError makes Ping fail with err. Pass nil to restore.
func (s *DocumentStore) SetPingError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingErr = err
}

// SaveDocument stores a parent and replaces its chunks.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.KnowledgeDocument, chunks []*domain.KnowledgeDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.chunks[doc.ID] {
		delete(s.documents, id)
	}

	s.documents[doc.ID] = copyDocument(doc)
	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		s.documents[c.ID] = copyDocument(c)
		ids = append(ids, c.ID)
	}
	s.chunks[doc.ID] = ids
	return nil
}

// GetDocument retrieves a document or chunk by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.KnowledgeDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyDocument(doc), nil
}

// GetChunks retrieves all chunks of a parent ordered by index.
func (s *DocumentStore) GetChunks(_ context.Context, parentID string) ([]*domain.KnowledgeDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.chunks[parentID]
	result := make([]*domain.KnowledgeDocument, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.documents[id]; ok {
			result = append(result, copyDocument(c))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ChunkIndex < result[j].ChunkIndex })
	return result, nil
}

// FindByURL returns the parent with the given URL.
func (s *DocumentStore) FindByURL(_ context.Context, url string) (*domain.KnowledgeDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.documents {
		if !doc.IsChunk() && doc.URL == url {
			return copyDocument(doc), nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListDocuments returns parents matching the filters, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context, filters domain.SearchFilters, limit int) ([]*domain.KnowledgeDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.KnowledgeDocument, 0)
	for _, doc := range s.documents {
		if !doc.IsChunk() && filters.Matches(doc) {
			result = append(result, copyDocument(doc))
		}
	}
	sortNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	for _, cid := range s.chunks[id] {
		delete(s.documents, cid)
	}
	delete(s.chunks, id)
	delete(s.documents, id)
	return nil
}

// Ping reports the configured ping error.
func (s *DocumentStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pingErr
}

// Search ranks documents by query term occurrences. Title matches count
// double. Documents without any matching term are excluded.
func (s *DocumentStore) Search(_ context.Context, query string, filters domain.SearchFilters, limit int) ([]driven.LexicalHit, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return []driven.LexicalHit{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]driven.LexicalHit, 0)
	for _, doc := range s.documents {
		if !filters.Matches(doc) {
			continue
		}
		rank := termScore(terms, doc)
		if rank > 0 {
			hits = append(hits, driven.LexicalHit{Document: copyDocument(doc), Rank: rank})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Rank != hits[j].Rank {
			return hits[i].Rank > hits[j].Rank
		}
		return hits[i].Document.ID < hits[j].Document.ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// ListEmbedded returns documents with an embedding that pass the filters.
func (s *DocumentStore) ListEmbedded(_ context.Context, filters domain.SearchFilters) ([]*domain.KnowledgeDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.KnowledgeDocument, 0)
	for _, doc := range s.documents {
		if doc.HasEmbedding() && filters.Matches(doc) {
			result = append(result, copyDocument(doc))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func termScore(terms []string, doc *domain.KnowledgeDocument) float64 {
	title := tokenize(doc.Title)
	content := tokenize(doc.Content)
	score := 0.0
	for _, term := range terms {
		score += 2 * float64(count(title, term))
		score += float64(count(content, term))
	}
	return score
}

func count(tokens []string, term string) int {
	n := 0
	for _, t := range tokens {
		if t == term {
			n++
		}
	}
	return n
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func sortNewestFirst(docs []*domain.KnowledgeDocument) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}

func copyDocument(doc *domain.KnowledgeDocument) *domain.KnowledgeDocument {
	cp := *doc
	if doc.Metadata != nil {
		cp.Metadata = make(map[string]any, len(doc.Metadata))
		for k, v := range doc.Metadata {
			cp.Metadata[k] = v
		}
	}
	if doc.ParentID != nil {
		pid := *doc.ParentID
		cp.ParentID = &pid
	}
	return &cp
}
