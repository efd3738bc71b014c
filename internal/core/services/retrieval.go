package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driving"
	"github.com/aloha-corp/aloha-rag/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// internalLimitFactor widens each branch so fusion and source validation
// still leave enough results to fill the requested limit.
const internalLimitFactor = 3

// RetrievalConfig holds per-service defaults applied to requests that omit them.
type RetrievalConfig struct {
	Mode          domain.SearchMode
	Limit         int
	Threshold     float64
	RecencyWeight float64
	MultiHitBonus float64
}

// DefaultRetrievalConfig returns the standard retrieval defaults.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		Mode:          domain.SearchModeHybrid,
		Limit:         domain.DefaultRetrievalLimit,
		Threshold:     domain.DefaultThreshold,
		RecencyWeight: domain.DefaultRecencyWeight,
		MultiHitBonus: domain.DefaultMultiHitBonus,
	}
}

// RetrievalConfigFrom derives the retrieval defaults from app settings.
func RetrievalConfigFrom(s domain.SearchSettings) RetrievalConfig {
	cfg := DefaultRetrievalConfig()
	if s.Mode.IsValid() {
		cfg.Mode = s.Mode
	}
	if s.Limit > 0 {
		cfg.Limit = s.Limit
	}
	if s.Threshold >= 0 && s.Threshold <= 1 {
		cfg.Threshold = s.Threshold
	}
	if s.RecencyWeight >= 0 {
		cfg.RecencyWeight = s.RecencyWeight
	}
	return cfg
}

// branchResult is the outcome of one search branch.
type branchResult struct {
	hits []domain.ScoredDocument

	// storeQueried is set when the branch reached the document store.
	storeQueried bool

	// storeFailed is set when that store query returned an error.
	storeFailed bool
}

// RetrievalService runs hybrid retrieval over the document store.
type RetrievalService struct {
	docStore         driven.DocumentStore
	searchEngine     driven.SearchEngine
	vectorStore      driven.VectorStore
	embeddingService driven.EmbeddingService
	validator        *SourceValidator
	config           RetrievalConfig
	now              func() time.Time
}

// NewRetrievalService creates a new retrieval service.
// The embeddingService parameter is optional (can be nil); without it the
// vector branch resolves to no results. A nil validator uses the default
// placeholder hosts.
func NewRetrievalService(
	docStore driven.DocumentStore,
	searchEngine driven.SearchEngine,
	vectorStore driven.VectorStore,
	embeddingService driven.EmbeddingService,
	validator *SourceValidator,
) *RetrievalService {
	if validator == nil {
		validator = NewSourceValidator(nil)
	}
	return &RetrievalService{
		docStore:         docStore,
		searchEngine:     searchEngine,
		vectorStore:      vectorStore,
		embeddingService: embeddingService,
		validator:        validator,
		config:           DefaultRetrievalConfig(),
		now:              time.Now,
	}
}

// SetConfig replaces the request defaults.
func (s *RetrievalService) SetConfig(cfg RetrievalConfig) {
	s.config = cfg
}

// SetClock sets the time source used for recency scoring.
func (s *RetrievalService) SetClock(now func() time.Time) {
	s.now = now
}

// Search runs the branches selected by the request mode, fuses and validates
// their results and truncates to the request limit.
//
// Branch failures are logged and treated as empty. Only a dimension mismatch,
// or every store query failing while the store is unreachable, is returned.
func (s *RetrievalService) Search(ctx context.Context, req domain.RetrievalRequest) ([]domain.ScoredDocument, error) {
	logger.Section("Retrieval")

	query := strings.TrimSpace(req.Query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.ScoredDocument{}, nil
	}
	req = s.applyDefaults(req)
	if !req.Mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, req.Mode)
	}

	limit := req.EffectiveLimit()
	threshold := req.EffectiveThreshold()
	internalLimit := limit * internalLimitFactor

	logger.Debug("Query: %q", query)
	logger.Info("Mode: %s, limit: %d, threshold: %.2f", req.Mode.Description(), limit, threshold)
	logger.Debug("Services available: lexical=%t, vector=%t, embedding=%t",
		s.searchEngine != nil, s.vectorStore != nil, s.embeddingService != nil)

	var lexical, vector branchResult

	g, gctx := errgroup.WithContext(ctx)
	if req.Mode.UsesLexical() {
		g.Go(func() error {
			lexical = s.lexicalSearch(gctx, query, req.Filters, internalLimit)
			return nil
		})
	}
	if req.Mode.UsesVector() {
		g.Go(func() error {
			var err error
			vector, err = s.vectorSearch(gctx, query, req.Filters, internalLimit, threshold)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("Retrieval aborted: %v", err)
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	if err := s.checkStoreReachable(ctx, lexical, vector); err != nil {
		return nil, err
	}

	var results []domain.ScoredDocument
	switch req.Mode {
	case domain.SearchModeText:
		results = lexical.hits
	case domain.SearchModeVector:
		results = vector.hits
	default:
		logger.Debug("Fusing %d lexical + %d vector hits", len(lexical.hits), len(vector.hits))
		results = Combine([][]domain.ScoredDocument{lexical.hits, vector.hits}, FusionOptions{
			Limit:            internalLimit,
			RecencyWeight:    s.config.RecencyWeight,
			MultiHitBonus:    s.config.MultiHitBonus,
			LexicalBaseScore: domain.DefaultLexicalBaseScore,
			Now:              s.now(),
		})
	}

	results = s.validator.Filter(results)
	if len(results) > limit {
		results = results[:limit]
	}

	logger.Info("Final results: %d", len(results))
	return results, nil
}

// Query runs Search and packages the outcome as a tool response.
// It never returns a raw error; failures are carried in the payload.
func (s *RetrievalService) Query(ctx context.Context, req domain.RetrievalRequest) domain.RetrievalResponse {
	if strings.TrimSpace(req.Query) == "" {
		return domain.RetrievalResponse{Success: false, Error: domain.NoQueryMessage}
	}
	if req.Threshold != nil && (*req.Threshold < 0 || *req.Threshold > 1) {
		return domain.RetrievalResponse{Success: false, Error: "threshold must be between 0 and 1"}
	}

	docs, err := s.Search(ctx, req)
	if err != nil {
		return domain.RetrievalResponse{Success: false, Error: err.Error()}
	}
	if len(docs) == 0 {
		return domain.RetrievalResponse{
			Success: true,
			Results: []domain.RetrievalRecord{},
			Message: domain.NoResultsMessage,
		}
	}

	return domain.RetrievalResponse{
		Success: true,
		Results: ToRecords(docs),
		Context: FormatContext(docs),
		Message: fmt.Sprintf("Found %d relevant %s", len(docs), plural(len(docs), "document", "documents")),
	}
}

// Retrieve returns the rendered context for a free-text query. An empty query
// returns domain.NoQueryMessage without touching the store; no results or a
// failure return domain.NoResultsMessage.
func (s *RetrievalService) Retrieve(ctx context.Context, query string) string {
	if strings.TrimSpace(query) == "" {
		return domain.NoQueryMessage
	}

	resp := s.Query(ctx, domain.RetrievalRequest{Query: query})
	if !resp.Success {
		logger.Warn("Retrieve failed: %s", resp.Error)
		return domain.NoResultsMessage
	}
	if resp.Context == "" {
		return domain.NoResultsMessage
	}
	return resp.Context
}

// ToRecords converts scored documents into tool result records.
func ToRecords(docs []domain.ScoredDocument) []domain.RetrievalRecord {
	records := make([]domain.RetrievalRecord, 0, len(docs))
	for _, d := range docs {
		doc := d.Document
		records = append(records, domain.RetrievalRecord{
			ID:         doc.ID,
			Title:      doc.Title,
			Content:    Excerpt(doc.Content, domain.DefaultExcerptRunes),
			URL:        doc.URL,
			Source:     doc.Source,
			SourceType: doc.SourceType.String(),
			Summary:    doc.Summary,
			Similarity: d.Similarity,
			CreatedAt:  doc.CreatedAt,
		})
	}
	return records
}

// applyDefaults fills request fields left unset from the service config.
func (s *RetrievalService) applyDefaults(req domain.RetrievalRequest) domain.RetrievalRequest {
	if req.Mode == "" {
		req.Mode = s.config.Mode
	}
	if req.Limit <= 0 {
		req.Limit = s.config.Limit
	}
	if req.Threshold == nil {
		t := s.config.Threshold
		req.Threshold = &t
	}
	return req
}

// lexicalSearch runs full-text search. Failures resolve to no hits.
func (s *RetrievalService) lexicalSearch(
	ctx context.Context, query string, filters domain.SearchFilters, limit int,
) branchResult {
	if s.searchEngine == nil {
		logger.Warn("Lexical search unavailable: %v", domain.ErrSearchUnavailable)
		return branchResult{}
	}

	hits, err := s.searchEngine.Search(ctx, query, filters, limit)
	if err != nil {
		logger.Warn("Lexical search failed, treating as empty: %v", err)
		return branchResult{storeQueried: true, storeFailed: true}
	}
	logger.Debug("Lexical search: %d hits", len(hits))

	results := make([]domain.ScoredDocument, 0, len(hits))
	for _, h := range hits {
		if h.Document == nil {
			continue
		}
		results = append(results, domain.ScoredDocument{Document: h.Document, Score: h.Rank})
	}
	return branchResult{hits: results, storeQueried: true}
}

// vectorSearch embeds the query and scores every stored embedding.
// A missing provider or failed embedding call resolves to no hits; a
// dimension mismatch is returned.
func (s *RetrievalService) vectorSearch(
	ctx context.Context, query string, filters domain.SearchFilters, limit int, threshold float64,
) (branchResult, error) {
	if s.embeddingService == nil {
		logger.Warn("Vector search skipped: %v", domain.ErrEmbeddingUnavailable)
		return branchResult{}, nil
	}
	if s.vectorStore == nil {
		logger.Warn("Vector search skipped: no vector store")
		return branchResult{}, nil
	}

	queryVec, err := s.embeddingService.Embed(ctx, query, domain.TaskTypeSearchQuery)
	if err != nil {
		logger.Warn("Query embedding failed, vector branch empty: %v", err)
		return branchResult{}, nil
	}
	if len(queryVec) == 0 {
		logger.Warn("Query embedding empty, vector branch empty")
		return branchResult{}, nil
	}
	logger.Debug("Query embedding: %d dimensions", len(queryVec))

	candidates, err := s.vectorStore.ListEmbedded(ctx, filters)
	if err != nil {
		logger.Warn("Vector candidate fetch failed, treating as empty: %v", err)
		return branchResult{storeQueried: true, storeFailed: true}, nil
	}

	results := make([]domain.ScoredDocument, 0)
	for _, doc := range candidates {
		if !doc.HasEmbedding() {
			continue
		}
		sim, err := CosineSimilarity(queryVec, doc.Embedding)
		if err != nil {
			return branchResult{}, fmt.Errorf("score document %s: %w", doc.ID, err)
		}
		if sim < threshold {
			continue
		}
		results = append(results, domain.ScoredDocument{Document: doc, Score: sim, Similarity: &sim})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})
	if len(results) > limit {
		results = results[:limit]
	}

	logger.Debug("Vector search: %d of %d candidates above %.2f", len(results), len(candidates), threshold)
	return branchResult{hits: results, storeQueried: true}, nil
}

// checkStoreReachable returns ErrStoreUnavailable when every store query of
// the request failed and the store does not answer a ping.
func (s *RetrievalService) checkStoreReachable(ctx context.Context, branches ...branchResult) error {
	queried, failed := 0, 0
	for _, b := range branches {
		if b.storeQueried {
			queried++
		}
		if b.storeFailed {
			failed++
		}
	}
	if queried == 0 || failed < queried || s.docStore == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.docStore.Ping(ctx); err != nil {
		logger.Error("Document store unreachable: %v", err)
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
