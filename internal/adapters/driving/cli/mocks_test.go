package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driving"
)

// mockRetrievalService records requests and returns a canned response.
type mockRetrievalService struct {
	lastRequest domain.RetrievalRequest
	response    domain.RetrievalResponse
	lastQuery   string
	retrieved   string
}

func (m *mockRetrievalService) Search(_ context.Context, req domain.RetrievalRequest) ([]domain.ScoredDocument, error) {
	m.lastRequest = req
	return nil, nil
}

func (m *mockRetrievalService) Query(_ context.Context, req domain.RetrievalRequest) domain.RetrievalResponse {
	m.lastRequest = req
	return m.response
}

func (m *mockRetrievalService) Retrieve(_ context.Context, query string) string {
	m.lastQuery = query
	if strings.TrimSpace(query) == "" {
		return domain.NoQueryMessage
	}
	return m.retrieved
}

type mockDocumentService struct {
	docs        []*domain.KnowledgeDocument
	details     *driving.DocumentDetails
	content     string
	lastFilters domain.SearchFilters
	lastLimit   int
	deleted     []string
}

func (m *mockDocumentService) List(_ context.Context, filters domain.SearchFilters, limit int) ([]*domain.KnowledgeDocument, error) {
	m.lastFilters = filters
	m.lastLimit = limit
	return m.docs, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.KnowledgeDocument, error) {
	for _, d := range m.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) GetContent(_ context.Context, id string) (string, error) {
	if m.details == nil || m.details.ID != id {
		return "", domain.ErrNotFound
	}
	return m.content, nil
}

func (m *mockDocumentService) GetDetails(_ context.Context, id string) (*driving.DocumentDetails, error) {
	if m.details == nil || m.details.ID != id {
		return nil, domain.ErrNotFound
	}
	return m.details, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	if m.details == nil || m.details.ID != id {
		return domain.ErrNotFound
	}
	m.deleted = append(m.deleted, id)
	return nil
}

// mockIngestService stores URIs it was asked to ingest. Documents whose
// URI appears in unchanged are reported as skipped.
type mockIngestService struct {
	mu        sync.Mutex
	ingested  []*domain.RawDocument
	unchanged map[string]bool
	stored    map[string]string
	removed   []string
	forced    bool
}

func newMockIngestService() *mockIngestService {
	return &mockIngestService{unchanged: map[string]bool{}, stored: map[string]string{}}
}

func (m *mockIngestService) Ingest(_ context.Context, doc *domain.KnowledgeDocument, _ bool) (*driving.IngestResult, error) {
	return &driving.IngestResult{DocumentID: doc.ID}, nil
}

func (m *mockIngestService) IngestRaw(_ context.Context, raw *domain.RawDocument, force bool) (*driving.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ingested = append(m.ingested, raw)
	m.forced = force
	if m.unchanged[raw.URI] && !force {
		return &driving.IngestResult{DocumentID: "doc-" + filepath.Base(raw.URI), Skipped: true}, nil
	}
	url, _ := raw.Metadata["url"].(string)
	_, replaced := m.stored[url]
	m.stored[url] = "doc-" + filepath.Base(raw.URI)
	return &driving.IngestResult{DocumentID: m.stored[url], Chunks: 1, Replaced: replaced}, nil
}

func (m *mockIngestService) RemoveByURL(_ context.Context, url string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.stored[url]
	if !ok {
		return "", domain.ErrNotFound
	}
	delete(m.stored, url)
	m.removed = append(m.removed, url)
	return id, nil
}

func (m *mockIngestService) uris() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.ingested))
	for _, raw := range m.ingested {
		out = append(out, raw.URI)
	}
	slices.Sort(out)
	return out
}

type mockEmbeddingService struct {
	records    map[string]*domain.EmbeddingRecord
	similarity float64
	lastTask   domain.TaskType
	lastStore  bool
}

func (m *mockEmbeddingService) Generate(_ context.Context, text string, taskType domain.TaskType, persist bool, _ map[string]any) (*domain.EmbeddingRecord, error) {
	m.lastTask = taskType
	m.lastStore = persist
	rec := &domain.EmbeddingRecord{
		ID:         "emb-1",
		Text:       text,
		Embedding:  []float32{0.1, 0.2, 0.3},
		Model:      "test-model",
		TaskType:   taskType,
		Dimensions: 3,
		CreatedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if persist {
		m.records[rec.ID] = rec
	}
	return rec, nil
}

func (m *mockEmbeddingService) Get(_ context.Context, id string) (*domain.EmbeddingRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (m *mockEmbeddingService) Delete(_ context.Context, id string) error {
	if _, ok := m.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *mockEmbeddingService) Compare(_ context.Context, _, _ string) (float64, error) {
	return m.similarity, nil
}

type mockSettingsService struct {
	settings    domain.AppSettings
	set         map[string]string
	validateErr error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetSearchMode(mode domain.SearchMode) error {
	m.settings.Search.Mode = mode
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if !slices.Contains(m.Keys(), key) {
		return domain.ErrInvalidInput
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"embedding.provider", "search.limit", "search.mode"}
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return m.validateErr
}

// extMatcher accepts files by extension.
type extMatcher []string

func (e extMatcher) Supports(path string) bool {
	return slices.Contains(e, strings.ToLower(filepath.Ext(path)))
}

func (e extMatcher) Extensions() []string {
	return e
}

type mockFetcher struct {
	pages map[string]string
}

func (m *mockFetcher) Fetch(_ context.Context, url, source string) (*domain.RawDocument, error) {
	body, ok := m.pages[url]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.RawDocument{
		URI:      url,
		MIMEType: "text/html",
		Content:  []byte(body),
		Source:   source,
		Metadata: map[string]any{"url": url},
	}, nil
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	retrieval *mockRetrievalService
	document  *mockDocumentService
	ingest    *mockIngestService
	embedding *mockEmbeddingService
	settings  *mockSettingsService
	fetcher   *mockFetcher
}

// setupTestServices installs fresh mocks and returns a cleanup func.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		retrieval: &mockRetrievalService{},
		document:  &mockDocumentService{},
		ingest:    newMockIngestService(),
		embedding: &mockEmbeddingService{records: map[string]*domain.EmbeddingRecord{}},
		settings: &mockSettingsService{
			settings: domain.DefaultAppSettings(),
			set:      map[string]string{},
		},
		fetcher: &mockFetcher{pages: map[string]string{}},
	}

	SetServices(&Services{
		Retrieval: ts.retrieval,
		Document:  ts.document,
		Ingest:    ts.ingest,
		Embedding: ts.embedding,
		Settings:  ts.settings,
		Files:     extMatcher{".md", ".txt"},
		Fetcher:   ts.fetcher,
	})

	return ts, func() { SetServices(nil) }
}

// runCommand executes the root command with args and returns its output.
// Flags are reset first since cobra keeps values between executions.
func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// testWriter is a goroutine-safe buffer for commands that print from
// background goroutines.
type testWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *testWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}
