// Package gemini provides an embedding service adapter over the Gemini REST
// API (embedContent and batchEmbedContents). It is the only provider that
// honours task types.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aloha-corp/aloha-rag/internal/adapters/driven/embedding/throttle"
	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL           = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel             = "text-embedding-004"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 5.0

	// MaxBatchSize is the batchEmbedContents request limit.
	MaxBatchSize = 100
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Google AI Studio key (required).
	APIKey string

	// BaseURL overrides the API endpoint (default: the v1beta endpoint).
	BaseURL string

	// Model is the embedding model (default: text-embedding-004).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// Dimensions requests a truncated output vector. Zero keeps the model default.
	Dimensions int

	// RequestsPerSecond throttles calls (default: 5). Negative disables throttling.
	RequestsPerSecond float64
}

// EmbeddingService generates embeddings with Gemini embedding models.
type EmbeddingService struct {
	client       *http.Client
	baseURL      string
	apiKey       string
	model        string
	dimensions   int
	outputDims   int
	limiter      *throttle.Limiter
	maxBatchSize int
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type embedRequest struct {
	Model                string  `json:"model"`
	Content              content `json:"content"`
	TaskType             string  `json:"taskType,omitempty"`
	OutputDimensionality int     `json:"outputDimensionality,omitempty"`
}

type batchRequest struct {
	Requests []embedRequest `json:"requests"`
}

type contentEmbedding struct {
	Values []float64 `json:"values"`
}

type embedResponse struct {
	Embedding *contentEmbedding `json:"embedding"`
}

type batchResponse struct {
	Embeddings []*contentEmbedding `json:"embeddings"`
}

// apiError is the error envelope returned on non-2xx responses.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w: API key is required", domain.ErrInvalidInput)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		var ok bool
		dimensions, ok = domain.EmbeddingDimensions()[cfg.Model]
		if !ok {
			dimensions = 768
		}
	}

	return &EmbeddingService{
		client:       &http.Client{Timeout: cfg.Timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		dimensions:   dimensions,
		outputDims:   cfg.Dimensions,
		limiter:      throttle.New(cfg.RequestsPerSecond),
		maxBatchSize: MaxBatchSize,
	}, nil
}

// TaskTypeName maps a task type onto the API's enum value.
func TaskTypeName(t domain.TaskType) string {
	switch t {
	case domain.TaskTypeSearchQuery:
		return "RETRIEVAL_QUERY"
	case domain.TaskTypeSimilarity:
		return "SEMANTIC_SIMILARITY"
	case domain.TaskTypeClustering:
		return "CLUSTERING"
	case domain.TaskTypeClassification:
		return "CLASSIFICATION"
	default:
		return "RETRIEVAL_DOCUMENT"
	}
}

func (s *EmbeddingService) resourceName() string {
	if strings.HasPrefix(s.model, "models/") {
		return s.model
	}
	return "models/" + s.model
}

func (s *EmbeddingService) request(text string, taskType domain.TaskType) embedRequest {
	return embedRequest{
		Model:                s.resourceName(),
		Content:              content{Parts: []part{{Text: text}}},
		TaskType:             TaskTypeName(taskType),
		OutputDimensionality: s.outputDims,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string, taskType domain.TaskType) ([]float32, error) {
	var resp embedResponse
	if err := s.post(ctx, ":embedContent", s.request(text, taskType), &resp); err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, errors.New("gemini: no embedding returned")
	}
	return toFloat32(resp.Embedding.Values), nil
}

// EmbedBatch embeds texts via batchEmbedContents, MaxBatchSize at a time.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string, taskType domain.TaskType) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.maxBatchSize {
		end := min(start+s.maxBatchSize, len(texts))

		batch := batchRequest{Requests: make([]embedRequest, 0, end-start)}
		for _, text := range texts[start:end] {
			batch.Requests = append(batch.Requests, s.request(text, taskType))
		}

		var resp batchResponse
		if err := s.post(ctx, ":batchEmbedContents", batch, &resp); err != nil {
			return nil, err
		}
		if len(resp.Embeddings) != len(batch.Requests) {
			return nil, fmt.Errorf("gemini: expected %d embeddings, got %d", len(batch.Requests), len(resp.Embeddings))
		}
		for i, e := range resp.Embeddings {
			if e == nil {
				return nil, fmt.Errorf("gemini: missing embedding for input %d", start+i)
			}
			out = append(out, toFloat32(e.Values))
		}
	}
	return out, nil
}

// post sends body to models/{model}{method} and decodes a 200 response into out.
func (s *EmbeddingService) post(ctx context.Context, method string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/"+s.resourceName()+method, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return s.statusError(resp, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("gemini: decode response: %w", err)
	}
	return nil
}

// statusError converts a non-200 response into a domain error and records
// backoff on 429.
func (s *EmbeddingService) statusError(resp *http.Response, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		s.limiter.Backoff(throttle.RetryAfter(resp.Header.Get("Retry-After")))
		return fmt.Errorf("gemini: %w: %s", domain.ErrRateLimited, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("gemini: %w: %s", domain.ErrInvalidInput, msg)
	}
	return fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, msg)
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping fetches the model metadata, which validates the key without
// running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+s.resourceName(), http.NoBody)
	if err != nil {
		return fmt.Errorf("gemini: failed to create ping request: %w", err)
	}
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gemini: ping failed: %w", s.statusError(resp, body))
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
