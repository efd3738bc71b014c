package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// Retrieval defaults and limits.
const (
	DefaultRetrievalLimit = 3
	MaxRetrievalLimit     = 5
	DefaultThreshold      = 0.8
	DefaultExcerptRunes   = 1000
)

// Fusion defaults.
const (
	DefaultRecencyWeight    = 0.15
	DefaultMultiHitBonus    = 0.1
	DefaultLexicalBaseScore = 0.5
)

// Sentinel texts returned by the free-text retrieval entry point.
const (
	NoQueryMessage   = "No query provided."
	NoResultsMessage = "No relevant documents found."
)

// SearchMode selects which retrieval branches run.
type SearchMode string

// Available search modes.
const (
	// SearchModeText uses only full-text search.
	SearchModeText SearchMode = "text"

	// SearchModeVector uses only embedding similarity.
	SearchModeVector SearchMode = "vector"

	// SearchModeHybrid runs both and fuses the results.
	SearchModeHybrid SearchMode = "hybrid"
)

// ParseSearchMode converts a string to a SearchMode. An empty string maps to
// SearchModeHybrid.
func ParseSearchMode(s string) (SearchMode, error) {
	if s == "" {
		return SearchModeHybrid, nil
	}
	m := SearchMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: unknown search mode %q", ErrInvalidInput, s)
	}
	return m, nil
}

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeText, SearchModeVector, SearchModeHybrid:
		return true
	default:
		return false
	}
}

// UsesLexical returns true if the mode runs full-text search.
func (m SearchMode) UsesLexical() bool {
	return m == SearchModeText || m == SearchModeHybrid
}

// UsesVector returns true if the mode runs similarity search.
func (m SearchMode) UsesVector() bool {
	return m == SearchModeVector || m == SearchModeHybrid
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeText:
		return "Text (full-text search)"
	case SearchModeVector:
		return "Vector (embedding similarity)"
	case SearchModeHybrid:
		return "Hybrid (text + vector, fused)"
	default:
		return unknownDescription
	}
}

// AllSearchModes returns all available search modes.
func AllSearchModes() []SearchMode {
	return []SearchMode{SearchModeText, SearchModeVector, SearchModeHybrid}
}

// SearchFilters narrow the candidate set. All set fields must match.
type SearchFilters struct {
	Source     string
	SourceType string
	DateFrom   *time.Time
	DateTo     *time.Time
}

// IsZero returns true if no filter is set.
func (f SearchFilters) IsZero() bool {
	return f.Source == "" && f.SourceType == "" && f.DateFrom == nil && f.DateTo == nil
}

// Matches reports whether the document passes every set filter.
// Date bounds are inclusive and compare against CreatedAt.
func (f SearchFilters) Matches(doc *KnowledgeDocument) bool {
	if f.Source != "" && doc.Source != f.Source {
		return false
	}
	if f.SourceType != "" && string(doc.SourceType) != f.SourceType {
		return false
	}
	if f.DateFrom != nil && doc.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && doc.CreatedAt.After(*f.DateTo) {
		return false
	}
	return true
}

// ParseFilterDate parses an ISO date ("2024-03-01") or an RFC 3339 timestamp
// for use as a filter bound. A date-only upper bound covers the whole day.
// An empty string yields nil.
func ParseFilterDate(s string, upper bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD or RFC 3339", ErrInvalidInput, s)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// RetrievalRequest is a single retrieval call.
type RetrievalRequest struct {
	Query   string
	Limit   int
	Mode    SearchMode
	Filters SearchFilters

	// Threshold is the minimum cosine similarity for vector hits.
	// Nil means DefaultThreshold.
	Threshold *float64
}

// EffectiveLimit clamps Limit into [1, MaxRetrievalLimit], defaulting when unset.
func (r RetrievalRequest) EffectiveLimit() int {
	switch {
	case r.Limit <= 0:
		return DefaultRetrievalLimit
	case r.Limit > MaxRetrievalLimit:
		return MaxRetrievalLimit
	default:
		return r.Limit
	}
}

// EffectiveThreshold returns the threshold or DefaultThreshold when unset.
func (r RetrievalRequest) EffectiveThreshold() float64 {
	if r.Threshold == nil {
		return DefaultThreshold
	}
	return *r.Threshold
}

// EffectiveMode returns the mode or SearchModeHybrid when unset.
func (r RetrievalRequest) EffectiveMode() SearchMode {
	if r.Mode == "" {
		return SearchModeHybrid
	}
	return r.Mode
}

// ScoredDocument is a document with its retrieval score.
type ScoredDocument struct {
	Document *KnowledgeDocument

	// Score is the ranking score after fusion adjustments.
	Score float64

	// Similarity is the cosine similarity, set only for vector hits.
	Similarity *float64
}

// RetrievalRecord is one result as handed to a tool caller.
type RetrievalRecord struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	URL        string    `json:"url,omitempty"`
	Source     string    `json:"source"`
	SourceType string    `json:"sourceType"`
	Summary    string    `json:"summary,omitempty"`
	Similarity *float64  `json:"similarity,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RetrievalResponse is the tool payload. Success distinguishes results
// (possibly none) from a failure carrying Error.
type RetrievalResponse struct {
	Success bool              `json:"success"`
	Results []RetrievalRecord `json:"results"`
	Context string            `json:"context,omitempty"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// MarshalJSON always writes results as an array, empty when nothing matched.
func (r RetrievalResponse) MarshalJSON() ([]byte, error) {
	type response RetrievalResponse
	if r.Results == nil {
		r.Results = []RetrievalRecord{}
	}
	return json.Marshal(response(r))
}
