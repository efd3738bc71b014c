package domain

import (
	"fmt"
	"time"
)

// SourceType tags the kind of origin a document came from.
// The set is open; the constants below are the values ingestion produces.
type SourceType string

// Known source types.
const (
	SourceTypeBlog       SourceType = "blog"
	SourceTypeMarkdown   SourceType = "markdown"
	SourceTypeDocument   SourceType = "document"
	SourceTypeNewsletter SourceType = "newsletter"
	SourceTypeWeb        SourceType = "web"
	SourceTypeText       SourceType = "text"
)

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// Conventional metadata keys. Metadata is schemaless; these are the keys
// the ingestion path writes.
const (
	MetaParentTitle = "parent_title"
	MetaFileSize    = "file_size"
	MetaFilePath    = "file_path"
	MetaMIMEType    = "mime_type"
	MetaTags        = "tags"
	MetaContentHash = "content_hash"
)

// KnowledgeDocument is a stored unit of knowledge. A row with a nil ParentID
// is a parent document; a row with ParentID set is a chunk of that parent.
type KnowledgeDocument struct {
	// ID is the unique identifier, immutable once created.
	ID string

	// Title is the human-readable title.
	Title string

	// Content is the raw text body.
	Content string

	// Summary is an optional short description.
	Summary string

	// URL locates the original source. Empty for internal documents.
	URL string

	// Source is the domain or origin string.
	Source string

	// SourceType tags the kind of source.
	SourceType SourceType

	// Embedding is present only when embedding generation succeeded.
	Embedding []float32

	// Model names the embedding model. Empty when Embedding is nil.
	Model string

	// Dimensions equals len(Embedding). Zero when Embedding is nil.
	Dimensions int

	// Language is an ISO-style language tag.
	Language string

	// Metadata is an open key-value bag.
	Metadata map[string]any

	// ParentID references the parent document for chunk rows.
	ParentID *string

	// ChunkIndex is the zero-based position of a chunk within its parent.
	ChunkIndex int

	// ChunkSize is the length of a chunk's content in characters.
	ChunkSize int

	// TotalChunks is the number of sibling chunks sharing ParentID.
	TotalChunks int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsChunk returns true if the document is a chunk of a larger parent.
func (d *KnowledgeDocument) IsChunk() bool {
	return d.ParentID != nil
}

// HasEmbedding returns true if the document carries a vector.
func (d *KnowledgeDocument) HasEmbedding() bool {
	return len(d.Embedding) > 0
}

// SetEmbedding attaches a vector together with its provenance.
// A nil or empty vector clears the embedding fields.
func (d *KnowledgeDocument) SetEmbedding(vec []float32, model string) {
	if len(vec) == 0 {
		d.Embedding = nil
		d.Model = ""
		d.Dimensions = 0
		return
	}
	d.Embedding = vec
	d.Model = model
	d.Dimensions = len(vec)
}

// Validate checks the structural invariants of the document.
func (d *KnowledgeDocument) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	if d.HasEmbedding() {
		if d.Model == "" {
			return fmt.Errorf("%w: document %s has an embedding without a model", ErrInvalidInput, d.ID)
		}
		if d.Dimensions != len(d.Embedding) {
			return fmt.Errorf("%w: document %s declares %d dimensions but has %d",
				ErrDimensionMismatch, d.ID, d.Dimensions, len(d.Embedding))
		}
	}
	if d.IsChunk() {
		if *d.ParentID == "" || *d.ParentID == d.ID {
			return fmt.Errorf("%w: chunk %s has an invalid parent", ErrInvalidInput, d.ID)
		}
		if d.ChunkIndex < 0 || d.TotalChunks <= 0 || d.ChunkIndex >= d.TotalChunks {
			return fmt.Errorf("%w: chunk %s has index %d of %d",
				ErrInvalidInput, d.ID, d.ChunkIndex, d.TotalChunks)
		}
	}
	return nil
}

// EffectiveSource returns the URL if present, otherwise the Source field.
func (d *KnowledgeDocument) EffectiveSource() string {
	if d.URL != "" {
		return d.URL
	}
	return d.Source
}
