package domain

import (
	"fmt"
	"time"
)

// TaskType hints the embedding provider about the intended use of a vector.
type TaskType string

// Supported task types.
const (
	TaskTypeDocument       TaskType = "document"
	TaskTypeSearchQuery    TaskType = "search_query"
	TaskTypeSimilarity     TaskType = "similarity"
	TaskTypeClustering     TaskType = "clustering"
	TaskTypeClassification TaskType = "classification"
)

// IsValid returns true if the task type is recognised.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeDocument, TaskTypeSearchQuery, TaskTypeSimilarity,
		TaskTypeClustering, TaskTypeClassification:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t TaskType) String() string {
	return string(t)
}

// ParseTaskType converts a string to a TaskType. An empty string maps to
// TaskTypeDocument.
func ParseTaskType(s string) (TaskType, error) {
	if s == "" {
		return TaskTypeDocument, nil
	}
	t := TaskType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown task type %q", ErrInvalidInput, s)
	}
	return t, nil
}

// AllTaskTypes returns every supported task type.
func AllTaskTypes() []TaskType {
	return []TaskType{
		TaskTypeDocument,
		TaskTypeSearchQuery,
		TaskTypeSimilarity,
		TaskTypeClustering,
		TaskTypeClassification,
	}
}

// EmbeddingRecord is a cached embedding generated on request.
// Its lifecycle is independent of KnowledgeDocument.
type EmbeddingRecord struct {
	ID         string
	Text       string
	Embedding  []float32
	Model      string
	TaskType   TaskType
	Dimensions int
	Metadata   map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
