package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
)

// embeddingStore implements driven.EmbeddingStore.
type embeddingStore struct {
	store *Store
}

var _ driven.EmbeddingStore = (*embeddingStore)(nil)

// SaveEmbedding stores or updates a record.
func (s *embeddingStore) SaveEmbedding(ctx context.Context, rec *domain.EmbeddingRecord) error {
	metadataJSON, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return err
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO embeddings (id, text, embedding, model, task_type, dimensions, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			embedding = EXCLUDED.embedding,
			model = EXCLUDED.model,
			task_type = EXCLUDED.task_type,
			dimensions = EXCLUDED.dimensions,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`, rec.ID, rec.Text, pq.Float32Array(rec.Embedding), rec.Model, rec.TaskType.String(),
		rec.Dimensions, metadataJSON, rec.CreatedAt.UTC(), rec.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// GetEmbedding retrieves a record by ID.
func (s *embeddingStore) GetEmbedding(ctx context.Context, id string) (*domain.EmbeddingRecord, error) {
	var rec domain.EmbeddingRecord
	var vec pq.Float32Array
	var taskType string
	var metadataJSON []byte

	err := s.store.db.QueryRowContext(ctx, `
		SELECT id, text, embedding, model, task_type, dimensions, metadata, created_at, updated_at
		FROM embeddings WHERE id = $1
	`, id).Scan(&rec.ID, &rec.Text, &vec, &rec.Model, &taskType, &rec.Dimensions,
		&metadataJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning embedding: %w", err)
	}

	rec.Embedding = []float32(vec)
	rec.TaskType = domain.TaskType(taskType)
	rec.Metadata = make(map[string]any)
	if err := json.Unmarshal(metadataJSON, &rec.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	return &rec, nil
}

// DeleteEmbedding removes a record.
func (s *embeddingStore) DeleteEmbedding(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM embeddings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting embedding: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
