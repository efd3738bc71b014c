package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			embedding = excluded.embedding,
			model = excluded.model,
			task_type = excluded.task_type,
			dimensions = excluded.dimensions,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, rec.ID, rec.Text, float32SliceToBytes(rec.Embedding), rec.Model, rec.TaskType.String(),
		rec.Dimensions, metadataJSON, formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// GetEmbedding retrieves a record by ID.
func (s *embeddingStore) GetEmbedding(ctx context.Context, id string) (*domain.EmbeddingRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, text, embedding, model, task_type, dimensions, metadata, created_at, updated_at
		FROM embeddings WHERE id = ?
	`, id)

	var rec domain.EmbeddingRecord
	var blob []byte
	var taskType, metadataJSON, createdAt, updatedAt string
	if err := row.Scan(&rec.ID, &rec.Text, &blob, &rec.Model, &taskType, &rec.Dimensions,
		&metadataJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning embedding: %w", err)
	}

	rec.Embedding = bytesToFloat32Slice(blob)
	rec.TaskType = domain.TaskType(taskType)

	var err error
	if rec.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteEmbedding removes a record.
func (s *embeddingStore) DeleteEmbedding(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM embeddings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting embedding: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
