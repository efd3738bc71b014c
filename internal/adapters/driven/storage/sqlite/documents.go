package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const upsertDocument = `
	INSERT INTO documents (` + documentColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		content = excluded.content,
		summary = excluded.summary,
		url = excluded.url,
		source = excluded.source,
		source_type = excluded.source_type,
		embedding = excluded.embedding,
		model = excluded.model,
		dimensions = excluded.dimensions,
		language = excluded.language,
		metadata = excluded.metadata,
		parent_id = excluded.parent_id,
		chunk_index = excluded.chunk_index,
		chunk_size = excluded.chunk_size,
		total_chunks = excluded.total_chunks,
		updated_at = excluded.updated_at
`

// SaveDocument stores a parent and replaces its chunks in one transaction.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.KnowledgeDocument, chunks []*domain.KnowledgeDocument) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE parent_id = ?", doc.ID); err != nil {
		return fmt.Errorf("removing old chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertDocument)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, d := range append([]*domain.KnowledgeDocument{doc}, chunks...) {
		args, err := documentArgs(d)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("saving document %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document or chunk by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.KnowledgeDocument, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

// GetChunks retrieves all chunks of a parent ordered by index.
func (s *documentStore) GetChunks(ctx context.Context, parentID string) ([]*domain.KnowledgeDocument, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE parent_id = ? ORDER BY chunk_index", parentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// FindByURL returns the parent with the given URL.
func (s *documentStore) FindByURL(ctx context.Context, url string) (*domain.KnowledgeDocument, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE url = ? AND parent_id IS NULL LIMIT 1", url)
	return scanDocument(row)
}

// ListDocuments returns parents matching the filters, newest first.
func (s *documentStore) ListDocuments(ctx context.Context, filters domain.SearchFilters, limit int) ([]*domain.KnowledgeDocument, error) {
	query := "SELECT " + documentColumns + " FROM documents WHERE parent_id IS NULL"
	cond, args := filterClause("", filters)
	if cond != "" {
		query += " AND " + cond
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// DeleteDocument removes a document and its chunks.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE parent_id = ?", id); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Ping verifies the database answers.
func (s *documentStore) Ping(ctx context.Context) error {
	return s.store.db.PingContext(ctx)
}

func documentArgs(d *domain.KnowledgeDocument) ([]any, error) {
	metadataJSON, err := marshalMetadata(d.Metadata)
	if err != nil {
		return nil, err
	}
	var parentID sql.NullString
	if d.ParentID != nil {
		parentID = sql.NullString{String: *d.ParentID, Valid: true}
	}
	return []any{
		d.ID, d.Title, d.Content, d.Summary, d.URL, d.Source, d.SourceType.String(),
		float32SliceToBytes(d.Embedding), d.Model, d.Dimensions, d.Language, metadataJSON,
		parentID, d.ChunkIndex, d.ChunkSize, d.TotalChunks,
		formatTime(d.CreatedAt), formatTime(d.UpdatedAt),
	}, nil
}
