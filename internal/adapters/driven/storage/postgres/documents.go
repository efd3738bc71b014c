package postgres

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
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		content = EXCLUDED.content,
		summary = EXCLUDED.summary,
		url = EXCLUDED.url,
		source = EXCLUDED.source,
		source_type = EXCLUDED.source_type,
		embedding = EXCLUDED.embedding,
		model = EXCLUDED.model,
		dimensions = EXCLUDED.dimensions,
		language = EXCLUDED.language,
		metadata = EXCLUDED.metadata,
		parent_id = EXCLUDED.parent_id,
		chunk_index = EXCLUDED.chunk_index,
		chunk_size = EXCLUDED.chunk_size,
		total_chunks = EXCLUDED.total_chunks,
		updated_at = EXCLUDED.updated_at
`

// SaveDocument stores a parent and replaces its chunks in one transaction.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.KnowledgeDocument, chunks []*domain.KnowledgeDocument) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE parent_id = $1", doc.ID); err != nil {
		return fmt.Errorf("removing old chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertDocument)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, d := range append([]*domain.KnowledgeDocument{doc}, chunks...) {
		metadataJSON, err := marshalMetadata(d.Metadata)
		if err != nil {
			return err
		}
		var parentID sql.NullString
		if d.ParentID != nil {
			parentID = sql.NullString{String: *d.ParentID, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			d.ID, d.Title, d.Content, d.Summary, d.URL, d.Source, d.SourceType.String(),
			float32Array(d.Embedding), d.Model, d.Dimensions, d.Language, metadataJSON,
			parentID, d.ChunkIndex, d.ChunkSize, d.TotalChunks, d.CreatedAt.UTC(), d.UpdatedAt.UTC(),
		); err != nil {
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
	row := s.store.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = $1", id)
	return scanDocument(row)
}

// GetChunks retrieves all chunks of a parent ordered by index.
func (s *documentStore) GetChunks(ctx context.Context, parentID string) ([]*domain.KnowledgeDocument, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE parent_id = $1 ORDER BY chunk_index", parentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// FindByURL returns the parent with the given URL.
func (s *documentStore) FindByURL(ctx context.Context, url string) (*domain.KnowledgeDocument, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE url = $1 AND parent_id IS NULL LIMIT 1", url)
	return scanDocument(row)
}

// ListDocuments returns parents matching the filters, newest first.
func (s *documentStore) ListDocuments(ctx context.Context, filters domain.SearchFilters, limit int) ([]*domain.KnowledgeDocument, error) {
	query, args := listDocumentsQuery(filters, limit)
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func listDocumentsQuery(filters domain.SearchFilters, limit int) (string, []any) {
	var b queryBuilder
	query := "SELECT " + documentColumns + " FROM documents WHERE parent_id IS NULL"
	if cond := b.filters("", filters); cond != "" {
		query += " AND " + cond
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += " LIMIT " + b.arg(limit)
	}
	return query, b.args
}

// DeleteDocument removes a document. Chunks cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ping verifies the database answers.
func (s *documentStore) Ping(ctx context.Context) error {
	return s.store.db.PingContext(ctx)
}
