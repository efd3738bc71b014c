package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/lib/pq"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// documentColumns is the column list every document query selects.
const documentColumns = `id, title, content, summary, url, source, source_type, embedding, model,
	dimensions, language, metadata, parent_id, chunk_index, chunk_size, total_chunks,
	created_at, updated_at`

// queryBuilder accumulates positional arguments for $n placeholders.
type queryBuilder struct {
	args []any
}

// arg records v and returns its placeholder.
func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// filters renders the search filters as conditions joined by AND.
func (b *queryBuilder) filters(alias string, f domain.SearchFilters) string {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}

	var conds []string
	if f.Source != "" {
		conds = append(conds, col("source")+" = "+b.arg(f.Source))
	}
	if f.SourceType != "" {
		conds = append(conds, col("source_type")+" = "+b.arg(f.SourceType))
	}
	if f.DateFrom != nil {
		conds = append(conds, col("created_at")+" >= "+b.arg(*f.DateFrom))
	}
	if f.DateTo != nil {
		conds = append(conds, col("created_at")+" <= "+b.arg(*f.DateTo))
	}
	return strings.Join(conds, " AND ")
}

// tsQuery turns free text into a websearch_to_tsquery expression that
// matches any term. Punctuation is dropped so operators in user input are inert.
func tsQuery(query string) string {
	terms := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(terms, " or ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument scans one row selected with documentColumns. Extra
// destinations are appended after the document columns.
func scanDocument(row rowScanner, extra ...any) (*domain.KnowledgeDocument, error) {
	var doc domain.KnowledgeDocument
	var sourceType string
	var metadataJSON []byte
	var embedding pq.Float32Array
	var parentID sql.NullString

	dest := []any{&doc.ID, &doc.Title, &doc.Content, &doc.Summary, &doc.URL, &doc.Source,
		&sourceType, &embedding, &doc.Model, &doc.Dimensions, &doc.Language, &metadataJSON,
		&parentID, &doc.ChunkIndex, &doc.ChunkSize, &doc.TotalChunks, &doc.CreatedAt, &doc.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.SourceType = domain.SourceType(sourceType)
	if len(embedding) > 0 {
		doc.Embedding = []float32(embedding)
	}
	if parentID.Valid {
		doc.ParentID = &parentID.String
	}
	doc.CreatedAt = doc.CreatedAt.UTC()
	doc.UpdatedAt = doc.UpdatedAt.UTC()

	doc.Metadata = make(map[string]any)
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}
	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]*domain.KnowledgeDocument, error) {
	docs := make([]*domain.KnowledgeDocument, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshalling metadata: %w", err)
	}
	return b, nil
}

// float32Array returns a driver value for a REAL[] column; nil stays NULL.
func float32Array(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	return pq.Float32Array(v)
}
