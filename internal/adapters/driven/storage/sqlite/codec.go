package sqlite

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// timeLayout is fixed width so stored timestamps compare lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// documentColumns is the column list every document query selects.
const documentColumns = `id, title, content, summary, url, source, source_type, embedding, model,
	dimensions, language, metadata, parent_id, chunk_index, chunk_size, total_chunks,
	created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

func marshalMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(b), nil
}

func unmarshalMetadata(s string) (map[string]any, error) {
	m := make(map[string]any)
	if s == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	return m, nil
}

// scanDocument scans one row selected with documentColumns.
func scanDocument(row rowScanner) (*domain.KnowledgeDocument, error) {
	var doc domain.KnowledgeDocument
	var sourceType, metadataJSON, createdAt, updatedAt string
	var embeddingBlob []byte
	var parentID sql.NullString

	if err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Summary, &doc.URL, &doc.Source,
		&sourceType, &embeddingBlob, &doc.Model, &doc.Dimensions, &doc.Language, &metadataJSON,
		&parentID, &doc.ChunkIndex, &doc.ChunkSize, &doc.TotalChunks, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.SourceType = domain.SourceType(sourceType)
	doc.Embedding = bytesToFloat32Slice(embeddingBlob)
	if parentID.Valid {
		doc.ParentID = &parentID.String
	}

	var err error
	if doc.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
		return nil, err
	}
	if doc.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if doc.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &doc, nil
}

// scanDocuments drains rows selected with documentColumns.
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

// filterClause renders the filters as SQL conditions on the given table alias.
// It returns an empty string when no filter is set.
func filterClause(alias string, f domain.SearchFilters) (string, []any) {
	var conds []string
	var args []any

	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}

	if f.Source != "" {
		conds = append(conds, col("source")+" = ?")
		args = append(args, f.Source)
	}
	if f.SourceType != "" {
		conds = append(conds, col("source_type")+" = ?")
		args = append(args, f.SourceType)
	}
	if f.DateFrom != nil {
		conds = append(conds, col("created_at")+" >= ?")
		args = append(args, formatTime(*f.DateFrom))
	}
	if f.DateTo != nil {
		conds = append(conds, col("created_at")+" <= ?")
		args = append(args, formatTime(*f.DateTo))
	}

	return strings.Join(conds, " AND "), args
}
