package sqlite

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
)

// searchEngine implements driven.SearchEngine over the documents_fts table.
type searchEngine struct {
	store *Store
}

var _ driven.SearchEngine = (*searchEngine)(nil)

// Search ranks parents and chunks with bm25. Title matches weigh twice as
// much as content matches. bm25 is negated so higher ranks are better.
func (s *searchEngine) Search(ctx context.Context, query string, filters domain.SearchFilters, limit int) ([]driven.LexicalHit, error) {
	match := ftsQuery(query)
	if match == "" {
		return []driven.LexicalHit{}, nil
	}

	sqlQuery := `
		SELECT ` + prefixColumns("d") + `, -bm25(documents_fts, 2.0, 1.0) AS score
		FROM documents_fts
		JOIN documents d ON d.rowid = documents_fts.rowid
		WHERE documents_fts MATCH ?`
	args := []any{match}

	cond, filterArgs := filterClause("d", filters)
	if cond != "" {
		sqlQuery += " AND " + cond
		args = append(args, filterArgs...)
	}
	sqlQuery += " ORDER BY score DESC, d.id"
	if limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("full-text search: %w", err)
	}
	defer rows.Close()

	hits := make([]driven.LexicalHit, 0)
	for rows.Next() {
		var rank float64
		doc, err := scanDocument(rankScanner{rows: rows, rank: &rank})
		if err != nil {
			return nil, err
		}
		hits = append(hits, driven.LexicalHit{Document: doc, Rank: rank})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return hits, nil
}

// rankScanner appends the rank column to a document scan.
type rankScanner struct {
	rows interface{ Scan(...any) error }
	rank *float64
}

func (r rankScanner) Scan(dest ...any) error {
	return r.rows.Scan(append(dest, r.rank)...)
}

// ftsQuery turns free text into an FTS5 expression that matches any term.
// Each term is quoted so FTS5 operators in user input are inert.
func ftsQuery(query string) string {
	terms := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ToLower(t)+`"`)
	}
	return strings.Join(quoted, " OR ")
}

// prefixColumns qualifies documentColumns with a table alias.
func prefixColumns(alias string) string {
	cols := strings.Split(documentColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
