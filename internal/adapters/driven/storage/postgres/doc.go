// Package postgres provides a PostgreSQL implementation of the storage ports
// using github.com/lib/pq.
//
// Lexical search uses a generated tsvector column ranked with ts_rank_cd,
// title weighted above content. Embeddings are stored as REAL[] and scored
// by the retrieval service.
package postgres
