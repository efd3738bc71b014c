// Package sqlite stores knowledge documents in a single SQLite file using the
// pure Go modernc.org/sqlite driver.
//
// Parents and chunks share the documents table. An FTS5 table mirrors title
// and content for bm25 ranked lexical search, and embeddings are kept as
// little-endian float32 BLOBs that the vector branch scores in process.
// Embedding records produced on request live in their own table.
//
// The schema is applied from the embedded migrations package on open. The
// default location is ~/.aloha/data/knowledge.db.
package sqlite
