// Package domain holds the types the retrieval engine and its ingestion
// side agree on: knowledge documents and their chunks, embedding records,
// search modes and filters, the retrieval request and response shapes, and
// settings.
//
// It imports only the standard library. Every other package may import it.
package domain
