// Package driven lists what the core needs from infrastructure.
//
// Storage backends implement DocumentStore, SearchEngine, VectorStore and
// EmbeddingStore together. EmbeddingService is optional: services accept a
// nil provider and retrieval then runs lexical only. Normalisers and
// post-processors make up the ingestion pipeline, and ConfigStore backs
// settings.
//
// Only the domain package may be imported from here.
package driven
