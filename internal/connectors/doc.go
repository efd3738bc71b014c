// Package connectors holds the producers that turn external sources into
// raw documents for ingestion: local files (filesystem) and web pages (web).
package connectors
