// Package mcp provides an MCP (Model Context Protocol) server adapter for aloha.
// It exposes the retrieval engine and the embedding tools to language-model
// orchestration layers.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
