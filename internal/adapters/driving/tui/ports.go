// Package tui provides an interactive terminal browser for the knowledge
// base: type a query, move through the fused results, and open a document
// or the context block an agent would receive.
package tui

import (
	"errors"

	"github.com/aloha-corp/aloha-rag/internal/core/ports/driving"
)

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("tui: retrieval service is required")

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Retrieval runs searches.
	Retrieval driving.RetrievalService

	// Document loads full document text. Optional; without it the result
	// excerpt is shown instead.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
