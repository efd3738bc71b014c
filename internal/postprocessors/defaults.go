package postprocessors

import (
	"fmt"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
	"github.com/aloha-corp/aloha-rag/internal/postprocessors/chunker"
)

// ChunkerName is the registry name of the chunk splitter.
const ChunkerName = "chunker"

// RegisterDefaults adds the built-in processors.
func RegisterDefaults(r *Registry) {
	r.Register(ChunkerName, buildChunker)
}

// buildChunker reads chunk_size and overlap. Missing keys keep the chunker
// defaults; an overlap that would stop the window advancing is rejected.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option
	size := chunker.DefaultChunkSize
	if v, ok := intOption(cfg, "chunk_size"); ok && v > 0 {
		size = v
		opts = append(opts, chunker.WithChunkSize(v))
	}
	if overlap, ok := intOption(cfg, "overlap"); ok {
		// Checked before New, which clamps an oversized overlap.
		if overlap >= size {
			return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
				domain.ErrInvalidInput, overlap, size)
		}
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	return chunker.New(opts...), nil
}

// intOption reads an integer that may have been decoded from TOML (int64)
// or JSON (float64).
func intOption(cfg map[string]any, key string) (int, bool) {
	switch v := cfg[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
