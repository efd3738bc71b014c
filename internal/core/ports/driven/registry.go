package driven

import (
	"context"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// NormaliserRegistry turns raw bytes into a document. The normaliser is
// picked by file extension, then by MIME type; ErrUnsupportedType is
// returned when neither matches.
type NormaliserRegistry interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}
