package usecase

import (
	"context"

	"github.com/retexhub/backend/domain"
)

// OperationBuffer abstracts the offline buffer so use cases stay
// storage-agnostic. Only submissions are ever buffered: lifecycle
// transitions depend on an optimistic-concurrency read and must fail
// fast while the store of record is unavailable.
type OperationBuffer interface {
	BufferSubmission(ctx context.Context, contribution *domain.Contribution) error
}
