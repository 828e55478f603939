package repository

import (
	"context"

	"github.com/retexhub/backend/domain"
)

type ContributionFilter struct {
	State       string
	SubjectName string
	Limit       int
	Offset      int
}

// ContributionRepository is the store of record for contributions.
// UpdateFromState implements the optimistic-concurrency contract: the
// write only succeeds while the persisted state still equals expected;
// a lost race surfaces as domain.ErrConcurrentModification.
type ContributionRepository interface {
	GetByTrackingID(ctx context.Context, trackingID string) (*domain.Contribution, error)
	List(ctx context.Context, filter ContributionFilter) ([]domain.Contribution, error)
	Create(ctx context.Context, contribution *domain.Contribution) error
	UpdateFromState(ctx context.Context, contribution *domain.Contribution, expected domain.State) error
	ExistsTrackingID(ctx context.Context, trackingID string) (bool, error)
}

// ContributionCache fronts read traffic on the public fetch and
// certificate endpoints. A miss returns domain.ErrContributionNotFound.
type ContributionCache interface {
	Get(ctx context.Context, trackingID string) (*domain.Contribution, error)
	Set(ctx context.Context, contribution *domain.Contribution) error
	Invalidate(ctx context.Context, trackingID string) error
}
