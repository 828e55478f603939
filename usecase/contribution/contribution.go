// Package contribution owns the contribution lifecycle: submission,
// the registered -> received -> verified -> certified state machine,
// and certificate issuance. Every transition is guarded here, not in
// the callers, and is all-or-nothing.
package contribution

import (
	"context"

	"go.uber.org/zap"

	"github.com/retexhub/backend/domain"
	"github.com/retexhub/backend/pkg/certificate"
	"github.com/retexhub/backend/pkg/impact"
	"github.com/retexhub/backend/pkg/tracking"
	"github.com/retexhub/backend/repository"
	"github.com/retexhub/backend/usecase"
)

type UseCase struct {
	contributions repository.ContributionRepository
	cache         repository.ContributionCache
	buffer        usecase.OperationBuffer
	logger        *zap.Logger
}

func New(contributions repository.ContributionRepository, cache repository.ContributionCache, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		contributions: contributions,
		cache:         cache,
		buffer:        buffer,
		logger:        logger,
	}
}

// Submit registers a new contribution: validates the items, computes
// the initial impact figures, assigns a tracking ID and persists the
// record in state registered. When the store of record is unavailable
// the submission is buffered for replay instead of being lost.
func (uc *UseCase) Submit(ctx context.Context, subjectName string, items []domain.ContributionItem) (*domain.Contribution, error) {
	if subjectName == "" {
		return nil, domain.NewFieldError(domain.ErrCodeInvalid, "subject name must not be empty", "subject_name")
	}

	contribution := &domain.Contribution{
		SubjectName: subjectName,
		Items:       items,
		State:       domain.StateRegistered,
	}
	if err := contribution.ValidateItems(); err != nil {
		return nil, err
	}

	total, err := impact.ComputeTotal(items)
	if err != nil {
		return nil, err
	}
	contribution.Impact = total

	trackingID, err := uc.uniqueTrackingID(ctx)
	if err != nil {
		return nil, err
	}
	contribution.TrackingID = trackingID
	contribution.Touch()

	if err := uc.contributions.Create(ctx, contribution); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeInvalid) {
			return nil, err
		}
		if uc.shouldBuffer(ctx, contribution, err) {
			return contribution, nil
		}
		return nil, err
	}

	uc.cacheSet(ctx, contribution)
	uc.logger.Info("contribution registered",
		zap.String("tracking_id", contribution.TrackingID),
		zap.Int("items", len(contribution.Items)))
	return contribution, nil
}

// Get returns a contribution by tracking ID, serving from the read
// cache when possible.
func (uc *UseCase) Get(ctx context.Context, trackingID string) (*domain.Contribution, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, trackingID); err == nil {
			return cached, nil
		}
	}
	contribution, err := uc.contributions.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	uc.cacheSet(ctx, contribution)
	return contribution, nil
}

// List returns contributions matching the filter, newest first.
func (uc *UseCase) List(ctx context.Context, filter repository.ContributionFilter) ([]domain.Contribution, error) {
	return uc.contributions.List(ctx, filter)
}

// Receive advances registered -> received, confirming physical intake.
// The guard requires at least one item with positive weight.
func (uc *UseCase) Receive(ctx context.Context, trackingID string) (*domain.Contribution, error) {
	return uc.transition(ctx, trackingID, domain.StateReceived, func(c *domain.Contribution) error {
		return c.ValidateItems()
	})
}

// Verify advances received -> verified with the operator's
// classification. Items may have been corrected during physical
// verification, so an optional replacement list is accepted; the
// impact figures are always recomputed from the final item list and
// the destination is derived from the classification.
func (uc *UseCase) Verify(ctx context.Context, trackingID string, classification domain.Classification, correctedItems []domain.ContributionItem) (*domain.Contribution, error) {
	if !classification.IsValid() {
		return nil, domain.NewFieldError(domain.ErrCodeInvalid, "unknown classification", "classification")
	}

	return uc.transition(ctx, trackingID, domain.StateVerified, func(c *domain.Contribution) error {
		if correctedItems != nil {
			c.Items = correctedItems
		}
		if err := c.ValidateItems(); err != nil {
			return err
		}
		total, err := impact.ComputeTotal(c.Items)
		if err != nil {
			return err
		}
		c.Impact = total
		c.Classification = classification
		c.Destination = classification.Destination()
		return nil
	})
}

// Certify advances verified -> certified, issuing the certificate
// exactly once. Re-certifying an already certified contribution is
// rejected with INVALID_TRANSITION; the stored certificate is never
// regenerated.
func (uc *UseCase) Certify(ctx context.Context, trackingID string, issuerIdentity string) (*domain.Contribution, error) {
	return uc.transition(ctx, trackingID, domain.StateCertified, func(c *domain.Contribution) error {
		cert, err := certificate.Generate(c, issuerIdentity)
		if err != nil {
			return err
		}
		c.Certificate = cert
		uc.logger.Info("certificate issued",
			zap.String("tracking_id", c.TrackingID),
			zap.String("content_hash", cert.ContentHash))
		return nil
	})
}

// VerifyCertificate recomputes the content hash of a presented
// certificate and reports validity. A hash mismatch is surfaced as an
// INTEGRITY error alongside the report; it is never auto-corrected.
func (uc *UseCase) VerifyCertificate(cert domain.Certificate) (certificate.VerificationReport, error) {
	report, err := certificate.Verify(cert)
	if err != nil {
		return report, err
	}
	if !report.Valid {
		uc.logger.Warn("certificate failed verification",
			zap.String("tracking_id", cert.TrackingID),
			zap.String("failed_field", report.FailedField))
		return report, domain.ErrIntegrityViolation
	}
	return report, nil
}

// transition runs one guarded lifecycle move. The current record is
// read from the store of record (never the cache), the guard mutates a
// working copy, and the write is conditioned on the state observed at
// read time. A failed guard or a lost race leaves the record
// untouched.
func (uc *UseCase) transition(ctx context.Context, trackingID string, target domain.State, guard func(*domain.Contribution) error) (*domain.Contribution, error) {
	current, err := uc.contributions.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	if !current.State.CanTransition(target) {
		return nil, domain.NewInvalidTransition(current.State, target)
	}

	expected := current.State
	updated := *current
	if err := guard(&updated); err != nil {
		return nil, err
	}
	updated.State = target

	if err := uc.contributions.UpdateFromState(ctx, &updated, expected); err != nil {
		return nil, err
	}

	uc.cacheInvalidate(ctx, trackingID)
	uc.logger.Info("contribution advanced",
		zap.String("tracking_id", trackingID),
		zap.String("from", string(expected)),
		zap.String("to", string(target)))
	return &updated, nil
}

// uniqueTrackingID generates an ID and confirms it is unused before
// relying on it as the primary lookup key. The retry exists for
// completeness; with timestamp+random entropy a hit is not expected.
func (uc *UseCase) uniqueTrackingID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		id := tracking.NewID()
		exists, err := uc.contributions.ExistsTrackingID(ctx, id)
		if err != nil {
			// Uniqueness cannot be confirmed; the DB unique constraint
			// remains the final arbiter.
			return id, nil
		}
		if !exists {
			return id, nil
		}
		uc.logger.Warn("tracking id collision", zap.String("tracking_id", id))
	}
	return "", domain.NewError(domain.ErrCodeInternal, "could not allocate a unique tracking id")
}

func (uc *UseCase) shouldBuffer(ctx context.Context, contribution *domain.Contribution, cause error) bool {
	if uc.buffer == nil {
		return false
	}
	if err := uc.buffer.BufferSubmission(ctx, contribution); err != nil {
		uc.logger.Error("failed to buffer submission",
			zap.String("tracking_id", contribution.TrackingID), zap.Error(err))
		return false
	}
	uc.logger.Warn("submission buffered while store unavailable",
		zap.String("tracking_id", contribution.TrackingID), zap.Error(cause))
	return true
}

func (uc *UseCase) cacheSet(ctx context.Context, contribution *domain.Contribution) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, contribution); err != nil {
		uc.logger.Warn("cache write failed", zap.String("tracking_id", contribution.TrackingID), zap.Error(err))
	}
}

func (uc *UseCase) cacheInvalidate(ctx context.Context, trackingID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, trackingID); err != nil {
		uc.logger.Warn("cache invalidation failed", zap.String("tracking_id", trackingID), zap.Error(err))
	}
}
