package contribution

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retexhub/backend/domain"
	"github.com/retexhub/backend/pkg/tracking"
	"github.com/retexhub/backend/repository"
)

// memRepo is an in-memory ContributionRepository honoring the
// optimistic-concurrency contract of the real Postgres implementation.
type memRepo struct {
	mu        sync.Mutex
	records   map[string]domain.Contribution
	createErr error
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[string]domain.Contribution{}}
}

func (r *memRepo) GetByTrackingID(_ context.Context, trackingID string) (*domain.Contribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[trackingID]
	if !ok {
		return nil, domain.ErrContributionNotFound
	}
	copied := record
	return &copied, nil
}

func (r *memRepo) List(_ context.Context, filter repository.ContributionFilter) ([]domain.Contribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Contribution
	for _, record := range r.records {
		if filter.State != "" && string(record.State) != filter.State {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (r *memRepo) Create(_ context.Context, contribution *domain.Contribution) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[contribution.TrackingID]; exists {
		return domain.ErrConcurrentModification
	}
	r.records[contribution.TrackingID] = *contribution
	return nil
}

func (r *memRepo) UpdateFromState(_ context.Context, contribution *domain.Contribution, expected domain.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[contribution.TrackingID]
	if !ok {
		return domain.ErrContributionNotFound
	}
	if record.State != expected {
		return domain.ErrConcurrentModification
	}
	if contribution.Certificate != nil && record.Certificate != nil {
		return domain.ErrConcurrentModification
	}
	r.records[contribution.TrackingID] = *contribution
	return nil
}

func (r *memRepo) ExistsTrackingID(_ context.Context, trackingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[trackingID]
	return ok, nil
}

// memBuffer records buffered submissions.
type memBuffer struct {
	buffered []domain.Contribution
}

func (b *memBuffer) BufferSubmission(_ context.Context, contribution *domain.Contribution) error {
	b.buffered = append(b.buffered, *contribution)
	return nil
}

func singleCottonItem() []domain.ContributionItem {
	return []domain.ContributionItem{
		{Type: "t-shirt", SingleMaterial: "Algodão", WeightKg: 0.3},
	}
}

func TestSubmit(t *testing.T) {
	repo := newMemRepo()
	uc := New(repo, nil, nil, nil)

	created, err := uc.Submit(context.Background(), "Maria Souza", singleCottonItem())
	require.NoError(t, err)

	assert.True(t, tracking.IsValid(created.TrackingID))
	assert.Equal(t, domain.StateRegistered, created.State)
	assert.InDelta(t, 0.75, created.Impact.CO2SavedKg, 1e-9)
	assert.InDelta(t, 450.0, created.Impact.WaterSavedL, 1e-9)
	assert.Nil(t, created.Certificate)
	assert.False(t, created.CreatedAt.IsZero())

	stored, err := repo.GetByTrackingID(context.Background(), created.TrackingID)
	require.NoError(t, err)
	assert.Equal(t, created.TrackingID, stored.TrackingID)
}

func TestSubmitValidation(t *testing.T) {
	repo := newMemRepo()
	uc := New(repo, nil, nil, nil)

	tests := []struct {
		name    string
		subject string
		items   []domain.ContributionItem
	}{
		{"empty subject", "", singleCottonItem()},
		{"no items", "Maria", nil},
		{"invalid blend", "Maria", []domain.ContributionItem{{
			IsMixture: true,
			Mixture: []domain.MixtureComponent{
				{Fiber: "Algodão", Percentage: 60},
				{Fiber: "Poliéster", Percentage: 30},
			},
			WeightKg: 1,
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Submit(context.Background(), tt.subject, tt.items)
			require.Error(t, err)
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
			assert.Empty(t, repo.records, "nothing may be persisted on validation failure")
		})
	}
}

func TestSubmitBuffersWhenStoreUnavailable(t *testing.T) {
	repo := newMemRepo()
	repo.createErr = errors.New("connection refused")
	buf := &memBuffer{}
	uc := New(repo, nil, buf, nil)

	created, err := uc.Submit(context.Background(), "Maria", singleCottonItem())
	require.NoError(t, err)
	require.Len(t, buf.buffered, 1)
	assert.Equal(t, created.TrackingID, buf.buffered[0].TrackingID)
}

func TestFullLifecycle(t *testing.T) {
	repo := newMemRepo()
	uc := New(repo, nil, nil, nil)
	ctx := context.Background()

	created, err := uc.Submit(ctx, "Maria", singleCottonItem())
	require.NoError(t, err)

	received, err := uc.Receive(ctx, created.TrackingID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateReceived, received.State)

	verified, err := uc.Verify(ctx, created.TrackingID, domain.ClassificationReusable, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StateVerified, verified.State)
	assert.Equal(t, domain.ClassificationReusable, verified.Classification)
	assert.Equal(t, "marketplace_or_donation", verified.Destination)

	certified, err := uc.Certify(ctx, created.TrackingID, "retex-certification")
	require.NoError(t, err)
	assert.Equal(t, domain.StateCertified, certified.State)
	require.NotNil(t, certified.Certificate)
	assert.NotEmpty(t, certified.Certificate.ContentHash)
	assert.Equal(t, created.TrackingID, certified.Certificate.TrackingID)

	report, err := uc.VerifyCertificate(*certified.Certificate)
	require.NoError(t, err)
	assert.True(t, report.Valid)
}

func TestVerifyRecomputesImpactFromCorrectedItems(t *testing.T) {
	repo := newMemRepo()
	uc := New(repo, nil, nil, nil)
	ctx := context.Background()

	created, err := uc.Submit(ctx, "Maria", singleCottonItem())
	require.NoError(t, err)
	_, err = uc.Receive(ctx, created.TrackingID)
	require.NoError(t, err)

	// Physical verification found the real weight to be double.
	corrected := []domain.ContributionItem{
		{Type: "t-shirt", SingleMaterial: "Algodão", WeightKg: 0.6},
	}
	verified, err := uc.Verify(ctx, created.TrackingID, domain.ClassificationRepairable, corrected)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, verified.Impact.CO2SavedKg, 1e-9)
	assert.InDelta(t, 900.0, verified.Impact.WaterSavedL, 1e-9)
	assert.Equal(t, "local_artisans", verified.Destination)
	assert.Len(t, verified.Items, 1)
	assert.InDelta(t, 0.6, verified.Items[0].WeightKg, 1e-9)
}

func TestVerifyRejectsInvalidInput(t *testing.T) {
	repo := newMemRepo()
	uc := New(repo, nil, nil, nil)
	ctx := context.Background()

	created, err := uc.Submit(ctx, "Maria", singleCottonItem())
	require.NoError(t, err)
	_, err = uc.Receive(ctx, created.TrackingID)
	require.NoError(t, err)

	_, err = uc.Verify(ctx, created.TrackingID, domain.Classification("pristine"), nil)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	// Corrected items that fail validation must leave the record untouched.
	broken := []domain.ContributionItem{{SingleMaterial: "Algodão", WeightKg: -1}}
	_, err = uc.Verify(ctx, created.TrackingID, domain.ClassificationReusable, broken)
	require.Error(t, err)

	stored, err := repo.GetByTrackingID(ctx, created.TrackingID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateReceived, stored.State)
	assert.InDelta(t, 0.3, stored.Items[0].WeightKg, 1e-9)
}

func TestTransitionOrderingEnforced(t *testing.T) {
	repo := newMemRepo()
	uc := New(repo, nil, nil, nil)
	ctx := context.Background()

	created, err := uc.Submit(ctx, "Maria", singleCottonItem())
	require.NoError(t, err)

	// Skipping received is rejected.
	_, err = uc.Verify(ctx, created.TrackingID, domain.ClassificationReusable, nil)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidTransition))

	// Certifying straight from registered is rejected.
	_, err = uc.Certify(ctx, created.TrackingID, "retex-certification")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidTransition))

	stored, err := repo.GetByTrackingID(ctx, created.TrackingID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateRegistered, stored.State, "failed guard leaves state unchanged")
}

func TestCertifyFromReceivedRejected(t *testing.T) {
	repo := newMemRepo()
	uc := New(repo, nil, nil, nil)
	ctx := context.Background()

	created, err := uc.Submit(ctx, "Maria", singleCottonItem())
	require.NoError(t, err)
	_, err = uc.Receive(ctx, created.TrackingID)
	require.NoError(t, err)

	_, err = uc.Certify(ctx, created.TrackingID, "retex-certification")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidTransition))

	stored, err := repo.GetByTrackingID(ctx, created.TrackingID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateReceived, stored.State)
	assert.Nil(t, stored.Certificate)
}

func TestCertifyIsNotRepeatable(t *testing.T) {
	repo := newMemRepo()
	uc := New(repo, nil, nil, nil)
	ctx := context.Background()

	created, err := uc.Submit(ctx, "Maria", singleCottonItem())
	require.NoError(t, err)
	_, err = uc.Receive(ctx, created.TrackingID)
	require.NoError(t, err)
	_, err = uc.Verify(ctx, created.TrackingID, domain.ClassificationRecyclable, nil)
	require.NoError(t, err)

	first, err := uc.Certify(ctx, created.TrackingID, "retex-certification")
	require.NoError(t, err)
	firstHash := first.Certificate.ContentHash

	_, err = uc.Certify(ctx, created.TrackingID, "retex-certification")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidTransition))

	stored, err := repo.GetByTrackingID(ctx, created.TrackingID)
	require.NoError(t, err)
	require.NotNil(t, stored.Certificate)
	assert.Equal(t, firstHash, stored.Certificate.ContentHash, "stored certificate must be untouched")
}

func TestConcurrentTransitionConflict(t *testing.T) {
	repo := newMemRepo()
	uc := New(repo, nil, nil, nil)
	ctx := context.Background()

	created, err := uc.Submit(ctx, "Maria", singleCottonItem())
	require.NoError(t, err)

	// Simulate a racing operator winning between our read and write.
	record := repo.records[created.TrackingID]
	record.State = domain.StateReceived
	repo.records[created.TrackingID] = record

	// Our write still carries the state observed before the race, so
	// the repository detects the conflict.
	stale := *created
	stale.State = domain.StateReceived
	err = repo.UpdateFromState(ctx, &stale, domain.StateRegistered)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func TestVerifyCertificateTamperDetection(t *testing.T) {
	repo := newMemRepo()
	uc := New(repo, nil, nil, nil)
	ctx := context.Background()

	created, err := uc.Submit(ctx, "Maria", singleCottonItem())
	require.NoError(t, err)
	_, err = uc.Receive(ctx, created.TrackingID)
	require.NoError(t, err)
	_, err = uc.Verify(ctx, created.TrackingID, domain.ClassificationReusable, nil)
	require.NoError(t, err)
	certified, err := uc.Certify(ctx, created.TrackingID, "retex-certification")
	require.NoError(t, err)

	tampered := *certified.Certificate
	tampered.Classification = domain.ClassificationRecyclable

	report, err := uc.VerifyCertificate(tampered)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeIntegrity))
	assert.False(t, report.Valid)
	assert.Equal(t, "content_hash", report.FailedField)
}

func TestGetNotFound(t *testing.T) {
	uc := New(newMemRepo(), nil, nil, nil)
	_, err := uc.Get(context.Background(), "RTX-missing")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}
