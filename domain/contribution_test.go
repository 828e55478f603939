package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTransitionTable(t *testing.T) {
	tests := []struct {
		from State
		to   State
		want bool
	}{
		{StateRegistered, StateReceived, true},
		{StateReceived, StateVerified, true},
		{StateVerified, StateCertified, true},

		// No skipping ahead.
		{StateRegistered, StateVerified, false},
		{StateRegistered, StateCertified, false},
		{StateReceived, StateCertified, false},

		// No going back, no cycles.
		{StateReceived, StateRegistered, false},
		{StateVerified, StateReceived, false},
		{StateCertified, StateVerified, false},
		{StateRegistered, StateRegistered, false},

		// Terminal state allows nothing.
		{StateCertified, StateCertified, false},
		{StateCertified, StateRegistered, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestStateNext(t *testing.T) {
	next, ok := StateRegistered.Next()
	require.True(t, ok)
	assert.Equal(t, StateReceived, next)

	_, ok = StateCertified.Next()
	assert.False(t, ok, "certified is terminal")

	_, ok = State("bogus").Next()
	assert.False(t, ok)
}

func TestClassificationDestinations(t *testing.T) {
	tests := []struct {
		classification Classification
		want           string
	}{
		{ClassificationReusable, "marketplace_or_donation"},
		{ClassificationRepairable, "local_artisans"},
		{ClassificationRecyclable, "recycling_centers"},
		{Classification("bogus"), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.classification.Destination())
	}
}

func TestClassificationIsValid(t *testing.T) {
	for _, c := range Classifications {
		assert.True(t, c.IsValid())
	}
	assert.False(t, Classification("").IsValid())
	assert.False(t, Classification("broken").IsValid())
}

func TestContributionItemValidate(t *testing.T) {
	tests := []struct {
		name      string
		item      ContributionItem
		wantField string
	}{
		{
			name: "valid single material",
			item: ContributionItem{Type: "t-shirt", SingleMaterial: "Algodão", WeightKg: 0.3},
		},
		{
			name: "valid blend",
			item: ContributionItem{
				Type:      "dress",
				IsMixture: true,
				Mixture: []MixtureComponent{
					{Fiber: "Viscose", Percentage: 70},
					{Fiber: "Elastano", Percentage: 30},
				},
				WeightKg: 0.5,
			},
		},
		{
			name:      "zero weight",
			item:      ContributionItem{SingleMaterial: "Algodão"},
			wantField: "weight_kg",
		},
		{
			name:      "negative weight",
			item:      ContributionItem{SingleMaterial: "Algodão", WeightKg: -0.1},
			wantField: "weight_kg",
		},
		{
			name:      "single material missing",
			item:      ContributionItem{WeightKg: 1},
			wantField: "single_material",
		},
		{
			name: "single material with stray mixture",
			item: ContributionItem{
				SingleMaterial: "Algodão",
				Mixture:        []MixtureComponent{{Fiber: "Lã", Percentage: 100}},
				WeightKg:       1,
			},
			wantField: "mixture",
		},
		{
			name: "blend with stray single material",
			item: ContributionItem{
				IsMixture:      true,
				SingleMaterial: "Algodão",
				Mixture:        []MixtureComponent{{Fiber: "Lã", Percentage: 100}},
				WeightKg:       1,
			},
			wantField: "single_material",
		},
		{
			name:      "blend without components",
			item:      ContributionItem{IsMixture: true, WeightKg: 1},
			wantField: "mixture",
		},
		{
			name: "blend summing to 90",
			item: ContributionItem{
				IsMixture: true,
				Mixture: []MixtureComponent{
					{Fiber: "Algodão", Percentage: 60},
					{Fiber: "Poliéster", Percentage: 30},
				},
				WeightKg: 1,
			},
			wantField: "mixture.percentage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var dErr *Error
			require.ErrorAs(t, err, &dErr)
			assert.Equal(t, ErrCodeInvalid, dErr.Code)
			assert.Equal(t, tt.wantField, dErr.Field)
		})
	}
}

func TestContributionValidateItems(t *testing.T) {
	var c *Contribution
	assert.Error(t, c.ValidateItems(), "nil contribution")

	empty := &Contribution{}
	assert.Error(t, empty.ValidateItems(), "no items")

	ok := &Contribution{Items: []ContributionItem{{SingleMaterial: "Algodão", WeightKg: 1}}}
	assert.NoError(t, ok.ValidateItems())
}

func TestIsCertified(t *testing.T) {
	c := &Contribution{State: StateCertified}
	assert.False(t, c.IsCertified(), "certified state without certificate record")

	c.Certificate = &Certificate{ContentHash: "abc"}
	assert.True(t, c.IsCertified())

	c.State = StateVerified
	assert.False(t, c.IsCertified())
}

func TestDomainErrorFieldRendering(t *testing.T) {
	err := NewFieldError(ErrCodeInvalid, "must be positive", "weight_kg")
	assert.Contains(t, err.Error(), "weight_kg")
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
	assert.False(t, IsDomainError(err, ErrCodeNotFound))
}
