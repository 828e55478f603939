package impact

import "github.com/retexhub/backend/domain"

// ComputeItem calculates the environmental savings of a single item.
//
// Single-material items multiply the resolved factor by the item
// weight. Blends resolve each component the same way and sum
// factor * weight * (percentage/100) in component order, keeping the
// result bit-reproducible for identical input ordering. The model is
// linear with no cross-term interaction between fibers.
//
// Structural invariants (positive weight, blend percentages summing to
// 100) are validated before any arithmetic; a violation returns an
// INVALID domain error and a zero Impact.
func ComputeItem(item domain.ContributionItem) (domain.Impact, error) {
	if err := item.Validate(); err != nil {
		return domain.Impact{}, err
	}

	if !item.IsMixture {
		factor := Lookup(item.Type, item.SingleMaterial, item.OriginCountry)
		return domain.Impact{
			CO2SavedKg:      factor.CO2PerKg * item.WeightKg,
			WaterSavedL:     factor.WaterPerKg * item.WeightKg,
			ResourcePercent: factor.ResourceSavingPercent * item.WeightKg,
		}, nil
	}

	var total domain.Impact
	for _, comp := range item.Mixture {
		factor := Lookup(item.Type, comp.Fiber, item.OriginCountry)
		share := item.WeightKg * comp.Percentage / 100
		total.CO2SavedKg += factor.CO2PerKg * share
		total.WaterSavedL += factor.WaterPerKg * share
		total.ResourcePercent += factor.ResourceSavingPercent * share
	}
	return total, nil
}

// ComputeTotal aggregates the savings of every item in array order.
// The first invalid item aborts the computation.
func ComputeTotal(items []domain.ContributionItem) (domain.Impact, error) {
	var total domain.Impact
	for _, item := range items {
		impact, err := ComputeItem(item)
		if err != nil {
			return domain.Impact{}, err
		}
		total.CO2SavedKg += impact.CO2SavedKg
		total.WaterSavedL += impact.WaterSavedL
		total.ResourcePercent += impact.ResourcePercent
	}
	return total, nil
}
