package transport

// MixtureComponentRequest is one fiber share of a blended item.
type MixtureComponentRequest struct {
	Fiber      string  `json:"fiber"`
	Percentage float64 `json:"percentage"`
}

// ContributionItemRequest describes one textile piece in a submission.
type ContributionItemRequest struct {
	Type           string                    `json:"type"`
	IsMixture      bool                      `json:"is_mixture"`
	SingleMaterial string                    `json:"single_material"`
	Mixture        []MixtureComponentRequest `json:"mixture"`
	WeightKg       float64                   `json:"weight_kg"`
	OriginCountry  string                    `json:"origin_country"`
}

// SubmitContributionRequest registers a new contribution.
type SubmitContributionRequest struct {
	SubjectName string                    `json:"subject_name"`
	Items       []ContributionItemRequest `json:"items"`
}

// VerifyContributionRequest carries the operator's classification for
// the received -> verified transition, with an optional corrected item
// list from physical verification.
type VerifyContributionRequest struct {
	Classification string                    `json:"classification"`
	CorrectedItems []ContributionItemRequest `json:"corrected_items"`
}

// VerifyCertificateRequest presents a certificate for integrity checking.
type VerifyCertificateRequest struct {
	TrackingID     string        `json:"tracking_id"`
	SubjectName    string        `json:"subject_name"`
	Classification string        `json:"classification"`
	Destination    string        `json:"destination"`
	Impact         ImpactRequest `json:"impact"`
	TimestampISO   string        `json:"timestamp_iso"`
	IssuerIdentity string        `json:"issuer_identity"`
	ContentHash    string        `json:"content_hash"`
}

// ImpactRequest mirrors the impact metrics of a presented certificate.
type ImpactRequest struct {
	CO2SavedKg      float64 `json:"co2_saved_kg"`
	WaterSavedL     float64 `json:"water_saved_l"`
	ResourcePercent float64 `json:"resource_percent"`
}
