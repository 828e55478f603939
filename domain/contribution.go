package domain

import "time"

// State is the lifecycle position of a contribution. The lifecycle is
// strictly linear: registered -> received -> verified -> certified.
type State string

const (
	StateRegistered State = "registered"
	StateReceived   State = "received"
	StateVerified   State = "verified"
	StateCertified  State = "certified"
)

// States is the full ordered set of lifecycle states and the single
// source of truth for validation and schema enums.
var States = []State{StateRegistered, StateReceived, StateVerified, StateCertified}

// transitions maps every state to the only state reachable from it.
// Certified is terminal and has no entry.
var transitions = map[State]State{
	StateRegistered: StateReceived,
	StateReceived:   StateVerified,
	StateVerified:   StateCertified,
}

// Next returns the state that follows s, or false when s is terminal
// or unknown.
func (s State) Next() (State, bool) {
	next, ok := transitions[s]
	return next, ok
}

// CanTransition reports whether moving from s to target is allowed by
// the lifecycle table. Skipping ahead and moving backwards are both
// rejected.
func (s State) CanTransition(target State) bool {
	next, ok := transitions[s]
	return ok && next == target
}

// IsValid reports whether s is one of the known lifecycle states.
func (s State) IsValid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// Classification is the outcome of physical verification.
type Classification string

const (
	ClassificationReusable   Classification = "reusable"
	ClassificationRepairable Classification = "repairable"
	ClassificationRecyclable Classification = "recyclable"
)

// Classifications lists the allowed verification outcomes.
var Classifications = []Classification{
	ClassificationReusable,
	ClassificationRepairable,
	ClassificationRecyclable,
}

func (c Classification) IsValid() bool {
	for _, known := range Classifications {
		if c == known {
			return true
		}
	}
	return false
}

// destinations is the fixed classification -> destination mapping
// applied on the received -> verified transition.
var destinations = map[Classification]string{
	ClassificationReusable:   "marketplace_or_donation",
	ClassificationRepairable: "local_artisans",
	ClassificationRecyclable: "recycling_centers",
}

// Destination returns the routing destination derived from the
// classification, or an empty string for an unknown classification.
func (c Classification) Destination() string {
	return destinations[c]
}

// MixtureComponent is one fiber share of a blended item.
type MixtureComponent struct {
	Fiber      string  `json:"fiber"`
	Percentage float64 `json:"percentage"`
}

// ContributionItem is a single textile piece within a contribution.
// Exactly one of SingleMaterial or Mixture is populated, selected by
// IsMixture.
type ContributionItem struct {
	Type           string             `json:"type"`
	IsMixture      bool               `json:"is_mixture"`
	SingleMaterial string             `json:"single_material,omitempty"`
	Mixture        []MixtureComponent `json:"mixture,omitempty"`
	WeightKg       float64            `json:"weight_kg"`
	OriginCountry  string             `json:"origin_country,omitempty"`
}

// Validate checks the structural invariants of a single item and
// returns a field-scoped INVALID error on the first violation.
func (i ContributionItem) Validate() error {
	if i.WeightKg <= 0 {
		return NewFieldError(ErrCodeInvalid, "item weight must be positive", "weight_kg")
	}
	if !i.IsMixture {
		if i.SingleMaterial == "" {
			return NewFieldError(ErrCodeInvalid, "single material item requires a material", "single_material")
		}
		if len(i.Mixture) > 0 {
			return NewFieldError(ErrCodeInvalid, "single material item must not carry a mixture", "mixture")
		}
		return nil
	}
	if i.SingleMaterial != "" {
		return NewFieldError(ErrCodeInvalid, "blend item must not carry a single material", "single_material")
	}
	if len(i.Mixture) == 0 {
		return NewFieldError(ErrCodeInvalid, "blend item requires at least one component", "mixture")
	}
	var total float64
	for _, comp := range i.Mixture {
		if comp.Fiber == "" {
			return NewFieldError(ErrCodeInvalid, "mixture component fiber must not be empty", "mixture.fiber")
		}
		if comp.Percentage <= 0 {
			return NewFieldError(ErrCodeInvalid, "mixture component percentage must be positive", "mixture.percentage")
		}
		total += comp.Percentage
	}
	if total != 100 {
		return NewFieldError(ErrCodeInvalid, "mixture percentages must sum to 100", "mixture.percentage")
	}
	return nil
}

// Impact holds the derived environmental metrics of a contribution.
// All three numbers are computed, never user supplied.
type Impact struct {
	CO2SavedKg      float64 `json:"co2_saved_kg"`
	WaterSavedL     float64 `json:"water_saved_l"`
	ResourcePercent float64 `json:"resource_percent"`
}

// Certificate is the immutable, hash-bound snapshot issued when a
// contribution reaches the certified state. ContentHash is derived from
// every other field; altering any of them invalidates the certificate.
type Certificate struct {
	TrackingID     string         `json:"tracking_id"`
	SubjectName    string         `json:"subject_name"`
	Classification Classification `json:"classification"`
	Destination    string         `json:"destination"`
	Impact         Impact         `json:"impact"`
	TimestampISO   string         `json:"timestamp_iso"`
	IssuerIdentity string         `json:"issuer_identity"`
	ContentHash    string         `json:"content_hash"`
}

// Contribution is the aggregate root tracked through the lifecycle.
// Once certified it becomes append-only: the certificate is set exactly
// once and never mutated.
type Contribution struct {
	TrackingID     string             `json:"tracking_id"`
	SubjectName    string             `json:"subject_name"`
	Items          []ContributionItem `json:"items"`
	State          State              `json:"state"`
	Classification Classification     `json:"classification,omitempty"`
	Destination    string             `json:"destination,omitempty"`
	Impact         Impact             `json:"impact"`
	Certificate    *Certificate       `json:"certificate,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// ValidateItems checks every item, returning the first violation.
func (c *Contribution) ValidateItems() error {
	if c == nil || len(c.Items) == 0 {
		return NewFieldError(ErrCodeInvalid, "contribution requires at least one item", "items")
	}
	for _, item := range c.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsCertified reports whether the contribution reached the terminal
// state and carries its certificate.
func (c *Contribution) IsCertified() bool {
	return c != nil && c.State == StateCertified && c.Certificate != nil
}

func (c *Contribution) Touch() {
	if c == nil {
		return
	}
	c.UpdatedAt = time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = c.UpdatedAt
	}
}
