// Package certificate builds and verifies tamper-evident contribution
// certificates. A certificate binds the final impact figures of a
// contribution to a SHA-256 hash over a canonical serialization of its
// content; recomputing the hash from the visible fields detects any
// post-issuance mutation without external infrastructure.
package certificate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/retexhub/backend/domain"
)

// canonicalContent is the exact byte layout hashed into ContentHash.
// Field order is fixed by struct declaration order and numbers are
// pre-formatted to three decimal places, so re-serialization of the
// same logical content is always byte-identical.
type canonicalContent struct {
	TrackingID     string `json:"tracking_id"`
	SubjectName    string `json:"subject_name"`
	Classification string `json:"classification"`
	Destination    string `json:"destination"`
	CO2SavedKg     string `json:"co2_saved_kg"`
	WaterSavedL    string `json:"water_saved_l"`
	ResourcePct    string `json:"resource_percent"`
	TimestampISO   string `json:"timestamp_iso"`
	IssuerIdentity string `json:"issuer_identity"`
}

// VerificationReport is the outcome of a certificate check. When the
// certificate is invalid, FailedField names the comparison that broke.
type VerificationReport struct {
	Valid        bool   `json:"valid"`
	FailedField  string `json:"failed_field,omitempty"`
	StoredHash   string `json:"stored_hash,omitempty"`
	ComputedHash string `json:"computed_hash,omitempty"`
}

// canonicalNumber formats a metric with a stable three-decimal
// rendering, rounding half away from zero.
func canonicalNumber(v float64) string {
	rounded := math.Round(v*1000) / 1000
	return strconv.FormatFloat(rounded, 'f', 3, 64)
}

// contentOf projects a certificate's visible fields into the canonical
// form. ContentHash itself is deliberately excluded.
func contentOf(cert domain.Certificate) canonicalContent {
	return canonicalContent{
		TrackingID:     cert.TrackingID,
		SubjectName:    cert.SubjectName,
		Classification: string(cert.Classification),
		Destination:    cert.Destination,
		CO2SavedKg:     canonicalNumber(cert.Impact.CO2SavedKg),
		WaterSavedL:    canonicalNumber(cert.Impact.WaterSavedL),
		ResourcePct:    canonicalNumber(cert.Impact.ResourcePercent),
		TimestampISO:   cert.TimestampISO,
		IssuerIdentity: cert.IssuerIdentity,
	}
}

// Hash computes the content hash of a certificate's visible fields:
// SHA-256 over the canonical JSON serialization, hex encoded.
func Hash(cert domain.Certificate) (string, error) {
	payload, err := json.Marshal(contentOf(cert))
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "canonical serialization failed", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// Generate issues the certificate for a contribution that finished
// physical verification. The caller (the verified -> certified
// transition) is responsible for persisting it exactly once; the
// impact figures in effect now are frozen into the content, so later
// factor-table updates never touch an issued certificate.
func Generate(c *domain.Contribution, issuerIdentity string) (*domain.Certificate, error) {
	if c == nil {
		return nil, domain.ErrInvalidPayload
	}
	if c.State != domain.StateVerified {
		return nil, domain.NewInvalidTransition(c.State, domain.StateCertified)
	}
	if c.Certificate != nil {
		return nil, domain.ErrCertificateAlreadySet
	}
	if issuerIdentity == "" {
		return nil, domain.NewFieldError(domain.ErrCodeInvalid, "issuer identity must not be empty", "issuer_identity")
	}

	cert := domain.Certificate{
		TrackingID:     c.TrackingID,
		SubjectName:    c.SubjectName,
		Classification: c.Classification,
		Destination:    c.Destination,
		Impact:         c.Impact,
		TimestampISO:   time.Now().UTC().Format(time.RFC3339),
		IssuerIdentity: issuerIdentity,
	}

	hash, err := Hash(cert)
	if err != nil {
		return nil, err
	}
	cert.ContentHash = hash
	return &cert, nil
}

// Verify recomputes the content hash from the certificate's own
// visible fields and compares it to the stored one. A mismatch means
// the content was altered after issuance (or the hashing procedure
// drifted); it is reported, never corrected.
func Verify(cert domain.Certificate) (VerificationReport, error) {
	if cert.ContentHash == "" {
		return VerificationReport{Valid: false, FailedField: "content_hash"},
			domain.NewFieldError(domain.ErrCodeInvalid, "certificate carries no content hash", "content_hash")
	}

	computed, err := Hash(cert)
	if err != nil {
		return VerificationReport{Valid: false, FailedField: "content_hash"}, err
	}

	report := VerificationReport{
		StoredHash:   cert.ContentHash,
		ComputedHash: computed,
	}
	if computed != cert.ContentHash {
		report.FailedField = "content_hash"
		return report, nil
	}
	report.Valid = true
	return report, nil
}
