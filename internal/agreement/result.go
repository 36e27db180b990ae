// Package agreement implements chance-corrected inter-annotator
// reliability coefficients: Cohen's kappa, Fleiss' kappa and
// Krippendorff's alpha. All functions are stateless and operate on
// parallel sequences of judgments supplied by the caller.
package agreement

import "fmt"

// Method names as stored in agreement records.
const (
	MethodCohen        = "cohen_kappa"
	MethodFleiss       = "fleiss_kappa"
	MethodKrippendorff = "krippendorff_alpha"
)

// Result is the immutable outcome of a coefficient computation.
// Kappa variants fill the agreement fields, alpha the disagreement
// fields.
type Result struct {
	Method               string   `json:"method"`
	Coefficient          float64  `json:"coefficient"`
	StandardError        *float64 `json:"standard_error,omitempty"`
	CILower              float64  `json:"ci_lower"`
	CIUpper              float64  `json:"ci_upper"`
	ObservedAgreement    float64  `json:"observed_agreement,omitempty"`
	ExpectedAgreement    float64  `json:"expected_agreement,omitempty"`
	ObservedDisagreement float64  `json:"observed_disagreement,omitempty"`
	ExpectedDisagreement float64  `json:"expected_disagreement,omitempty"`
	NItems               int      `json:"n_items"`
	Categories           []string `json:"categories"`
	Interpretation       string   `json:"interpretation"`
}

// InvalidInputError reports malformed metric input with the offending
// field. Validation failures are never silently coerced.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func invalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

// interpretKappa maps a kappa coefficient onto the Landis-Koch bands.
// The boundaries are fixed: <0 Poor, (0,0.20] Slight, (0.20,0.40] Fair,
// (0.40,0.60] Moderate, (0.60,0.80] Substantial, >0.80 Almost Perfect.
func interpretKappa(k float64) string {
	switch {
	case k < 0:
		return "Poor"
	case k <= 0.20:
		return "Slight"
	case k <= 0.40:
		return "Fair"
	case k <= 0.60:
		return "Moderate"
	case k <= 0.80:
		return "Substantial"
	default:
		return "Almost Perfect"
	}
}

// interpretAlpha maps Krippendorff's alpha onto the conventional
// reliability bands: >=0.80 High, [0.67,0.80) Moderate, <0 Poor, else
// Low.
func interpretAlpha(a float64) string {
	switch {
	case a < 0:
		return "Poor"
	case a >= 0.80:
		return "High"
	case a >= 0.67:
		return "Moderate"
	default:
		return "Low"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
