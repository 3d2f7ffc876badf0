// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ratio

import "fmt"

// AnomalyType represents different types of dive data anomalies
type AnomalyType int

const (
	AnomalySampleCount AnomalyType = iota
	AnomalyRuntimeOrder
	AnomalyGasMix
	AnomalyGradientFactor
)

// String returns a short name for the anomaly type
func (a AnomalyType) String() string {
	switch a {
	case AnomalySampleCount:
		return "sample_count"
	case AnomalyRuntimeOrder:
		return "runtime_order"
	case AnomalyGasMix:
		return "gas_mix"
	case AnomalyGradientFactor:
		return "gradient_factor"
	default:
		return "unknown"
	}
}

// ValidationError represents a plausibility failure in decoded dive data.
// Anomalies are reported, never corrected: the decoded values stay as read.
type ValidationError struct {
	Type    AnomalyType
	Sample  int // 1-based sample index, 0 for header findings
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateDive checks a downloaded dive for implausible values.
// Returns a slice of validation errors (empty if the dive looks sane).
func ValidateDive(d *Dive) []ValidationError {
	errors := []ValidationError{}

	if len(d.Samples) != int(d.DiveSamples) {
		errors = append(errors, ValidationError{
			Type:    AnomalySampleCount,
			Message: fmt.Sprintf("Dive %d has %d samples, header declares %d", d.ID, len(d.Samples), d.DiveSamples),
			Details: map[string]interface{}{"samples": len(d.Samples), "declared": d.DiveSamples},
		})
	}

	for i, s := range d.Samples {
		index := i + 1
		errors = append(errors, validateSample(index, s)...)

		if i > 0 && s.RuntimeS <= d.Samples[i-1].RuntimeS {
			errors = append(errors, ValidationError{
				Type:    AnomalyRuntimeOrder,
				Sample:  index,
				Message: fmt.Sprintf("Sample %d runtime %ds not after previous %ds", index, s.RuntimeS, d.Samples[i-1].RuntimeS),
				Details: map[string]interface{}{"runtime": s.RuntimeS, "previous": d.Samples[i-1].RuntimeS},
			})
		}
	}

	return errors
}

// validateSample checks the values of a single sample
func validateSample(index int, s DiveSample) []ValidationError {
	errors := []ValidationError{}

	if int(s.ActiveMixO2Percent)+int(s.ActiveMixHePercent) > 100 {
		errors = append(errors, ValidationError{
			Type:    AnomalyGasMix,
			Sample:  index,
			Message: fmt.Sprintf("Sample %d active mix O2 %d%% + He %d%% exceeds 100%%", index, s.ActiveMixO2Percent, s.ActiveMixHePercent),
			Details: map[string]interface{}{"o2": s.ActiveMixO2Percent, "he": s.ActiveMixHePercent},
		})
	}

	if int(s.SuggestedMixO2Percent)+int(s.SuggestedMixHePercent) > 100 {
		errors = append(errors, ValidationError{
			Type:    AnomalyGasMix,
			Sample:  index,
			Message: fmt.Sprintf("Sample %d suggested mix O2 %d%% + He %d%% exceeds 100%%", index, s.SuggestedMixO2Percent, s.SuggestedMixHePercent),
			Details: map[string]interface{}{"o2": s.SuggestedMixO2Percent, "he": s.SuggestedMixHePercent},
		})
	}

	if s.BuhlGfLow > s.BuhlGfHigh {
		errors = append(errors, ValidationError{
			Type:    AnomalyGradientFactor,
			Sample:  index,
			Message: fmt.Sprintf("Sample %d GF low %d above GF high %d", index, s.BuhlGfLow, s.BuhlGfHigh),
			Details: map[string]interface{}{"gf_low": s.BuhlGfLow, "gf_high": s.BuhlGfHigh},
		})
	}

	return errors
}
