// Package rules implements the deterministic, auditable business rules used
// by the triage agent: completeness checks for mandatory/preferred fields and
// keyword-based medical risk flagging. All functions are pure; malformed or
// absent input degrades to "missing" rather than failing.
package rules

import (
	"math"

	"claimtriage/internal/types"
)

// fieldCheck pairs a human-readable label with a presence predicate.
// The slices below are fixed policy data; order matters for report output.
type fieldCheck struct {
	key     string
	label   string
	present func(e *types.Entities) bool
}

var mandatoryFields = []fieldCheck{
	{"patient_name", "Patient full name", func(e *types.Entities) bool { return hasText(e.PatientName) }},
	{"dob", "Date of birth", func(e *types.Entities) bool { return hasText(e.DOB) }},
	{"report_date", "Report / examination date", func(e *types.Entities) bool { return hasText(e.ReportDate) }},
	{"provider_name", "Treating provider or clinic name", func(e *types.Entities) bool { return hasText(e.ProviderName) }},
}

var preferredFields = []fieldCheck{
	{"diagnoses", "At least one diagnosis", func(e *types.Entities) bool { return len(e.Diagnoses) > 0 }},
	{"medications", "Medication list (if applicable)", func(e *types.Entities) bool { return len(e.Medications) > 0 }},
}

func hasText(s *string) bool {
	return s != nil && *s != ""
}

// CheckCompleteness computes a structured completeness report for triage
// decisions. ReadyForDecision is true iff every mandatory field is present,
// independent of preferred fields or the score.
func CheckCompleteness(entities *types.Entities, issues *types.Issues) *types.CompletenessReport {
	if entities == nil {
		entities = &types.Entities{}
	}

	report := &types.CompletenessReport{
		MandatoryPresent: []string{},
		MandatoryMissing: []string{},
		PreferredPresent: []string{},
		PreferredMissing: []string{},
		QualityFlags:     []string{},
	}
	if issues != nil && len(issues.DataQualityFlags) > 0 {
		report.QualityFlags = append(report.QualityFlags, issues.DataQualityFlags...)
	}

	for _, f := range mandatoryFields {
		if f.present(entities) {
			report.MandatoryPresent = append(report.MandatoryPresent, f.label)
		} else {
			report.MandatoryMissing = append(report.MandatoryMissing, f.label)
		}
	}
	for _, f := range preferredFields {
		if f.present(entities) {
			report.PreferredPresent = append(report.PreferredPresent, f.label)
		} else {
			report.PreferredMissing = append(report.PreferredMissing, f.label)
		}
	}

	total := len(mandatoryFields) + len(preferredFields)
	present := len(report.MandatoryPresent) + len(report.PreferredPresent)
	report.CompletenessScore = int(math.Round(100 * float64(present) / float64(total)))
	report.ReadyForDecision = len(report.MandatoryMissing) == 0
	return report
}
