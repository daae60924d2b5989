package rules

import (
	"fmt"
	"strings"

	"claimtriage/internal/types"
)

// Fixed underwriting policy vocabularies. Matching is plain substring
// containment, case-insensitive, without word-boundary checks; a term inside
// a longer word still matches. That is the documented policy behavior.

// Diagnoses that should strongly trigger underwriting review.
var highRiskDiagnoses = []string{
	"cancer",
	"carcinoma",
	"malignant",
	"tumor",
	"leukaemia",
	"leukemia",
	"heart failure",
	"myocardial infarction",
	"stroke",
	"cerebrovascular",
	"hiv",
	"aids",
	"cirrhosis",
	"renal failure",
	"kidney failure",
	"aortic aneurysm",
	"pulmonary embolism",
	"psychosis",
	"schizophrenia",
}

// Medications that indicate elevated underwriting risk.
var highRiskMedications = []string{
	"chemotherapy",
	"warfarin",
	"clozapine",
	"lithium",
	"methotrexate",
	"tacrolimus",
	"insulin",
	"morphine",
	"oxycodone",
	"fentanyl",
}

// Diagnoses that are relevant but not immediate refer triggers on their own.
var moderateRiskDiagnoses = []string{
	"hypertension",
	"diabetes",
	"angina",
	"atrial fibrillation",
	"asthma",
	"depression",
	"anxiety",
	"sleep apnea",
	"obesity",
}

// NoRiskFlagsSentinel fills RiskFlags when no keyword matched, so the slice
// is never empty. FlagCount stays 0 in that case.
const NoRiskFlagsSentinel = "No significant risk flags identified"

// AssessMedicalRisk assigns a risk level from extracted diagnoses and
// medications. The three keyword passes run in a fixed order and only ever
// raise the level; a final override pass forces refer_to_underwriter when
// any high-risk flag exists or moderate findings accumulate. Collapsing the
// passes would change outcomes when multiple keyword classes match.
func AssessMedicalRisk(entities *types.Entities) *types.RiskAssessment {
	if entities == nil {
		entities = &types.Entities{}
	}

	flags := []string{}
	level := types.RiskLow

	diagnosisNames := make([]string, 0, len(entities.Diagnoses))
	for _, d := range entities.Diagnoses {
		diagnosisNames = append(diagnosisNames, strings.ToLower(d.Name))
	}
	medicationNames := make([]string, 0, len(entities.Medications))
	for _, m := range entities.Medications {
		medicationNames = append(medicationNames, strings.ToLower(m.Name))
	}
	diagnosesText := strings.Join(diagnosisNames, " ")
	medsText := strings.Join(medicationNames, " ")

	for _, term := range highRiskDiagnoses {
		if strings.Contains(diagnosesText, term) {
			flags = append(flags, fmt.Sprintf("High-risk diagnosis keyword: '%s'", term))
			level = types.RiskHigh
		}
	}

	for _, term := range highRiskMedications {
		if strings.Contains(medsText, term) {
			flags = append(flags, fmt.Sprintf("High-risk medication: '%s'", term))
			if level != types.RiskHigh {
				level = types.RiskModerate
			}
		}
	}

	for _, term := range moderateRiskDiagnoses {
		if strings.Contains(diagnosesText, term) {
			flags = append(flags, fmt.Sprintf("Moderate-risk diagnosis keyword: '%s'", term))
			if level == types.RiskLow {
				level = types.RiskModerate
			}
		}
	}

	highCount := 0
	modCount := 0
	for _, flag := range flags {
		if strings.HasPrefix(flag, "High-risk") {
			highCount++
		}
		if strings.HasPrefix(flag, "Moderate-risk") {
			modCount++
		}
	}

	// Escalate when any high-risk hit is present or moderate findings accumulate.
	if highCount >= 1 || modCount >= 3 {
		level = types.RiskReferToUnderwriter
	}

	assessment := &types.RiskAssessment{
		RiskLevel: level,
		RiskFlags: flags,
		FlagCount: len(flags),
	}
	if len(flags) == 0 {
		assessment.RiskFlags = []string{NoRiskFlagsSentinel}
	}
	return assessment
}
