package tools

import (
	"context"

	"claimtriage/internal/logging"
	"claimtriage/internal/rules"
	"claimtriage/internal/schema"
	"claimtriage/internal/types"
)

// Catalog tool names. The gateway is instructed to call them in this order.
const (
	ToolExtractDocument   = "extract_document"
	ToolCheckCompleteness = "check_completeness"
	ToolAssessMedicalRisk = "assess_medical_risk"
	ToolMakeDecision      = "make_decision"
)

// NewCatalog builds the fixed triage tool registry. The extraction and
// decision tools are bound to the shared gateway handle; the completeness
// and risk tools are the pure rule engine functions.
func NewCatalog(gw types.Gateway) *Registry {
	reg := NewRegistry()

	reg.MustRegister(&Tool{
		Name: ToolExtractDocument,
		Description: "Extract structured summary, entities, and data quality issues " +
			"from a medical document. Call this first with raw document text.",
		Parameters: schema.ExtractDocumentArgs,
		Required:   []string{"source"},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			source := stringArg(args, "source", "")
			sourceType := stringArg(args, "source_type", "text")
			return gw.Extract(ctx, source, sourceType)
		},
	})

	reg.MustRegister(&Tool{
		Name: ToolCheckCompleteness,
		Description: "Check whether mandatory fields required for a claims decision are present. " +
			"Pass entities and issues from extract_document.",
		Parameters: schema.CheckCompletenessArgs,
		Required:   []string{"entities", "issues"},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			entities, err := decodeArg[types.Entities](args, "entities")
			if err != nil {
				return nil, err
			}
			issues, err := decodeArg[types.Issues](args, "issues")
			if err != nil {
				return nil, err
			}
			report := rules.CheckCompleteness(entities, issues)
			logging.RulesDebug("completeness: score=%d ready=%v missing=%d",
				report.CompletenessScore, report.ReadyForDecision, len(report.MandatoryMissing))
			return report, nil
		},
	})

	reg.MustRegister(&Tool{
		Name: ToolAssessMedicalRisk,
		Description: "Assess medical underwriting risk from extracted diagnoses and medications. " +
			"Returns risk_level: low | moderate | high | refer_to_underwriter.",
		Parameters: schema.AssessMedicalRiskArgs,
		Required:   []string{"entities"},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			entities, err := decodeArg[types.Entities](args, "entities")
			if err != nil {
				return nil, err
			}
			assessment := rules.AssessMedicalRisk(entities)
			logging.Rules("risk assessed: level=%s flags=%d", assessment.RiskLevel, assessment.FlagCount)
			return assessment, nil
		},
	})

	reg.MustRegister(&Tool{
		Name: ToolMakeDecision,
		Description: "Produce final claims recommendation: APPROVE, REQUEST_DOCUMENTS, " +
			"REFER_UNDERWRITER, or DECLINE_TRIAGE. Call this last.",
		Parameters: schema.MakeDecisionArgs,
		Required:   []string{"completeness", "medical_risk", "issues", "entities"},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			completeness, err := decodeArg[types.CompletenessReport](args, "completeness")
			if err != nil {
				return nil, err
			}
			risk, err := decodeArg[types.RiskAssessment](args, "medical_risk")
			if err != nil {
				return nil, err
			}
			issues, err := decodeArg[types.Issues](args, "issues")
			if err != nil {
				return nil, err
			}
			entities, err := decodeArg[types.Entities](args, "entities")
			if err != nil {
				return nil, err
			}
			return gw.Decide(ctx, types.DecisionInput{
				Completeness: completeness,
				MedicalRisk:  risk,
				Issues:       issues,
				Entities:     entities,
			})
		},
	})

	return reg
}
