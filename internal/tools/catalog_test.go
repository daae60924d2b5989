package tools

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"claimtriage/internal/types"
)

// fakeGateway records calls and returns canned payloads.
type fakeGateway struct {
	extraction *types.Extraction
	extractErr error
	decision   *types.Decision

	lastSource     string
	lastSourceType string
	lastDecision   types.DecisionInput
}

func (g *fakeGateway) Extract(ctx context.Context, source, sourceType string) (*types.Extraction, error) {
	g.lastSource = source
	g.lastSourceType = sourceType
	return g.extraction, g.extractErr
}

func (g *fakeGateway) Decide(ctx context.Context, in types.DecisionInput) (*types.Decision, error) {
	g.lastDecision = in
	return g.decision, nil
}

func (g *fakeGateway) RunTurn(ctx context.Context, req types.TurnRequest) (*types.TurnResponse, error) {
	return &types.TurnResponse{}, nil
}

func TestNewCatalogSurface(t *testing.T) {
	reg := NewCatalog(&fakeGateway{})

	want := []string{
		ToolAssessMedicalRisk,
		ToolCheckCompleteness,
		ToolExtractDocument,
		ToolMakeDecision,
	}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}

	for _, def := range reg.Definitions() {
		if def.Parameters == nil {
			t.Errorf("tool %s has no parameter schema", def.Name)
		}
		if def.Description == "" {
			t.Errorf("tool %s has no description", def.Name)
		}
	}
}

func TestExtractDocumentDefaultsSourceType(t *testing.T) {
	gw := &fakeGateway{extraction: &types.Extraction{SummaryBullets: []string{"ok"}}}
	reg := NewCatalog(gw)

	result := reg.Dispatch(context.Background(), ToolExtractDocument, map[string]any{
		"source": "Patient: Jane Doe",
	})

	extraction, ok := result.(*types.Extraction)
	if !ok {
		t.Fatalf("result = %T, want *types.Extraction", result)
	}
	if len(extraction.SummaryBullets) != 1 {
		t.Errorf("bullets = %v, want the gateway payload", extraction.SummaryBullets)
	}
	if gw.lastSource != "Patient: Jane Doe" {
		t.Errorf("source = %q, want the passed text", gw.lastSource)
	}
	if gw.lastSourceType != "text" {
		t.Errorf("source_type = %q, want default text", gw.lastSourceType)
	}
}

func TestExtractDocumentGatewayFailure(t *testing.T) {
	gw := &fakeGateway{extractErr: errors.New("no text could be extracted from source")}
	reg := NewCatalog(gw)

	result := reg.Dispatch(context.Background(), ToolExtractDocument, map[string]any{"source": ""})
	errResult, ok := result.(ErrorResult)
	if !ok {
		t.Fatalf("result = %T, want ErrorResult", result)
	}
	if !strings.Contains(errResult.Error, "no text") {
		t.Errorf("error = %q, want the gateway failure surfaced", errResult.Error)
	}
}

func TestCheckCompletenessDecodesModelArgs(t *testing.T) {
	reg := NewCatalog(&fakeGateway{})

	// Arguments arrive as generic JSON maps, exactly as the gateway decodes
	// them from the model's function call.
	result := reg.Dispatch(context.Background(), ToolCheckCompleteness, map[string]any{
		"entities": map[string]any{
			"patient_name":  "Jane Doe",
			"dob":           "1978-04-12",
			"report_date":   "2024-11-02",
			"provider_name": "Dr Sharma",
			"diagnoses":     []any{map[string]any{"name": "angina", "icd10": nil}},
			"medications":   []any{},
		},
		"issues": map[string]any{
			"data_quality_flags": []any{"year_only_dates_present"},
		},
	})

	report, ok := result.(*types.CompletenessReport)
	if !ok {
		t.Fatalf("result = %T, want *types.CompletenessReport", result)
	}
	if !report.ReadyForDecision {
		t.Error("expected ReadyForDecision with all mandatory fields present")
	}
	if report.CompletenessScore != 83 {
		t.Errorf("score = %d, want 83", report.CompletenessScore)
	}
	if len(report.QualityFlags) != 1 {
		t.Errorf("quality flags = %v, want the issue flag carried through", report.QualityFlags)
	}
}

func TestCheckCompletenessRequiresBothArgs(t *testing.T) {
	reg := NewCatalog(&fakeGateway{})

	result := reg.Dispatch(context.Background(), ToolCheckCompleteness, map[string]any{
		"entities": map[string]any{},
	})
	if _, ok := result.(ErrorResult); !ok {
		t.Fatalf("result = %T, want ErrorResult for missing issues", result)
	}
}

func TestAssessMedicalRiskDecodesModelArgs(t *testing.T) {
	reg := NewCatalog(&fakeGateway{})

	result := reg.Dispatch(context.Background(), ToolAssessMedicalRisk, map[string]any{
		"entities": map[string]any{
			"diagnoses": []any{map[string]any{"name": "metastatic cancer"}},
		},
	})

	assessment, ok := result.(*types.RiskAssessment)
	if !ok {
		t.Fatalf("result = %T, want *types.RiskAssessment", result)
	}
	if assessment.RiskLevel != types.RiskReferToUnderwriter {
		t.Errorf("risk level = %s, want refer_to_underwriter", assessment.RiskLevel)
	}
}

func TestMakeDecisionForwardsAssessmentInputs(t *testing.T) {
	gw := &fakeGateway{decision: &types.Decision{
		Decision:   types.DecisionReferUnderwriter,
		Confidence: types.ConfidenceHigh,
	}}
	reg := NewCatalog(gw)

	result := reg.Dispatch(context.Background(), ToolMakeDecision, map[string]any{
		"completeness": map[string]any{"ready_for_decision": true, "completeness_score": 100},
		"medical_risk": map[string]any{"risk_level": "refer_to_underwriter", "flag_count": 1},
		"issues":       map[string]any{},
		"entities":     map[string]any{"patient_name": "Jane Doe"},
	})

	decision, ok := result.(*types.Decision)
	if !ok {
		t.Fatalf("result = %T, want *types.Decision", result)
	}
	if decision.Decision != types.DecisionReferUnderwriter {
		t.Errorf("decision = %s, want REFER_UNDERWRITER", decision.Decision)
	}

	if gw.lastDecision.MedicalRisk == nil || gw.lastDecision.MedicalRisk.RiskLevel != types.RiskReferToUnderwriter {
		t.Error("risk assessment was not decoded and forwarded")
	}
	if gw.lastDecision.Entities == nil || gw.lastDecision.Entities.PatientName == nil {
		t.Error("entities were not decoded and forwarded")
	}
}

func TestMakeDecisionRejectsMalformedArgShape(t *testing.T) {
	reg := NewCatalog(&fakeGateway{})

	result := reg.Dispatch(context.Background(), ToolMakeDecision, map[string]any{
		"completeness": "not an object",
		"medical_risk": map[string]any{},
		"issues":       map[string]any{},
		"entities":     map[string]any{},
	})
	errResult, ok := result.(ErrorResult)
	if !ok {
		t.Fatalf("result = %T, want ErrorResult", result)
	}
	if !strings.Contains(errResult.Error, "completeness") {
		t.Errorf("error = %q, want the bad argument named", errResult.Error)
	}
}
