// Package schema defines the structured-output contracts for the extraction
// and decision calls, plus the argument schemas for the tool catalog. The
// agent relies on strict JSON schema outputs so downstream rule logic can
// depend on predictable keys and types. These are immutable policy data; no
// consumer mutates them at runtime.
package schema

// EntitiesSchema describes the structured medical entities extracted from a
// document. Every scalar is nullable: missing values are explicit nulls.
var EntitiesSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"patient_name": map[string]any{"type": []string{"string", "null"}},
		"dob":          map[string]any{"type": []string{"string", "null"}, "description": "YYYY-MM-DD"},
		"report_date":  map[string]any{"type": []string{"string", "null"}, "description": "YYYY-MM-DD"},
		"provider_name": map[string]any{
			"type": []string{"string", "null"},
		},
		"diagnoses": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"name":  map[string]any{"type": "string"},
					"icd10": map[string]any{"type": []string{"string", "null"}},
				},
				"required": []string{"name", "icd10"},
			},
		},
		"medications": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"name":      map[string]any{"type": "string"},
					"dose":      map[string]any{"type": []string{"string", "null"}},
					"frequency": map[string]any{"type": []string{"string", "null"}},
				},
				"required": []string{"name", "dose", "frequency"},
			},
		},
		"procedures": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"key_dates":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []string{
		"patient_name",
		"dob",
		"report_date",
		"provider_name",
		"diagnoses",
		"medications",
		"procedures",
		"key_dates",
	},
}

// IssuesSchema describes the data quality findings identified during
// extraction.
var IssuesSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"missing_fields":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"missing_numerical_values": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"data_quality_flags":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"confidence_notes":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []string{
		"missing_fields",
		"missing_numerical_values",
		"data_quality_flags",
		"confidence_notes",
	},
}

// ExtractionSchema is the top-level extraction payload: summary bullets plus
// entities plus issues.
var ExtractionSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"summary_bullets": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"entities":        EntitiesSchema,
		"issues":          IssuesSchema,
	},
	"required": []string{"summary_bullets", "entities", "issues"},
}

// DecisionSchema is the final underwriting recommendation payload.
var DecisionSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"decision": map[string]any{
			"type": "string",
			"enum": []string{"APPROVE", "REQUEST_DOCUMENTS", "REFER_UNDERWRITER", "DECLINE_TRIAGE"},
		},
		"confidence": map[string]any{
			"type": "string",
			"enum": []string{"high", "medium", "low"},
		},
		"rationale": map[string]any{
			"type":        "string",
			"description": "2-4 sentence plain-English explanation of the decision",
		},
		"action_items": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Concrete next steps for the claims handler",
		},
		"documents_requested": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Specific documents to request if decision is REQUEST_DOCUMENTS",
		},
		"underwriter_notes": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Notes for underwriter if decision is REFER_UNDERWRITER; else null",
		},
	},
	"required": []string{
		"decision",
		"confidence",
		"rationale",
		"action_items",
		"documents_requested",
		"underwriter_notes",
	},
}

// Tool argument schemas. These define the catalog surface exposed to the
// gateway; the model is free to call tools in any order but is instructed to
// follow extract -> completeness -> risk -> decide.

// ExtractDocumentArgs is the argument contract for extract_document.
var ExtractDocumentArgs = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"source": map[string]any{"type": "string", "description": "Raw text of the document"},
		"source_type": map[string]any{
			"type":        "string",
			"enum":        []string{"text", "pdf"},
			"description": "Pass 'text' when you already have the content",
		},
	},
	"required": []string{"source"},
}

// CheckCompletenessArgs is the argument contract for check_completeness.
var CheckCompletenessArgs = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"entities": map[string]any{"type": "object"},
		"issues":   map[string]any{"type": "object"},
	},
	"required": []string{"entities", "issues"},
}

// AssessMedicalRiskArgs is the argument contract for assess_medical_risk.
var AssessMedicalRiskArgs = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"entities": map[string]any{"type": "object"},
	},
	"required": []string{"entities"},
}

// MakeDecisionArgs is the argument contract for make_decision.
var MakeDecisionArgs = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"completeness": map[string]any{"type": "object"},
		"medical_risk": map[string]any{"type": "object"},
		"issues":       map[string]any{"type": "object"},
		"entities":     map[string]any{"type": "object"},
	},
	"required": []string{"completeness", "medical_risk", "issues", "entities"},
}
