// Package types provides shared type definitions used across claimtriage packages.
// This package exists to break import cycles between the agent loop, the tool
// dispatcher, and the gateway client. Types here are plain data structures with
// no behavior beyond construction helpers.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Diagnosis is a single extracted diagnosis. ICD10 is nil when no code
// appears in the source document.
type Diagnosis struct {
	Name  string  `json:"name"`
	ICD10 *string `json:"icd10"`
}

// Medication is a single extracted medication entry.
type Medication struct {
	Name      string  `json:"name"`
	Dose      *string `json:"dose"`
	Frequency *string `json:"frequency"`
}

// Entities holds the structured facts extracted from a claim document.
// Scalar fields are pointers so that absence is an explicit null in the
// serialized payload, never an omitted key.
type Entities struct {
	PatientName  *string      `json:"patient_name"`
	DOB          *string      `json:"dob"`
	ReportDate   *string      `json:"report_date"`
	ProviderName *string      `json:"provider_name"`
	Diagnoses    []Diagnosis  `json:"diagnoses"`
	Medications  []Medication `json:"medications"`
	Procedures   []string     `json:"procedures"`
	KeyDates     []string     `json:"key_dates"`
}

// Issues captures data-quality findings produced alongside extraction.
// Produced once per extraction and never mutated afterwards.
type Issues struct {
	MissingFields          []string `json:"missing_fields"`
	MissingNumericalValues []string `json:"missing_numerical_values"`
	DataQualityFlags       []string `json:"data_quality_flags"`
	ConfidenceNotes        []string `json:"confidence_notes"`
}

// Extraction is the full structured payload returned by the extraction call:
// a bullet summary, the entities, and the quality issues.
type Extraction struct {
	SummaryBullets []string `json:"summary_bullets"`
	Entities       Entities `json:"entities"`
	Issues         Issues   `json:"issues"`
}

// CompletenessReport states which decision-supporting fields are present.
// Derived deterministically from Entities and Issues.
type CompletenessReport struct {
	MandatoryPresent  []string `json:"mandatory_present"`
	MandatoryMissing  []string `json:"mandatory_missing"`
	PreferredPresent  []string `json:"preferred_present"`
	PreferredMissing  []string `json:"preferred_missing"`
	QualityFlags      []string `json:"quality_flags"`
	CompletenessScore int      `json:"completeness_score"`
	ReadyForDecision  bool     `json:"ready_for_decision"`
}

// RiskLevel is the ordered escalation scale used to gate the final decision.
type RiskLevel string

const (
	RiskLow                RiskLevel = "low"
	RiskModerate           RiskLevel = "moderate"
	RiskHigh               RiskLevel = "high"
	RiskReferToUnderwriter RiskLevel = "refer_to_underwriter"
)

// RiskAssessment is the keyword-derived underwriting risk verdict.
// FlagCount is the true number of keyword flags; RiskFlags carries a sentinel
// entry when no keyword matched, so it is never empty.
type RiskAssessment struct {
	RiskLevel RiskLevel `json:"risk_level"`
	RiskFlags []string  `json:"risk_flags"`
	FlagCount int       `json:"flag_count"`
}

// DecisionCode is the final triage recommendation.
type DecisionCode string

const (
	DecisionApprove          DecisionCode = "APPROVE"
	DecisionRequestDocuments DecisionCode = "REQUEST_DOCUMENTS"
	DecisionReferUnderwriter DecisionCode = "REFER_UNDERWRITER"
	DecisionDeclineTriage    DecisionCode = "DECLINE_TRIAGE"
)

// Confidence grades how certain the assessor is about a decision.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Decision is the final structured triage recommendation. Immutable once
// produced by the gateway.
type Decision struct {
	Decision           DecisionCode `json:"decision"`
	Confidence         Confidence   `json:"confidence"`
	Rationale          string       `json:"rationale"`
	ActionItems        []string     `json:"action_items"`
	DocumentsRequested []string     `json:"documents_requested"`
	UnderwriterNotes   *string      `json:"underwriter_notes"`
}

// ToolCallEntry is one row of the append-only audit log of tool invocations.
// Only the argument key set is retained, not the argument values.
type ToolCallEntry struct {
	Tool     string   `json:"tool"`
	ArgsKeys []string `json:"args_keys"`
}

// SessionRecord is the complete audit trail and outcome of one triage run.
// ToolCalls is append-only; ToolResults keeps the latest result per tool name
// (last write wins). Owned by a single loop invocation; the caller decides
// whether to persist it.
type SessionRecord struct {
	ID            string          `json:"session_id"`
	StartedAt     time.Time       `json:"started_at"`
	ToolCalls     []ToolCallEntry `json:"tool_calls"`
	ToolResults   map[string]any  `json:"tool_results"`
	FinalDecision *Decision       `json:"final_decision"`
	AgentSummary  *string         `json:"agent_summary"`
}

// NewSessionRecord creates an empty session record with a fresh identifier.
func NewSessionRecord() *SessionRecord {
	return &SessionRecord{
		ID:          uuid.NewString(),
		StartedAt:   time.Now().UTC(),
		ToolCalls:   []ToolCallEntry{},
		ToolResults: make(map[string]any),
	}
}
