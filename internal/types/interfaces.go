package types

import "context"

// ToolDefinition describes one tool in the catalog surface exposed to the
// gateway. Parameters is a JSON Schema object for the tool's arguments.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is a tool invocation requested by the model. ID is the
// correlation identifier that must accompany the tool's result on the next
// turn.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// TurnItem is one element of a conversation turn's input: either a role
// message (Role/Content set) or a tool result (CallID/Output set).
type TurnItem struct {
	Role    string
	Content string
	CallID  string
	Output  string
}

// MessageItem builds a role message turn item.
func MessageItem(role, content string) TurnItem {
	return TurnItem{Role: role, Content: content}
}

// ToolOutputItem builds a tool result turn item keyed by its correlation ID.
func ToolOutputItem(callID, output string) TurnItem {
	return TurnItem{CallID: callID, Output: output}
}

// TurnRequest carries one conversation delta to the gateway. Items replaces
// the prior turn's input entirely; PreviousResponseID chains server-side
// conversation state so earlier turns are never re-sent.
type TurnRequest struct {
	Items              []TurnItem
	Tools              []ToolDefinition
	PreviousResponseID string
}

// TurnResponse is the gateway's answer to one turn: either tool invocation
// requests, or a final text message with no tool calls. Text concatenates
// all text segments of the final message in order.
type TurnResponse struct {
	ID        string
	Text      string
	ToolCalls []ToolCall
}

// DecisionInput bundles the assessment inputs for the final decision call.
type DecisionInput struct {
	Completeness *CompletenessReport `json:"completeness"`
	MedicalRisk  *RiskAssessment     `json:"medical_risk"`
	Issues       *Issues             `json:"issues"`
	Entities     *Entities           `json:"entities"`
}

// Gateway is the narrow interface to the language-model service. The model's
// tool-calling behavior is host-controlled and non-deterministic, so tests
// use a scriptable stub implementing this interface.
type Gateway interface {
	// Extract transforms raw document text (or a PDF path when sourceType is
	// "pdf") into a structured Extraction. Returns an error wrapping
	// gateway.ErrNoExtractableText when the source yields no usable text.
	Extract(ctx context.Context, source, sourceType string) (*Extraction, error)

	// Decide produces the final structured triage decision from the
	// assessment inputs.
	Decide(ctx context.Context, in DecisionInput) (*Decision, error)

	// RunTurn sends one conversation delta plus the tool catalog and returns
	// the model's tool invocation requests or final message.
	RunTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error)
}
