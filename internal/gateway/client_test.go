package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimtriage/internal/types"
)

// respond writes a Responses API body with the given output items.
func respond(t *testing.T, w http.ResponseWriter, id string, output []map[string]any) {
	t.Helper()
	body := map[string]any{"id": id, "status": "completed", "output": output}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Fatalf("failed to encode response: %v", err)
	}
}

func messageOutput(text string) []map[string]any {
	return []map[string]any{{
		"type":    "message",
		"content": []map[string]any{{"type": "output_text", "text": text}},
	}}
}

func newTestClient(serverURL string) *Client {
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "gpt-4.1-mini",
		Timeout: 5 * time.Second,
	}, nil)
}

func TestExtractParsesStructuredPayload(t *testing.T) {
	extraction := types.Extraction{
		SummaryBullets: []string{"Stable angina diagnosed"},
		Entities: types.Entities{
			Diagnoses:   []types.Diagnosis{{Name: "Stable angina"}},
			Medications: []types.Medication{{Name: "Aspirin"}},
		},
		Issues: types.Issues{MissingFields: []string{"dob"}},
	}
	payload, err := json.Marshal(extraction)
	require.NoError(t, err)

	var captured responsesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		respond(t, w, "resp-extract", messageOutput(string(payload)))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	got, err := client.Extract(context.Background(), "Patient: Jane Doe", "text")
	require.NoError(t, err)

	assert.Equal(t, extraction.SummaryBullets, got.SummaryBullets)
	assert.Equal(t, "Stable angina", got.Entities.Diagnoses[0].Name)

	// Structured output is enforced through a strict schema.
	require.NotNil(t, captured.Text)
	assert.Equal(t, "json_schema", captured.Text.Format.Type)
	assert.True(t, captured.Text.Format.Strict)
	require.Len(t, captured.Input, 2)
	assert.Equal(t, "system", captured.Input[0].Role)
	assert.Contains(t, captured.Input[1].Content, "Patient: Jane Doe")
}

func TestExtractBlankSourceFailsHard(t *testing.T) {
	client := newTestClient("http://unreachable.invalid")

	_, err := client.Extract(context.Background(), "   \n\t ", "text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoExtractableText), "err = %v", err)
}

func TestRunTurnParsesFunctionCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, "resp-turn", []map[string]any{
			{
				"type":      "function_call",
				"name":      "extract_document",
				"call_id":   "call-1",
				"arguments": `{"source": "doc text", "source_type": "text"}`,
			},
			{
				"type":      "function_call",
				"name":      "check_completeness",
				"call_id":   "call-2",
				"arguments": `{not valid json`,
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.RunTurn(context.Background(), types.TurnRequest{
		Items: []types.TurnItem{types.MessageItem("user", "assess this")},
	})
	require.NoError(t, err)

	assert.Equal(t, "resp-turn", resp.ID)
	require.Len(t, resp.ToolCalls, 2)

	assert.Equal(t, "call-1", resp.ToolCalls[0].ID)
	assert.Equal(t, "extract_document", resp.ToolCalls[0].Name)
	assert.Equal(t, "doc text", resp.ToolCalls[0].Args["source"])

	// Malformed arguments degrade to an empty set, not a failed turn.
	assert.Equal(t, "check_completeness", resp.ToolCalls[1].Name)
	assert.Empty(t, resp.ToolCalls[1].Args)
}

func TestRunTurnSendsConversationDelta(t *testing.T) {
	var captured responsesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		respond(t, w, "resp-next", messageOutput("done"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.RunTurn(context.Background(), types.TurnRequest{
		Items: []types.TurnItem{
			types.ToolOutputItem("call-1", `{"risk_level":"low"}`),
		},
		Tools: []types.ToolDefinition{{
			Name:        "assess_medical_risk",
			Description: "assess risk",
			Parameters:  map[string]any{"type": "object"},
		}},
		PreviousResponseID: "resp-prev",
	})
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Text)
	assert.Empty(t, resp.ToolCalls)

	assert.Equal(t, "resp-prev", captured.PreviousResponseID)
	require.Len(t, captured.Input, 1)
	assert.Equal(t, "function_call_output", captured.Input[0].Type)
	assert.Equal(t, "call-1", captured.Input[0].CallID)
	assert.Equal(t, `{"risk_level":"low"}`, captured.Input[0].Output)
	require.Len(t, captured.Tools, 1)
	assert.Equal(t, "function", captured.Tools[0].Type)
	assert.Equal(t, "assess_medical_risk", captured.Tools[0].Name)
}

func TestDecideBuildsAssessmentContext(t *testing.T) {
	decision := types.Decision{
		Decision:    types.DecisionApprove,
		Confidence:  types.ConfidenceHigh,
		Rationale:   "All mandatory fields present, low risk.",
		ActionItems: []string{"Proceed to payment"},
	}
	payload, err := json.Marshal(decision)
	require.NoError(t, err)

	var captured responsesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		respond(t, w, "resp-decide", messageOutput(string(payload)))
	}))
	defer server.Close()

	name := "Jane Doe"
	client := newTestClient(server.URL)
	got, err := client.Decide(context.Background(), types.DecisionInput{
		Completeness: &types.CompletenessReport{ReadyForDecision: true, CompletenessScore: 100},
		MedicalRisk:  &types.RiskAssessment{RiskLevel: types.RiskLow},
		Issues:       &types.Issues{},
		Entities: &types.Entities{
			PatientName: &name,
			Diagnoses:   []types.Diagnosis{{Name: "Stable angina"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, types.DecisionApprove, got.Decision)

	require.Len(t, captured.Input, 2)
	prompt := captured.Input[1].Content
	assert.Contains(t, prompt, "Assessment inputs:")
	assert.Contains(t, prompt, "patient_summary")
	assert.Contains(t, prompt, "Jane Doe")
	assert.Contains(t, prompt, "completeness_report")
	// Only diagnosis names go into the patient summary, never doses.
	assert.Contains(t, prompt, "Stable angina")
}

func TestCreateResponseSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "resp-err",
			"error": map[string]any{"message": "schema validation failed"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.RunTurn(context.Background(), types.TurnRequest{
		Items: []types.TurnItem{types.MessageItem("user", "hi")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestCreateResponseNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.RunTurn(context.Background(), types.TurnRequest{
		Items: []types.TurnItem{types.MessageItem("user", "hi")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestCreateResponseStopsRetryingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		cancel()
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.RunTurn(ctx, types.TurnRequest{
		Items: []types.TurnItem{types.MessageItem("user", "hi")},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "err = %v", err)
	assert.Equal(t, 1, requests, "canceled request must not be retried")
}

func TestCreateResponseRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{Model: "gpt-4.1-mini"}, nil)

	_, err := client.RunTurn(context.Background(), types.TurnRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestSetModel(t *testing.T) {
	client := NewClient(DefaultConfig("key"), nil)
	assert.Equal(t, "gpt-4.1-mini", client.GetModel())
	client.SetModel("gpt-4.1")
	assert.Equal(t, "gpt-4.1", client.GetModel())
}
