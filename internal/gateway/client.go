// Package gateway implements the LLM gateway for claims triage over the
// OpenAI Responses API. The gateway exposes three capabilities: structured
// extraction, the final structured decision, and one orchestration turn with
// a tool catalog. Conversation state is chained server-side via
// previous_response_id, so each turn only sends the latest delta.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"claimtriage/internal/ingest"
	"claimtriage/internal/logging"
	"claimtriage/internal/schema"
	"claimtriage/internal/types"
)

// ErrNoExtractableText signals that a source yielded no usable text. The
// extraction tool surfaces it as an error result object; it never propagates
// through the orchestration loop.
var ErrNoExtractableText = errors.New("no text could be extracted from source")

const extractionSystemPrompt = "You extract structured data from medical documents for life insurance triage.\n" +
	"Rules:\n" +
	"- Be factual. Never invent data.\n" +
	"- Missing fields -> null or empty list.\n" +
	"- Dates -> YYYY-MM-DD. Year only -> 'YYYY'. Year+month -> 'YYYY-MM'.\n" +
	"- Flag 'relative_date_present' when relative time appears.\n" +
	"- Flag 'year_only_dates_present' if any date is year-only.\n"

const decisionSystemPrompt = "You are a senior life insurance claims assessor.\n" +
	"You receive structured assessment inputs and produce a clear, defensible decision.\n" +
	"Decision rules:\n" +
	"  APPROVE            -> All mandatory fields present AND risk_level is 'low'.\n" +
	"  REQUEST_DOCUMENTS  -> Mandatory fields missing. List exactly which docs are needed.\n" +
	"  REFER_UNDERWRITER  -> risk_level is 'high' or 'refer_to_underwriter'.\n" +
	"  DECLINE_TRIAGE     -> Cannot assess at all (e.g., extraction completely failed).\n" +
	"Be concise. Be specific. Never invent clinical facts.\n"

// Config holds gateway client configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for the OpenAI Responses API.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4.1-mini",
		Timeout: 2 * time.Minute,
	}
}

// Client implements types.Gateway against the OpenAI Responses API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	pdf        ingest.Converter

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient creates a gateway client. The converter handles PDF sources in
// Extract and may be nil when only raw text is triaged.
func NewClient(cfg Config, pdf ingest.Converter) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		pdf:     pdf,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Extract transforms raw claim text (or a PDF path) into summary bullets,
// structured entities, and data-quality issues.
func (c *Client) Extract(ctx context.Context, source, sourceType string) (*types.Extraction, error) {
	text := source
	if sourceType == "pdf" {
		if c.pdf == nil {
			return nil, fmt.Errorf("pdf source requested but no converter configured")
		}
		converted, err := c.pdf.ToText(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("pdf conversion failed: %w", err)
		}
		text = converted
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: source may be scanned or image-based", ErrNoExtractableText)
	}

	userPrompt := "1) Write 6-10 concise bullet-point summary of the document.\n" +
		"2) Extract entities.\n" +
		"3) Identify issues: missing_fields, missing_numerical_values, " +
		"data_quality_flags, confidence_notes.\n\n" +
		"DOCUMENT:\n" + text

	req := responsesRequest{
		Model: c.model,
		Input: []inputItem{
			{Role: "system", Content: extractionSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Text: &textOptions{
			Format: formatOptions{
				Type:   "json_schema",
				Name:   "extraction",
				Schema: schema.ExtractionSchema,
				Strict: true,
			},
		},
	}

	resp, err := c.createResponse(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	var extraction types.Extraction
	if err := json.Unmarshal([]byte(resp.outputText()), &extraction); err != nil {
		return nil, fmt.Errorf("failed to parse extraction payload: %w", err)
	}
	logging.Gateway("extraction complete: bullets=%d diagnoses=%d medications=%d",
		len(extraction.SummaryBullets), len(extraction.Entities.Diagnoses), len(extraction.Entities.Medications))
	return &extraction, nil
}

// decisionContext is the condensed assessment view serialized into the
// decision prompt. Only diagnosis names are forwarded, not the full entity
// payload.
type decisionContext struct {
	CompletenessReport *types.CompletenessReport `json:"completeness_report"`
	MedicalRiskReport  *types.RiskAssessment     `json:"medical_risk_report"`
	DataIssues         *types.Issues             `json:"data_issues"`
	PatientSummary     patientSummary            `json:"patient_summary"`
}

type patientSummary struct {
	Name      *string  `json:"name"`
	DOB       *string  `json:"dob"`
	Diagnoses []string `json:"diagnoses"`
}

// Decide generates the final structured triage decision.
func (c *Client) Decide(ctx context.Context, in types.DecisionInput) (*types.Decision, error) {
	summary := patientSummary{Diagnoses: []string{}}
	if in.Entities != nil {
		summary.Name = in.Entities.PatientName
		summary.DOB = in.Entities.DOB
		for _, d := range in.Entities.Diagnoses {
			summary.Diagnoses = append(summary.Diagnoses, d.Name)
		}
	}

	contextJSON, err := json.MarshalIndent(decisionContext{
		CompletenessReport: in.Completeness,
		MedicalRiskReport:  in.MedicalRisk,
		DataIssues:         in.Issues,
		PatientSummary:     summary,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal decision context: %w", err)
	}

	req := responsesRequest{
		Model: c.model,
		Input: []inputItem{
			{Role: "system", Content: decisionSystemPrompt},
			{Role: "user", Content: "Assessment inputs:\n" + string(contextJSON)},
		},
		Text: &textOptions{
			Format: formatOptions{
				Type:   "json_schema",
				Name:   "decision",
				Schema: schema.DecisionSchema,
				Strict: true,
			},
		},
	}

	resp, err := c.createResponse(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("decision call failed: %w", err)
	}

	var decision types.Decision
	if err := json.Unmarshal([]byte(resp.outputText()), &decision); err != nil {
		return nil, fmt.Errorf("failed to parse decision payload: %w", err)
	}
	logging.Gateway("decision complete: decision=%s confidence=%s", decision.Decision, decision.Confidence)
	return &decision, nil
}

// RunTurn sends one conversation delta plus the tool catalog and returns the
// model's tool invocation requests or its final message.
func (c *Client) RunTurn(ctx context.Context, turn types.TurnRequest) (*types.TurnResponse, error) {
	input := make([]inputItem, 0, len(turn.Items))
	for _, item := range turn.Items {
		if item.CallID != "" {
			input = append(input, inputItem{
				Type:   "function_call_output",
				CallID: item.CallID,
				Output: item.Output,
			})
			continue
		}
		input = append(input, inputItem{Role: item.Role, Content: item.Content})
	}

	tools := make([]toolParam, 0, len(turn.Tools))
	for _, def := range turn.Tools {
		tools = append(tools, toolParam{
			Type:        "function",
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters,
		})
	}

	req := responsesRequest{
		Model:              c.model,
		Input:              input,
		PreviousResponseID: turn.PreviousResponseID,
		Tools:              tools,
	}

	resp, err := c.createResponse(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("turn call failed: %w", err)
	}

	result := &types.TurnResponse{ID: resp.ID, Text: resp.outputText()}
	for _, item := range resp.Output {
		if item.Type != "function_call" {
			continue
		}
		args := map[string]any{}
		if item.Arguments != "" {
			if err := json.Unmarshal([]byte(item.Arguments), &args); err != nil {
				// Malformed arguments degrade to an empty set; the dispatcher
				// reports the missing arguments back to the model.
				logging.Gateway("malformed tool arguments for %s: %v", item.Name, err)
				args = map[string]any{}
			}
		}
		result.ToolCalls = append(result.ToolCalls, types.ToolCall{
			ID:   item.CallID,
			Name: item.Name,
			Args: args,
		})
	}
	logging.GatewayDebug("turn complete: id=%s tool_calls=%d text_len=%d", result.ID, len(result.ToolCalls), len(result.Text))
	return result, nil
}

// createResponse posts one Responses API request with rate limiting and
// bounded retries on 429s and transport errors.
func (c *Client) createResponse(ctx context.Context, reqBody responsesRequest) (*responsesResponse, error) {
	if c.apiKey == "" {
		logging.GatewayError("createResponse: API key not configured")
		return nil, fmt.Errorf("API key not configured")
	}

	// Auto-apply timeout if context has no deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	// Rate limiting
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	startTime := time.Now()
	maxRetries := 3
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("request aborted: %w", err)
			}
			time.Sleep(time.Duration(1<<uint(i-1)) * time.Second)
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/responses", bytes.NewReader(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}

		var apiResp responsesResponse
		if err := json.Unmarshal(body, &apiResp); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if apiResp.Error != nil {
			return nil, fmt.Errorf("API error: %s", apiResp.Error.Message)
		}

		logging.GatewayDebug("createResponse: completed in %v model=%s outputs=%d", time.Since(startTime), c.model, len(apiResp.Output))
		return &apiResp, nil
	}

	logging.GatewayError("createResponse: max retries exceeded after %v: %v", time.Since(startTime), lastErr)
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// SetModel changes the model used for gateway calls.
func (c *Client) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model.
func (c *Client) GetModel() string {
	return c.model
}
