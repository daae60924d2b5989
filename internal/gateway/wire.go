package gateway

// Wire structures for the OpenAI Responses API. Field names follow the
// provider's JSON casing; see https://platform.openai.com/docs/api-reference/responses

// responsesRequest is the API request body.
type responsesRequest struct {
	Model              string       `json:"model"`
	Input              []inputItem  `json:"input"`
	PreviousResponseID string       `json:"previous_response_id,omitempty"`
	Tools              []toolParam  `json:"tools,omitempty"`
	Text               *textOptions `json:"text,omitempty"`
}

// inputItem is one element of the request input: a role message or a
// function call output keyed by its correlation ID.
type inputItem struct {
	Type    string `json:"type,omitempty"` // "function_call_output" for tool results
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	CallID  string `json:"call_id,omitempty"`
	Output  string `json:"output,omitempty"`
}

// toolParam declares one callable function to the model.
type toolParam struct {
	Type        string         `json:"type"` // "function"
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// textOptions enforces structured output via a strict JSON schema.
type textOptions struct {
	Format formatOptions `json:"format"`
}

type formatOptions struct {
	Type   string         `json:"type"` // "json_schema"
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

// responsesResponse is the API response body.
type responsesResponse struct {
	ID     string       `json:"id"`
	Status string       `json:"status,omitempty"`
	Output []outputItem `json:"output"`
	Error  *apiError    `json:"error,omitempty"`
	Usage  *usageInfo   `json:"usage,omitempty"`
}

// outputItem is one element of the response output. Type "message" carries
// text content parts; type "function_call" carries a tool invocation request.
type outputItem struct {
	Type      string        `json:"type"`
	Content   []contentPart `json:"content,omitempty"`
	Name      string        `json:"name,omitempty"`
	Arguments string        `json:"arguments,omitempty"`
	CallID    string        `json:"call_id,omitempty"`
}

// contentPart is a segment of a message output.
type contentPart struct {
	Type string `json:"type"` // "output_text"
	Text string `json:"text,omitempty"`
}

type apiError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

type usageInfo struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// outputText concatenates every text segment of every message output, in
// order.
func (r *responsesResponse) outputText() string {
	var text string
	for _, item := range r.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			text += part.Text
		}
	}
	return text
}
