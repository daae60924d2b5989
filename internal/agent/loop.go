// Package agent drives the bounded tool-calling conversation that triages
// one claim document. The loop is a small state machine over a single
// gateway conversation: request a turn, execute any requested tools, feed
// the results back, and stop on a final message or when the iteration budget
// runs out. One loop invocation owns exactly one SessionRecord.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"claimtriage/internal/logging"
	"claimtriage/internal/tools"
	"claimtriage/internal/types"
)

// maxIterations caps the conversation length. Hitting the cap is a soft
// stop, not an error: the session record is returned with whatever state
// accumulated.
const maxIterations = 10

// State is the loop's position in its conversation state machine.
type State string

const (
	// StateAwaitingModel means the loop is about to request a turn.
	StateAwaitingModel State = "awaiting_model"

	// StateProcessingTools means the model returned tool invocation requests.
	StateProcessingTools State = "processing_tools"

	// StateTerminalSummary means the model returned a final message with no
	// tool invocations.
	StateTerminalSummary State = "terminal_summary"

	// StateTerminalBudgetExhausted means the iteration cap was reached with
	// no final message.
	StateTerminalBudgetExhausted State = "terminal_budget_exhausted"
)

const systemPrompt = "You are an autonomous life insurance claims assessor agent.\n" +
	"Use tools in this sequence when possible:\n" +
	"1. extract_document\n" +
	"2. check_completeness\n" +
	"3. assess_medical_risk\n" +
	"4. make_decision\n" +
	"Do not guess final decisions before running completeness and risk checks."

// Loop orchestrates one bounded conversation between the gateway and the
// tool dispatcher.
type Loop struct {
	gw      types.Gateway
	catalog *tools.Registry

	state State
}

// New creates an orchestration loop over the given gateway and tool catalog.
func New(gw types.Gateway, catalog *tools.Registry) *Loop {
	return &Loop{
		gw:      gw,
		catalog: catalog,
		state:   StateAwaitingModel,
	}
}

// State returns the loop's current state.
func (l *Loop) State() State {
	return l.state
}

// Run triages one claim document end to end and returns the session record.
// The record is always non-nil, even when the gateway fails mid-run; absence
// of FinalDecision or AgentSummary tells the caller triage did not complete.
func (l *Loop) Run(ctx context.Context, documentText string) (*types.SessionRecord, error) {
	record := types.NewSessionRecord()
	defs := l.catalog.Definitions()

	items := []types.TurnItem{
		types.MessageItem("system", systemPrompt),
		types.MessageItem("user", "Please assess the following life insurance claim document.\n\nDOCUMENT:\n"+documentText),
	}

	// Chains each gateway call to the previous one so server-side
	// conversation state carries forward; only the latest delta is sent.
	previousResponseID := ""

	l.state = StateAwaitingModel
	logging.Agent("session %s: starting evaluation doc_len=%d", record.ID, len(documentText))

	for iteration := 1; iteration <= maxIterations; iteration++ {
		logging.AgentDebug("session %s: iteration %d", record.ID, iteration)

		resp, err := l.gw.RunTurn(ctx, types.TurnRequest{
			Items:              items,
			Tools:              defs,
			PreviousResponseID: previousResponseID,
		})
		if err != nil {
			logging.AgentError("session %s: turn failed: %v", record.ID, err)
			return record, fmt.Errorf("gateway turn failed: %w", err)
		}
		previousResponseID = resp.ID

		if len(resp.ToolCalls) == 0 {
			if resp.Text != "" {
				summary := resp.Text
				record.AgentSummary = &summary
			}
			l.state = StateTerminalSummary
			logging.Agent("session %s: complete after %d iterations", record.ID, iteration)
			return record, nil
		}

		l.state = StateProcessingTools

		// Every requested invocation is dispatched and serialized before the
		// next gateway call; the result set replaces the prior turn's input.
		outputs := make([]types.TurnItem, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			record.ToolCalls = append(record.ToolCalls, types.ToolCallEntry{
				Tool:     call.Name,
				ArgsKeys: sortedKeys(call.Args),
			})

			result := l.catalog.Dispatch(ctx, call.Name, call.Args)
			record.ToolResults[call.Name] = result

			if call.Name == tools.ToolMakeDecision {
				if decision, ok := result.(*types.Decision); ok {
					record.FinalDecision = decision
					logging.Agent("session %s: decision=%s confidence=%s", record.ID, decision.Decision, decision.Confidence)
				}
			}

			outputs = append(outputs, types.ToolOutputItem(call.ID, marshalResult(result)))
		}

		items = outputs
		l.state = StateAwaitingModel
	}

	l.state = StateTerminalBudgetExhausted
	logging.Agent("session %s: iteration budget exhausted", record.ID)
	return record, nil
}

// marshalResult serializes a tool result for the gateway. A result that
// cannot be serialized degrades to an error payload; it must not break the
// conversation.
func marshalResult(result any) string {
	data, err := json.Marshal(result)
	if err != nil {
		fallback, _ := json.Marshal(tools.ErrorResult{Error: fmt.Sprintf("unserializable tool result: %v", err)})
		return string(fallback)
	}
	return string(data)
}

func sortedKeys(args map[string]any) []string {
	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
