package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewSessionRecord(t *testing.T) {
	record := NewSessionRecord()

	if record.ID == "" {
		t.Error("session record must get an identifier")
	}
	if record.StartedAt.IsZero() {
		t.Error("StartedAt not set")
	}
	if record.ToolCalls == nil || record.ToolResults == nil {
		t.Error("audit collections must be initialized")
	}

	other := NewSessionRecord()
	if other.ID == record.ID {
		t.Error("session identifiers must be unique")
	}
}

// The serialized record is the audit artifact; absent outcome fields must be
// explicit nulls and empty collections must stay arrays.
func TestSessionRecordSerialization(t *testing.T) {
	data, err := json.Marshal(NewSessionRecord())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	s := string(data)

	for _, want := range []string{
		`"session_id"`,
		`"tool_calls":[]`,
		`"tool_results":{}`,
		`"final_decision":null`,
		`"agent_summary":null`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("serialized record missing %s: %s", want, s)
		}
	}
}

func TestEntitiesNullFields(t *testing.T) {
	data, err := json.Marshal(Entities{})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	s := string(data)

	// Absent scalars serialize as explicit nulls, never omitted keys.
	for _, key := range []string{"patient_name", "dob", "report_date", "provider_name"} {
		if !strings.Contains(s, `"`+key+`":null`) {
			t.Errorf("missing explicit null for %s: %s", key, s)
		}
	}
}

func TestTurnItemConstructors(t *testing.T) {
	msg := MessageItem("user", "hello")
	if msg.Role != "user" || msg.Content != "hello" || msg.CallID != "" {
		t.Errorf("MessageItem = %+v", msg)
	}

	out := ToolOutputItem("call-1", `{"ok":true}`)
	if out.CallID != "call-1" || out.Output == "" || out.Role != "" {
		t.Errorf("ToolOutputItem = %+v", out)
	}
}
