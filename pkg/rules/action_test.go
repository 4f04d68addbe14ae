package rules

import (
	"strings"
	"testing"
)

func TestActionKind_Behavior(t *testing.T) {
	want := map[ActionKind]Behavior{
		ActionSetWorkflow:  BehaviorOverride,
		ActionSetWarehouse: BehaviorOverride,
		ActionSetPriority:  BehaviorOverride,
		ActionHoldOrder:    BehaviorOverride,
		ActionSplitOrder:   BehaviorOverride,
		ActionAddTag:       BehaviorAdditive,
		ActionNotify:       BehaviorAdditive,
	}
	for _, kind := range ActionKinds {
		if got := kind.Behavior(); got != want[kind] {
			t.Errorf("%s.Behavior() = %q, want %q", kind, got, want[kind])
		}
	}
	if ActionKind("LAUNCH_ROCKET").IsValid() {
		t.Error("unknown kind reported valid")
	}
}

func TestParseActionKind(t *testing.T) {
	for _, input := range []string{"set-workflow", "set_workflow", "SET_WORKFLOW", " Set_Workflow "} {
		kind, err := ParseActionKind(input)
		if err != nil {
			t.Fatalf("ParseActionKind(%q) error = %v", input, err)
		}
		if kind != ActionSetWorkflow {
			t.Errorf("ParseActionKind(%q) = %q, want %q", input, kind, ActionSetWorkflow)
		}
	}
	if _, err := ParseActionKind("teleport"); err == nil {
		t.Error("ParseActionKind(teleport) expected error")
	}
}

func TestNewAction(t *testing.T) {
	tests := []struct {
		name     string
		kind     ActionKind
		params   map[string]interface{}
		want     string
		wantErr  string
		validErr bool
	}{
		{
			name:   "workflow",
			kind:   ActionSetWorkflow,
			params: map[string]interface{}{"workflow_id": "wf-direct"},
			want:   "workflow=wf-direct",
		},
		{
			name:   "workflow alias",
			kind:   ActionSetWorkflow,
			params: map[string]interface{}{"workflow": "wf-direct"},
			want:   "workflow=wf-direct",
		},
		{
			name:   "tags list",
			kind:   ActionAddTag,
			params: map[string]interface{}{"tags": []interface{}{"vip", "rush"}},
			want:   "tags=vip,rush",
		},
		{
			name:   "single tag",
			kind:   ActionAddTag,
			params: map[string]interface{}{"tag": "vip"},
			want:   "tags=vip",
		},
		{
			name:   "notify",
			kind:   ActionNotify,
			params: map[string]interface{}{"channel": "email", "recipients": []interface{}{"ops@example.com"}},
			want:   "channel=email to=ops@example.com",
		},
		{
			name:   "numeric priority",
			kind:   ActionSetPriority,
			params: map[string]interface{}{"level": 2},
			want:   "priority=2",
		},
		{
			name:    "unknown parameter",
			kind:    ActionHoldOrder,
			params:  map[string]interface{}{"reason": "credit", "colour": "red"},
			wantErr: "unknown parameter(s) colour",
		},
		{
			name:     "missing workflow",
			kind:     ActionSetWorkflow,
			params:   map[string]interface{}{},
			want:     "workflow=",
			validErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := NewAction(tt.kind, tt.params)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("NewAction() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewAction() error = %v", err)
			}
			if action.Kind() != tt.kind {
				t.Errorf("Kind() = %q, want %q", action.Kind(), tt.kind)
			}
			if got := action.Describe(); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
			if err := action.Validate(); (err != nil) != tt.validErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.validErr)
			}
		})
	}
}
