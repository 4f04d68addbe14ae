package rules

import (
	"strings"
	"testing"
)

func TestParseOperator(t *testing.T) {
	tests := map[string]Operator{
		"greater_than":    OperatorGreaterThan,
		"greaterThan":     OperatorGreaterThan,
		"GREATER_THAN":    OperatorGreaterThan,
		"lessThanOrEqual": OperatorLessThanOrEqual,
		"isEmpty":         OperatorIsEmpty,
		"is_not_empty":    OperatorIsNotEmpty,
		"notIn":           OperatorNotIn,
		"equal":           OperatorEquals,
		"starts_with":     OperatorStartsWith,
		" between ":       OperatorBetween,
	}
	for input, want := range tests {
		got, err := ParseOperator(input)
		if err != nil {
			t.Errorf("ParseOperator(%q) error = %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseOperator(%q) = %q, want %q", input, got, want)
		}
	}

	if _, err := ParseOperator("matches"); err == nil {
		t.Error("ParseOperator(matches) expected error")
	}
}

func TestOperator_Arity(t *testing.T) {
	tests := map[Operator]Arity{
		OperatorEquals:     ArityScalar,
		OperatorIn:         ArityList,
		OperatorNotIn:      ArityList,
		OperatorBetween:    ArityRange,
		OperatorIsEmpty:    ArityNone,
		OperatorIsNotEmpty: ArityNone,
		OperatorBefore:     ArityScalar,
	}
	for op, want := range tests {
		if got := op.Arity(); got != want {
			t.Errorf("%s.Arity() = %v, want %v", op, got, want)
		}
	}
}

func TestCondition_CheckOperand(t *testing.T) {
	tests := []struct {
		name    string
		cond    Condition
		wantErr string
	}{
		{"scalar", Condition{Field: "f", Operator: OperatorEquals, Value: String("x")}, ""},
		{"list", Condition{Field: "f", Operator: OperatorIn, Values: []Value{String("a")}}, ""},
		{"range", Condition{Field: "f", Operator: OperatorBetween, Values: []Value{Number(1), Number(2)}}, ""},
		{"none", Condition{Field: "f", Operator: OperatorIsEmpty}, ""},
		{"scalar without value", Condition{Field: "f", Operator: OperatorEquals}, "operator equals takes a single value"},
		{"scalar with list", Condition{Field: "f", Operator: OperatorEquals, Values: []Value{String("a")}}, "takes a single value"},
		{"empty list", Condition{Field: "f", Operator: OperatorNotIn, Values: []Value{}}, "takes a list of values"},
		{"one bound", Condition{Field: "f", Operator: OperatorBetween, Values: []Value{Number(1)}}, "takes a [low, high] pair"},
		{"is_empty with blank operand", Condition{Field: "f", Operator: OperatorIsEmpty, Value: String("")}, "takes no value"},
		{"blank field", Condition{Field: "  ", Operator: OperatorIsEmpty}, "missing required field 'field'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.CheckOperand()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("CheckOperand() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("CheckOperand() = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestRule_ConditionSignature(t *testing.T) {
	a := &Rule{Conditions: []Condition{
		{ID: "c1", Field: "poType", Operator: OperatorEquals, Value: String("X")},
		{ID: "c2", Field: "totalAmount", Operator: OperatorGreaterThan, Value: Number(10)},
	}}
	b := &Rule{ConditionLogic: LogicAnd, Conditions: []Condition{
		{ID: "other", Field: "totalAmount", Operator: OperatorGreaterThan, Value: String("10")},
		{ID: "ids", Field: "poType", Operator: OperatorEquals, Value: String("X"), Logic: LogicOr},
	}}
	if a.ConditionSignature() != b.ConditionSignature() {
		t.Error("rules with the same predicates should share a signature")
	}

	b.ConditionLogic = LogicOr
	if a.ConditionSignature() == b.ConditionSignature() {
		t.Error("changing the rule logic should change the signature")
	}
}

func TestSortRulesByPriority_Stable(t *testing.T) {
	rules := []*Rule{
		{ID: "b", Priority: 2},
		{ID: "a1", Priority: 1},
		{ID: "c", Priority: 3},
		{ID: "a2", Priority: 1},
	}
	SortRulesByPriority(rules)

	want := []string{"a1", "a2", "b", "c"}
	for i, r := range rules {
		if r.ID != want[i] {
			t.Fatalf("position %d = %s, want %s", i, r.ID, want[i])
		}
	}
}
