package engine

import (
	"testing"

	"orderdesk/automation/pkg/rules"
)

func TestEvaluateCondition(t *testing.T) {
	fact := rules.Fact{
		"poType":      rules.String("FACTORY_DIRECT"),
		"totalAmount": rules.Number(1500),
		"qty":         rules.String(" 12 "),
		"rush":        rules.Bool(true),
		"note":        rules.String("  "),
		"region":      rules.String("EU"),
		"orderDate":   rules.String("2024-03-15"),
		"shipAt":      rules.String("2024-03-15T10:00:00Z"),
		"nothing":     rules.Null(),
	}

	tests := []struct {
		name string
		cond rules.Condition
		want bool
	}{
		{"equals string", cond("c", "poType", rules.OperatorEquals, "FACTORY_DIRECT"), true},
		{"equals is case-sensitive", cond("c", "poType", rules.OperatorEquals, "factory_direct"), false},
		{"equals numeric across types", cond("c", "totalAmount", rules.OperatorEquals, "1500.0"), true},
		{"equals trims numeric strings", cond("c", "qty", rules.OperatorEquals, 12), true},
		{"equals bool by text", cond("c", "rush", rules.OperatorEquals, "true"), true},
		{"not equals", cond("c", "poType", rules.OperatorNotEquals, "DROPSHIP"), true},
		{"not equals same", cond("c", "poType", rules.OperatorNotEquals, "FACTORY_DIRECT"), false},

		{"greater than coerces string operand", cond("c", "totalAmount", rules.OperatorGreaterThan, "1000"), true},
		{"greater than false", cond("c", "totalAmount", rules.OperatorGreaterThan, 1500), false},
		{"greater or equal boundary", cond("c", "totalAmount", rules.OperatorGreaterThanOrEqual, 1500), true},
		{"less than", cond("c", "totalAmount", rules.OperatorLessThan, 2000), true},
		{"less or equal", cond("c", "qty", rules.OperatorLessThanOrEqual, 12), true},
		{"numeric on non-number fails closed", cond("c", "poType", rules.OperatorGreaterThan, 1), false},
		{"numeric with non-number operand fails closed", cond("c", "totalAmount", rules.OperatorLessThan, "lots"), false},
		{"numeric on bool fails closed", cond("c", "rush", rules.OperatorGreaterThan, 0), false},

		{"contains", cond("c", "poType", rules.OperatorContains, "DIRECT"), true},
		{"contains case-sensitive", cond("c", "poType", rules.OperatorContains, "direct"), false},
		{"contains on number text", cond("c", "totalAmount", rules.OperatorContains, "50"), true},
		{"not contains", cond("c", "poType", rules.OperatorNotContains, "DROP"), true},
		{"starts with", cond("c", "poType", rules.OperatorStartsWith, "FACTORY"), true},
		{"ends with", cond("c", "poType", rules.OperatorEndsWith, "DIRECT"), true},
		{"ends with miss", cond("c", "poType", rules.OperatorEndsWith, "FACTORY"), false},

		{"in", cond("c", "region", rules.OperatorIn, []interface{}{"US", "EU"}), true},
		{"in by string form", cond("c", "totalAmount", rules.OperatorIn, []interface{}{"1500", "2000"}), true},
		{"in miss", cond("c", "region", rules.OperatorIn, []interface{}{"US"}), false},
		{"not in", cond("c", "region", rules.OperatorNotIn, []interface{}{"US", "UK"}), true},
		{"not in present", cond("c", "region", rules.OperatorNotIn, []interface{}{"EU"}), false},
		{"in with empty list fails closed", rules.Condition{ID: "c", Field: "region", Operator: rules.OperatorIn, Values: []rules.Value{}}, false},

		{"before", cond("c", "orderDate", rules.OperatorBefore, "2024-04-01"), true},
		{"before mixed layouts", cond("c", "shipAt", rules.OperatorBefore, "2024/03/16"), true},
		{"after", cond("c", "orderDate", rules.OperatorAfter, "2024-03-14 23:59:59"), true},
		{"after unparsable operand", cond("c", "orderDate", rules.OperatorAfter, "yesterday"), false},
		{"after unparsable field", cond("c", "poType", rules.OperatorAfter, "2024-01-01"), false},
		{"dates need strings", cond("c", "totalAmount", rules.OperatorAfter, "2024-01-01"), false},
		{"between dates inclusive", cond("c", "orderDate", rules.OperatorBetween, []interface{}{"2024-03-15", "2024-03-31"}), true},
		{"between dates outside", cond("c", "orderDate", rules.OperatorBetween, []interface{}{"2024-04-01", "2024-04-30"}), false},
		{"between numbers inclusive", cond("c", "totalAmount", rules.OperatorBetween, []interface{}{1000, 1500}), true},
		{"between numbers outside", cond("c", "totalAmount", rules.OperatorBetween, []interface{}{0, 100}), false},
		{"between malformed bounds", cond("c", "totalAmount", rules.OperatorBetween, []interface{}{1000}), false},

		{"is empty on blank string", cond("c", "note", rules.OperatorIsEmpty, nil), true},
		{"is empty on null", cond("c", "nothing", rules.OperatorIsEmpty, nil), true},
		{"is empty on value", cond("c", "poType", rules.OperatorIsEmpty, nil), false},
		{"is not empty", cond("c", "poType", rules.OperatorIsNotEmpty, nil), true},
		{"is not empty on blank", cond("c", "note", rules.OperatorIsNotEmpty, nil), false},

		{"unknown operator fails closed", rules.Condition{ID: "c", Field: "poType", Operator: "roughly", Value: rules.String("x")}, false},
		{"equals without operand fails closed", rules.Condition{ID: "c", Field: "poType", Operator: rules.OperatorEquals}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateCondition(fact, tt.cond); got != tt.want {
				t.Errorf("EvaluateCondition(%s) = %v, want %v", tt.cond.Describe(), got, tt.want)
			}
		})
	}
}

// Every operator except is_empty evaluates to false on a missing field.
func TestEvaluateCondition_MissingFieldFailsClosed(t *testing.T) {
	fact := rules.Fact{"poType": rules.String("FACTORY_DIRECT"), "blank": rules.Null()}

	for _, field := range []string{"purchaseType", "blank"} {
		for _, op := range rules.Operators {
			c := rules.Condition{ID: "c", Field: field, Operator: op}
			switch op.Arity() {
			case rules.ArityScalar:
				c.Value = rules.String("2024-01-01")
			case rules.ArityList:
				c.Values = []rules.Value{rules.String("a"), rules.String("b")}
			case rules.ArityRange:
				c.Values = []rules.Value{rules.Number(0), rules.Number(10)}
			}

			want := op == rules.OperatorIsEmpty
			if got := EvaluateCondition(fact, c); got != want {
				t.Errorf("%s %s on missing field = %v, want %v", field, op, got, want)
			}
		}
	}
}
