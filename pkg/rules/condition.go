package rules

import (
	"errors"
	"fmt"
	"strings"
)

// Operator is a condition comparison operator.
type Operator string

const (
	OperatorEquals             Operator = "equals"
	OperatorNotEquals          Operator = "not_equals"
	OperatorGreaterThan        Operator = "greater_than"
	OperatorGreaterThanOrEqual Operator = "greater_than_or_equal"
	OperatorLessThan           Operator = "less_than"
	OperatorLessThanOrEqual    Operator = "less_than_or_equal"
	OperatorContains           Operator = "contains"
	OperatorNotContains        Operator = "not_contains"
	OperatorStartsWith         Operator = "starts_with"
	OperatorEndsWith           Operator = "ends_with"
	OperatorIn                 Operator = "in"
	OperatorNotIn              Operator = "not_in"
	OperatorBefore             Operator = "before"
	OperatorAfter              Operator = "after"
	OperatorBetween            Operator = "between"
	OperatorIsEmpty            Operator = "is_empty"
	OperatorIsNotEmpty         Operator = "is_not_empty"
)

// Operators lists every supported operator in documentation order.
var Operators = []Operator{
	OperatorEquals,
	OperatorNotEquals,
	OperatorGreaterThan,
	OperatorGreaterThanOrEqual,
	OperatorLessThan,
	OperatorLessThanOrEqual,
	OperatorContains,
	OperatorNotContains,
	OperatorStartsWith,
	OperatorEndsWith,
	OperatorIn,
	OperatorNotIn,
	OperatorBefore,
	OperatorAfter,
	OperatorBetween,
	OperatorIsEmpty,
	OperatorIsNotEmpty,
}

// Arity describes the operand shape an operator expects.
type Arity int

const (
	// ArityNone takes no operand (is_empty, is_not_empty).
	ArityNone Arity = iota
	// ArityScalar takes a single scalar operand.
	ArityScalar
	// ArityList takes a non-empty list of scalars (in, not_in).
	ArityList
	// ArityRange takes exactly two scalars, low and high (between).
	ArityRange
)

// String returns a human-readable arity name.
func (a Arity) String() string {
	switch a {
	case ArityNone:
		return "no value"
	case ArityScalar:
		return "a single value"
	case ArityList:
		return "a list of values"
	case ArityRange:
		return "a [low, high] pair"
	default:
		return "unknown"
	}
}

// Arity returns the operand shape of the operator.
func (op Operator) Arity() Arity {
	switch op {
	case OperatorIsEmpty, OperatorIsNotEmpty:
		return ArityNone
	case OperatorIn, OperatorNotIn:
		return ArityList
	case OperatorBetween:
		return ArityRange
	default:
		return ArityScalar
	}
}

// IsValid reports whether the operator is part of the fixed enumeration.
func (op Operator) IsValid() bool {
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}

// operatorAliases maps the camelCase spellings used by the authoring UI.
var operatorAliases = map[string]Operator{
	"equals":             OperatorEquals,
	"equal":              OperatorEquals,
	"notequals":          OperatorNotEquals,
	"notequal":           OperatorNotEquals,
	"greaterthan":        OperatorGreaterThan,
	"greaterthanorequal": OperatorGreaterThanOrEqual,
	"lessthan":           OperatorLessThan,
	"lessthanorequal":    OperatorLessThanOrEqual,
	"contains":           OperatorContains,
	"notcontains":        OperatorNotContains,
	"startswith":         OperatorStartsWith,
	"endswith":           OperatorEndsWith,
	"in":                 OperatorIn,
	"notin":              OperatorNotIn,
	"before":             OperatorBefore,
	"after":              OperatorAfter,
	"between":            OperatorBetween,
	"isempty":            OperatorIsEmpty,
	"isnotempty":         OperatorIsNotEmpty,
}

// ParseOperator normalizes an operator spelling. It accepts snake_case
// ("greater_than"), camelCase ("greaterThan") and upper case
// ("GREATER_THAN").
func ParseOperator(s string) (Operator, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	if op, ok := operatorAliases[key]; ok {
		return op, nil
	}
	return "", fmt.Errorf("unknown operator %q", s)
}

// Logic is the combinator applied to a rule's conditions.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// IsValid reports whether the logic is AND or OR.
func (l Logic) IsValid() bool {
	return l == LogicAnd || l == LogicOr
}

// ParseLogic parses AND/OR case-insensitively. An empty string means AND.
func ParseLogic(s string) (Logic, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AND", "ALL":
		return LogicAnd, nil
	case "OR", "ANY":
		return LogicOr, nil
	default:
		return "", fmt.Errorf("unknown condition logic %q", s)
	}
}

// Condition is a single predicate over one fact field.
//
// Value carries the operand for scalar operators and Values the operand for
// in, not_in and between. Logic is kept for the authoring UI only; the
// rule's ConditionLogic decides how conditions combine.
type Condition struct {
	ID       string   `json:"id"`
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    Value    `json:"value"`
	Values   []Value  `json:"values,omitempty"`
	Logic    Logic    `json:"logic,omitempty"`
}

// Describe renders the condition as "field operator operand" for traces.
func (c Condition) Describe() string {
	switch c.Operator.Arity() {
	case ArityNone:
		return fmt.Sprintf("%s %s", c.Field, c.Operator)
	case ArityList, ArityRange:
		parts := make([]string, len(c.Values))
		for i, v := range c.Values {
			parts[i] = v.String()
		}
		return fmt.Sprintf("%s %s [%s]", c.Field, c.Operator, strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("%s %s %s", c.Field, c.Operator, c.Value)
	}
}

// CheckOperand reports a missing field or an operand whose shape does not
// fit the operator. Such a condition never matches.
func (c Condition) CheckOperand() error {
	if strings.TrimSpace(c.Field) == "" {
		return errors.New("missing required field 'field'")
	}
	arity := c.Operator.Arity()
	var bad bool
	switch arity {
	case ArityNone:
		bad = c.Values != nil || !c.Value.IsNull()
	case ArityScalar:
		bad = c.Values != nil || c.Value.IsNull()
	case ArityList:
		bad = len(c.Values) == 0
	case ArityRange:
		bad = len(c.Values) != 2
	}
	if bad {
		return fmt.Errorf("operator %s takes %s", c.Operator, arity)
	}
	return nil
}

// signature identifies the predicate independent of its ID and UI logic.
func (c Condition) signature() string {
	var sb strings.Builder
	sb.WriteString(c.Field)
	sb.WriteByte(0)
	sb.WriteString(string(c.Operator))
	sb.WriteByte(0)
	sb.WriteString(c.Value.Text())
	for _, v := range c.Values {
		sb.WriteByte(0)
		sb.WriteString(v.Text())
	}
	return sb.String()
}
