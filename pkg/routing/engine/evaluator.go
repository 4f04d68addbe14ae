package engine

import (
	"strings"
	"time"

	"orderdesk/automation/pkg/rules"
)

// dateLayouts are tried in order when a value is compared as a date.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// EvaluateCondition reports whether the fact satisfies the condition. It
// never fails: a missing field, a non-numeric operand for a numeric operator,
// an unparsable date or an operand that does not fit the operator all
// evaluate to false. The only exception is a well-formed is_empty, which
// holds for a missing field.
func EvaluateCondition(fact rules.Fact, cond rules.Condition) bool {
	if cond.CheckOperand() != nil {
		return false
	}
	actual, ok := fact.Lookup(cond.Field)

	switch cond.Operator {
	case rules.OperatorIsEmpty:
		return !ok || actual.IsEmpty()
	case rules.OperatorIsNotEmpty:
		return ok && !actual.IsEmpty()
	}

	if !ok {
		return false
	}

	expected := cond.Value
	switch cond.Operator {
	case rules.OperatorEquals:
		return !expected.IsNull() && valuesEqual(actual, expected)
	case rules.OperatorNotEquals:
		return !expected.IsNull() && !valuesEqual(actual, expected)

	case rules.OperatorGreaterThan:
		return compareNumbers(actual, expected, func(a, b float64) bool { return a > b })
	case rules.OperatorGreaterThanOrEqual:
		return compareNumbers(actual, expected, func(a, b float64) bool { return a >= b })
	case rules.OperatorLessThan:
		return compareNumbers(actual, expected, func(a, b float64) bool { return a < b })
	case rules.OperatorLessThanOrEqual:
		return compareNumbers(actual, expected, func(a, b float64) bool { return a <= b })

	case rules.OperatorContains:
		return !expected.IsNull() && strings.Contains(actual.Text(), expected.Text())
	case rules.OperatorNotContains:
		return !expected.IsNull() && !strings.Contains(actual.Text(), expected.Text())
	case rules.OperatorStartsWith:
		return !expected.IsNull() && strings.HasPrefix(actual.Text(), expected.Text())
	case rules.OperatorEndsWith:
		return !expected.IsNull() && strings.HasSuffix(actual.Text(), expected.Text())

	case rules.OperatorIn:
		return len(cond.Values) > 0 && inList(actual, cond.Values)
	case rules.OperatorNotIn:
		return len(cond.Values) > 0 && !inList(actual, cond.Values)

	case rules.OperatorBefore:
		return compareDates(actual, expected, func(a, b time.Time) bool { return a.Before(b) })
	case rules.OperatorAfter:
		return compareDates(actual, expected, func(a, b time.Time) bool { return a.After(b) })
	case rules.OperatorBetween:
		return between(actual, cond.Values)

	default:
		return false
	}
}

// valuesEqual compares numerically when both sides parse as numbers and as
// case-sensitive strings otherwise.
func valuesEqual(a, b rules.Value) bool {
	if an, ok := a.AsNumber(); ok {
		if bn, ok := b.AsNumber(); ok {
			return an == bn
		}
	}
	return a.Text() == b.Text()
}

func compareNumbers(a, b rules.Value, cmp func(a, b float64) bool) bool {
	an, ok := a.AsNumber()
	if !ok {
		return false
	}
	bn, ok := b.AsNumber()
	if !ok {
		return false
	}
	return cmp(an, bn)
}

func inList(v rules.Value, list []rules.Value) bool {
	text := v.Text()
	for _, item := range list {
		if item.Text() == text {
			return true
		}
	}
	return false
}

func compareDates(a, b rules.Value, cmp func(a, b time.Time) bool) bool {
	at, ok := parseDate(a)
	if !ok {
		return false
	}
	bt, ok := parseDate(b)
	if !ok {
		return false
	}
	return cmp(at, bt)
}

// between is inclusive on both ends. It compares numerically when the value
// and both bounds are numbers and as dates otherwise.
func between(v rules.Value, bounds []rules.Value) bool {
	if len(bounds) != 2 {
		return false
	}
	lo, hi := bounds[0], bounds[1]

	if n, ok := v.AsNumber(); ok {
		if ln, ok := lo.AsNumber(); ok {
			if hn, ok := hi.AsNumber(); ok {
				return n >= ln && n <= hn
			}
		}
	}

	t, ok := parseDate(v)
	if !ok {
		return false
	}
	lt, ok := parseDate(lo)
	if !ok {
		return false
	}
	ht, ok := parseDate(hi)
	if !ok {
		return false
	}
	return !t.Before(lt) && !t.After(ht)
}

// parseDate accepts only string values; numbers are never treated as
// timestamps.
func parseDate(v rules.Value) (time.Time, bool) {
	s, ok := v.Str()
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
