// Package validator checks the structural invariants of a rule set before it
// reaches the engine.
//
// Validation runs in two passes. The structural pass checks each group and
// rule in isolation: required IDs, known enumerations, operator arity and
// action payloads. The reference pass runs only when the structural pass is
// clean and checks cross-entity consistency: duplicate IDs, rules pointing at
// unknown groups, and group rule_ids that disagree with rule group_id.
//
// All problems are accumulated into an *ErrorList so an author sees every
// mistake at once:
//
//	v := validator.New(validator.Options{MaxGroups: 50})
//	if err := v.Validate(set); err != nil {
//		var list *validator.ErrorList
//		errors.As(err, &list)
//		for _, e := range list.Errors {
//			fmt.Println(e.Path, e.Message)
//		}
//	}
package validator
