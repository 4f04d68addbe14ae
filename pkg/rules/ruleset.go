package rules

// RuleSet is the immutable snapshot of groups and rules handed to one
// evaluation. Callers must not modify a RuleSet after passing it to the
// engine; share it freely between goroutines instead.
type RuleSet struct {
	Version     string                     `json:"version,omitempty"`
	Groups      []*RuleGroup               `json:"groups"`
	Rules       []*Rule                    `json:"rules"`
	Annotations map[string]GroupAnnotation `json:"annotations,omitempty"`
}

// NewRuleSet builds a rule set from groups and rules.
func NewRuleSet(groups []*RuleGroup, rules []*Rule) *RuleSet {
	return &RuleSet{Groups: groups, Rules: rules}
}

// Group returns the group with the given ID.
func (s *RuleSet) Group(id string) (*RuleGroup, bool) {
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// Rule returns the rule with the given ID.
func (s *RuleSet) Rule(id string) (*Rule, bool) {
	for _, r := range s.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// RulesInGroup returns the group's rules in ascending priority, insertion
// order for ties. The returned slice is freshly allocated.
func (s *RuleSet) RulesInGroup(groupID string) []*Rule {
	return RulesForGroup(groupID, s.Rules)
}

// RulesForGroup filters rules belonging to groupID and orders them by
// ascending priority, insertion order for ties.
func RulesForGroup(groupID string, rules []*Rule) []*Rule {
	var out []*Rule
	for _, r := range rules {
		if r.GroupID == groupID {
			out = append(out, r)
		}
	}
	SortRulesByPriority(out)
	return out
}

// SortedGroups returns the groups in ascending priority without modifying
// the rule set.
func (s *RuleSet) SortedGroups() []*RuleGroup {
	groups := make([]*RuleGroup, len(s.Groups))
	copy(groups, s.Groups)
	SortGroupsByPriority(groups)
	return groups
}

// RuleCount returns the total number of rules.
func (s *RuleSet) RuleCount() int {
	return len(s.Rules)
}

// Merge concatenates rule sets, e.g. one per file of a rules directory. The
// merged version joins the non-empty input versions with "+".
func Merge(sets ...*RuleSet) *RuleSet {
	merged := &RuleSet{}
	for _, s := range sets {
		if s == nil {
			continue
		}
		if s.Version != "" {
			if merged.Version != "" {
				merged.Version += "+"
			}
			merged.Version += s.Version
		}
		merged.Groups = append(merged.Groups, s.Groups...)
		merged.Rules = append(merged.Rules, s.Rules...)
		for id, a := range s.Annotations {
			if merged.Annotations == nil {
				merged.Annotations = make(map[string]GroupAnnotation)
			}
			merged.Annotations[id] = a
		}
	}
	return merged
}

// NamedFact is a fact record with a label, used by batch simulation.
type NamedFact struct {
	Name string `json:"name"`
	Fact Fact   `json:"values"`
}
