package parser

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"orderdesk/automation/pkg/rules"
)

// Parser decodes rule set documents.
type Parser struct{}

// NewParser creates a new parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads and decodes a rule set file.
func (p *Parser) ParseFile(path string) (*rules.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{File: path, Message: "failed to read file", Cause: err}
	}
	return p.ParseBytes(data, path)
}

// ParseBytes decodes a rule set document. source names the document in
// error messages.
func (p *Parser) ParseBytes(data []byte, source string) (*rules.RuleSet, error) {
	var doc yamlRuleSet
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{File: source, Message: "invalid YAML", Cause: err}
	}

	set := &rules.RuleSet{Version: doc.Version}

	for i := range doc.Groups {
		node := &doc.Groups[i]
		var yg yamlGroup
		if err := node.Decode(&yg); err != nil {
			return nil, nodeError(source, node, "invalid group", err)
		}
		group, err := buildGroup(&yg)
		if err != nil {
			return nil, nodeError(source, node, fmt.Sprintf("group %q", yg.ID), err)
		}
		set.Groups = append(set.Groups, group)

		if yg.Annotation != nil {
			if set.Annotations == nil {
				set.Annotations = make(map[string]rules.GroupAnnotation)
			}
			set.Annotations[group.ID] = rules.GroupAnnotation{
				Color: yg.Annotation.Color,
				Icon:  yg.Annotation.Icon,
				Label: yg.Annotation.Label,
			}
		}
	}

	for i := range doc.Rules {
		node := &doc.Rules[i]
		var yr yamlRule
		if err := node.Decode(&yr); err != nil {
			return nil, nodeError(source, node, "invalid rule", err)
		}
		rule, err := buildRule(&yr)
		if err != nil {
			return nil, nodeError(source, node, fmt.Sprintf("rule %q", yr.ID), err)
		}
		set.Rules = append(set.Rules, rule)
	}

	return set, nil
}

func nodeError(source string, node *yaml.Node, msg string, err error) *ParseError {
	return &ParseError{File: source, Line: node.Line, Column: node.Column, Message: msg, Cause: err}
}

func buildGroup(yg *yamlGroup) (*rules.RuleGroup, error) {
	mode, err := rules.ParseExecutionMode(yg.ExecutionMode)
	if err != nil {
		return nil, err
	}
	behavior, err := rules.ParseBehavior(yg.PrimaryActionBehavior)
	if err != nil {
		return nil, err
	}
	return &rules.RuleGroup{
		ID:                    yg.ID,
		Name:                  yg.Name,
		Description:           yg.Description,
		Priority:              yg.Priority,
		Enabled:               enabledOrDefault(yg.Enabled),
		ExecutionMode:         mode,
		PrimaryActionBehavior: behavior,
		RuleIDs:               yg.RuleIDs,
	}, nil
}

func buildRule(yr *yamlRule) (*rules.Rule, error) {
	logic, err := rules.ParseLogic(yr.ConditionLogic)
	if err != nil {
		return nil, err
	}

	rule := &rules.Rule{
		ID:             yr.ID,
		Name:           yr.Name,
		Description:    yr.Description,
		GroupID:        yr.GroupID,
		Priority:       yr.Priority,
		Enabled:        enabledOrDefault(yr.Enabled),
		ConditionLogic: logic,
	}

	for i, yc := range yr.Conditions {
		cond, err := buildCondition(&yc)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i+1, err)
		}
		if cond.ID == "" {
			cond.ID = fmt.Sprintf("%s-c%d", yr.ID, i+1)
		}
		rule.Conditions = append(rule.Conditions, cond)
	}

	for i, ya := range yr.Actions {
		kind, err := rules.ParseActionKind(ya.Type)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		action, err := rules.NewAction(kind, ya.Params)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		rule.Actions = append(rule.Actions, action)
	}

	return rule, nil
}

func buildCondition(yc *yamlCondition) (rules.Condition, error) {
	op, err := rules.ParseOperator(yc.Operator)
	if err != nil {
		return rules.Condition{}, err
	}

	cond := rules.Condition{
		ID:       yc.ID,
		Field:    yc.Field,
		Operator: op,
	}

	if yc.Logic != "" {
		logic, err := rules.ParseLogic(yc.Logic)
		if err != nil {
			return rules.Condition{}, err
		}
		cond.Logic = logic
	}

	// A list operand goes to Values whatever the operator; conflict
	// detection reports arity mismatches.
	if list, ok := yc.Value.([]interface{}); ok {
		cond.Values = make([]rules.Value, 0, len(list))
		for _, item := range list {
			v, err := rules.ValueOf(item)
			if err != nil {
				return rules.Condition{}, fmt.Errorf("field %q: %w", yc.Field, err)
			}
			cond.Values = append(cond.Values, v)
		}
		return cond, nil
	}

	v, err := rules.ValueOf(yc.Value)
	if err != nil {
		return rules.Condition{}, fmt.Errorf("field %q: %w", yc.Field, err)
	}
	cond.Value = v
	return cond, nil
}

func enabledOrDefault(enabled *bool) bool {
	if enabled == nil {
		return true
	}
	return *enabled
}

// ParseFile decodes a rule set file with a default parser.
func ParseFile(path string) (*rules.RuleSet, error) {
	return NewParser().ParseFile(path)
}

// ParseFacts decodes one or more fact records. A document with a top-level
// "facts" list yields one NamedFact per entry; any other mapping is a single
// fact named after source.
func ParseFacts(data []byte, source string) ([]rules.NamedFact, error) {
	var probe map[string]interface{}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, &ParseError{File: source, Message: "invalid YAML", Cause: err}
	}

	if _, ok := probe["facts"]; ok && len(probe) == 1 {
		var doc yamlFacts
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &ParseError{File: source, Message: "invalid fact list", Cause: err}
		}
		out := make([]rules.NamedFact, 0, len(doc.Facts))
		for i, nf := range doc.Facts {
			fact, err := rules.NewFact(nf.Values)
			if err != nil {
				return nil, &ParseError{File: source, Message: fmt.Sprintf("fact %d", i+1), Cause: err}
			}
			name := nf.Name
			if name == "" {
				name = fmt.Sprintf("fact-%d", i+1)
			}
			out = append(out, rules.NamedFact{Name: name, Fact: fact})
		}
		return out, nil
	}

	fact, err := rules.NewFact(probe)
	if err != nil {
		return nil, &ParseError{File: source, Message: "invalid fact", Cause: err}
	}
	return []rules.NamedFact{{Name: factName(source), Fact: fact}}, nil
}

// ParseFact decodes a single flat fact record.
func ParseFact(data []byte, source string) (rules.Fact, error) {
	facts, err := ParseFacts(data, source)
	if err != nil {
		return nil, err
	}
	if len(facts) != 1 {
		return nil, &ParseError{File: source, Message: fmt.Sprintf("expected one fact, found %d", len(facts))}
	}
	return facts[0].Fact, nil
}

// LoadFacts reads fact records from a file, or from every YAML/JSON file in
// a directory (sorted by name).
func LoadFacts(path string) ([]rules.NamedFact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = RuleFiles(path)
		if err != nil {
			return nil, err
		}
	}

	var out []rules.NamedFact
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %q: %w", file, err)
		}
		facts, err := ParseFacts(data, file)
		if err != nil {
			return nil, err
		}
		out = append(out, facts...)
	}
	return out, nil
}

// RuleFiles lists the .yaml, .yml and .json files directly inside dir,
// sorted by name. Hidden files are skipped.
func RuleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %q: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !IsRuleFile(name) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

// IsRuleFile reports whether a file name has a supported extension.
func IsRuleFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

func factName(source string) string {
	if source == "" {
		return "fact"
	}
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Encode renders a rule set back to YAML. Annotations are written inline on
// their groups.
func Encode(set *rules.RuleSet) ([]byte, error) {
	doc := struct {
		Version string       `yaml:"version,omitempty"`
		Groups  []yamlGroup  `yaml:"groups"`
		Rules   []encodeRule `yaml:"rules"`
	}{Version: set.Version}

	for _, g := range set.Groups {
		enabled := g.Enabled
		yg := yamlGroup{
			ID:                    g.ID,
			Name:                  g.Name,
			Description:           g.Description,
			Priority:              g.Priority,
			Enabled:               &enabled,
			ExecutionMode:         string(g.ExecutionMode),
			PrimaryActionBehavior: string(g.PrimaryActionBehavior),
			RuleIDs:               g.RuleIDs,
		}
		if a, ok := set.Annotations[g.ID]; ok {
			yg.Annotation = &yamlAnnotation{Color: a.Color, Icon: a.Icon, Label: a.Label}
		}
		doc.Groups = append(doc.Groups, yg)
	}

	for _, r := range set.Rules {
		doc.Rules = append(doc.Rules, toEncodeRule(r))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
