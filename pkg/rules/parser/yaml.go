package parser

import (
	"gopkg.in/yaml.v3"
)

type yamlRuleSet struct {
	Version string      `yaml:"version"`
	Groups  []yaml.Node `yaml:"groups"`
	Rules   []yaml.Node `yaml:"rules"`
}

type yamlGroup struct {
	ID                    string          `yaml:"id"`
	Name                  string          `yaml:"name"`
	Description           string          `yaml:"description"`
	Priority              int             `yaml:"priority"`
	Enabled               *bool           `yaml:"enabled"` // Pointer to distinguish unset vs false
	ExecutionMode         string          `yaml:"execution_mode"`
	PrimaryActionBehavior string          `yaml:"primary_action_behavior"`
	RuleIDs               []string        `yaml:"rule_ids"`
	Annotation            *yamlAnnotation `yaml:"annotation"`
}

type yamlAnnotation struct {
	Color string `yaml:"color"`
	Icon  string `yaml:"icon"`
	Label string `yaml:"label"`
}

type yamlRule struct {
	ID             string          `yaml:"id"`
	Name           string          `yaml:"name"`
	Description    string          `yaml:"description"`
	GroupID        string          `yaml:"group_id"`
	Priority       int             `yaml:"priority"`
	Enabled        *bool           `yaml:"enabled"`
	ConditionLogic string          `yaml:"condition_logic"`
	Conditions     []yamlCondition `yaml:"conditions"`
	Actions        []yamlAction    `yaml:"actions"`
}

type yamlCondition struct {
	ID       string      `yaml:"id"`
	Field    string      `yaml:"field"`
	Operator string      `yaml:"operator"`
	Value    interface{} `yaml:"value"`
	Logic    string      `yaml:"logic"`
}

type yamlAction struct {
	Type   string                 `yaml:"type"`
	Params map[string]interface{} `yaml:"params"`
}

type yamlFacts struct {
	Facts []yamlNamedFact `yaml:"facts"`
}

type yamlNamedFact struct {
	Name   string                 `yaml:"name"`
	Values map[string]interface{} `yaml:"values"`
}
