package parser

import (
	"encoding/json"

	"orderdesk/automation/pkg/rules"
)

type encodeRule struct {
	ID             string            `yaml:"id"`
	Name           string            `yaml:"name,omitempty"`
	Description    string            `yaml:"description,omitempty"`
	GroupID        string            `yaml:"group_id"`
	Priority       int               `yaml:"priority"`
	Enabled        bool              `yaml:"enabled"`
	ConditionLogic string            `yaml:"condition_logic"`
	Conditions     []encodeCondition `yaml:"conditions,omitempty"`
	Actions        []encodeAction    `yaml:"actions,omitempty"`
}

type encodeCondition struct {
	ID       string      `yaml:"id"`
	Field    string      `yaml:"field"`
	Operator string      `yaml:"operator"`
	Value    interface{} `yaml:"value,omitempty"`
	Logic    string      `yaml:"logic,omitempty"`
}

type encodeAction struct {
	Type   string                 `yaml:"type"`
	Params map[string]interface{} `yaml:"params,omitempty"`
}

func toEncodeRule(r *rules.Rule) encodeRule {
	er := encodeRule{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		GroupID:        r.GroupID,
		Priority:       r.Priority,
		Enabled:        r.Enabled,
		ConditionLogic: string(r.ConditionLogic),
	}
	for _, c := range r.Conditions {
		ec := encodeCondition{ID: c.ID, Field: c.Field, Operator: string(c.Operator), Logic: string(c.Logic)}
		if c.Values != nil {
			values := make([]interface{}, len(c.Values))
			for i, v := range c.Values {
				values[i] = v.Interface()
			}
			ec.Value = values
		} else {
			ec.Value = c.Value.Interface()
		}
		er.Conditions = append(er.Conditions, ec)
	}
	for _, a := range r.Actions {
		er.Actions = append(er.Actions, encodeAction{Type: string(a.Kind()), Params: actionParams(a)})
	}
	return er
}

// actionParams flattens an action payload through its JSON tags so the
// encoded keys match what NewAction accepts.
func actionParams(a rules.Action) map[string]interface{} {
	data, err := json.Marshal(a)
	if err != nil {
		return nil
	}
	var params map[string]interface{}
	if err := json.Unmarshal(data, &params); err != nil {
		return nil
	}
	return params
}
