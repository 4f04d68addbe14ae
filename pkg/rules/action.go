package rules

import (
	"fmt"
	"sort"
	"strings"
)

// ActionKind identifies an action variant. The kind is also the category
// OVERRIDE actions compete within.
type ActionKind string

const (
	ActionSetWorkflow  ActionKind = "SET_WORKFLOW"
	ActionSetWarehouse ActionKind = "SET_WAREHOUSE"
	ActionSetPriority  ActionKind = "SET_PRIORITY"
	ActionHoldOrder    ActionKind = "HOLD_ORDER"
	ActionSplitOrder   ActionKind = "SPLIT_ORDER"
	ActionAddTag       ActionKind = "ADD_TAG"
	ActionNotify       ActionKind = "NOTIFY"
)

// ActionKinds lists every action kind in documentation order.
var ActionKinds = []ActionKind{
	ActionSetWorkflow,
	ActionSetWarehouse,
	ActionSetPriority,
	ActionHoldOrder,
	ActionSplitOrder,
	ActionAddTag,
	ActionNotify,
}

// Behavior is the resolution class of an action kind.
type Behavior string

const (
	// BehaviorOverride keeps only the last contributed instance of a kind.
	BehaviorOverride Behavior = "OVERRIDE"
	// BehaviorAdditive keeps every contributed instance of a kind.
	BehaviorAdditive Behavior = "ADDITIVE"
)

// IsValid reports whether the behavior is OVERRIDE or ADDITIVE.
func (b Behavior) IsValid() bool {
	return b == BehaviorOverride || b == BehaviorAdditive
}

// ParseBehavior parses a behavior name. An empty string means OVERRIDE.
func ParseBehavior(s string) (Behavior, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "OVERRIDE":
		return BehaviorOverride, nil
	case "ADDITIVE":
		return BehaviorAdditive, nil
	default:
		return "", fmt.Errorf("unknown action behavior %q", s)
	}
}

// Behavior returns the resolution class declared by the kind. Unknown kinds
// report an empty behavior.
func (k ActionKind) Behavior() Behavior {
	switch k {
	case ActionSetWorkflow, ActionSetWarehouse, ActionSetPriority, ActionHoldOrder, ActionSplitOrder:
		return BehaviorOverride
	case ActionAddTag, ActionNotify:
		return BehaviorAdditive
	default:
		return ""
	}
}

// IsValid reports whether the kind is known.
func (k ActionKind) IsValid() bool {
	return k.Behavior() != ""
}

// ParseActionKind normalizes "set-workflow", "set_workflow" and
// "SET_WORKFLOW" to the same kind.
func ParseActionKind(s string) (ActionKind, error) {
	k := ActionKind(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if !k.IsValid() {
		return "", fmt.Errorf("unknown action type %q", s)
	}
	return k, nil
}

// Action is one of the closed set of action variants below. Actions are
// decisions only; the engine never performs them.
type Action interface {
	// Kind returns the action variant.
	Kind() ActionKind
	// Describe renders the payload for traces.
	Describe() string
	// Validate reports a missing or malformed payload.
	Validate() error

	isAction()
}

// SetWorkflow routes the order to a workflow.
type SetWorkflow struct {
	WorkflowID string `json:"workflow_id"`
}

// SetWarehouse assigns the fulfilling warehouse.
type SetWarehouse struct {
	WarehouseID string `json:"warehouse_id"`
}

// SetPriority sets the processing priority level.
type SetPriority struct {
	Level string `json:"level"`
}

// HoldOrder places the order on hold.
type HoldOrder struct {
	Reason string `json:"reason"`
}

// SplitOrder splits the order using a named strategy.
type SplitOrder struct {
	Strategy string `json:"strategy"`
}

// AddTag attaches tags to the order.
type AddTag struct {
	Tags []string `json:"tags"`
}

// Notify sends a notification through a channel.
type Notify struct {
	Channel    string   `json:"channel"`
	Recipients []string `json:"recipients,omitempty"`
	Message    string   `json:"message,omitempty"`
}

func (SetWorkflow) Kind() ActionKind  { return ActionSetWorkflow }
func (SetWarehouse) Kind() ActionKind { return ActionSetWarehouse }
func (SetPriority) Kind() ActionKind  { return ActionSetPriority }
func (HoldOrder) Kind() ActionKind    { return ActionHoldOrder }
func (SplitOrder) Kind() ActionKind   { return ActionSplitOrder }
func (AddTag) Kind() ActionKind       { return ActionAddTag }
func (Notify) Kind() ActionKind       { return ActionNotify }

func (SetWorkflow) isAction()  {}
func (SetWarehouse) isAction() {}
func (SetPriority) isAction()  {}
func (HoldOrder) isAction()    {}
func (SplitOrder) isAction()   {}
func (AddTag) isAction()       {}
func (Notify) isAction()       {}

func (a SetWorkflow) Describe() string  { return "workflow=" + a.WorkflowID }
func (a SetWarehouse) Describe() string { return "warehouse=" + a.WarehouseID }
func (a SetPriority) Describe() string  { return "priority=" + a.Level }
func (a HoldOrder) Describe() string    { return "reason=" + a.Reason }
func (a SplitOrder) Describe() string   { return "strategy=" + a.Strategy }
func (a AddTag) Describe() string       { return "tags=" + strings.Join(a.Tags, ",") }

func (a Notify) Describe() string {
	if len(a.Recipients) == 0 {
		return "channel=" + a.Channel
	}
	return fmt.Sprintf("channel=%s to=%s", a.Channel, strings.Join(a.Recipients, ","))
}

func (a SetWorkflow) Validate() error  { return requireParam("workflow_id", a.WorkflowID) }
func (a SetWarehouse) Validate() error { return requireParam("warehouse_id", a.WarehouseID) }
func (a SetPriority) Validate() error  { return requireParam("level", a.Level) }
func (a HoldOrder) Validate() error    { return nil }
func (a SplitOrder) Validate() error   { return requireParam("strategy", a.Strategy) }
func (a Notify) Validate() error       { return requireParam("channel", a.Channel) }

func (a AddTag) Validate() error {
	if len(a.Tags) == 0 {
		return fmt.Errorf("parameter %q must list at least one tag", "tags")
	}
	for _, tag := range a.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("parameter %q contains an empty tag", "tags")
		}
	}
	return nil
}

func requireParam(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("parameter %q is required", name)
	}
	return nil
}

// NewAction builds an action variant from a kind and a decoded parameter
// map. Unknown parameters are rejected so that typos surface at load time.
func NewAction(kind ActionKind, params map[string]interface{}) (Action, error) {
	p := actionParams{kind: kind, raw: params, used: make(map[string]bool)}

	var action Action
	switch kind {
	case ActionSetWorkflow:
		action = SetWorkflow{WorkflowID: p.str("workflow_id", "workflow")}
	case ActionSetWarehouse:
		action = SetWarehouse{WarehouseID: p.str("warehouse_id", "warehouse")}
	case ActionSetPriority:
		action = SetPriority{Level: p.str("level", "priority")}
	case ActionHoldOrder:
		action = HoldOrder{Reason: p.str("reason")}
	case ActionSplitOrder:
		action = SplitOrder{Strategy: p.str("strategy")}
	case ActionAddTag:
		action = AddTag{Tags: p.list("tags", "tag")}
	case ActionNotify:
		action = Notify{
			Channel:    p.str("channel"),
			Recipients: p.list("recipients", "recipient"),
			Message:    p.str("message"),
		}
	default:
		return nil, fmt.Errorf("unknown action type %q", kind)
	}

	if err := p.finish(); err != nil {
		return nil, err
	}
	return action, nil
}

type actionParams struct {
	kind ActionKind
	raw  map[string]interface{}
	used map[string]bool
	err  error
}

func (p *actionParams) lookup(names ...string) (interface{}, bool) {
	for _, name := range names {
		if v, ok := p.raw[name]; ok {
			p.used[name] = true
			return v, true
		}
	}
	return nil, false
}

func (p *actionParams) str(names ...string) string {
	v, ok := p.lookup(names...)
	if !ok || v == nil {
		return ""
	}
	val, err := ValueOf(v)
	if err != nil {
		p.fail(fmt.Errorf("parameter %q: %w", names[0], err))
		return ""
	}
	return val.Text()
}

func (p *actionParams) list(names ...string) []string {
	v, ok := p.lookup(names...)
	if !ok || v == nil {
		return nil
	}
	items, isList := v.([]interface{})
	if !isList {
		items = []interface{}{v}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		val, err := ValueOf(item)
		if err != nil {
			p.fail(fmt.Errorf("parameter %q: %w", names[0], err))
			return nil
		}
		out = append(out, val.Text())
	}
	return out
}

func (p *actionParams) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *actionParams) finish() error {
	if p.err != nil {
		return fmt.Errorf("%s: %w", p.kind, p.err)
	}
	var unknown []string
	for name := range p.raw {
		if !p.used[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%s: unknown parameter(s) %s", p.kind, strings.Join(unknown, ", "))
	}
	return nil
}
