// Package parser decodes rule sets and fact records from YAML or JSON.
//
// A rule set document lists groups and rules:
//
//	version: "2025-06-01"
//	groups:
//	  - id: workflow
//	    name: Workflow routing
//	    priority: 1
//	    execution_mode: FIRST_MATCH
//	rules:
//	  - id: factory-direct
//	    group_id: workflow
//	    priority: 1
//	    conditions:
//	      - {id: c1, field: poType, operator: equals, value: FACTORY_DIRECT}
//	    actions:
//	      - {type: SET_WORKFLOW, params: {workflow_id: wf-direct}}
//
// Omitted fields take their documented defaults: enabled is true,
// condition_logic is AND, execution_mode is FIRST_MATCH and
// primary_action_behavior is OVERRIDE.
//
// The parser only checks what it needs to build the model (known operator
// and action spellings, scalar operands). Cross-references such as a rule's
// group_id are checked by package validator.
package parser
