// Orderdesk simulates order automation rule sets.
//
// It loads rule groups and rules from YAML or JSON files, evaluates order
// facts against them and prints the resulting trace: which groups ran,
// which rules matched, which actions were overridden and what the order
// will finally do.
//
// Usage:
//
//	# Simulate one order
//	orderdesk simulate --rules rules/ --fact order.yaml
//
//	# Check a rule set for errors and conflicts
//	orderdesk lint --rules rules/
//
//	# Simulate many orders in parallel
//	orderdesk batch --rules rules/ --facts orders.yaml --format csv
//
//	# Serve metrics and reload rules as they change
//	orderdesk watch --config orderdesk.yaml
//
//	# Inspect recorded runs
//	orderdesk history list --limit 20
package main

func main() {
	Execute()
}
