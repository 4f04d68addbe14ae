// Package source provides rule-set sources for the manager.
//
// A Source loads the current rule set and optionally reports changes. Three
// implementations are provided:
//
//   - MemorySource holds a rule set in memory; Set replaces it and notifies
//     watchers. Used by tests and embedding hosts.
//   - FileSource reads a single YAML/JSON file or every rule file directly
//     inside a directory and merges them. Watch uses fsnotify with a
//     debouncer so an editor's burst of writes becomes one event.
//   - GitSource clones a rules repository with go-git, loads a path inside
//     the checkout through a FileSource, and polls the remote for new
//     commits.
package source
