// Package extract compiles a rule's extraction instruction and turns raw HTTP
// response bodies into metrics. Two strategies exist: jq (the instruction is
// a jq query evaluated against the response parsed as JSON) and pattern (the
// instruction is a regular expression with optional named capture groups).
//
// Compilation happens once at process setup via Compile; a compile failure is
// a configuration defect and aborts startup. The compiled form is read-only
// and shared by every scrape of the owning target.
package extract
