// Package harness runs a compiled-and-shaped document end to end against a
// canned binding set, without touching a network endpoint, and exposes the
// result for golden-file or direct assertion: compile a prototype, feed it
// canned bindings, and diff the compiled query plus shaped output.
package harness
