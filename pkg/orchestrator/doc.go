// Package orchestrator wires the load → validate → build → render pipeline:
// a form definition (schema, rules, initial values) is read from documents or
// imported from an OpenAPI operation, turned into a live form, and drawn by a
// registered renderer.
package orchestrator
