// Package formdef defines the form definition model consumed by the flow
// engine and the renderers: field definitions with a closed type enumeration,
// per-field validation bounds, tagged visibility conditions, and the answer
// map collected from the user. Definitions are authored as JSON or YAML and
// linted with Validate before any engine use; the engine treats them as
// read-only for the lifetime of a session.
package formdef
