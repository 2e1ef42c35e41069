// Package template defines the renderer-agnostic template engine seam.
// Renderers depend on the TemplateRenderer interface so the backing
// engine can be swapped or stubbed in tests.
package template
