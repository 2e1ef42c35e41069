package template

import (
	"io"
)

// TemplateRenderer is the engine contract renderers rely on. Render
// resolves its first argument as a template name unless it contains
// template markup, in which case it is executed as inline content.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
