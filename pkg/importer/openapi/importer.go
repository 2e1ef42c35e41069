// Package openapi derives form definitions from OpenAPI documents: an
// operation's request body schema becomes an ordered field list, with
// x-formflow extensions filling in what a JSON schema cannot express
// (visibility, rules, static content, field ordering).
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formflow/pkg/formdef"
)

// extensionKey is the vendor extension namespace read from operations and
// property schemas.
const extensionKey = "x-formflow"

type config struct {
	operationID string
	formID      string
}

// Option configures an import.
type Option func(*config)

// WithOperationID selects the operation to import. Operations without an
// authored operationId are addressable as "<method>:<path>", lowercased.
func WithOperationID(id string) Option {
	return func(c *config) {
		c.operationID = id
	}
}

// WithFormID overrides the id of the produced definition.
func WithFormID(id string) Option {
	return func(c *config) {
		c.formID = id
	}
}

// Import loads an OpenAPI document (JSON or YAML) and converts one
// operation's request body schema into a form definition. Without
// WithOperationID the document must contain exactly one POST operation.
// The produced definition is linted before it is returned.
func Import(ctx context.Context, raw []byte, opts ...Option) (*formdef.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document is empty")
	}

	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}

	selected, err := selectOperation(doc, cfg.operationID)
	if err != nil {
		return nil, err
	}

	schema := requestSchema(selected.op.RequestBody)
	if schema == nil {
		return nil, fmt.Errorf("openapi: operation %q has no request body schema", selected.id)
	}

	def, err := buildDefinition(selected, schema, cfg)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("openapi: imported definition: %w", err)
	}
	return def, nil
}

type candidate struct {
	id     string
	method string
	path   string
	op     *openapi3.Operation
}

func operationID(method, path string, op *openapi3.Operation) string {
	if op.OperationID != "" {
		return op.OperationID
	}
	return strings.ToLower(method) + ":" + path
}

func selectOperation(doc *openapi3.T, wanted string) (candidate, error) {
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return candidate{}, errors.New("openapi: document does not contain any paths")
	}

	var all []candidate
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range map[string]*openapi3.Operation{
			"GET":    item.Get,
			"PUT":    item.Put,
			"POST":   item.Post,
			"DELETE": item.Delete,
			"PATCH":  item.Patch,
		} {
			if op == nil {
				continue
			}
			all = append(all, candidate{
				id:     operationID(method, path, op),
				method: method,
				path:   path,
				op:     op,
			})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].id < all[j].id })

	if wanted != "" {
		for _, c := range all {
			if c.id == wanted {
				return c, nil
			}
		}
		return candidate{}, fmt.Errorf("openapi: operation %q not found", wanted)
	}

	var posts []candidate
	for _, c := range all {
		if c.method == "POST" {
			posts = append(posts, c)
		}
	}
	switch len(posts) {
	case 0:
		return candidate{}, errors.New("openapi: no POST operation found; select one with WithOperationID")
	case 1:
		return posts[0], nil
	default:
		ids := make([]string, len(posts))
		for i, c := range posts {
			ids[i] = c.id
		}
		return candidate{}, fmt.Errorf("openapi: multiple POST operations (%s); select one with WithOperationID", strings.Join(ids, ", "))
	}
}

// requestSchema picks the schema of the preferred request media type,
// mirroring how form submissions are actually encoded.
func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func buildDefinition(selected candidate, schema *openapi3.Schema, cfg config) (*formdef.Definition, error) {
	ext := extensionMap(selected.op.Extensions)

	def := &formdef.Definition{
		ID:          slug(selected.id),
		Title:       selected.op.Summary,
		Description: selected.op.Description,
	}
	if cfg.formID != "" {
		def.ID = cfg.formID
	}
	applyDefinitionExtension(def, ext, cfg.formID != "")

	flat := flattenSchema(schema)

	required := make(map[string]bool, len(flat.required))
	for _, name := range flat.required {
		required[name] = true
	}

	for _, name := range propertyOrder(flat) {
		ref := flat.properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		field, ok := buildField(name, ref.Value, required[name])
		if !ok {
			continue
		}
		def.Fields = append(def.Fields, field)
	}

	if len(def.Fields) == 0 {
		return nil, fmt.Errorf("openapi: operation %q yields no usable fields", selected.id)
	}
	return def, nil
}

// propertyOrder returns property names in authored order where the schema
// records one (an x-formflow "order" list), else sorted. kin-openapi holds
// properties in a map, so JSON authoring order is not otherwise recoverable.
func propertyOrder(flat flatSchema) []string {
	rest := make([]string, 0, len(flat.properties))
	for name := range flat.properties {
		rest = append(rest, name)
	}
	sort.Strings(rest)

	authored := stringList(flat.ext["order"])
	if len(authored) == 0 {
		return rest
	}

	seen := make(map[string]bool, len(authored))
	out := make([]string, 0, len(rest))
	for _, name := range authored {
		if _, ok := flat.properties[name]; ok && !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	for _, name := range rest {
		if !seen[name] {
			out = append(out, name)
		}
	}
	return out
}

func applyDefinitionExtension(def *formdef.Definition, ext map[string]any, idPinned bool) {
	if len(ext) == 0 {
		return
	}
	if v := stringField(ext, "id"); v != "" && !idPinned {
		def.ID = v
	}
	if v := stringField(ext, "title"); v != "" {
		def.Title = v
	}
	if v := stringField(ext, "description"); v != "" {
		def.Description = v
	}
	if v := stringField(ext, "submitLabel"); v != "" {
		def.SubmitLabel = v
	}
	if v := stringField(ext, "redirectUrl"); v != "" {
		def.RedirectURL = v
	}
	if n, ok := intField(ext, "maxProgressiveFields"); ok {
		def.MaxProgressiveFields = n
	}
}

// slug normalizes synthesized operation ids ("post:/leads") into clean
// definition ids ("post-leads"). Authored operationIds pass through
// untouched.
func slug(id string) string {
	clean := id != ""
	for _, r := range id {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		clean = false
		break
	}
	if clean {
		return id
	}

	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(id) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
