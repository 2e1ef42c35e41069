package conversational

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/formdef"
	"github.com/goliatone/go-formflow/pkg/render"
)

// Renderer implements render.Renderer for terminal sessions. It asks one
// question at a time, re-resolves the visible set after every committed
// answer, and keeps asking until the visible subset validates clean. Static
// fields print as narration, hidden fields are never prompted, and answers
// for fields that ended up hidden are dropped from the serialized output.
type Renderer struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	theme             Theme
	flowOpts          []flow.Option
}

// New constructs a conversational renderer with defaults (survey driver,
// JSON output).
func New(options ...Option) (render.Renderer, error) {
	driver, err := newSurveyDriver()
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		driver:       driver,
		outputFormat: OutputFormatJSON,
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if r.driver == nil {
		r.driver, err = newSurveyDriver()
		if err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "conversational"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render runs the interactive session and returns the serialized answers.
// view.Answers seeds the session; opts.Errors surface as one-shot messages
// before the named fields are re-asked.
func (r *Renderer) Render(ctx context.Context, view render.View, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("conversational: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("conversational: prompt driver is nil")
	}
	def := view.Definition
	if def == nil {
		return nil, errors.New("conversational: view has no definition")
	}

	sess := newSession(view.Answers, opts.Errors)

	if err := r.banner(ctx, def); err != nil {
		return nil, err
	}
	if err := r.run(ctx, def, sess); err != nil {
		return nil, err
	}

	values := map[string]any(flow.FilterAnswers(def.Fields, sess.values, r.flowOpts...))
	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("conversational: submit transformer: %w", err)
		}
	}

	return r.serialize(values)
}

func (r *Renderer) banner(ctx context.Context, def *formdef.Definition) error {
	if def.Title != "" {
		if err := r.info(ctx, def.Title); err != nil {
			return err
		}
	}
	if def.Description != "" {
		if err := r.info(ctx, def.Description); err != nil {
			return err
		}
	}
	return nil
}

// run is the progressive loop: resolve, narrate statics, ask the first
// unanswered answerable field, commit, repeat. Answering one question can
// reveal or retire later ones, so the visible set is recomputed from scratch
// on every pass.
func (r *Renderer) run(ctx context.Context, def *formdef.Definition, sess *session) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		snap := flow.Resolve(def, sess.values, r.flowOpts...)

		next, found, err := r.nextField(ctx, snap.Fields, sess)
		if err != nil {
			return err
		}
		if !found {
			if snap.Result.Valid {
				return nil
			}
			for id := range snap.Result.Errors {
				delete(sess.asked, id)
			}
			continue
		}

		if err := r.promptField(ctx, def, next, sess); err != nil {
			return err
		}
		sess.asked[next.ID] = true
	}
}

// nextField walks the visible fields in authored order, printing statics it
// has not shown yet, and returns the first answerable field that has not been
// asked this session.
func (r *Renderer) nextField(ctx context.Context, fields []formdef.Field, sess *session) (formdef.Field, bool, error) {
	for _, f := range fields {
		if f.Type.Static() {
			if !sess.shown[f.ID] {
				if err := r.showStatic(ctx, f); err != nil {
					return formdef.Field{}, false, err
				}
				sess.shown[f.ID] = true
			}
			continue
		}
		if f.Type == formdef.FieldTypeHidden {
			continue
		}
		if sess.asked[f.ID] {
			continue
		}
		return f, true, nil
	}
	return formdef.Field{}, false, nil
}

func (r *Renderer) showStatic(ctx context.Context, f formdef.Field) error {
	text := f.Content
	if text == "" {
		text = f.Label
	}
	switch f.Type {
	case formdef.FieldTypeHeading, formdef.FieldTypeParagraph:
		if text == "" {
			return nil
		}
		return r.info(ctx, text)
	case formdef.FieldTypeDivider:
		return r.info(ctx, strings.Repeat("-", 40))
	case formdef.FieldTypeSpacer:
		return r.info(ctx, "")
	case formdef.FieldTypeHTML:
		plain := htmlToText(f.Content)
		if plain == "" {
			return nil
		}
		return r.info(ctx, plain)
	}
	return nil
}

func (r *Renderer) promptField(ctx context.Context, def *formdef.Definition, field formdef.Field, sess *session) error {
	if msg := sess.takeServerError(field.ID); msg != "" {
		if err := r.fail(ctx, msg); err != nil {
			return err
		}
	}

	switch field.Type {
	case formdef.FieldTypeConsent:
		return r.promptConsent(ctx, def, field, sess)
	case formdef.FieldTypeCheckbox:
		return r.promptCheckboxGroup(ctx, def, field, sess)
	case formdef.FieldTypeSelect, formdef.FieldTypeRadio:
		return r.promptChoice(ctx, def, field, sess)
	case formdef.FieldTypeRating:
		return r.promptRating(ctx, def, field, sess)
	case formdef.FieldTypeNumber:
		return r.promptNumber(ctx, def, field, sess)
	case formdef.FieldTypeFile:
		return r.promptFile(ctx, def, field, sess)
	case formdef.FieldTypeTextarea:
		return r.promptTextArea(ctx, def, field, sess)
	default:
		return r.promptText(ctx, def, field, sess)
	}
}

// probe validates a candidate answer without committing it: the session
// values are cloned, the candidate applied, and the visible-set validator
// run. An empty result means the candidate would be accepted.
func (r *Renderer) probe(def *formdef.Definition, sess *session, id string, value any) string {
	candidate := sess.values.Clone()
	if candidate == nil {
		candidate = formdef.AnswerMap{}
	}
	candidate[id] = value
	result := flow.ValidateVisible(def.Fields, candidate, r.flowOpts...)
	msg, _ := result.ErrorFor(id)
	return msg
}

func (r *Renderer) promptText(ctx context.Context, def *formdef.Definition, field formdef.Field, sess *session) error {
	cfg := InputConfig{
		Message: field.DisplayLabel(),
		Default: sess.values.String(field.ID),
		Help:    promptHelp(field),
		Validate: func(input string) error {
			if msg := r.probe(def, sess, field.ID, input); msg != "" {
				return errors.New(msg)
			}
			return nil
		},
	}

	for {
		input, err := r.driver.Input(ctx, cfg)
		if err != nil {
			return err
		}
		if msg := r.probe(def, sess, field.ID, input); msg != "" {
			if err := r.fail(ctx, msg); err != nil {
				return err
			}
			continue
		}
		sess.set(field.ID, input)
		return nil
	}
}

func (r *Renderer) promptTextArea(ctx context.Context, def *formdef.Definition, field formdef.Field, sess *session) error {
	cfg := TextAreaConfig{
		Message: field.DisplayLabel(),
		Default: sess.values.String(field.ID),
		Help:    promptHelp(field),
	}

	for {
		input, err := r.driver.TextArea(ctx, cfg)
		if err != nil {
			return err
		}
		if msg := r.probe(def, sess, field.ID, input); msg != "" {
			if err := r.fail(ctx, msg); err != nil {
				return err
			}
			continue
		}
		sess.set(field.ID, input)
		return nil
	}
}

func (r *Renderer) promptNumber(ctx context.Context, def *formdef.Definition, field formdef.Field, sess *session) error {
	defaultStr := ""
	if v, ok := sess.values.Number(field.ID); ok {
		defaultStr = strconv.FormatFloat(v, 'f', -1, 64)
	}

	for {
		input, err := r.driver.Input(ctx, InputConfig{
			Message: field.DisplayLabel(),
			Default: defaultStr,
			Help:    promptHelp(field),
		})
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			if field.Required {
				if err := r.fail(ctx, field.DisplayLabel()+" is required"); err != nil {
					return err
				}
				continue
			}
			sess.clear(field.ID)
			return nil
		}

		// The validator coerces numeric strings itself, so probing with the
		// raw input produces the same message an HTML form would show.
		if msg := r.probe(def, sess, field.ID, trimmed); msg != "" {
			if err := r.fail(ctx, msg); err != nil {
				return err
			}
			continue
		}

		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			if ferr := r.fail(ctx, field.DisplayLabel()+" must be a number"); ferr != nil {
				return ferr
			}
			continue
		}
		sess.set(field.ID, parsed)
		return nil
	}
}

const skipChoice = "(skip)"

func (r *Renderer) promptChoice(ctx context.Context, def *formdef.Definition, field formdef.Field, sess *session) error {
	if len(field.Options) == 0 {
		return r.promptText(ctx, def, field, sess)
	}

	options := append([]string(nil), field.Options...)
	if !field.Required {
		options = append(options, skipChoice)
	}
	defaultIdx := indexOf(options, sess.values.String(field.ID))

	for {
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      field.DisplayLabel(),
			Options:      options,
			DefaultIndex: defaultIdx,
			Help:         promptHelp(field),
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(options) {
			if err := r.fail(ctx, "Please pick one of the listed options"); err != nil {
				return err
			}
			continue
		}
		selected := options[idx]
		if selected == skipChoice && !field.Required {
			sess.clear(field.ID)
			return nil
		}
		if msg := r.probe(def, sess, field.ID, selected); msg != "" {
			if err := r.fail(ctx, msg); err != nil {
				return err
			}
			continue
		}
		sess.set(field.ID, selected)
		return nil
	}
}

func (r *Renderer) promptCheckboxGroup(ctx context.Context, def *formdef.Definition, field formdef.Field, sess *session) error {
	defaults := indicesOf(field.Options, sess.values.Strings(field.ID))

	for {
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  field.DisplayLabel(),
			Options:  field.Options,
			Defaults: defaults,
			Help:     promptHelp(field),
		})
		if err != nil {
			return err
		}
		selected := optionsAt(field.Options, indices)
		if msg := r.probe(def, sess, field.ID, selected); msg != "" {
			if err := r.fail(ctx, msg); err != nil {
				return err
			}
			continue
		}
		sess.set(field.ID, selected)
		return nil
	}
}

func (r *Renderer) promptRating(ctx context.Context, def *formdef.Definition, field formdef.Field, sess *session) error {
	max := 5
	if field.Validation != nil && field.Validation.Max != nil && *field.Validation.Max >= 1 {
		max = int(*field.Validation.Max)
	}
	options := make([]string, max)
	for i := range options {
		options[i] = strconv.Itoa(i + 1)
	}

	defaultIdx := -1
	if v, ok := sess.values.Number(field.ID); ok {
		idx := int(v) - 1
		if idx >= 0 && idx < len(options) {
			defaultIdx = idx
		}
	}

	for {
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      field.DisplayLabel(),
			Options:      options,
			DefaultIndex: defaultIdx,
			Help:         promptHelp(field),
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(options) {
			if err := r.fail(ctx, "Please pick one of the listed options"); err != nil {
				return err
			}
			continue
		}
		score := float64(idx + 1)
		if msg := r.probe(def, sess, field.ID, score); msg != "" {
			if err := r.fail(ctx, msg); err != nil {
				return err
			}
			continue
		}
		sess.set(field.ID, score)
		return nil
	}
}

func (r *Renderer) promptConsent(ctx context.Context, def *formdef.Definition, field formdef.Field, sess *session) error {
	cfg := ConfirmConfig{
		Message: field.DisplayLabel(),
		Default: sess.values.Bool(field.ID),
		Help:    promptHelp(field),
	}

	for {
		agreed, err := r.driver.Confirm(ctx, cfg)
		if err != nil {
			return err
		}
		if msg := r.probe(def, sess, field.ID, agreed); msg != "" {
			if err := r.fail(ctx, msg); err != nil {
				return err
			}
			continue
		}
		sess.set(field.ID, agreed)
		return nil
	}
}

// promptFile asks for a local path and turns it into the structured file
// answer the validator understands. The file itself is not read; submission
// uploads happen elsewhere.
func (r *Renderer) promptFile(ctx context.Context, def *formdef.Definition, field formdef.Field, sess *session) error {
	for {
		input, err := r.driver.Input(ctx, InputConfig{
			Message: field.DisplayLabel() + " (path to file)",
			Help:    promptHelp(field),
		})
		if err != nil {
			return err
		}

		path := strings.TrimSpace(input)
		if path == "" {
			if field.Required {
				if err := r.fail(ctx, field.DisplayLabel()+" is required"); err != nil {
					return err
				}
				continue
			}
			sess.clear(field.ID)
			return nil
		}

		stat, err := os.Stat(path)
		if err != nil {
			if ferr := r.fail(ctx, fmt.Sprintf("Cannot read file: %v", err)); ferr != nil {
				return ferr
			}
			continue
		}
		if stat.IsDir() {
			if ferr := r.fail(ctx, fmt.Sprintf("%s is a directory, not a file", path)); ferr != nil {
				return ferr
			}
			continue
		}

		value := formdef.FileValue{
			Name: filepath.Base(path),
			Size: stat.Size(),
			Type: mime.TypeByExtension(filepath.Ext(path)),
		}
		if msg := r.probe(def, sess, field.ID, value); msg != "" {
			if err := r.fail(ctx, msg); err != nil {
				return err
			}
			continue
		}
		sess.set(field.ID, value)
		return nil
	}
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Renderer) fail(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
}

func promptHelp(field formdef.Field) string {
	if field.Description != "" {
		return field.Description
	}
	return field.Placeholder
}

func (r *Renderer) serialize(values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(encodeForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.Marshal(values)
	}
}

func encodeForm(values map[string]any) string {
	encoded := url.Values{}
	for id, value := range values {
		switch v := value.(type) {
		case []string:
			for _, item := range v {
				encoded.Add(id, item)
			}
		case []any:
			for _, item := range v {
				encoded.Add(id, fmt.Sprint(item))
			}
		default:
			encoded.Set(id, displayValue(value))
		}
	}
	return encoded.Encode()
}

func prettyPrint(values map[string]any) string {
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "%s = %s\n", id, displayValue(values[id]))
	}
	return b.String()
}

func displayValue(value any) string {
	switch v := value.(type) {
	case formdef.FileValue:
		return fmt.Sprintf("%s (%d bytes)", v.Name, v.Size)
	case *formdef.FileValue:
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%s (%d bytes)", v.Name, v.Size)
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
