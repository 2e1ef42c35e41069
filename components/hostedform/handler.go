package hostedform

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-formflow/internal/store"
	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/formdef"
	"github.com/goliatone/go-formflow/pkg/render"
)

const maxBodyBytes = 1 << 20

type stateRequest struct {
	Answers formdef.AnswerMap `json:"answers"`
}

type stateResponse struct {
	Fields  []formdef.Field   `json:"fields"`
	Cursor  int               `json:"cursor"`
	IsValid bool              `json:"isValid"`
	Errors  map[string]string `json:"errors"`
}

type submissionRequest struct {
	Answers  formdef.AnswerMap `json:"answers"`
	Metadata map[string]any    `json:"metadata"`
}

type submissionResponse struct {
	Success      bool              `json:"success"`
	RedirectURL  string            `json:"redirectUrl,omitempty"`
	SubmissionID string            `json:"submissionId,omitempty"`
	Errors       map[string]string `json:"errors,omitempty"`
}

// Handler builds a net/http handler with default options plus any
// overrides. It is an alias of NewHandler to match the component API
// surface.
func Handler(fns ...OptionFn) http.Handler {
	return NewHandler(fns...)
}

func NewHandler(fns ...OptionFn) http.Handler {
	opts := NewOptions(fns...)
	return HandlerWithOptions(opts)
}

// HandlerWithOptions builds a net/http handler from a pre-constructed
// Options value. The handler assumes it is mounted at
// MountPath(opts.BasePath).
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return &handler{opts: opts, prefix: MountPath(opts.BasePath)}
}

type handler struct {
	opts   Options
	prefix string
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r == nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, h.prefix)
	if !ok || rest == "" {
		writeError(w, http.StatusNotFound, "form not found")
		return
	}

	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	switch {
	case len(parts) == 1:
		h.serveForm(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "state":
		h.serveState(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "submissions":
		h.serveSubmission(w, r, parts[0])
	default:
		writeError(w, http.StatusNotFound, "form not found")
	}
}

// serveForm renders the full form page for an empty answer state.
func (h *handler) serveForm(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeMethodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	def, ok := h.loadDefinition(w, r, id)
	if !ok {
		return
	}

	renderer, err := h.opts.Renderers.Get(h.opts.Renderer)
	if err != nil {
		h.fail(w, r, fmt.Errorf("renderer: %w", err))
		return
	}

	view := render.NewView(def, formdef.AnswerMap{}, h.opts.FlowOptions...)
	out, err := renderer.Render(r.Context(), view, render.RenderOptions{
		Action: h.prefix + id + "/submissions",
		Method: http.MethodPost,
	})
	if err != nil {
		h.fail(w, r, fmt.Errorf("render %s: %w", id, err))
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(out)
}

// serveState re-resolves visibility and validity for posted answers so
// clients can re-render between keystrokes.
func (h *handler) serveState(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	def, ok := h.loadDefinition(w, r, id)
	if !ok {
		return
	}

	var req stateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	snap := flow.Resolve(def, req.Answers, h.opts.FlowOptions...)
	resp := stateResponse{
		Fields:  snap.Fields,
		Cursor:  snap.Cursor,
		IsValid: snap.Result.Valid,
		Errors:  snap.Result.Errors,
	}
	if resp.Fields == nil {
		resp.Fields = []formdef.Field{}
	}
	if resp.Errors == nil {
		resp.Errors = map[string]string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// serveSubmission validates the visible subset and persists the
// filtered answers when they pass.
func (h *handler) serveSubmission(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	def, ok := h.loadDefinition(w, r, id)
	if !ok {
		return
	}

	var req submissionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result := flow.ValidateVisible(def.Fields, req.Answers, h.opts.FlowOptions...)
	if !result.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, submissionResponse{
			Success: false,
			Errors:  result.Errors,
		})
		return
	}

	filtered := flow.FilterAnswers(def.Fields, req.Answers, h.opts.FlowOptions...)
	saved, err := h.opts.Store.SaveSubmission(r.Context(), store.Submission{
		FormID:   def.ID,
		Answers:  filtered,
		Metadata: req.Metadata,
	})
	if err != nil {
		h.fail(w, r, fmt.Errorf("save submission for %s: %w", id, err))
		return
	}

	writeJSON(w, http.StatusCreated, submissionResponse{
		Success:      true,
		RedirectURL:  def.RedirectURL,
		SubmissionID: saved.ID,
	})
}

func (h *handler) loadDefinition(w http.ResponseWriter, r *http.Request, id string) (*formdef.Definition, bool) {
	if h.opts.Store == nil {
		h.fail(w, r, errors.New("store is not configured"))
		return nil, false
	}
	def, err := h.opts.Store.GetDefinition(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "form not found")
		return nil, false
	}
	if err != nil {
		h.fail(w, r, fmt.Errorf("load %s: %w", id, err))
		return nil, false
	}
	return def, true
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if h.opts.Logger != nil {
		h.opts.Logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
