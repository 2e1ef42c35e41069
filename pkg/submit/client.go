// Package submit posts validated form answers to a submission endpoint.
// Validation runs before the wire: invalid answers never leave the process,
// and only answers for currently visible fields are transmitted.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/formdef"
	"github.com/goliatone/go-formflow/pkg/render"
)

const (
	metadataSubmittedAt  = "submittedAt"
	metadataSubmissionID = "submissionId"
)

// Client submits answers over HTTP. The zero value is not usable; construct
// with New.
type Client struct {
	httpClient *http.Client
	endpoint   string
	timeout    time.Duration
	flowOpts   []flow.Option
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport. Nil values are ignored.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithEndpoint sets the default submission URL used when a request does not
// name its own.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithTimeout bounds each submission round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithFlowOptions forwards engine options to the pre-flight validation and
// answer filtering.
func WithFlowOptions(opts ...flow.Option) Option {
	return func(c *Client) {
		c.flowOpts = append(c.flowOpts, opts...)
	}
}

// New constructs a Client with a default http.Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Request describes one submission.
type Request struct {
	Definition *formdef.Definition
	Answers    formdef.AnswerMap
	// Metadata travels alongside the answers (page URL, session id, ...).
	// The client fills submittedAt and submissionId when absent.
	Metadata map[string]any
	// Endpoint overrides the client default for this request.
	Endpoint string
}

// Response is the decoded submission outcome. A server rejection with a
// structured error payload is reported here, not as a Go error: Success is
// false and FieldErrors carries the messages mapped onto field ids.
type Response struct {
	Success     bool
	RedirectURL string
	Status      int
	FieldErrors map[string]string
	FormErrors  []string
}

type wirePayload struct {
	FormID   string         `json:"formId"`
	Answers  map[string]any `json:"answers"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type wireResult struct {
	Success     bool            `json:"success"`
	RedirectURL string          `json:"redirectUrl"`
	Errors      json.RawMessage `json:"errors"`
}

// Submit validates, filters, and posts the answers. Invalid answers return a
// *BlockedError without touching the network. Transport failures return
// ordinary errors; structured server rejections return a Response with
// Success=false.
func (c *Client) Submit(ctx context.Context, req Request) (*Response, error) {
	if req.Definition == nil {
		return nil, errors.New("submit: definition is required")
	}
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = c.endpoint
	}
	if endpoint == "" {
		return nil, errors.New("submit: endpoint is not configured")
	}

	result := flow.ValidateVisible(req.Definition.Fields, req.Answers, c.flowOpts...)
	if !result.Valid {
		return nil, &BlockedError{Result: result}
	}

	payload := wirePayload{
		FormID:   req.Definition.ID,
		Answers:  flow.FilterAnswers(req.Definition.Fields, req.Answers, c.flowOpts...),
		Metadata: stampMetadata(req.Metadata),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("submit: encode payload: %w", err)
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if c.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("submit: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submit: post: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("submit: read response: %w", err)
	}

	return c.decodeResponse(req, resp.StatusCode, raw)
}

func (c *Client) decodeResponse(req Request, status int, raw []byte) (*Response, error) {
	out := &Response{Status: status}

	var decoded wireResult
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			if status >= 200 && status < 300 {
				return nil, fmt.Errorf("submit: decode response: %w", err)
			}
			// A rejection with an unreadable body still reports as a
			// rejection; the status alone carries the outcome.
			return out, nil
		}
	}

	if status >= 200 && status < 300 {
		out.Success = decoded.Success || len(raw) == 0
		out.RedirectURL = decoded.RedirectURL
		return out, nil
	}

	if payload := errorPayload(decoded.Errors); len(payload) > 0 {
		view := render.NewView(req.Definition, req.Answers, c.flowOpts...)
		mapping := render.MapErrorPayload(view, payload)
		out.FieldErrors = mapping.Fields
		out.FormErrors = mapping.Form
	}
	return out, nil
}

// errorPayload normalizes {"errors": {...}} values: each entry may be a
// string or a list of strings.
func errorPayload(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	var loose map[string]any
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil
	}
	payload := make(map[string][]string, len(loose))
	for key, value := range loose {
		switch v := value.(type) {
		case string:
			payload[key] = []string{v}
		case []any:
			var messages []string
			for _, item := range v {
				if s, ok := item.(string); ok {
					messages = append(messages, s)
				}
			}
			if len(messages) > 0 {
				payload[key] = messages
			}
		}
	}
	if len(payload) == 0 {
		return nil
	}
	return payload
}

func stampMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		out[k] = v
	}
	if _, ok := out[metadataSubmittedAt]; !ok {
		out[metadataSubmittedAt] = time.Now().UTC().Format(time.RFC3339)
	}
	if _, ok := out[metadataSubmissionID]; !ok {
		out[metadataSubmissionID] = uuid.NewString()
	}
	return out
}
