package submit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-formflow/pkg/formdef"
)

func signupDefinition() *formdef.Definition {
	return &formdef.Definition{
		ID: "signup",
		Fields: []formdef.Field{
			{ID: "name", Type: formdef.FieldTypeText, Label: "Name", Required: true},
			{ID: "plan", Type: formdef.FieldTypeSelect, Label: "Plan", Required: true, Options: []string{"free", "pro"}},
			{
				ID: "company", Type: formdef.FieldTypeText, Label: "Company",
				Visibility: &formdef.Condition{Kind: formdef.ConditionEquals, Field: "plan", Value: "pro"},
			},
		},
	}
}

func TestSubmitPostsFilteredAnswers(t *testing.T) {
	var captured struct {
		FormID   string         `json:"formId"`
		Answers  map[string]any `json:"answers"`
		Metadata map[string]any `json:"metadata"`
	}
	hits := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "redirectUrl": "/thanks"}`))
	}))
	defer server.Close()

	client := New(WithEndpoint(server.URL))
	resp, err := client.Submit(context.Background(), Request{
		Definition: signupDefinition(),
		Answers: formdef.AnswerMap{
			"name":    "Ada",
			"plan":    "free",
			"company": "Stale Inc", // hidden while plan != pro
			"ghost":   "dropped",
		},
		Metadata: map[string]any{"sessionId": "s-1"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if hits != 1 {
		t.Fatalf("server hits = %d, want 1", hits)
	}
	if !resp.Success || resp.RedirectURL != "/thanks" || resp.Status != http.StatusOK {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if captured.FormID != "signup" {
		t.Fatalf("formId = %q", captured.FormID)
	}
	if captured.Answers["name"] != "Ada" || captured.Answers["plan"] != "free" {
		t.Fatalf("answers = %#v", captured.Answers)
	}
	if _, ok := captured.Answers["company"]; ok {
		t.Fatalf("hidden answer leaked: %#v", captured.Answers)
	}
	if _, ok := captured.Answers["ghost"]; ok {
		t.Fatalf("unknown answer leaked: %#v", captured.Answers)
	}
	if captured.Metadata["sessionId"] != "s-1" {
		t.Fatalf("caller metadata lost: %#v", captured.Metadata)
	}
	if captured.Metadata["submittedAt"] == nil || captured.Metadata["submissionId"] == nil {
		t.Fatalf("metadata not stamped: %#v", captured.Metadata)
	}
}

func TestSubmitBlockedBeforeNetwork(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	client := New(WithEndpoint(server.URL))
	_, err := client.Submit(context.Background(), Request{
		Definition: signupDefinition(),
		Answers:    formdef.AnswerMap{"plan": "free"},
	})

	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError, got %v", err)
	}
	if msg := blocked.Result.Errors["name"]; msg != "Name is required" {
		t.Fatalf("unexpected result: %#v", blocked.Result)
	}
	if hits != 0 {
		t.Fatalf("validation failure must not reach the network, hits = %d", hits)
	}
}

func TestSubmitMapsRejectionPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"success": false, "errors": {"name": ["That name is taken"], "non_field_errors": "Try again later"}}`))
	}))
	defer server.Close()

	client := New(WithEndpoint(server.URL))
	resp, err := client.Submit(context.Background(), Request{
		Definition: signupDefinition(),
		Answers:    formdef.AnswerMap{"name": "Ada", "plan": "free"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if resp.Success || resp.Status != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.FieldErrors["name"] != "That name is taken" {
		t.Fatalf("field errors = %#v", resp.FieldErrors)
	}
	if len(resp.FormErrors) != 1 || resp.FormErrors[0] != "Try again later" {
		t.Fatalf("form errors = %#v", resp.FormErrors)
	}
}

func TestSubmitEmptySuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(WithEndpoint(server.URL))
	resp, err := client.Submit(context.Background(), Request{
		Definition: signupDefinition(),
		Answers:    formdef.AnswerMap{"name": "Ada", "plan": "free"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !resp.Success || resp.Status != http.StatusNoContent {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSubmitRequiresEndpoint(t *testing.T) {
	client := New()
	_, err := client.Submit(context.Background(), Request{
		Definition: signupDefinition(),
		Answers:    formdef.AnswerMap{"name": "Ada", "plan": "free"},
	})
	if err == nil || !strings.Contains(err.Error(), "endpoint") {
		t.Fatalf("expected endpoint error, got %v", err)
	}
}

func TestSubmitTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := New(WithEndpoint(server.URL))
	_, err := client.Submit(context.Background(), Request{
		Definition: signupDefinition(),
		Answers:    formdef.AnswerMap{"name": "Ada", "plan": "free"},
	})
	if err == nil || !strings.Contains(err.Error(), "submit: post") {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestSubmitPerRequestEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	client := New(WithEndpoint("http://127.0.0.1:1/unreachable"))
	resp, err := client.Submit(context.Background(), Request{
		Definition: signupDefinition(),
		Answers:    formdef.AnswerMap{"name": "Ada", "plan": "free"},
		Endpoint:   server.URL,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !resp.Success {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
