package insight

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompleteSuccess(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"All clear."}}]}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "kimi-k2-instruct"})
	out, err := c.Complete(context.Background(), "summarize")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "All clear." {
		t.Fatalf("out = %q", out)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotReq.Model != "kimi-k2-instruct" || len(gotReq.Messages) != 1 || gotReq.Messages[0].Content != "summarize" {
		t.Fatalf("request = %+v", gotReq)
	}
}

func TestCompleteNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	_, err := c.Complete(context.Background(), "p")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusTooManyRequests {
		t.Fatalf("status = %d", apiErr.Status)
	}
	if want := "API Error: 429 - rate limited"; apiErr.Error() != want {
		t.Fatalf("error = %q, want %q", apiErr.Error(), want)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	out, err := c.Complete(context.Background(), "p")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "No response generated" {
		t.Fatalf("out = %q", out)
	}
}

func TestCompleteMissingKey(t *testing.T) {
	c := New(Config{BaseURL: "http://localhost:1", Model: "m"})
	if c.Ready() {
		t.Fatal("client without key must not be ready")
	}
	if _, err := c.Complete(context.Background(), "p"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestBaseURLTrailingSlash(t *testing.T) {
	c := New(Config{APIKey: "k", BaseURL: "https://api.example.com/v1/", Model: "m"})
	if strings.HasSuffix(c.baseURL, "/") {
		t.Fatalf("baseURL = %q, trailing slash not trimmed", c.baseURL)
	}
}
