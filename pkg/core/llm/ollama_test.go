package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaGenerateResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Stream {
			t.Error("streaming must be disabled")
		}
		if req.Model != "mistral" {
			t.Errorf("expected default model mistral, got %q", req.Model)
		}
		if req.System != "sys" {
			t.Errorf("system prompt not forwarded: %q", req.System)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: "COMPLETE", Done: true})
	}))
	defer srv.Close()

	p := &OllamaProvider{Host: srv.URL}
	got, err := p.GenerateResponse(context.Background(), "prompt", "sys", map[string]interface{}{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "COMPLETE" {
		t.Errorf("unexpected response: %q", got)
	}
}

func TestOllamaModelOptionOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "llama3" {
			t.Errorf("expected model override llama3, got %q", req.Model)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: "ok", Done: true})
	}))
	defer srv.Close()

	p := &OllamaProvider{Host: srv.URL, Model: "mistral"}
	if _, err := p.GenerateResponse(context.Background(), "p", "", map[string]interface{}{"model": "llama3"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOllamaEmptyResponseIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaResponse{Done: true})
	}))
	defer srv.Close()

	p := &OllamaProvider{Host: srv.URL}
	_, err := p.GenerateResponse(context.Background(), "p", "", nil)
	if err == nil || !strings.Contains(err.Error(), "OLLAMA_EMPTY_RESPONSE") {
		t.Errorf("expected OLLAMA_EMPTY_RESPONSE, got %v", err)
	}
}

func TestOllamaHTTPErrorSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := &OllamaProvider{Host: srv.URL}
	_, err := p.GenerateResponse(context.Background(), "p", "", nil)
	if err == nil || !strings.Contains(err.Error(), "OLLAMA_API_ERROR") {
		t.Fatalf("expected OLLAMA_API_ERROR, got %v", err)
	}
	if !strings.Contains(err.Error(), "model not loaded") {
		t.Errorf("error should carry the server body: %v", err)
	}
}
