package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// OllamaProvider talks to a local Ollama server (default Mistral). Useful for
// running the benchmark offline without burning API quota.
type OllamaProvider struct {
	Host  string // defaults to http://localhost:11434
	Model string // defaults to "mistral"
}

var _ Provider = (*OllamaProvider)(nil)

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (p *OllamaProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	host := p.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = "http://localhost:11434"
	}

	model := p.Model
	if model == "" {
		model = "mistral"
	}
	if val, ok := options["model"].(string); ok && val != "" {
		model = val
	}

	reqBody := ollamaRequest{
		Model:  model,
		Prompt: prompt,
		System: systemPrompt,
		Stream: false,
	}

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("OLLAMA_MARSHAL_ERROR: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", host+"/api/generate", bytes.NewBuffer(jsonBytes))
	if err != nil {
		return "", fmt.Errorf("OLLAMA_REQ_CREATE_ERROR: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// A hung local model should stall one step, not the whole run.
	client := &http.Client{Timeout: 120 * time.Second}
	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("OLLAMA_API_CALL_ERROR: %v", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("OLLAMA_READ_BODY_ERROR: %v", err)
	}

	if res.StatusCode != 200 {
		return "", fmt.Errorf("OLLAMA_API_ERROR: status=%d body=%s", res.StatusCode, string(body))
	}

	var response ollamaResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("OLLAMA_UNMARSHAL_ERROR: %v", err)
	}

	if response.Response == "" {
		return "", fmt.Errorf("OLLAMA_EMPTY_RESPONSE: %s", string(body))
	}
	return response.Response, nil
}

func (p *OllamaProvider) AdaptInstructions(raw string) string {
	return raw
}
