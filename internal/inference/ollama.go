package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llava:latest"
)

// Ollama talks to a local Ollama server through /api/generate.
type Ollama struct {
	URL    string
	Model  string
	Client *http.Client
}

func NewOllama(url, model string, timeout time.Duration) *Ollama {
	if url == "" {
		url = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Ollama{URL: url, Model: model, Client: &http.Client{Timeout: timeout}}
}

func (o *Ollama) Name() string { return "ollama:" + o.Model }

func (o *Ollama) Infer(ctx context.Context, prompt string, image []byte) (string, error) {
	reqBody := map[string]any{
		"model":  o.Model,
		"prompt": prompt,
		"format": "json",
		"stream": false,
		"options": map[string]any{
			"temperature": 0.2,
			"num_ctx":     4096,
		},
	}
	if len(image) > 0 {
		reqBody["images"] = []string{base64.StdEncoding.EncodeToString(image)}
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", NewPermanentError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.URL+"/api/generate", bytes.NewReader(b))
	if err != nil {
		return "", NewPermanentError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var raw struct {
		Response string `json:"response"`
		Error    string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if raw.Error != "" {
		return "", fmt.Errorf("ollama: %s", raw.Error)
	}
	return raw.Response, nil
}

// Ping reports whether the server answers at all.
func (o *Ollama) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.URL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}
