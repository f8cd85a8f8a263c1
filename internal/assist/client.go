// Package assist forwards code questions to a hosted language model.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrNotConfigured = errors.New("assistant is not configured")
	ErrEmptyPrompt   = errors.New("prompt is required")
	ErrNoCandidates  = errors.New("assistant returned no answer")
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel    = "gemini-1.5-flash"
	DefaultTimeout  = 30 * time.Second
)

// Client answers a prompt about a piece of code.
type Client interface {
	Ask(ctx context.Context, prompt, code string) (string, error)
}

type Config struct {
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ProviderError is a non-200 reply from the provider.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("assist: HTTP %d: %s", e.StatusCode, e.Message)
}

// GeminiClient calls the generateContent REST method.
type GeminiClient struct {
	cfg  Config
	http *http.Client
}

func NewGeminiClient(cfg Config) *GeminiClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &GeminiClient{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func buildPrompt(prompt, code string) string {
	var b strings.Builder
	b.WriteString("You are a pair programmer helping with the code below.\n\n")
	b.WriteString("Code:\n```\n")
	b.WriteString(code)
	b.WriteString("\n```\n\nQuestion: ")
	b.WriteString(prompt)
	return b.String()
}

func (g *GeminiClient) Ask(ctx context.Context, prompt, code string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: buildPrompt(prompt, code)}}}},
	})
	if err != nil {
		return "", fmt.Errorf("assist: marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(g.cfg.Endpoint, "/"), g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("assist: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("assist: sending request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("assist: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var env errorEnvelope
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &env) == nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: msg}
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("assist: decoding response: %w", err)
	}
	for _, c := range out.Candidates {
		var text strings.Builder
		for _, p := range c.Content.Parts {
			text.WriteString(p.Text)
		}
		if text.Len() > 0 {
			return text.String(), nil
		}
	}
	return "", ErrNoCandidates
}
