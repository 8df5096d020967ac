// Package llm generates narrative text from prompts with model fallback
// across two Gemini access paths.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Provider names accepted in model candidate lists.
const (
	ProviderVertex = "vertex"
	ProviderGemini = "gemini"
)

// Provider executes a single generation call against one model.
type Provider interface {
	Name() string
	HasCredentials() bool
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// geminiContent mirrors the generateContent request/response shape shared by
// both the managed platform and the direct API.
type geminiContent struct {
	Role  string `json:"role,omitempty"`
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func buildGenerateBody(prompt string) ([]byte, error) {
	req := generateRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []struct {
				Text string `json:"text"`
			}{{Text: prompt}},
		}},
	}
	return json.Marshal(req)
}

func decodeGenerateResponse(status int, body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if status != http.StatusOK {
			return "", fmt.Errorf("status %d", status)
		}
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("%s (status %s)", resp.Error.Message, resp.Error.Status)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("status %d", status)
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			b.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}

// VertexProvider calls Gemini models through a managed platform endpoint
// using a bearer access token.
type VertexProvider struct {
	httpClient  *http.Client
	endpoint    string
	accessToken string
}

// NewVertexProvider creates the managed-platform provider. Endpoint is the
// base URL up to the publisher models path; model and verb are appended per
// call.
func NewVertexProvider(endpoint, accessToken string, timeout time.Duration) *VertexProvider {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &VertexProvider{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    strings.TrimRight(endpoint, "/"),
		accessToken: accessToken,
	}
}

func (p *VertexProvider) Name() string { return ProviderVertex }

func (p *VertexProvider) HasCredentials() bool {
	return p.endpoint != "" && p.accessToken != ""
}

func (p *VertexProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	body, err := buildGenerateBody(prompt)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", p.endpoint, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	return decodeGenerateResponse(resp.StatusCode, respBody)
}

// GeminiProvider calls the direct generative-language API with an API key.
type GeminiProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewGeminiProvider creates the direct-API provider.
func NewGeminiProvider(apiKey string, timeout time.Duration) *GeminiProvider {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiProvider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://generativelanguage.googleapis.com/v1beta/models",
		apiKey:     apiKey,
	}
}

func (p *GeminiProvider) Name() string { return ProviderGemini }

func (p *GeminiProvider) HasCredentials() bool {
	return p.apiKey != ""
}

func (p *GeminiProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	body, err := buildGenerateBody(prompt)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", p.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	return decodeGenerateResponse(resp.StatusCode, respBody)
}
