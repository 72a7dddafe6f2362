package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/johnquangdev/meeting-sync/pkg/config"
	"github.com/johnquangdev/meeting-sync/pkg/retry"
)

const (
	geminiMaxAttempts = 3
	geminiRetryStep   = 500 * time.Millisecond
)

// GeminiClient is a minimal client for the Gemini generateContent API
type GeminiClient struct {
	apiKey    string
	baseURL   string
	model     string
	client    *http.Client
	retryStep time.Duration
}

// NewGeminiClient creates a Gemini client from the provided config.
// The API key is project-global and passed separately.
func NewGeminiClient(cfg *config.GeminiConfig, apiKey string) *GeminiClient {
	base := "https://generativelanguage.googleapis.com/v1beta"
	model := "gemini-2.0-flash"
	timeout := 20 * time.Second
	if cfg != nil {
		if cfg.BaseURL != "" {
			base = cfg.BaseURL
		}
		if cfg.Model != "" {
			model = cfg.Model
		}
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
	}

	return &GeminiClient{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(base, "/"),
		model:     model,
		client:    &http.Client{Timeout: timeout},
		retryStep: geminiRetryStep,
	}
}

// WithRetryStep overrides the linear backoff step
func (g *GeminiClient) WithRetryStep(step time.Duration) *GeminiClient {
	g.retryStep = step
	return g
}

// Configured reports whether an API key is present
func (g *GeminiClient) Configured() bool {
	return g != nil && strings.TrimSpace(g.apiKey) != ""
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// GenerateRequest is the shape for generateContent requests
type GenerateRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature      float64 `json:"temperature"`
		ResponseMimeType string  `json:"responseMimeType"`
	} `json:"generationConfig"`
}

// GenerateResponse is a minimal response shape
type GenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateJSON sends the prompt and returns the concatenated text of the first candidate
func (g *GeminiClient) GenerateJSON(ctx context.Context, systemInstruction, prompt string) (string, error) {
	reqBody := GenerateRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	if systemInstruction != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}}
	}
	reqBody.GenerationConfig.Temperature = 0.1
	reqBody.GenerationConfig.ResponseMimeType = "application/json"

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))

	var gr GenerateResponse
	err = retry.Do(ctx, geminiMaxAttempts, g.retryStep, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 300 {
			return &retry.StatusError{Service: "Gemini", Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}

		gr = GenerateResponse{}
		if err := json.Unmarshal(body, &gr); err != nil {
			return fmt.Errorf("failed to decode Gemini response: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("Gemini API response missing candidates")
	}
	chunks := make([]string, 0, len(gr.Candidates[0].Content.Parts))
	for _, p := range gr.Candidates[0].Content.Parts {
		if text := strings.TrimSpace(p.Text); text != "" {
			chunks = append(chunks, text)
		}
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("Gemini API response did not include text output")
	}
	return strings.Join(chunks, "\n"), nil
}

// ExtractJSONObject returns raw when it parses as JSON, otherwise the span
// between the first "{" and the last "}".
func ExtractJSONObject(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if json.Valid([]byte(raw)) {
		return raw, true
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	candidate := raw[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", false
	}
	return candidate, true
}
