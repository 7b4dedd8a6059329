package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

var (
	ErrMissingAPIKey   = errors.New("gemini api key is missing")
	ErrEmptyCandidates = errors.New("gemini returned no candidates")
)

// ProviderError is an error the generation endpoint reported itself, as
// opposed to a transport failure reaching it. Not retried here.
type ProviderError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("gemini provider error %d (%s): %s", e.StatusCode, e.Status, e.Message)
}

// IsTimeout reports whether err is a timeout talking to the endpoint, so
// callers can distinguish it from other transport failures.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type GeminiConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
	TopK        int
}

type GenerateResult struct {
	Text       string
	TokensUsed int
}

// GeminiClient is a stateless per-call client for the generateContent
// endpoint. Conversation context is always carried in the prompt; no
// provider-side chat handle is kept, so retries never depend on hidden
// server state. The client performs no retries itself.
type GeminiClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *GeminiClient) Model() string {
	return c.model
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends one synchronous request for the rendered prompt and returns
// the generated text or a typed failure.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*GenerateResult, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			MaxOutputTokens: opts.MaxTokens,
			Temperature:     opts.Temperature,
			TopP:            opts.TopP,
			TopK:            opts.TopK,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request failed: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build gemini request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gemini response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		var errResp geminiErrorResponse
		if err := json.Unmarshal(raw, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, &ProviderError{
				StatusCode: resp.StatusCode,
				Status:     errResp.Error.Status,
				Message:    errResp.Error.Message,
			}
		}
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(raw)),
		}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse gemini json failed: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyCandidates
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, ErrEmptyCandidates
	}

	return &GenerateResult{
		Text:       text.String(),
		TokensUsed: parsed.UsageMetadata.TotalTokenCount,
	}, nil
}
