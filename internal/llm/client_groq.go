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

	"go.uber.org/zap"

	"metaconscious/internal/config"
)

// GroqClient implements Client against any OpenAI-compatible
// chat-completions endpoint (Groq by default).
type GroqClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client

	maxAttempts int
	baseDelay   time.Duration

	logger *zap.Logger
}

var _ Client = (*GroqClient)(nil)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

// NewGroqClient builds a client from config. It fails fast when no API
// credential is present; a client without a key must never be constructed.
func NewGroqClient(cfg config.LLMConfig, logger *zap.Logger) (*GroqClient, error) {
	if cfg.APIKey == "" {
		return nil, &Error{Kind: KindNotConfigured, Attempts: 0,
			Err: fmt.Errorf("LLM_API_KEY not configured")}
	}

	// Provider-qualified model names pass through untouched.
	model := cfg.Model
	if !strings.Contains(model, "/") && cfg.Provider != "" {
		model = cfg.Provider + "/" + model
	}

	timeout := cfg.Timeout.Std()
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	logger.Info("llm client initialized",
		zap.String("provider", cfg.Provider),
		zap.String("model", model))

	return &GroqClient{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       model,
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		logger:      logger,
	}, nil
}

// chatRequest is the OpenAI-compatible request body.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the OpenAI-compatible response body.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Complete sends one chat completion with up to three attempts. Only
// failures tagged retryable get another attempt; backoff before attempt n
// is baseDelay * 2^(n-2) and suspends only the calling goroutine.
func (c *GroqClient) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	opts = opts.withDefaults()

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	if opts.JSONMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &Error{Kind: KindBadRequest, Attempts: 0,
			Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	var lastErr *Error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.baseDelay * (1 << (attempt - 2))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", &Error{Kind: KindTimeout, Attempts: attempt - 1, Err: ctx.Err()}
			}
		}

		c.logger.Debug("llm call attempt",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxAttempts),
			zap.String("model", c.model))

		content, callErr := c.doRequest(ctx, payload)
		if callErr == nil {
			c.logger.Debug("llm call successful",
				zap.Int("attempt", attempt),
				zap.Int("response_length", len(content)))
			return content, nil
		}

		lastErr = callErr
		c.logger.Warn("llm call failed",
			zap.Int("attempt", attempt),
			zap.String("kind", callErr.Kind.String()),
			zap.Error(callErr.Err))

		if !callErr.Kind.Retryable() {
			callErr.Attempts = attempt
			return "", callErr
		}
	}

	return "", &Error{
		Kind:     lastErr.Kind,
		Attempts: c.maxAttempts,
		Err:      fmt.Errorf("LLM API call failed after %d attempts: %w", c.maxAttempts, lastErr.Err),
	}
}

// doRequest performs one HTTP round trip and classifies any failure.
func (c *GroqClient) doRequest(ctx context.Context, payload []byte) (string, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Kind: KindBadRequest, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: classifyTransport(err), Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &Error{
			Kind: classifyStatus(resp.StatusCode, string(body)),
			Err:  fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &Error{Kind: KindBadResponse, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if parsed.Error != nil {
		return "", &Error{Kind: classifyText(parsed.Error.Message),
			Err: fmt.Errorf("API error: %s", parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return "", &Error{Kind: KindBadResponse, Err: fmt.Errorf("no completion returned")}
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// SetRetry overrides the retry schedule. Exposed for tests that should not
// wait out real backoff delays.
func (c *GroqClient) SetRetry(maxAttempts int, baseDelay time.Duration) {
	if maxAttempts > 0 {
		c.maxAttempts = maxAttempts
	}
	if baseDelay > 0 {
		c.baseDelay = baseDelay
	}
}
