// Package llm provides the upstream chat model client used in assistant mode.
// It speaks the OpenAI-compatible chat completions API and translates provider
// failures into the application error taxonomy.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/buildmart/buildmart-server/internal/circuitbreaker"
	"github.com/buildmart/buildmart-server/internal/config"
	"github.com/buildmart/buildmart-server/internal/domain"
	apperrors "github.com/buildmart/buildmart-server/internal/errors"
	"github.com/buildmart/buildmart-server/internal/knowledge"
)

// Client handles communication with the chat completions API.
type Client struct {
	apiKey         string
	model          string
	baseURL        string
	maxTokens      int
	temperature    float64
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	knowledge      *knowledge.Base
	logger         *zap.Logger
}

// New creates a new assistant client.
func New(cfg *config.AssistantConfig, kb *knowledge.Base, logger *zap.Logger) *Client {
	return &Client{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuitBreaker: circuitbreaker.New("assistant-api", nil, logger),
		knowledge:      kb,
		logger:         logger,
	}
}

// chatRequest represents a chat completions request.
type chatRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

// chatMessage represents one message in the completion request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse represents a chat completions response.
type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// chatError represents an error response from the provider.
type chatError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Reply sends the conversation transcript to the model and returns the
// assistant's reply text. The transcript is mapped to user/assistant roles and
// prefixed with the knowledge-base system prompt in the session's language.
func (c *Client) Reply(ctx context.Context, transcript []domain.Message, language string) (string, error) {
	var result string

	err := c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		var execErr error
		result, execErr = c.doReply(ctx, transcript, language)
		return execErr
	})
	if err != nil {
		return "", classify(ctx, err)
	}

	return result, nil
}

func (c *Client) doReply(ctx context.Context, transcript []domain.Message, language string) (string, error) {
	messages := make([]chatMessage, 0, len(transcript)+1)
	messages = append(messages, chatMessage{
		Role:    "system",
		Content: c.knowledge.SystemPrompt(language),
	})
	for _, m := range transcript {
		role := "user"
		if m.Sender == domain.SenderBot {
			role = "assistant"
		}
		messages = append(messages, chatMessage{Role: role, Content: m.Body})
	}

	reqBody := chatRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages:    messages,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp.StatusCode, body)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", apperrors.UpstreamError(resp.StatusCode, fmt.Errorf("failed to parse response: %w", err))
	}

	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", apperrors.ErrEmptyReply
	}

	c.logger.Debug("assistant reply generated",
		zap.Int("prompt_tokens", chatResp.Usage.PromptTokens),
		zap.Int("completion_tokens", chatResp.Usage.CompletionTokens),
	)

	return chatResp.Choices[0].Message.Content, nil
}

// statusError maps a non-200 provider status to the application taxonomy.
// Raw provider bodies are logged for diagnosis but never returned to callers.
func (c *Client) statusError(status int, body []byte) error {
	var errResp chatError
	detail := ""
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		detail = errResp.Error.Message
	}
	c.logger.Warn("assistant provider error",
		zap.Int("status", status),
		zap.String("detail", detail),
	)

	switch status {
	case http.StatusTooManyRequests:
		return apperrors.ErrRateLimited
	case http.StatusPaymentRequired:
		return apperrors.ErrQuotaExhausted
	default:
		return apperrors.UpstreamError(status, fmt.Errorf("provider returned %d", status))
	}
}

// classify normalizes transport-level failures into app errors. Application
// errors pass through untouched.
func classify(ctx context.Context, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return apperrors.New(apperrors.CodeCircuitOpen, "assistant temporarily unavailable, please retry shortly")
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, "llm.Reply", apperrors.CodeTimeout, "assistant request timed out")
	}
	return apperrors.UpstreamError(0, err)
}
