package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"

	"github.com/zhouzirui/openrouter-relay/internal/config"
)

const maxResponseBytes = 4 << 20

// Message is one entry of the outbound conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the body posted to /chat/completions.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float32  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

// Client talks to the OpenRouter chat-completion endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	referer    string
	title      string
}

// NewClient builds a client bound to the configured endpoint and credential.
func NewClient(cfg config.OpenRouterConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		referer:    cfg.Referer,
		title:      cfg.Title,
	}
}

// Enabled reports whether the client has a credential to send.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Complete sends a single completion request and returns the reply text.
// Failures are always reported as *Error.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !c.Enabled() {
		return "", &Error{Kind: KindConfig, Model: req.Model, Err: ErrMissingAPIKey}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Model: req.Model, Err: fmt.Errorf("encode completion request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindNetwork, Model: req.Model, Err: fmt.Errorf("build completion request: %w", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		httpReq.Header.Set("X-Title", c.title)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", transportError(req.Model, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", transportError(req.Model, err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[openrouter] model=%s status=%d response=%s", req.Model, resp.StatusCode, truncate(payload, 512))
		return "", &Error{Kind: KindStatus, Model: req.Model, Status: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	reply, err := ExtractReply(payload)
	if err != nil {
		if apiErr, ok := AsError(err); ok {
			apiErr.Model = req.Model
			if apiErr.Kind == KindAPI {
				log.Printf("[openrouter] model=%s api error: %s", req.Model, apiErr.Message)
			}
		}
		return "", err
	}
	return reply, nil
}

// ExtractReply pulls the reply text out of a completion payload. It prefers
// choices[0].message.content and falls back to the legacy choices[0].text.
func ExtractReply(body []byte) (string, error) {
	var envelope struct {
		Error   json.RawMessage   `json:"error"`
		Choices []json.RawMessage `json:"choices"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", &Error{Kind: KindFormat, Err: fmt.Errorf("%w: %w", ErrUnexpectedFormat, err)}
	}

	if len(envelope.Error) > 0 {
		return "", &Error{Kind: KindAPI, Message: describeAPIError(envelope.Error), Err: ErrUpstreamRejected}
	}

	if len(envelope.Choices) == 0 {
		return "", &Error{Kind: KindFormat, Err: ErrNoChoices}
	}

	var choice map[string]json.RawMessage
	if err := json.Unmarshal(envelope.Choices[0], &choice); err != nil {
		return "", &Error{Kind: KindFormat, Err: ErrUnexpectedFormat}
	}

	if raw, ok := choice["message"]; ok {
		var message map[string]json.RawMessage
		if err := json.Unmarshal(raw, &message); err == nil {
			if content, ok := message["content"]; ok {
				return decodeText(content)
			}
		}
	}

	if text, ok := choice["text"]; ok {
		return decodeText(text)
	}

	return "", &Error{Kind: KindFormat, Err: ErrUnexpectedFormat}
}

// decodeText accepts a JSON string or null.
func decodeText(raw json.RawMessage) (string, error) {
	var text *string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", &Error{Kind: KindFormat, Err: ErrUnexpectedFormat}
	}
	if text == nil {
		return "", nil
	}
	return *text, nil
}

func describeAPIError(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil && text != "" {
		return text
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}

	return string(raw)
}

func transportError(model string, err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTimeout, Model: model, Err: fmt.Errorf("%w: %w", ErrRequestTimedOut, err)}
	}
	return &Error{Kind: KindNetwork, Model: model, Err: err}
}

func truncate(payload []byte, limit int) string {
	if len(payload) <= limit {
		return string(payload)
	}
	return string(payload[:limit]) + "..."
}
