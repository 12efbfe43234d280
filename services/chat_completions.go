package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ChatCompletionsClient talks to any OpenAI-compatible chat completions
// endpoint, SEA-LION included.
type ChatCompletionsClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type chatCompletionsRequest struct {
	Model               string        `json:"model"`
	Messages            []ChatMessage `json:"messages"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
	Temperature         float64       `json:"temperature"`
}

type chatCompletionsResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		FinishReason string      `json:"finish_reason"`
		Message      ChatMessage `json:"message"`
	} `json:"choices"`
}

// NewChatCompletionsClient builds a client. Timeouts come from the caller's
// context; httpClient may be nil.
func NewChatCompletionsClient(apiKey, baseURL, model string, httpClient *http.Client) *ChatCompletionsClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &ChatCompletionsClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: httpClient,
	}
}

func (c *ChatCompletionsClient) Name() string { return "chat_completions" }

func (c *ChatCompletionsClient) Complete(ctx context.Context, in CompletionRequest) (string, error) {
	if c.apiKey == "" {
		return "", c.fail(0, errors.New("api key missing"))
	}

	body, err := json.Marshal(chatCompletionsRequest{
		Model:               c.model,
		Messages:            in.Messages,
		MaxCompletionTokens: in.MaxTokens,
		Temperature:         in.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.fail(0, fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", c.fail(resp.StatusCode, fmt.Errorf("body=%s", strings.TrimSpace(string(b))))
	}

	var cr chatCompletionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", c.fail(0, fmt.Errorf("decoding response: %w", err))
	}
	if len(cr.Choices) == 0 {
		return "", c.fail(0, errors.New("empty choices"))
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

func (c *ChatCompletionsClient) fail(status int, err error) error {
	return &ProviderError{Provider: c.Name(), Stage: StageCompletion, StatusCode: status, Err: err}
}
