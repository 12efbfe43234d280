package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiCompleter is the alternative completion backend selected with
// llm.provider: gemini.
type GeminiCompleter struct {
	models *genai.Models
	model  string
}

// GeminiOption adjusts the client configuration before it is created.
type GeminiOption func(*genai.ClientConfig)

// WithGeminiBaseURL points the client at another endpoint, such as a proxy.
func WithGeminiBaseURL(url string) GeminiOption {
	return func(c *genai.ClientConfig) { c.HTTPOptions.BaseURL = url }
}

func NewGeminiCompleter(ctx context.Context, apiKey, model string, opts ...GeminiOption) (*GeminiCompleter, error) {
	config := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if apiKey != "" {
		config.APIKey = apiKey
	}
	for _, opt := range opts {
		opt(config)
	}
	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiCompleter{models: client.Models, model: model}, nil
}

func (g *GeminiCompleter) Name() string { return "gemini" }

func (g *GeminiCompleter) Complete(ctx context.Context, in CompletionRequest) (string, error) {
	system, contents := toGeminiContents(in.Messages)
	if len(contents) == 0 {
		// Gemini rejects a request with only a system instruction.
		contents = append(contents, genai.NewContentFromText("Please begin.", genai.RoleUser))
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(in.Temperature)),
		MaxOutputTokens: int32(in.MaxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		perr := &ProviderError{Provider: g.Name(), Stage: StageCompletion, Err: err}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			perr.StatusCode = apiErr.Code
		}
		return "", perr
	}
	text := cleanModelOutput(resp.Text())
	if text == "" {
		return "", &ProviderError{Provider: g.Name(), Stage: StageCompletion, Err: errors.New("empty response")}
	}
	return text, nil
}

// toGeminiContents splits out system messages and maps the remaining turns
// onto Gemini's user/model roles.
func toGeminiContents(messages []ChatMessage) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case ChatRoleSystem:
			system = append(system, m.Content)
		case ChatRoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```text")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
