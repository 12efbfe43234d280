package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"speaksea/models"
)

// Chat roles understood by completion backends.
const (
	ChatRoleSystem    = "system"
	ChatRoleAssistant = "assistant"
	ChatRoleUser      = "user"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// Completer is a language-model backend.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ReplyKind tags how a reply was produced.
type ReplyKind int

const (
	// ReplyModel came from the language model.
	ReplyModel ReplyKind = iota
	// ReplyFallback was substituted after an upstream failure; Cause is set.
	ReplyFallback
	// ReplyScripted is a fixed line spoken without a model call.
	ReplyScripted
	// ReplyFatal means the caller went away; Cause holds the context error.
	ReplyFatal
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyModel:
		return "model"
	case ReplyFallback:
		return "fallback"
	case ReplyScripted:
		return "scripted"
	case ReplyFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

type Reply struct {
	Kind     ReplyKind
	Text     string
	Category Category
	Cause    error
}

const (
	defaultMaxTokens   = 150
	defaultTemperature = 0.7
	defaultTimeout     = 30 * time.Second
)

// DialogueClient asks the model for the examiner's next line. It never
// fails on upstream errors: those are logged and answered from the fallback
// table.
type DialogueClient struct {
	completer   Completer
	fallbacks   FallbackTable
	maxTokens   int
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
}

type DialogueOption func(*DialogueClient)

func WithFallbacks(t FallbackTable) DialogueOption {
	return func(c *DialogueClient) { c.fallbacks = t }
}

func WithSampling(maxTokens int, temperature float64) DialogueOption {
	return func(c *DialogueClient) {
		if maxTokens > 0 {
			c.maxTokens = maxTokens
		}
		if temperature > 0 {
			c.temperature = temperature
		}
	}
}

func WithCompletionTimeout(d time.Duration) DialogueOption {
	return func(c *DialogueClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithDialogueLogger(l *slog.Logger) DialogueOption {
	return func(c *DialogueClient) { c.logger = l }
}

func NewDialogueClient(completer Completer, opts ...DialogueOption) (*DialogueClient, error) {
	if completer == nil {
		return nil, errors.New("services: completer must not be nil")
	}
	c := &DialogueClient{
		completer:   completer,
		fallbacks:   DefaultFallbacks(),
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		timeout:     defaultTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Reply produces the examiner's next line for sel.
func (c *DialogueClient) Reply(ctx context.Context, sel PromptSelection, userText string, history []models.Turn) Reply {
	category := sel.Step.Category
	if sel.Scripted {
		return Reply{Kind: ReplyScripted, Text: sel.Instruction, Category: category}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.completer.Complete(callCtx, CompletionRequest{
		Messages:    BuildMessages(sel.Instruction, userText, history),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err == nil {
		text = strings.TrimSpace(text)
		if text != "" {
			return Reply{Kind: ReplyModel, Text: text, Category: category}
		}
		err = errors.New("empty completion")
	}

	// The caller aborting is not an upstream failure; nothing is returned.
	if ctx.Err() != nil {
		return Reply{Kind: ReplyFatal, Category: category, Cause: ctx.Err()}
	}

	c.logger.Warn("completion failed, using fallback reply",
		"stage", StageCompletion,
		"provider", c.completer.Name(),
		"category", category,
		"error", err,
	)
	return Reply{Kind: ReplyFallback, Text: c.fallbacks.Lookup(category), Category: category, Cause: err}
}

// BuildMessages orders the conversation for the model: instruction, prior
// turns, then the current student text when there is any.
func BuildMessages(instruction, userText string, history []models.Turn) []ChatMessage {
	messages := make([]ChatMessage, 0, len(history)+2)
	messages = append(messages, ChatMessage{Role: ChatRoleSystem, Content: instruction})
	for _, turn := range history {
		role := ChatRoleUser
		if r, _ := turn.Role.Normalize(); r == models.RoleExaminer {
			role = ChatRoleAssistant
		}
		messages = append(messages, ChatMessage{Role: role, Content: turn.Content})
	}
	if userText != "" {
		messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: userText})
	}
	return messages
}
