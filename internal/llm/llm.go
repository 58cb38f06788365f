// Package llm wraps the OpenAI chat completion API as an optional
// collaborator: without an API key the bot degrades to canned replies.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"telegram-companion-bot/internal/models"
)

// Persona is the per-user context handed to the model alongside the
// rolling chat history.
type Persona struct {
	Petname   string
	Flirty    bool
	Profanity models.ProfanityLevel
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	Retries     int
}

type Client struct {
	api     *openai.Client
	cfg     Config
	persona string
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 220
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	var api *openai.Client
	if cfg.APIKey != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		api = openai.NewClientWithConfig(oc)
	}

	return &Client{
		api:     api,
		cfg:     cfg,
		persona: loadPersona(),
		logger:  logger,
	}
}

// Available reports whether the collaborator is configured at all.
func (c *Client) Available() bool { return c != nil && c.api != nil }

// Generate produces a reply for the rolling history. The call is
// bounded by the configured timeout and retried a small number of
// times before the error is surfaced to the caller.
func (c *Client) Generate(ctx context.Context, history []models.ChatMessage, p Persona) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("llm: not configured")
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if sys := c.systemPrompt(p); sys != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: sys,
		})
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		reply, err := c.complete(ctx, msgs)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		c.logger.Warn("llm completion failed",
			zap.Error(err),
			zap.Int("attempt", attempt+1))
	}
	return "", lastErr
}

func (c *Client) complete(ctx context.Context, msgs []openai.ChatCompletionMessage) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(cctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: float32(c.cfg.Temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) systemPrompt(p Persona) string {
	var b strings.Builder
	b.WriteString(c.persona)
	if p.Petname != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Обращайся к собеседнице «%s».", p.Petname)
	}
	if p.Flirty {
		b.WriteString("\nМожно слегка флиртовать.")
	}
	switch p.Profanity {
	case models.ProfanitySoft:
		b.WriteString("\nДопустимы мягкие ругательства.")
	case models.ProfanitySpicy:
		b.WriteString("\nКрепкие выражения уместны.")
	}
	return b.String()
}

// Persona text: PERSONA_PROMPT env wins, then persona.txt next to the
// binary; empty string leaves the model's default voice.
func loadPersona() string {
	if p := strings.TrimSpace(os.Getenv("PERSONA_PROMPT")); p != "" {
		return p
	}
	if b, err := os.ReadFile("persona.txt"); err == nil {
		return strings.TrimSpace(string(b))
	}
	return ""
}
