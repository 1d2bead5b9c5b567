// Package ai talks to the conversational backend through eino's chat
// model adapters.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"siterelay/internal/config"
	"siterelay/internal/models"
)

// ErrBackend wraps every failure of the conversational backend.
var ErrBackend = errors.New("chat backend error")

// Service holds the configured chat model and the fixed system prompt
// prepended to every exchange.
type Service struct {
	chatModel    model.BaseChatModel
	systemPrompt string
}

// NewService builds the provider chat model selected by configuration.
func NewService(cfg *config.Config) (*Service, error) {
	provider := cfg.Chat.Provider
	provCfg, ok := cfg.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", provider)
	}

	var chatModel model.BaseChatModel
	var err error
	ctx := context.Background()

	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{APIKey: provCfg.APIKey})
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}

	return &Service{chatModel: chatModel, systemPrompt: cfg.Chat.SystemPrompt}, nil
}

// Reply forwards the full history to the backend and returns the reply
// text. The latest user turn is expected to be the last history entry.
func (s *Service) Reply(ctx context.Context, history []models.Turn) (string, error) {
	messages := make([]*schema.Message, 0, len(history)+1)
	if s.systemPrompt != "" {
		messages = append(messages, &schema.Message{Role: schema.System, Content: s.systemPrompt})
	}
	for _, turn := range history {
		var role schema.RoleType
		switch turn.Role {
		case models.RoleAssistant:
			role = schema.Assistant
		case models.RoleSystem:
			role = schema.System
		default:
			role = schema.User
		}
		messages = append(messages, &schema.Message{Role: role, Content: turn.Text})
	}

	out, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return out.Content, nil
}
