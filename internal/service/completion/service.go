package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kaichat/internal/config"
	"kaichat/internal/models"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// personaPrompt is injected ahead of every conversation handed to the
// provider.
const personaPrompt = "You are kAI, a personal assistant. You help with " +
	"adding calendar events, summarizing thoughts, and giving reminders, " +
	"all while keeping things light-hearted and human. Speak clearly. Be " +
	"brief. Inject clever humor where appropriate. Use emoji sparingly but " +
	"effectively. Prioritize clarity and calmness. When writing calendar " +
	"events, keep them useful but with a friendly tone. If a user asks you " +
	"to remember something, summarize it smartly and save it."

// Service is the completion collaborator adapter: one provider-configured
// chat model, optionally wrapped in a react agent when tools are available.
type Service struct {
	chatModel model.ToolCallingChatModel
	agent     *react.Agent
	provider  string
	modelName string
}

// NewService builds the chat model for the configured provider and wires the
// supplied tools.
func NewService(ctx context.Context, cfg *config.Config, provider string, tools []tool.BaseTool) (*Service, error) {
	provCfg, ok := cfg.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", provider)
	}
	modelName := provCfg.Model

	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   modelName,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		client, cerr := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if cerr != nil {
			return nil, fmt.Errorf("gemini client: %w", cerr)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     modelName,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}

	var reactAgent *react.Agent
	if len(tools) > 0 {
		reactAgent, err = react.NewAgent(ctx, &react.AgentConfig{
			ToolCallingModel: chatModel,
			ToolsConfig: compose.ToolsNodeConfig{
				Tools: tools,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("init react agent: %w", err)
		}
	}

	return &Service{
		chatModel: chatModel,
		agent:     reactAgent,
		provider:  provider,
		modelName: modelName,
	}, nil
}

// Complete runs one round trip: persona prompt plus the caller's history, one
// generated reply. No retry.
func (s *Service) Complete(ctx context.Context, history []models.ChatMessage) (string, error) {
	if len(history) == 0 {
		return "", errors.New("messages are required")
	}
	messages := make([]*schema.Message, 0, len(history)+1)
	messages = append(messages, &schema.Message{
		Role:    schema.System,
		Content: personaPrompt,
	})
	for _, msg := range history {
		messages = append(messages, &schema.Message{
			Role:    convertRole(msg.Role),
			Content: msg.Content,
		})
	}

	var (
		resp *schema.Message
		err  error
	)
	if s.agent != nil {
		resp, err = s.agent.Generate(ctx, messages)
	} else {
		resp, err = s.chatModel.Generate(ctx, messages)
	}
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// Summarize produces a short stored summary for an uploaded document.
func (s *Service) Summarize(ctx context.Context, fileName, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil
	}
	systemPrompt := "You are a helpful assistant that summarizes user provided documents. " +
		"Produce a concise summary highlighting the key points and important details. " +
		"Limit the summary to 6 sentences."
	userPrompt := fmt.Sprintf("Document %s:\n%s\n", fileName, content)
	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: userPrompt},
	}
	resp, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("summarize file: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// ModelName reports the configured model identifier.
func (s *Service) ModelName() string {
	return s.modelName
}

func convertRole(role models.Role) schema.RoleType {
	switch role {
	case models.RoleAssistant:
		return schema.Assistant
	case models.RoleSystem:
		return schema.System
	default:
		return schema.User
	}
}
