package responder

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/convobridge/server/internal/agent/model"
	logx "github.com/convobridge/server/pkg/logger"
)

// Config holds everything needed to build the Gemini-backed responder.
type Config struct {
	APIKey  string
	BaseURL string

	Model  model.ResponseModelConfig
	Prompt model.ResponsePromptConfig

	// History is optional; without it every turn is answered statelessly.
	History  model.ConversationRepository
	MaxTurns int
}

// Gemini generates replies with a Gemini chat model, threading recent
// conversation history into each request.
type Gemini struct {
	chatModel *gemini.ChatModel
	prompt    model.ResponsePromptConfig
	history   model.ConversationRepository
	maxTurns  int
}

func NewGemini(ctx context.Context, config Config) (*Gemini, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Model.Model,
		Temperature: &config.Model.Temperature,
		MaxTokens:   &config.Model.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating response model")
		return nil, fmt.Errorf("error creating response model: %w", err)
	}

	return &Gemini{
		chatModel: chatModel,
		prompt:    config.Prompt,
		history:   config.History,
		maxTurns:  config.MaxTurns,
	}, nil
}

func (g *Gemini) Respond(ctx context.Context, conversationID string, query string) (string, error) {
	messages := []*schema.Message{schema.SystemMessage(g.systemPrompt())}

	if g.history != nil {
		loaded, err := g.history.LoadHistory(ctx, conversationID)
		if err != nil {
			// history is an enhancement, not a requirement for answering
			logx.Warn().Err(err).Str("conversationID", conversationID).Msg("answering without history")
		} else {
			messages = append(messages, trimTail(loaded.Messages, g.maxTurns)...)
		}
	}

	userMsg := schema.UserMessage(query)
	messages = append(messages, userMsg)

	out, err := g.chatModel.Generate(ctx, messages)
	if err != nil {
		logx.Error().Err(err).Str("conversationID", conversationID).Msg("chat model generation failed")
		return "", fmt.Errorf("generate response: %w", err)
	}
	reply := strings.TrimSpace(out.Content)

	if g.history != nil {
		if err := g.history.AddMessage(ctx, conversationID, userMsg); err != nil {
			logx.Warn().Err(err).Str("conversationID", conversationID).Msg("failed to save user message")
		}
		if err := g.history.AddMessage(ctx, conversationID, schema.AssistantMessage(reply, nil)); err != nil {
			logx.Warn().Err(err).Str("conversationID", conversationID).Msg("failed to save assistant message")
		}
	}

	return reply, nil
}

func (g *Gemini) systemPrompt() string {
	return fmt.Sprintf(
		"You are a friendly customer support assistant for %s, a %s. "+
			"Answer the customer's message helpfully and concisely, in the customer's language.",
		g.prompt.BusinessName, g.prompt.BusinessType,
	)
}

// trimTail keeps only the most recent turns so the prompt stays bounded.
// A turn is a user/assistant pair, hence maxTurns*2 messages.
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 {
		return messages
	}
	limit := maxTurns * 2
	if len(messages) <= limit {
		return messages
	}
	return messages[len(messages)-limit:]
}

var _ model.Responder = (*Gemini)(nil)
