package openrouter

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/openrouter-relay/internal/config"
)

var _ model.BaseChatModel = (*ChatModel)(nil)

// ChatModel exposes Client through the eino chat model interface so callers
// can pick the upstream model per call with model.WithModel.
type ChatModel struct {
	client      *Client
	model       string
	temperature *float32
	maxTokens   *int
}

// NewChatModel wraps client with the defaults from cfg.
func NewChatModel(client *Client, cfg config.OpenRouterConfig) *ChatModel {
	return &ChatModel{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Generate sends input as one completion request and returns the assistant reply.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	req, err := m.buildRequest(input, opts...)
	if err != nil {
		return nil, err
	}

	reply, err := m.client.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	return schema.AssistantMessage(reply, nil), nil
}

// Stream yields the full reply as a single chunk; the upstream is never
// asked to stream.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *ChatModel) buildRequest(input []*schema.Message, opts ...model.Option) (CompletionRequest, error) {
	defaultModel := m.model
	options := model.GetCommonOptions(&model.Options{
		Model:       &defaultModel,
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
	}, opts...)

	messages := make([]Message, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		messages = append(messages, Message{Role: string(msg.Role), Content: msg.Content})
	}
	if len(messages) == 0 {
		return CompletionRequest{}, ErrEmptyConversation
	}

	req := CompletionRequest{
		Messages:    messages,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}
	if options.Model != nil {
		req.Model = *options.Model
	}
	return req, nil
}
