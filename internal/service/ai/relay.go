package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Relay forwards a message to one fixed upstream model.
type Relay struct {
	chatModel model.BaseChatModel
	model     string
	opts      []model.Option
}

// NewRelay creates a relay bound to modelID. opts are applied to every call.
func NewRelay(chatModel model.BaseChatModel, modelID string, opts ...model.Option) *Relay {
	return &Relay{
		chatModel: chatModel,
		model:     modelID,
		opts:      opts,
	}
}

// Model returns the upstream model identifier.
func (r *Relay) Model() string {
	return r.model
}

// Reply sends message once and returns the reply text. No retry is attempted.
func (r *Relay) Reply(ctx context.Context, message string) (string, error) {
	input := []*schema.Message{schema.UserMessage(message)}

	response, err := r.chatModel.Generate(ctx, input, withModel(r.opts, r.model)...)
	if err != nil {
		return "", fmt.Errorf("relay via %s: %w", r.model, err)
	}

	log.Printf("[relay] model=%s reply length=%d", r.model, len(response.Content))
	return response.Content, nil
}

// withModel appends a model selection without touching the shared base slice.
func withModel(base []model.Option, modelID string) []model.Option {
	opts := make([]model.Option, 0, len(base)+1)
	opts = append(opts, base...)
	return append(opts, model.WithModel(modelID))
}
