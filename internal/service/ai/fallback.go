package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/openrouter-relay/internal/service/openrouter"
)

const (
	reasonRateLimited      = "Rate-limited"
	reasonUnexpectedFormat = "Unexpected response format"
	reasonAllFailed        = "All models failed"
)

// Attempt records one failed candidate.
type Attempt struct {
	Model  string
	Reason string
	Err    error
}

// ExhaustedError is returned when no candidate produced a reply.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	return "all models failed: " + e.LastReason()
}

// LastReason is the failure reason of the final candidate tried.
func (e *ExhaustedError) LastReason() string {
	if len(e.Attempts) == 0 {
		return reasonAllFailed
	}
	return e.Attempts[len(e.Attempts)-1].Reason
}

func (e *ExhaustedError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// Resolver tries an ordered list of models and returns the first reply.
type Resolver struct {
	chatModel model.BaseChatModel
	models    []string
	opts      []model.Option
}

// NewResolver creates a resolver over models, tried in the given order.
func NewResolver(chatModel model.BaseChatModel, models []string, opts ...model.Option) *Resolver {
	return &Resolver{
		chatModel: chatModel,
		models:    append([]string(nil), models...),
		opts:      opts,
	}
}

// Models returns a copy of the fallback list.
func (r *Resolver) Models() []string {
	return append([]string(nil), r.models...)
}

// Resolve walks the fallback list once. Rate limiting, bad statuses, unknown
// payload shapes and transport failures move on to the next model; the first
// reply wins.
func (r *Resolver) Resolve(ctx context.Context, message string) (string, error) {
	input := []*schema.Message{schema.UserMessage(message)}
	attempts := make([]Attempt, 0, len(r.models))

	for _, candidate := range r.models {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("fallback aborted before %s: %w", candidate, err)
		}

		log.Printf("[fallback] trying model: %s", candidate)
		response, err := r.chatModel.Generate(ctx, input, withModel(r.opts, candidate)...)
		if err == nil {
			log.Printf("[fallback] success with model: %s", candidate)
			return response.Content, nil
		}

		if apiErr, ok := openrouter.AsError(err); ok && apiErr.Kind == openrouter.KindConfig {
			return "", err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("fallback aborted at %s: %w", candidate, ctxErr)
		}

		reason := failureReason(err)
		log.Printf("[fallback] model %s failed: %s (%v)", candidate, reason, err)
		attempts = append(attempts, Attempt{Model: candidate, Reason: reason, Err: err})
	}

	return "", &ExhaustedError{Attempts: attempts}
}

func failureReason(err error) string {
	apiErr, ok := openrouter.AsError(err)
	if !ok {
		return err.Error()
	}

	switch {
	case apiErr.RateLimited():
		return reasonRateLimited
	case apiErr.Kind == openrouter.KindStatus:
		return fmt.Sprintf("HTTP %d", apiErr.Status)
	case apiErr.Kind == openrouter.KindAPI, apiErr.Kind == openrouter.KindFormat:
		return reasonUnexpectedFormat
	default:
		return apiErr.Err.Error()
	}
}
