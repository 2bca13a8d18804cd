package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
)

const (
	welcomeTemplate    = "Welcome! I can chat with you using AI.\nAvailable models: %d"
	modelsHeader       = "Available models:\n"
	unavailableMessage = "⚠️ Sorry, AI is not available right now. Please try again later."
)

// Inbound is a transport-neutral chat message.
type Inbound struct {
	ChatID int64
	// MessageID identifies the inbound message so replies can quote it.
	MessageID int
	Text      string
	// Command is the bot command without the leading slash, empty for plain text.
	Command string
}

// Sender delivers replies back to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, replyTo int, text string) error
	Typing(ctx context.Context, chatID int64) error
}

// Resolver turns a user message into a reply using the fallback list.
type Resolver interface {
	Resolve(ctx context.Context, message string) (string, error)
	Models() []string
}

// Dispatcher routes one inbound message to one outbound reply.
type Dispatcher struct {
	resolver Resolver
	sender   Sender
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(resolver Resolver, sender Sender) *Dispatcher {
	return &Dispatcher{resolver: resolver, sender: sender}
}

// Handle answers /start and /models statically, ignores other commands and
// relays plain text through the resolver. Resolver failures are logged and
// replaced with a generic message. A /start carrying a deep-link payload is
// greeted like a bare /start.
func (d *Dispatcher) Handle(ctx context.Context, in Inbound) error {
	switch in.Command {
	case "start":
		return d.reply(ctx, in, fmt.Sprintf(welcomeTemplate, len(d.resolver.Models())))
	case "models":
		return d.reply(ctx, in, modelsHeader+strings.Join(d.resolver.Models(), "\n"))
	case "":
	default:
		return nil
	}

	if strings.TrimSpace(in.Text) == "" {
		return nil
	}

	traceID := uuid.NewString()
	log.Printf("[bot] trace=%s chat=%d message length=%d", traceID, in.ChatID, len(in.Text))

	if err := d.sender.Typing(ctx, in.ChatID); err != nil {
		log.Printf("[bot] trace=%s typing action failed: %v", traceID, err)
	}

	reply, err := d.resolver.Resolve(ctx, in.Text)
	if err != nil {
		if ctx.Err() != nil {
			log.Printf("[bot] trace=%s abandoned: %v", traceID, err)
			return nil
		}
		log.Printf("[bot] trace=%s ai unavailable: %v", traceID, err)
		return d.reply(ctx, in, unavailableMessage)
	}
	if strings.TrimSpace(reply) == "" {
		log.Printf("[bot] trace=%s empty reply from upstream", traceID)
		return d.reply(ctx, in, unavailableMessage)
	}

	return d.reply(ctx, in, reply)
}

func (d *Dispatcher) reply(ctx context.Context, in Inbound, text string) error {
	return d.sender.Send(ctx, in.ChatID, in.MessageID, text)
}
