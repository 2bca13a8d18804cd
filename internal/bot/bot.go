package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	maxMessageLength = 4096
	pollTimeout      = 60
)

// Bot long-polls Telegram and feeds each update to a Dispatcher.
type Bot struct {
	api        *tgbotapi.BotAPI
	dispatcher *Dispatcher
	wg         sync.WaitGroup
}

// New authorizes token against Telegram and wires the dispatcher.
func New(token string, debug bool, resolver Resolver) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	api.Debug = debug

	b := &Bot{api: api}
	b.dispatcher = NewDispatcher(resolver, b)
	return b, nil
}

// Username returns the authorized bot account name.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Run polls for updates until ctx is cancelled. Every update is handled on
// its own goroutine; Run waits for in-flight handlers before returning.
// Handlers run on a context detached from ctx so that a shutdown lets
// pending replies finish instead of failing them.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)
	handlerCtx := context.WithoutCancel(ctx)

	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			in, ok := toInbound(update)
			if !ok {
				continue
			}

			b.wg.Add(1)
			go func(in Inbound) {
				defer b.wg.Done()
				if err := b.dispatcher.Handle(handlerCtx, in); err != nil {
					log.Printf("[bot] failed to answer chat=%d: %v", in.ChatID, err)
				}
			}(in)
		}
	}
}

// Send implements Sender, splitting text that exceeds the Telegram limit.
func (b *Bot) Send(_ context.Context, chatID int64, replyTo int, text string) error {
	for _, msg := range buildMessages(chatID, replyTo, text) {
		if _, err := b.api.Send(msg); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

// buildMessages quotes replyTo on the first chunk only.
func buildMessages(chatID int64, replyTo int, text string) []tgbotapi.MessageConfig {
	chunks := splitMessage(text, maxMessageLength)
	msgs := make([]tgbotapi.MessageConfig, 0, len(chunks))
	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if i == 0 {
			msg.ReplyToMessageID = replyTo
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// Typing implements Sender.
func (b *Bot) Typing(_ context.Context, chatID int64) error {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		return fmt.Errorf("send chat action: %w", err)
	}
	return nil
}

// toInbound keeps text messages only.
func toInbound(update tgbotapi.Update) (Inbound, bool) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return Inbound{}, false
	}

	in := Inbound{ChatID: msg.Chat.ID, MessageID: msg.MessageID, Text: msg.Text}
	if msg.IsCommand() {
		in.Command = msg.Command()
	}
	return in, true
}

// splitMessage cuts text into chunks of at most limit UTF-16 code units,
// the unit Telegram measures message length in.
func splitMessage(text string, limit int) []string {
	var (
		chunks []string
		start  int
		units  int
	)
	for i, r := range text {
		n := utf16.RuneLen(r)
		if n < 0 {
			// invalid runes are sent as U+FFFD
			n = 1
		}
		if units+n > limit {
			chunks = append(chunks, text[start:i])
			start, units = i, 0
		}
		units += n
	}
	return append(chunks, text[start:])
}
