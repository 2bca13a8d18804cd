package bot

import (
	"context"
	"errors"
	"testing"
)

type sentMessage struct {
	chatID  int64
	replyTo int
	text    string
}

type fakeSender struct {
	sent   []sentMessage
	typing []int64
}

func (f *fakeSender) Send(_ context.Context, chatID int64, replyTo int, text string) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, replyTo: replyTo, text: text})
	return nil
}

func (f *fakeSender) Typing(_ context.Context, chatID int64) error {
	f.typing = append(f.typing, chatID)
	return nil
}

type fakeResolver struct {
	models []string
	reply  string
	err    error
	asked  []string
}

func (f *fakeResolver) Resolve(_ context.Context, message string) (string, error) {
	f.asked = append(f.asked, message)
	return f.reply, f.err
}

func (f *fakeResolver) Models() []string {
	return f.models
}

var testModels = []string{"google/gemini-2.0-flash-exp:free", "cognitivecomputations/dolphin3.0-mistral-24b:free"}

func TestHandleStart(t *testing.T) {
	sender := &fakeSender{}
	resolver := &fakeResolver{models: testModels}
	d := NewDispatcher(resolver, sender)

	if err := d.Handle(context.Background(), Inbound{ChatID: 7, Text: "/start", Command: "start"}); err != nil {
		t.Fatalf("Handle err: %v", err)
	}

	want := "Welcome! I can chat with you using AI.\nAvailable models: 2"
	if len(sender.sent) != 1 || sender.sent[0].text != want || sender.sent[0].chatID != 7 {
		t.Fatalf("unexpected sent messages: %+v", sender.sent)
	}
	if len(resolver.asked) != 0 {
		t.Fatalf("resolver should not be called for /start")
	}
}

func TestHandleModels(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(&fakeResolver{models: testModels}, sender)

	if err := d.Handle(context.Background(), Inbound{ChatID: 7, Text: "/models", Command: "models"}); err != nil {
		t.Fatalf("Handle err: %v", err)
	}

	want := "Available models:\ngoogle/gemini-2.0-flash-exp:free\ncognitivecomputations/dolphin3.0-mistral-24b:free"
	if len(sender.sent) != 1 || sender.sent[0].text != want {
		t.Fatalf("unexpected sent messages: %+v", sender.sent)
	}
}

func TestHandleIgnoresUnknownCommand(t *testing.T) {
	sender := &fakeSender{}
	resolver := &fakeResolver{models: testModels}
	d := NewDispatcher(resolver, sender)

	if err := d.Handle(context.Background(), Inbound{ChatID: 7, Text: "/help", Command: "help"}); err != nil {
		t.Fatalf("Handle err: %v", err)
	}
	if len(sender.sent) != 0 || len(resolver.asked) != 0 {
		t.Fatalf("expected unknown command ignored, sent=%+v asked=%v", sender.sent, resolver.asked)
	}
}

func TestHandleRelaysText(t *testing.T) {
	sender := &fakeSender{}
	resolver := &fakeResolver{models: testModels, reply: "Go is a programming language."}
	d := NewDispatcher(resolver, sender)

	if err := d.Handle(context.Background(), Inbound{ChatID: 42, MessageID: 311, Text: "what is go?"}); err != nil {
		t.Fatalf("Handle err: %v", err)
	}

	if len(resolver.asked) != 1 || resolver.asked[0] != "what is go?" {
		t.Fatalf("unexpected resolver input: %v", resolver.asked)
	}
	if len(sender.typing) != 1 || sender.typing[0] != 42 {
		t.Fatalf("expected typing action before reply, got %v", sender.typing)
	}
	want := sentMessage{chatID: 42, replyTo: 311, text: "Go is a programming language."}
	if len(sender.sent) != 1 || sender.sent[0] != want {
		t.Fatalf("unexpected sent messages: %+v", sender.sent)
	}
}

func TestHandleStartWithPayload(t *testing.T) {
	sender := &fakeSender{}
	resolver := &fakeResolver{models: testModels}
	d := NewDispatcher(resolver, sender)

	if err := d.Handle(context.Background(), Inbound{ChatID: 7, MessageID: 3, Text: "/start ref-42", Command: "start"}); err != nil {
		t.Fatalf("Handle err: %v", err)
	}

	want := sentMessage{chatID: 7, replyTo: 3, text: "Welcome! I can chat with you using AI.\nAvailable models: 2"}
	if len(sender.sent) != 1 || sender.sent[0] != want {
		t.Fatalf("unexpected sent messages: %+v", sender.sent)
	}
	if len(resolver.asked) != 0 {
		t.Fatalf("deep-link payload should not reach the resolver: %v", resolver.asked)
	}
}

func TestHandleResolverFailure(t *testing.T) {
	tests := []struct {
		name     string
		resolver *fakeResolver
	}{
		{name: "exhausted", resolver: &fakeResolver{err: errors.New("all models failed: Rate-limited")}},
		{name: "empty reply", resolver: &fakeResolver{reply: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			d := NewDispatcher(tt.resolver, sender)

			if err := d.Handle(context.Background(), Inbound{ChatID: 1, Text: "hello"}); err != nil {
				t.Fatalf("Handle err: %v", err)
			}
			if len(sender.sent) != 1 || sender.sent[0].text != unavailableMessage {
				t.Fatalf("expected generic failure message, got %+v", sender.sent)
			}
		})
	}
}

func TestHandleSkipsBlankText(t *testing.T) {
	sender := &fakeSender{}
	resolver := &fakeResolver{}
	d := NewDispatcher(resolver, sender)

	if err := d.Handle(context.Background(), Inbound{ChatID: 1, Text: "  "}); err != nil {
		t.Fatalf("Handle err: %v", err)
	}
	if len(sender.sent) != 0 || len(resolver.asked) != 0 {
		t.Fatal("expected blank text ignored")
	}
}

func TestHandleCancelledContextSendsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sender := &fakeSender{}
	d := NewDispatcher(&fakeResolver{err: context.Canceled}, sender)

	if err := d.Handle(ctx, Inbound{ChatID: 1, Text: "hello"}); err != nil {
		t.Fatalf("Handle err: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no reply after cancellation, got %+v", sender.sent)
	}
}
