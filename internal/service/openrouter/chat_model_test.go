package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

func newEchoServer(t *testing.T, seen *CompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"reply from ` + seen.Model + `"}}]}`))
	}))
}

func TestChatModelGenerateUsesDefaults(t *testing.T) {
	var seen CompletionRequest
	srv := newEchoServer(t, &seen)
	defer srv.Close()

	temperature := float32(0.7)
	cfg := testConfig(srv.URL)
	cfg.Temperature = &temperature
	chatModel := NewChatModel(NewClient(cfg), cfg)

	msg, err := chatModel.Generate(context.Background(), []*schema.Message{schema.UserMessage("hello")})
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if msg.Role != schema.Assistant {
		t.Fatalf("expected assistant role, got %s", msg.Role)
	}
	if msg.Content != "reply from meta-llama/llama-4-maverick:free" {
		t.Fatalf("unexpected content: %q", msg.Content)
	}
	if seen.Temperature == nil || *seen.Temperature != temperature {
		t.Fatalf("expected default temperature sent, got %v", seen.Temperature)
	}
	if seen.MaxTokens != nil {
		t.Fatalf("expected max_tokens omitted, got %v", *seen.MaxTokens)
	}
}

func TestChatModelGenerateOptionsOverride(t *testing.T) {
	var seen CompletionRequest
	srv := newEchoServer(t, &seen)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	chatModel := NewChatModel(NewClient(cfg), cfg)

	_, err := chatModel.Generate(context.Background(),
		[]*schema.Message{schema.UserMessage("hello")},
		model.WithModel("google/gemini-2.0-flash-exp:free"),
		model.WithMaxTokens(64),
	)
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if seen.Model != "google/gemini-2.0-flash-exp:free" {
		t.Fatalf("expected overridden model, got %s", seen.Model)
	}
	if seen.MaxTokens == nil || *seen.MaxTokens != 64 {
		t.Fatalf("expected max_tokens 64, got %v", seen.MaxTokens)
	}
	if len(seen.Messages) != 1 || seen.Messages[0].Role != "user" || seen.Messages[0].Content != "hello" {
		t.Fatalf("unexpected messages: %+v", seen.Messages)
	}
}

func TestChatModelStreamYieldsSingleChunk(t *testing.T) {
	var seen CompletionRequest
	srv := newEchoServer(t, &seen)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	chatModel := NewChatModel(NewClient(cfg), cfg)

	stream, err := chatModel.Stream(context.Background(), []*schema.Message{schema.UserMessage("hello")}, model.WithModel("m"))
	if err != nil {
		t.Fatalf("Stream err: %v", err)
	}
	defer stream.Close()

	chunk, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv err: %v", err)
	}
	if chunk.Content != "reply from m" {
		t.Fatalf("unexpected chunk: %q", chunk.Content)
	}
	if _, err := stream.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after single chunk, got %v", err)
	}
}

func TestChatModelRejectsEmptyInput(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	chatModel := NewChatModel(NewClient(cfg), cfg)

	if _, err := chatModel.Generate(context.Background(), []*schema.Message{nil}); !errors.Is(err, ErrEmptyConversation) {
		t.Fatalf("expected ErrEmptyConversation, got %v", err)
	}
}
