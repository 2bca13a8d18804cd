package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/openrouter-relay/internal/model/chat"
	"github.com/zhouzirui/openrouter-relay/internal/service/openrouter"
	"github.com/zhouzirui/openrouter-relay/pkg/utils"
)

// Replier produces a reply for a single user message.
type Replier interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Handler serves the chat relay endpoint.
type Handler struct {
	relay Replier
}

// New creates a chat handler backed by relay.
func New(relay Replier) *Handler {
	return &Handler{relay: relay}
}

// RegisterRoutes mounts POST /chat.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chat.Request
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.relay.Reply(r.Context(), payload.Message)
	if err != nil {
		status, message := describeError(err)
		log.Printf("[chat] relay failed status=%d: %v", status, err)
		utils.RespondError(w, status, message)
		return
	}

	utils.RespondJSON(w, http.StatusOK, chat.Reply{Reply: reply})
}

// describeError maps a relay failure to the status and message shown to the caller.
func describeError(err error) (int, string) {
	apiErr, ok := openrouter.AsError(err)
	if !ok {
		return http.StatusInternalServerError, "Internal server error"
	}

	switch apiErr.Kind {
	case openrouter.KindConfig:
		return http.StatusInternalServerError, openrouter.ErrMissingAPIKey.Error()
	case openrouter.KindStatus:
		return http.StatusInternalServerError, fmt.Sprintf("API returned %d", apiErr.Status)
	case openrouter.KindAPI:
		return http.StatusInternalServerError, apiErr.Message
	case openrouter.KindFormat:
		if errors.Is(apiErr, openrouter.ErrNoChoices) {
			return http.StatusInternalServerError, "No choices in response"
		}
		return http.StatusInternalServerError, "Unexpected response format"
	case openrouter.KindTimeout:
		return http.StatusGatewayTimeout, "Request timed out"
	case openrouter.KindNetwork:
		return http.StatusInternalServerError, apiErr.Err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
