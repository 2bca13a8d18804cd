package models

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/openrouter-relay/pkg/utils"
)

// Listing describes the models each service sends requests to.
type Listing struct {
	Relay    string   `json:"relay"`
	Fallback []string `json:"fallback"`
}

// Handler serves the configured model identifiers.
type Handler struct {
	listing Listing
}

// New creates a models handler.
func New(relayModel string, fallback []string) *Handler {
	return &Handler{
		listing: Listing{
			Relay:    relayModel,
			Fallback: append([]string{}, fallback...),
		},
	}
}

// RegisterRoutes mounts GET /models.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/models", h.handleListModels)
}

func (h *Handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.listing)
}
