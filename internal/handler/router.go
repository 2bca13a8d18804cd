package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/openrouter-relay/internal/handler/chat"
	"github.com/zhouzirui/openrouter-relay/internal/handler/models"
	middlewarePkg "github.com/zhouzirui/openrouter-relay/internal/middleware"
	"github.com/zhouzirui/openrouter-relay/pkg/utils"
)

// NewRouter wires HTTP routes to the relay.
func NewRouter(relay chat.Replier, relayModel string, fallbackModels []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chat.New(relay).RegisterRoutes(r)
	chat.NewWebSocketHandler(relay).RegisterRoutes(r)
	models.New(relayModel, fallbackModels).RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
