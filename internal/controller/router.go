package controller

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/slotswap/slotswap_api/internal/service"
)

type Handlers struct {
	authService *service.AuthService
	slotService *service.SlotService
	swapService *service.SwapService
	logger      *zap.Logger
}

func NewHandlers(
	authService *service.AuthService,
	slotService *service.SlotService,
	swapService *service.SwapService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		authService: authService,
		slotService: slotService,
		swapService: swapService,
		logger:      logger,
	}
}

// NewRouter собирает все маршруты API
func NewRouter(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Get("/auth/me", h.me)

			r.Get("/events", h.listMySlots)
			r.Post("/events", h.createSlot)
			r.Put("/events/{id}", h.updateSlot)
			r.Delete("/events/{id}", h.deleteSlot)

			r.Get("/swappable-slots", h.listSwappableSlots)
			r.Get("/swap-requests", h.listMySwapRequests)
			r.Post("/swap-request", h.proposeSwap)
			r.Post("/swap-response/{requestId}", h.respondSwap)
		})
	})

	return r
}
