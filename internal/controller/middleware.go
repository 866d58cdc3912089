package controller

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/slotswap/slotswap_api/internal/model"
)

type ctxKey int

const callerIDKey ctxKey = iota

// requireAuth проверяет Bearer-токен и кладёт identity вызывающего в контекст
func (h *Handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
		if !found || scheme != "Bearer" || token == "" {
			h.writeError(w, fmt.Errorf("%w: missing or invalid Authorization header", model.ErrUnauthenticated))
			return
		}

		callerID, err := h.authService.VerifyToken(token)
		if err != nil {
			h.writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), callerIDKey, callerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerID достаёт identity вызывающего, положенную requireAuth
func callerID(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(callerIDKey).(uuid.UUID)
	return id
}
