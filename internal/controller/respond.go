package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/slotswap/slotswap_api/internal/model"
)

// Стабильные машинные коды ошибок API. Клиент различает по ним
// "попробуй другой слот" (CONFLICT), "нельзя" (FORBIDDEN) и "поправь запрос".
const (
	codeNotFound         = "NOT_FOUND"
	codeForbidden        = "FORBIDDEN"
	codeInvalidOperation = "INVALID_OPERATION"
	codeConflict         = "CONFLICT"
	codeUnauthenticated  = "UNAUTHENTICATED"
	codeInternal         = "INTERNAL"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError сопоставляет доменной ошибке HTTP-статус и код
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, codeInternal
	switch {
	case errors.Is(err, model.ErrNotFound):
		status, code = http.StatusNotFound, codeNotFound
	case errors.Is(err, model.ErrForbidden):
		status, code = http.StatusForbidden, codeForbidden
	case errors.Is(err, model.ErrInvalidOperation):
		status, code = http.StatusBadRequest, codeInvalidOperation
	case errors.Is(err, model.ErrConflict):
		status, code = http.StatusConflict, codeConflict
	case errors.Is(err, model.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, codeUnauthenticated
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		// внутренности наружу не показываем
		h.logger.Error("Unhandled error", zap.Error(err))
		message = "internal server error"
	}

	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}
