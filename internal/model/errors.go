package model

import "errors"

// Доменные ошибки. Сервисы оборачивают их через fmt.Errorf с %w,
// HTTP-слой сопоставляет каждой свой статус и код.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrConflict         = errors.New("conflict")
	ErrUnauthenticated  = errors.New("unauthenticated")
)
