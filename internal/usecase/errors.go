package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrExpired               = errors.New("expired")
	ErrConflict              = errors.New("ownership conflict")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
