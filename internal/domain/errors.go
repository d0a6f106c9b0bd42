package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnavailable       = errors.New("rate unavailable")
	ErrInsufficientDepth = errors.New("insufficient order book depth")
	ErrEmptyCatalog      = errors.New("symbol catalog is empty")
	ErrRateLimited       = errors.New("rate limited")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrContextDone       = errors.New("context cancelled")
)
