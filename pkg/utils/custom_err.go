package utils

import "errors"

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrEmailAlreadyExists  = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrRateLimited         = errors.New("rate limited")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrGenerationFailed    = errors.New("image generation failed")
	ErrInvalidBundle       = errors.New("invalid bundle")
	ErrWeakPassword        = errors.New("password does not meet requirements")
	ErrEmailDelivery       = errors.New("failed to send email")
	ErrDatabaseError       = errors.New("database error")
)
