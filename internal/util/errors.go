package util

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found or expired")
	ErrSessionBusy     = errors.New("session is busy with another request")
	ErrInvalidToken    = errors.New("invalid session token")
)
