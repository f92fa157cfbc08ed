package player

import "errors"

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrInternal       = errors.New("internal error")
)
