package admin

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInternal           = errors.New("internal error")
)
