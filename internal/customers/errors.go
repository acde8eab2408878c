package customers

import "errors"

var (
	ErrNotFound   = errors.New("customer not found")
	ErrValidation = errors.New("customer validation failed")
	ErrEmailTaken = errors.New("customer email already registered")
)
