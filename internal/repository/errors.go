package repository

import "errors"

var (
	ErrNotFound       = errors.New("record not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrCustomURLTaken = errors.New("custom url already in use")
	ErrUserNotFound   = errors.New("user not found")
)
