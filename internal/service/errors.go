package service

import "errors"

var (
	// ErrInvalidRequest wraps validation failures of caller input
	ErrInvalidRequest = errors.New("invalid request")

	// ErrOrderExists is returned when creating an order whose number is taken
	ErrOrderExists = errors.New("order number already exists")
)
