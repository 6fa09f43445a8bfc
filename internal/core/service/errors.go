package service

import "errors"

var (
	ErrAlreadyRegistered = errors.New("beer already registered")
	ErrNotFound          = errors.New("beer not found")
	ErrCapacityExceeded  = errors.New("beer stock exceeds max capacity")
	ErrBelowZero         = errors.New("beer stock below zero")
	ErrInvalidBeer       = errors.New("invalid beer")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrCountryNotFound   = errors.New("country not found")
)
