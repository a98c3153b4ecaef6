package domain

import "errors"

var (
	ErrUnauthorized       = errors.New("caller is not authenticated")
	ErrDuplicateID        = errors.New("attempt id already exists")
	ErrNotFound           = errors.New("no matching record")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrAmountMismatch     = errors.New("amount does not match tournament entry fee")
	ErrUnknownProvider    = errors.New("no such payment provider configured")
)
