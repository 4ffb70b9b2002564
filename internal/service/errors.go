package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTimeRange  = errors.New("invalid time range")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrIllegalTransition = errors.New("illegal status transition")
)
