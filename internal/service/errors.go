package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidPrice       = errors.New("price must be greater than zero")
	ErrRelationNotFound   = errors.New("disposer-waste relation not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrHasActiveRelations = errors.New("has active disposer-waste relations")
)
