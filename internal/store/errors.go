package store

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidName     = errors.New("invalid list name")
	ErrInvalidTodoText = errors.New("invalid todo text")
	ErrIndexNotFound   = errors.New("index not found")
)

// ValidationError carries the message shown next to the offending form field.
type ValidationError struct {
	Kind    error
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

func (e ValidationError) Is(target error) bool {
	return target == e.Kind
}

type NotFoundError struct {
	Kind  string
	Index int
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Kind, e.Index)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrIndexNotFound
}

func errListNotFound(index int) error {
	return NotFoundError{Kind: "list", Index: index}
}

func errTodoNotFound(index int) error {
	return NotFoundError{Kind: "todo", Index: index}
}
