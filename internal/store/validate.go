package store

import (
	"unicode/utf8"

	"todolists/internal/model"
)

const (
	MinNameLen = 1
	MaxNameLen = 100

	msgLength = "Between 1 and 100 characters"
	msgUnique = "Must be unique name."
)

func validLength(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= MinNameLen && n <= MaxNameLen
}

// ValidateListName checks name against the length bounds and against the names
// of existing (case-sensitive exact match).
func ValidateListName(name string, existing []model.List) error {
	if !validLength(name) {
		return ValidationError{Kind: ErrInvalidName, Message: msgLength}
	}
	for _, l := range existing {
		if l.Name == name {
			return ValidationError{Kind: ErrInvalidName, Message: msgUnique}
		}
	}
	return nil
}

func ValidateTodoText(text string) error {
	if !validLength(text) {
		return ValidationError{Kind: ErrInvalidTodoText, Message: msgLength}
	}
	return nil
}
