// Package apperr holds the error taxonomy shared by services, storage and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindInvalidState Kind = "invalid_state"
)

type Error struct {
	Kind    Kind
	Entity  string
	ID      any
	Message string
	// Fields maps an input field to the reason it was rejected. Validation only.
	Fields map[string]string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		if e.ID != nil {
			return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
		}
		return fmt.Sprintf("%s not found", e.Entity)
	case KindValidation:
		if len(e.Fields) == 0 {
			return "validation failed: " + e.Message
		}
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		return "validation failed: " + strings.Join(parts, "; ")
	default:
		return e.Message
	}
}

func NotFound(entity string, id any) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id}
}

func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "invalid input", Fields: fields}
}

func InvalidState(entity string, id any, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)}
}

// Fields collects validation failures and turns them into a single error.
type Fields map[string]string

func (f Fields) Require(name, value string) {
	if strings.TrimSpace(value) == "" {
		f[name] = "is required"
	}
}

func (f Fields) Add(name, reason string) {
	f[name] = reason
}

func (f Fields) Err() error {
	if len(f) == 0 {
		return nil
	}
	return Validation(f)
}

func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func IsNotFound(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindNotFound
}

func IsValidation(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindValidation
}

func IsInvalidState(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindInvalidState
}
