package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is matched by every *ValidationError.
var ErrInvalid = errors.New("invalid entity")

// FieldError names one failing field and why it failed.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports all failing fields of a single write.
type ValidationError struct {
	Kind   Kind
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Kind.Singular(), strings.Join(parts, "; "))
}

// Is lets callers test with errors.Is(err, ErrInvalid).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Map returns the failing fields keyed by field name.
func (e *ValidationError) Map() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = f.Message
	}
	return out
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Rule checks one field of T; an empty return means the field is valid.
type Rule[T any] struct {
	Field string
	Check func(*T) string
}

// Validate runs every rule against v and collects the failures.
func Validate[T any](kind Kind, v *T, rules []Rule[T]) error {
	var failed []FieldError
	for _, r := range rules {
		if msg := r.Check(v); msg != "" {
			failed = append(failed, FieldError{Field: r.Field, Message: msg})
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &ValidationError{Kind: kind, Fields: failed}
}

const msgRequired = "is required"

// RequireText fails on blank strings.
func RequireText(s string) string {
	if strings.TrimSpace(s) == "" {
		return msgRequired
	}
	return ""
}

// RequireList fails when no non-blank entry is present.
func RequireList(items []string) string {
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			return ""
		}
	}
	return msgRequired
}

// RequireYear fails on missing or implausible years.
func RequireYear(year int) string {
	switch {
	case year == 0:
		return msgRequired
	case year < 1900 || year > 2100:
		return "must be between 1900 and 2100"
	}
	return ""
}
