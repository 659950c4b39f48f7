package auth

import (
	"net/mail"
	"strings"

	"github.com/teamforge/auth-service/users"
)

// ValidationError carries per-field messages for malformed input. The HTTP
// layer surfaces the fields verbatim in the 400 response body.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) add(field, message string) {
	e.Fields[field] = message
}

func (e *ValidationError) orNil() *ValidationError {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func validateRegisterInput(input RegisterInput) *ValidationError {
	v := newValidationError()

	if strings.TrimSpace(input.Name) == "" {
		v.add("name", "name is required")
	}
	validateEmail(v, input.Email)
	if input.Password == "" {
		v.add("password", "password is required")
	} else if err := users.ValidatePasswordStrength(input.Password); err != nil {
		v.add("password", err.Error())
	}
	if input.Role == "" {
		v.add("role", "role is required")
	} else if _, err := users.ParseRole(input.Role); err != nil {
		v.add("role", err.Error())
	}

	return v.orNil()
}

func validateLoginInput(input LoginInput) *ValidationError {
	v := newValidationError()

	validateEmail(v, input.Email)
	if input.Password == "" {
		v.add("password", "password is required")
	}

	return v.orNil()
}

func validateEmail(v *ValidationError, email string) {
	if strings.TrimSpace(email) == "" {
		v.add("email", "email is required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		v.add("email", "email is not a valid address")
	}
}
