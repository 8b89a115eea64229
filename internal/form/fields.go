package form

import (
	"errors"
	"strings"
)

// Field names a credential input. The values double as JSON keys of the
// request bodies.
type Field string

const (
	Username        Field = "username"
	Email           Field = "email"
	Password        Field = "password"
	ConfirmPassword Field = "confirmPassword"
	NICNumber       Field = "nicNumber"
)

// Label is the human-readable name of the field.
func (f Field) Label() string {
	switch f {
	case Username:
		return "Username"
	case Email:
		return "Email"
	case Password:
		return "Password"
	case ConfirmPassword:
		return "Confirm Password"
	case NICNumber:
		return "NIC Number"
	default:
		return string(f)
	}
}

// Credentials maps each field of a form to its current value.
type Credentials map[Field]string

// FieldErrors maps a field to the message of its failing rule. Fields that
// pass are absent.
type FieldErrors map[Field]string

// ErrUnknownField is returned when setting a field the form does not collect.
var ErrUnknownField = errors.New("field not collected by this form")

// ValidationError is returned by Submit when local rules reject the input.
// No request is sent in that case.
type ValidationError struct {
	Fields FieldErrors
	order  []Field
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.order {
		if msg, ok := e.Fields[f]; ok {
			msgs = append(msgs, msg)
		}
	}
	return strings.Join(msgs, "; ")
}

// Identity selects which identifier a registration form collects.
type Identity string

const (
	IdentityEmail    Identity = "email"
	IdentityUsername Identity = "username"
)

// Field returns the form field that carries the identity.
func (i Identity) Field() Field {
	if i == IdentityUsername {
		return Username
	}
	return Email
}

func requiredMessage(f Field) string {
	return f.Label() + " is required"
}
