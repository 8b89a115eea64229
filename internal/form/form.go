// Package form implements the login and registration forms independently of
// how they are rendered. A form owns its field values, keeps per-field
// validation errors current as fields are edited, and drives one
// submission.Machine per instance.
package form

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/specialistvlad/nicauth/internal/authapi"
	"github.com/specialistvlad/nicauth/internal/submission"
	"github.com/specialistvlad/nicauth/internal/tokenstore"
)

// MinPasswordLength is the shortest password registration accepts.
const MinPasswordLength = 6

// SwitchDelay is how long a successful registration waits before asking to
// show the login form.
const SwitchDelay = 2 * time.Second

// Messages shown in the form's status line.
const (
	MsgPasswordMismatch  = "Passwords do not match"
	MsgPasswordTooShort  = "Password must be at least 6 characters"
	MsgNetworkError      = "Network error. Please try again."
	MsgLoginFailed       = "Login failed"
	MsgRegisterFailed    = "Registration failed"
	MsgLoginSucceeded    = "Login successful!"
	MsgRegisterSucceeded = "Registration successful! You can now login."
	MsgSessionNotSaved   = "Login succeeded but the session could not be saved"
)

// API is the remote authentication service.
type API interface {
	Login(ctx context.Context, req authapi.LoginRequest) (*authapi.LoginResponse, error)
	Register(ctx context.Context, req authapi.RegisterRequest) (*authapi.RegisterResponse, error)
}

// Deps are the collaborators shared by both forms.
type Deps struct {
	API   API
	Store tokenstore.Store
	// TokenKey is the storage key for the session token. Empty means
	// tokenstore.DefaultKey.
	TokenKey string
	// AfterFunc schedules f after d. Nil means time.AfterFunc.
	AfterFunc func(d time.Duration, f func())
}

func (d Deps) tokenKey() string {
	if d.TokenKey == "" {
		return tokenstore.DefaultKey
	}
	return d.TokenKey
}

func (d Deps) after(delay time.Duration, f func()) {
	if d.AfterFunc != nil {
		d.AfterFunc(delay, f)
		return
	}
	time.AfterFunc(delay, f)
}

// View is a consistent snapshot of a form for rendering.
type View struct {
	Fields    Credentials
	Errors    FieldErrors
	Status    submission.Status
	CanSubmit bool
}

// base holds the state shared by both forms.
type base struct {
	mu      sync.Mutex
	order   []Field
	values  Credentials
	errs    FieldErrors
	machine submission.Machine
	watch   func()
}

func (b *base) init(fields ...Field) {
	b.order = fields
	b.values = make(Credentials, len(fields))
	for _, f := range fields {
		b.values[f] = ""
	}
	b.errs = make(FieldErrors)
}

// Fields lists the collected fields in display order.
func (b *base) Fields() []Field {
	return append([]Field(nil), b.order...)
}

// Value returns the current value of a field.
func (b *base) Value(f Field) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.values[f]
}

// OnChange registers fn to run whenever a submission starts or finishes, or
// local validation rejects one. fn runs outside the form's lock and may be
// called from any goroutine.
func (b *base) OnChange(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watch = fn
}

func (b *base) notify() {
	b.mu.Lock()
	fn := b.watch
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Status returns the submission state.
func (b *base) Status() submission.Status {
	return b.machine.Status()
}

// CanSubmit is false while a submission is in flight or any field error is
// showing.
func (b *base) CanSubmit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.canSubmitLocked()
}

func (b *base) canSubmitLocked() bool {
	return !b.machine.Busy() && len(b.errs) == 0
}

// View returns a snapshot of values, errors and status.
func (b *base) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := View{
		Fields:    make(Credentials, len(b.values)),
		Errors:    make(FieldErrors, len(b.errs)),
		Status:    b.machine.Status(),
		CanSubmit: b.canSubmitLocked(),
	}
	for k, val := range b.values {
		v.Fields[k] = val
	}
	for k, msg := range b.errs {
		v.Errors[k] = msg
	}
	return v
}

// set stores a value and dismisses any displayed outcome. check returns the
// live error for the edited field, or "" when it has none; clears lists other
// fields whose errors the edit invalidates.
func (b *base) set(f Field, value string, check func(string) string, clears ...Field) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.values[f]; !ok {
		return ErrUnknownField
	}
	b.values[f] = value
	b.machine.Touch()

	for _, other := range clears {
		delete(b.errs, other)
	}
	if msg := check(value); msg != "" {
		b.errs[f] = msg
	} else {
		delete(b.errs, f)
	}
	return nil
}

// rejectLocked records submit-time field errors and builds the error returned to
// the caller.
func (b *base) rejectLocked(errs FieldErrors) *ValidationError {
	for f, msg := range errs {
		b.errs[f] = msg
	}
	b.machine.Touch()
	return &ValidationError{Fields: errs, order: b.order}
}

func (b *base) clearLocked() {
	for f := range b.values {
		b.values[f] = ""
	}
	b.errs = make(FieldErrors)
}

func (b *base) snapshotLocked() Credentials {
	c := make(Credentials, len(b.values))
	for k, v := range b.values {
		c[k] = v
	}
	return c
}

func noCheck(string) string { return "" }

// failureMessage maps a request error to the text shown to the user.
func failureMessage(err error, fallback string) string {
	var respErr *authapi.ResponseError
	switch {
	case errors.As(err, &respErr):
		if respErr.Message != "" {
			return respErr.Message
		}
		return fallback
	case errors.Is(err, authapi.ErrMissingToken):
		return fallback
	default:
		return MsgNetworkError
	}
}
