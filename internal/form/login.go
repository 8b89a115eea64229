package form

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/nicauth/internal/authapi"
	"github.com/specialistvlad/nicauth/internal/ctxlog"
	"github.com/specialistvlad/nicauth/internal/nic"
	"github.com/specialistvlad/nicauth/internal/submission"
)

// Login collects username, password and NIC and exchanges them for a session
// token.
type Login struct {
	base
	deps               Deps
	onSwitchToRegister func()
}

// NewLogin creates an empty login form. onSwitchToRegister may be nil.
func NewLogin(deps Deps, onSwitchToRegister func()) *Login {
	l := &Login{deps: deps, onSwitchToRegister: onSwitchToRegister}
	l.init(Username, Password, NICNumber)
	return l
}

// Set updates a field. The NIC is validated on every edit.
func (l *Login) Set(f Field, value string) error {
	check := noCheck
	if f == NICNumber {
		check = nicMessage
	}
	return l.set(f, value, check)
}

// SwitchToRegister asks the owner to show the registration form.
func (l *Login) SwitchToRegister() {
	if l.onSwitchToRegister != nil {
		l.onSwitchToRegister()
	}
}

// Submit validates the form and, if it passes, sends one login request. On
// success the returned token is written to the token store. Request failures
// are reflected in Status and also returned.
func (l *Login) Submit(ctx context.Context) error {
	ctx = ctxlog.With(ctx, "form", "login")
	logger := ctxlog.FromContext(ctx)

	l.mu.Lock()
	if l.machine.Busy() {
		l.mu.Unlock()
		return submission.ErrBusy
	}
	creds := l.snapshotLocked()
	if errs := validateLogin(creds); len(errs) > 0 {
		err := l.rejectLocked(errs)
		l.mu.Unlock()
		l.notify()
		logger.Debug("Login rejected by local validation.", "fields", len(errs))
		return err
	}
	if err := l.machine.Begin(); err != nil {
		l.mu.Unlock()
		return err
	}
	l.mu.Unlock()
	l.notify()
	defer l.notify()

	if format, err := nic.Detect(creds[NICNumber]); err == nil {
		logger.Debug("NIC accepted.", "format", format)
	}
	logger.Info("Submitting login.", "username", creds[Username])

	resp, err := l.deps.API.Login(ctx, authapi.LoginRequest{
		Username:  creds[Username],
		Password:  creds[Password],
		NICNumber: strings.TrimSpace(creds[NICNumber]),
	})
	if err != nil {
		msg := failureMessage(err, MsgLoginFailed)
		logger.Warn("Login failed.", "error", err, "message", msg)
		_ = l.machine.Fail(msg)
		return err
	}

	if err := l.deps.Store.Set(ctx, l.deps.tokenKey(), resp.Token); err != nil {
		logger.Error("Could not persist session token.", "error", err)
		_ = l.machine.Fail(MsgSessionNotSaved)
		return fmt.Errorf("failed to store session token: %w", err)
	}

	logger.Info("Login succeeded.", "username", resp.Username)
	_ = l.machine.Succeed(MsgLoginSucceeded)
	return nil
}

func validateLogin(c Credentials) FieldErrors {
	return fieldErrors(validate.Struct(loginInput{
		Username:  c[Username],
		Password:  c[Password],
		NICNumber: c[NICNumber],
	}))
}

func nicMessage(value string) string {
	if err := nic.Validate(value); err != nil {
		return err.Error()
	}
	return ""
}
