package form

import (
	"context"
	"strings"

	"github.com/specialistvlad/nicauth/internal/authapi"
	"github.com/specialistvlad/nicauth/internal/ctxlog"
	"github.com/specialistvlad/nicauth/internal/submission"
)

// RegisterConfig chooses which fields a registration form collects.
type RegisterConfig struct {
	Identity   Identity
	CollectNIC bool
}

// Register collects a new account's identity, password and optionally a NIC.
type Register struct {
	base
	deps            Deps
	cfg             RegisterConfig
	onSwitchToLogin func()
}

// NewRegister creates an empty registration form. onSwitchToLogin may be nil.
func NewRegister(deps Deps, cfg RegisterConfig, onSwitchToLogin func()) *Register {
	if cfg.Identity == "" {
		cfg.Identity = IdentityEmail
	}
	r := &Register{deps: deps, cfg: cfg, onSwitchToLogin: onSwitchToLogin}

	fields := []Field{cfg.Identity.Field(), Password, ConfirmPassword}
	if cfg.CollectNIC {
		fields = append(fields, NICNumber)
	}
	r.init(fields...)
	return r
}

// Config returns the field selection of the form.
func (r *Register) Config() RegisterConfig {
	return r.cfg
}

// Set updates a field. A collected NIC is validated on every edit; editing
// either password clears the password errors from the last submit.
func (r *Register) Set(f Field, value string) error {
	switch f {
	case NICNumber:
		return r.set(f, value, nicMessage)
	case Password:
		return r.set(f, value, noCheck, ConfirmPassword)
	default:
		return r.set(f, value, noCheck)
	}
}

// SwitchToLogin asks the owner to show the login form.
func (r *Register) SwitchToLogin() {
	if r.onSwitchToLogin != nil {
		r.onSwitchToLogin()
	}
}

// Submit validates the form and, if it passes, sends one registration
// request. On success all fields are cleared and, after SwitchDelay, the
// switch-to-login callback runs.
func (r *Register) Submit(ctx context.Context) error {
	ctx = ctxlog.With(ctx, "form", "register")
	logger := ctxlog.FromContext(ctx)

	r.mu.Lock()
	if r.machine.Busy() {
		r.mu.Unlock()
		return submission.ErrBusy
	}
	creds := r.snapshotLocked()
	if errs := r.validate(creds); len(errs) > 0 {
		err := r.rejectLocked(errs)
		r.mu.Unlock()
		r.notify()
		logger.Debug("Registration rejected by local validation.", "fields", len(errs))
		return err
	}
	if err := r.machine.Begin(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()
	r.notify()
	defer r.notify()

	req := authapi.RegisterRequest{Password: creds[Password]}
	switch r.cfg.Identity {
	case IdentityUsername:
		req.Username = creds[Username]
	default:
		req.Email = creds[Email]
	}
	if r.cfg.CollectNIC {
		req.NICNumber = strings.TrimSpace(creds[NICNumber])
	}

	logger.Info("Submitting registration.", "identity", r.cfg.Identity)
	resp, err := r.deps.API.Register(ctx, req)
	if err != nil {
		msg := failureMessage(err, MsgRegisterFailed)
		logger.Warn("Registration failed.", "error", err, "message", msg)
		_ = r.machine.Fail(msg)
		return err
	}
	logger.Info("Registration succeeded.", "server_message", resp.Message)

	r.mu.Lock()
	r.clearLocked()
	_ = r.machine.Succeed(MsgRegisterSucceeded)
	r.mu.Unlock()

	r.deps.after(SwitchDelay, r.SwitchToLogin)
	return nil
}

func (r *Register) validate(c Credentials) FieldErrors {
	collected := make([]string, 0, len(r.order))
	for _, f := range r.order {
		collected = append(collected, structFields[f])
	}

	errs := fieldErrors(validate.StructPartial(registerInput{
		Username:        strings.TrimSpace(c[Username]),
		Email:           strings.TrimSpace(c[Email]),
		Password:        c[Password],
		ConfirmPassword: c[ConfirmPassword],
		NICNumber:       c[NICNumber],
	}, collected...))

	// A mismatch is reported before the length rule.
	if _, ok := errs[ConfirmPassword]; ok {
		delete(errs, Password)
	}
	return errs
}
