package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/nicauth/internal/ctxlog"
	"github.com/specialistvlad/nicauth/internal/form"
	"github.com/specialistvlad/nicauth/internal/screen"
	"github.com/specialistvlad/nicauth/internal/submission"
	"github.com/specialistvlad/nicauth/internal/tokenstore"
	"github.com/specialistvlad/nicauth/internal/tui"
)

// Failure is returned when a login or registration reached a final Failed
// state. Message is the text the user was shown.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.appConfig.Command)

	var err error
	switch a.appConfig.Command {
	case CommandLogin:
		err = a.runLogin(ctx)
	case CommandRegister:
		err = a.runRegister(ctx)
	case CommandToken:
		err = a.runToken(ctx)
	case CommandLogout:
		err = a.runLogout(ctx)
	default:
		err = a.runUI(ctx)
	}

	a.logger.Debug("App.Run method finished.", "error", err)
	return err
}

func (a *App) runUI(ctx context.Context) error {
	toggle := screen.New(a.deps(), a.config.Registration)
	ui := tui.New(ctx, toggle)
	if a.screen != nil {
		ui.SetScreen(a.screen)
	}
	return ui.Run()
}

func (a *App) runLogin(ctx context.Context) error {
	l := form.NewLogin(a.deps(), nil)
	if err := fill(l, a.appConfig.Input); err != nil {
		return err
	}
	return a.report(l.Submit(ctx), l.Status())
}

func (a *App) runRegister(ctx context.Context) error {
	deps := a.deps()
	// There is no login screen to return to.
	deps.AfterFunc = func(time.Duration, func()) {}

	r := form.NewRegister(deps, a.config.Registration, nil)
	if err := fill(r, a.appConfig.Input); err != nil {
		return err
	}
	return a.report(r.Submit(ctx), r.Status())
}

func (a *App) runToken(ctx context.Context) error {
	token, err := a.store.Get(ctx, a.config.TokenKey)
	if errors.Is(err, tokenstore.ErrNotFound) {
		fmt.Fprintln(a.outW, "Not logged in.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session token: %w", err)
	}

	fmt.Fprintln(a.outW, token)
	info, ok := tokenstore.Inspect(token)
	if !ok {
		return nil
	}
	if info.Subject != "" {
		fmt.Fprintf(a.outW, "subject: %s\n", info.Subject)
	}
	if !info.ExpiresAt.IsZero() {
		state := "valid"
		if info.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Fprintf(a.outW, "expires: %s (%s)\n", info.ExpiresAt.UTC().Format(time.RFC3339), state)
	}
	return nil
}

func (a *App) runLogout(ctx context.Context) error {
	if err := a.store.Delete(ctx, a.config.TokenKey); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	a.logger.Info("Session token deleted.")
	fmt.Fprintln(a.outW, "Logged out.")
	return nil
}

// report prints the outcome of a one-shot submission.
func (a *App) report(err error, status submission.Status) error {
	if err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return &Failure{Message: status.Message, Err: err}
	}
	fmt.Fprintln(a.outW, status.Message)
	return nil
}

type fillable interface {
	Fields() []form.Field
	Set(f form.Field, value string) error
}

func fill(m fillable, in Input) error {
	for _, f := range m.Fields() {
		if err := m.Set(f, in.value(f)); err != nil {
			return err
		}
	}
	return nil
}

func (in Input) value(f form.Field) string {
	switch f {
	case form.Username:
		return in.Username
	case form.Email:
		return in.Email
	case form.Password:
		return in.Password
	case form.ConfirmPassword:
		return in.Confirm
	case form.NICNumber:
		return in.NIC
	default:
		return ""
	}
}
