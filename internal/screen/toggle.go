// Package screen decides which of the two forms is on screen. It holds one
// boolean and mounts a fresh form each time the flag flips, so no field
// state survives a switch.
package screen

import (
	"slices"
	"sync"

	"github.com/specialistvlad/nicauth/internal/form"
)

// Toggle shows either the login form or the registration form.
type Toggle struct {
	deps form.Deps
	cfg  form.RegisterConfig

	mu        sync.Mutex
	showLogin bool
	mounted   int
	login     *form.Login
	register  *form.Register
	listeners []func(showLogin bool)
}

// New returns a toggle showing the login form.
func New(deps form.Deps, cfg form.RegisterConfig) *Toggle {
	t := &Toggle{deps: deps, cfg: cfg, showLogin: true}
	t.mountLocked()
	return t
}

// OnChange registers fn to run after every switch, outside the toggle's lock.
func (t *Toggle) OnChange(fn func(showLogin bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// ShowingLogin reports which form is displayed.
func (t *Toggle) ShowingLogin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.showLogin
}

// Login returns the mounted login form, or nil while registration is shown.
func (t *Toggle) Login() *form.Login {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.login
}

// Register returns the mounted registration form, or nil while login is shown.
func (t *Toggle) Register() *form.Register {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.register
}

// SwitchToLogin shows the login form. It is a no-op if it is already shown.
func (t *Toggle) SwitchToLogin() {
	t.set(true)
}

// SwitchToRegister shows the registration form. It is a no-op if it is
// already shown.
func (t *Toggle) SwitchToRegister() {
	t.set(false)
}

func (t *Toggle) set(showLogin bool) {
	t.mu.Lock()
	t.switchLocked(showLogin)
}

// setFrom switches on behalf of the form mounted as generation gen. Requests
// from a form that has since been replaced are dropped.
func (t *Toggle) setFrom(gen int, showLogin bool) {
	t.mu.Lock()
	if gen != t.mounted {
		t.mu.Unlock()
		return
	}
	t.switchLocked(showLogin)
}

// switchLocked is entered with t.mu held and releases it.
func (t *Toggle) switchLocked(showLogin bool) {
	if t.showLogin == showLogin {
		t.mu.Unlock()
		return
	}
	t.showLogin = showLogin
	t.mountLocked()
	listeners := slices.Clone(t.listeners)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(showLogin)
	}
}

func (t *Toggle) mountLocked() {
	t.mounted++
	gen := t.mounted
	if t.showLogin {
		t.login = form.NewLogin(t.deps, func() { t.setFrom(gen, false) })
		t.register = nil
		return
	}
	t.register = form.NewRegister(t.deps, t.cfg, func() { t.setFrom(gen, true) })
	t.login = nil
}
