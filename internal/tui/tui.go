// Package tui renders the screen toggle in the terminal with tview. It holds
// no form state of its own: every widget is redrawn from form.View.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/specialistvlad/nicauth/internal/ctxlog"
	"github.com/specialistvlad/nicauth/internal/form"
	"github.com/specialistvlad/nicauth/internal/screen"
	"github.com/specialistvlad/nicauth/internal/submission"
)

const (
	pageName   = "form"
	fieldWidth = 32
)

// model is what both forms expose to the renderer.
type model interface {
	Fields() []form.Field
	Set(f form.Field, value string) error
	View() form.View
	Submit(ctx context.Context) error
	OnChange(fn func())
}

type labels struct {
	title  string
	submit string
	busy   string
	other  string
}

var (
	loginLabels    = labels{title: "Login", submit: "Login", busy: "Loading...", other: "Create account"}
	registerLabels = labels{title: "Sign Up", submit: "Sign Up", busy: "Signing up...", other: "Back to login"}
)

// page is one mounted form. Its fields are only touched on the UI goroutine.
type page struct {
	model   model
	labels  labels
	root    *tview.Flex
	form    *tview.Form
	inputs  map[form.Field]*tview.InputField
	submit  *tview.Button
	errors  *tview.TextView
	status  *tview.TextView
	syncing bool
}

// UI is the terminal front end.
type UI struct {
	ctx     context.Context
	app     *tview.Application
	pages   *tview.Pages
	toggle  *screen.Toggle
	current *page
}

// New builds the UI and mounts whichever form the toggle shows.
func New(ctx context.Context, toggle *screen.Toggle) *UI {
	u := &UI{
		ctx:    ctx,
		app:    tview.NewApplication(),
		pages:  tview.NewPages(),
		toggle: toggle,
	}
	u.app.SetRoot(u.pages, true)
	u.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEscape {
			u.app.Stop()
			return nil
		}
		return ev
	})
	toggle.OnChange(func(bool) {
		u.queue(u.mount)
	})
	u.mount()
	return u
}

// SetScreen replaces the terminal, mainly for tests.
func (u *UI) SetScreen(s tcell.Screen) {
	u.app.SetScreen(s)
}

// Run blocks until the user quits or ctx is cancelled.
func (u *UI) Run() error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-u.ctx.Done():
			u.app.Stop()
		case <-done:
		}
	}()

	ctxlog.FromContext(u.ctx).Info("Terminal UI started.")
	return u.app.Run()
}

// queue runs fn on the event loop and redraws without blocking the caller,
// which may be the event loop itself.
func (u *UI) queue(fn func()) {
	go u.app.QueueUpdateDraw(fn)
}

// mount shows whichever form the toggle holds. It must run on the event loop.
func (u *UI) mount() {
	var p *page
	if l := u.toggle.Login(); l != nil {
		if u.mounted(l) {
			return
		}
		p = u.newPage(l, loginLabels, l.SwitchToRegister)
	} else if r := u.toggle.Register(); r != nil {
		if u.mounted(r) {
			return
		}
		p = u.newPage(r, registerLabels, r.SwitchToLogin)
	} else {
		return
	}

	u.current = p
	u.pages.AddPage(pageName, p.root, true, true)
	u.app.SetFocus(p.form)
	ctxlog.FromContext(u.ctx).Debug("Form mounted.", "title", p.labels.title)
}

func (u *UI) mounted(m model) bool {
	return u.current != nil && u.current.model == m
}

func (u *UI) newPage(m model, l labels, switchForm func()) *page {
	p := &page{
		model:  m,
		labels: l,
		form:   tview.NewForm(),
		inputs: make(map[form.Field]*tview.InputField),
		errors: tview.NewTextView().SetDynamicColors(true),
		status: tview.NewTextView().SetDynamicColors(true),
	}

	fields := m.Fields()
	for _, f := range fields {
		f := f
		changed := func(text string) {
			if p.syncing {
				return
			}
			_ = m.Set(f, text)
			u.refresh(p)
		}
		if f == form.Password || f == form.ConfirmPassword {
			p.form.AddPasswordField(f.Label(), "", fieldWidth, '*', changed)
		} else {
			p.form.AddInputField(f.Label(), "", fieldWidth, nil, changed)
		}
		p.inputs[f] = p.form.GetFormItem(p.form.GetFormItemCount() - 1).(*tview.InputField)
	}

	p.form.AddButton(l.submit, func() { u.submit(p) })
	p.form.AddButton(l.other, switchForm)
	p.form.AddButton("Quit", u.app.Stop)
	p.submit = p.form.GetButton(0)
	p.form.SetBorder(true).SetTitle(l.title).SetTitleAlign(tview.AlignCenter)

	p.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(p.form, 2*len(fields)+5, 0, true).
		AddItem(p.errors, len(fields), 0, false).
		AddItem(p.status, 1, 0, false)

	m.OnChange(func() {
		u.queue(func() { u.refresh(p) })
	})
	u.refresh(p)
	return p
}

func (u *UI) submit(p *page) {
	if !p.model.View().CanSubmit {
		return
	}
	go func() {
		if err := p.model.Submit(u.ctx); err != nil {
			ctxlog.FromContext(u.ctx).Debug("Submission ended with an error.", "form", p.labels.title, "error", err)
		}
	}()
}

// refresh redraws p from its form's current view.
func (u *UI) refresh(p *page) {
	v := p.model.View()

	p.syncing = true
	for f, in := range p.inputs {
		if in.GetText() != v.Fields[f] {
			in.SetText(v.Fields[f])
		}
	}
	p.syncing = false

	var b strings.Builder
	for _, f := range p.model.Fields() {
		if msg, ok := v.Errors[f]; ok {
			fmt.Fprintf(&b, "[red]%s[-]\n", tview.Escape(msg))
		}
	}
	p.errors.SetText(b.String())

	label := p.labels.submit
	if v.Status.State == submission.Submitting {
		label = p.labels.busy
	}
	p.submit.SetLabel(label)
	p.submit.SetDisabled(!v.CanSubmit)
	p.status.SetText(statusText(v.Status))
}

func statusText(s submission.Status) string {
	switch s.State {
	case submission.Succeeded:
		return "[green]" + tview.Escape(s.Message) + "[-]"
	case submission.Failed:
		return "[red]" + tview.Escape(s.Message) + "[-]"
	default:
		return ""
	}
}
