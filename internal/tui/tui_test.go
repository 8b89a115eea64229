package tui

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/specialistvlad/nicauth/internal/authapi"
	"github.com/specialistvlad/nicauth/internal/form"
	"github.com/specialistvlad/nicauth/internal/nic"
	"github.com/specialistvlad/nicauth/internal/screen"
	"github.com/specialistvlad/nicauth/internal/submission"
	"github.com/specialistvlad/nicauth/internal/testutil"
	"github.com/specialistvlad/nicauth/internal/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loopTimeout = 5 * time.Second

type uiHarness struct {
	ui        *UI
	toggle    *screen.Toggle
	api       *testutil.FakeAPI
	scheduled chan func()
}

func newTestUI(t *testing.T, cfg form.RegisterConfig) *uiHarness {
	t.Helper()
	h := &uiHarness{api: testutil.NewFakeAPI(t), scheduled: make(chan func(), 4)}
	deps := form.Deps{
		API:       authapi.New(h.api.URL(), nil),
		Store:     tokenstore.NewMemory(),
		AfterFunc: func(_ time.Duration, f func()) { h.scheduled <- f },
	}
	h.toggle = screen.New(deps, cfg)
	h.ui = New(context.Background(), h.toggle)
	return h
}

// start runs the event loop on a simulation screen until the test ends.
func (h *uiHarness) start(t *testing.T) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	h.ui.SetScreen(sim)
	sim.SetSize(80, 30)

	done := make(chan error, 1)
	go func() { done <- h.ui.Run() }()
	h.onLoop(t, func() {})

	t.Cleanup(func() {
		h.ui.app.Stop()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(loopTimeout):
			t.Error("event loop did not stop")
		}
	})
}

// onLoop runs fn on the event loop and waits for it.
func (h *uiHarness) onLoop(t *testing.T, fn func()) {
	t.Helper()
	ran := make(chan struct{})
	go func() {
		h.ui.app.QueueUpdate(fn)
		close(ran)
	}()
	select {
	case <-ran:
	case <-time.After(loopTimeout):
		t.Fatal("event loop is not processing updates")
	}
}

// eventually polls cond on the event loop.
func (h *uiHarness) eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(loopTimeout)
	for {
		var ok bool
		h.onLoop(t, func() { ok = cond() })
		if ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// press selects a button of the current page the way the Enter key does.
func press(p *page, index int) {
	p.form.GetButton(index).InputHandler()(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), func(tview.Primitive) {})
}

func TestUI_MountsLogin(t *testing.T) {
	h := newTestUI(t, form.RegisterConfig{})

	p := h.ui.current
	require.NotNil(t, p)
	assert.Equal(t, loginLabels, p.labels)
	assert.Len(t, p.inputs, 3)
	assert.Equal(t, "Login", p.submit.GetLabel())
	assert.False(t, p.submit.IsDisabled())
}

func TestUI_InvalidNICDisablesSubmit(t *testing.T) {
	h := newTestUI(t, form.RegisterConfig{})
	h.start(t)

	var disabled bool
	var errText string
	h.onLoop(t, func() {
		p := h.ui.current
		p.inputs[form.NICNumber].SetText("12")
		disabled, errText = p.submit.IsDisabled(), p.errors.GetText(true)
	})
	assert.Equal(t, "12", h.toggle.Login().Value(form.NICNumber))
	assert.True(t, disabled)
	assert.Contains(t, errText, nic.ErrNewFormat.Error())

	h.onLoop(t, func() {
		p := h.ui.current
		p.inputs[form.NICNumber].SetText("200012345678")
		disabled, errText = p.submit.IsDisabled(), p.errors.GetText(true)
	})
	assert.False(t, disabled)
	assert.Empty(t, errText)
}

func TestUI_SwitchButtonMountsRegister(t *testing.T) {
	h := newTestUI(t, form.RegisterConfig{CollectNIC: true})
	h.start(t)

	h.onLoop(t, func() { press(h.ui.current, 1) })
	assert.False(t, h.toggle.ShowingLogin())

	h.eventually(t, func() bool { return h.ui.current.labels == registerLabels }, "register form was not mounted")
	h.onLoop(t, func() {
		p := h.ui.current
		assert.Len(t, p.inputs, 4)
		assert.Contains(t, p.inputs, form.Email)
		assert.Contains(t, p.inputs, form.NICNumber)
		assert.Same(t, h.toggle.Register(), p.model)
	})

	h.onLoop(t, func() { press(h.ui.current, 1) })
	h.eventually(t, func() bool { return h.ui.current.labels == loginLabels }, "login form was not mounted")
}

func TestUI_RegisterShowsOutcomeAndReturnsToLogin(t *testing.T) {
	h := newTestUI(t, form.RegisterConfig{})
	h.start(t)

	h.onLoop(t, func() { press(h.ui.current, 1) })
	h.eventually(t, func() bool { return h.ui.current.labels == registerLabels }, "register form was not mounted")

	h.onLoop(t, func() {
		p := h.ui.current
		p.inputs[form.Email].SetText("a@example.com")
		p.inputs[form.Password].SetText("secret1")
		p.inputs[form.ConfirmPassword].SetText("secret1")
		press(p, 0)
	})

	var switchBack func()
	select {
	case switchBack = <-h.scheduled:
	case <-time.After(loopTimeout):
		t.Fatal("registration did not schedule the switch back")
	}
	assert.Equal(t, submission.Succeeded, h.toggle.Register().Status().State)

	h.eventually(t, func() bool {
		p := h.ui.current
		return p.labels == registerLabels && p.status.GetText(true) == form.MsgRegisterSucceeded
	}, "success message was not shown")
	h.onLoop(t, func() {
		p := h.ui.current
		assert.Empty(t, p.inputs[form.Email].GetText(), "cleared fields are pushed back into the widgets")
		assert.Equal(t, "Sign Up", p.submit.GetLabel())
	})

	// The delayed switch arrives from outside the event loop.
	switchBack()
	assert.True(t, h.toggle.ShowingLogin())
	h.eventually(t, func() bool { return h.ui.current.labels == loginLabels }, "login form was not mounted")
}

func TestUI_LoginFailureShown(t *testing.T) {
	h := newTestUI(t, form.RegisterConfig{})
	h.api.OnLogin(testutil.Reply{Status: http.StatusUnauthorized, Body: map[string]string{"message": "Invalid credentials"}})
	h.start(t)

	h.onLoop(t, func() {
		p := h.ui.current
		p.inputs[form.Username].SetText("alice")
		p.inputs[form.Password].SetText("wrong1")
		p.inputs[form.NICNumber].SetText("200012345678")
		press(p, 0)
	})

	h.eventually(t, func() bool {
		return h.ui.current.status.GetText(true) == "Invalid credentials"
	}, "failure message was not shown")
	h.onLoop(t, func() {
		p := h.ui.current
		assert.Equal(t, "Login", p.submit.GetLabel())
		assert.Equal(t, "alice", p.inputs[form.Username].GetText(), "fields are kept after a failure")
	})
}

func TestStatusText(t *testing.T) {
	assert.Empty(t, statusText(submission.Status{State: submission.Idle}))
	assert.Empty(t, statusText(submission.Status{State: submission.Submitting}))
	assert.Equal(t, "[green]ok[-]", statusText(submission.Status{State: submission.Succeeded, Message: "ok"}))
	assert.Equal(t, "[red]no[-]", statusText(submission.Status{State: submission.Failed, Message: "no"}))
}

func TestUI_EscapeQuits(t *testing.T) {
	h := newTestUI(t, form.RegisterConfig{})
	sim := tcell.NewSimulationScreen("UTF-8")
	h.ui.SetScreen(sim)
	sim.SetSize(80, 30)

	done := make(chan error, 1)
	go func() { done <- h.ui.Run() }()

	var runErr error
	require.Eventually(t, func() bool {
		sim.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
		select {
		case runErr = <-done:
			return true
		default:
			return false
		}
	}, 5*time.Second, 20*time.Millisecond)
	assert.NoError(t, runErr)
}
