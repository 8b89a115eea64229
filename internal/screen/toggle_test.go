package screen

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/nicauth/internal/authapi"
	"github.com/specialistvlad/nicauth/internal/form"
	"github.com/specialistvlad/nicauth/internal/testutil"
	"github.com/specialistvlad/nicauth/internal/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle_StartsOnLogin(t *testing.T) {
	tg := New(form.Deps{}, form.RegisterConfig{})
	assert.True(t, tg.ShowingLogin())
	assert.NotNil(t, tg.Login())
	assert.Nil(t, tg.Register())
}

func TestToggle_SwitchMountsFreshForms(t *testing.T) {
	tg := New(form.Deps{}, form.RegisterConfig{})
	var changes []bool
	tg.OnChange(func(showLogin bool) { changes = append(changes, showLogin) })

	first := tg.Login()
	require.NoError(t, first.Set(form.Username, "alice"))

	first.SwitchToRegister()
	assert.False(t, tg.ShowingLogin())
	require.NotNil(t, tg.Register())
	assert.Nil(t, tg.Login())

	tg.Register().SwitchToLogin()
	second := tg.Login()
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.Empty(t, second.Value(form.Username), "field state must not survive a switch")

	assert.Equal(t, []bool{false, true}, changes)
}

func TestToggle_SwitchIsIdempotent(t *testing.T) {
	tg := New(form.Deps{}, form.RegisterConfig{})
	calls := 0
	tg.OnChange(func(bool) { calls++ })

	login := tg.Login()
	tg.SwitchToLogin()
	assert.Same(t, login, tg.Login())
	assert.Equal(t, 0, calls)
}

func TestToggle_RegistrationReturnsToLogin(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	scheduled := make(chan func(), 1)
	deps := form.Deps{
		API:   authapi.New(api.URL(), nil),
		Store: tokenstore.NewMemory(),
		AfterFunc: func(d time.Duration, f func()) {
			assert.Equal(t, form.SwitchDelay, d)
			scheduled <- f
		},
	}
	tg := New(deps, form.RegisterConfig{})
	tg.SwitchToRegister()

	reg := tg.Register()
	require.NoError(t, reg.Set(form.Email, "a@example.com"))
	require.NoError(t, reg.Set(form.Password, "secret1"))
	require.NoError(t, reg.Set(form.ConfirmPassword, "secret1"))
	require.NoError(t, reg.Submit(context.Background()))
	assert.False(t, tg.ShowingLogin())

	(<-scheduled)()
	assert.True(t, tg.ShowingLogin())
}

func TestToggle_StaleRegistrationTimerIsIgnored(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	scheduled := make(chan func(), 1)
	deps := form.Deps{
		API:       authapi.New(api.URL(), nil),
		Store:     tokenstore.NewMemory(),
		AfterFunc: func(_ time.Duration, f func()) { scheduled <- f },
	}
	tg := New(deps, form.RegisterConfig{})
	tg.SwitchToRegister()

	first := tg.Register()
	require.NoError(t, first.Set(form.Email, "a@example.com"))
	require.NoError(t, first.Set(form.Password, "secret1"))
	require.NoError(t, first.Set(form.ConfirmPassword, "secret1"))
	require.NoError(t, first.Submit(context.Background()))
	pending := <-scheduled

	// The user leaves and comes back before the delay runs out.
	tg.SwitchToLogin()
	tg.SwitchToRegister()
	second := tg.Register()
	require.NotNil(t, second)
	require.NoError(t, second.Set(form.Email, "b@example.com"))

	changes := 0
	tg.OnChange(func(bool) { changes++ })
	pending()

	assert.False(t, tg.ShowingLogin())
	assert.Same(t, second, tg.Register())
	assert.Equal(t, "b@example.com", second.Value(form.Email))
	assert.Zero(t, changes)
}

func TestToggle_ReplacedFormCannotSwitch(t *testing.T) {
	tg := New(form.Deps{}, form.RegisterConfig{})
	old := tg.Login()
	old.SwitchToRegister()
	tg.SwitchToLogin()
	current := tg.Login()

	old.SwitchToRegister()
	assert.True(t, tg.ShowingLogin())
	assert.Same(t, current, tg.Login())

	tg.SwitchToRegister()
	assert.False(t, tg.ShowingLogin(), "the toggle itself always switches")
}
