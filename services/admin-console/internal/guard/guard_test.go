package guard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utiibeauty/parlour/services/admin-console/internal/gateway"
	"github.com/utiibeauty/parlour/services/admin-console/internal/gateway/gatewaytest"
)

type stubDashboard struct{ closed int }

func (d *stubDashboard) Close() { d.closed++ }

func newGuard(t *testing.T, fake *gatewaytest.Fake) (*Guard, *[]*stubDashboard) {
	t.Helper()
	built := &[]*stubDashboard{}
	g := New(fake, func(func(context.Context) error) Dashboard {
		d := &stubDashboard{}
		*built = append(*built, d)
		return d
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(g.Unmount)
	return g, built
}

func TestViewIsLoadingUntilMounted(t *testing.T) {
	g, _ := newGuard(t, gatewaytest.New())
	assert.Equal(t, ViewLoading, g.View())
	assert.Nil(t, g.Dashboard())

	g.Mount(context.Background())
	assert.Equal(t, ViewLogin, g.View())
	assert.Nil(t, g.Dashboard())
}

func TestLoginMovesToDashboardThroughListener(t *testing.T) {
	fake := gatewaytest.New()
	fake.AddAdmin("owner@utiibeauty.com", "s3cret")
	g, built := newGuard(t, fake)
	g.Mount(context.Background())

	g.SetCredentials("owner@utiibeauty.com", "s3cret")
	g.Login(context.Background())

	assert.Equal(t, ViewDashboard, g.View())
	require.NotNil(t, g.Session())
	assert.Equal(t, "owner@utiibeauty.com", g.Session().Email)
	assert.Empty(t, g.Form().Error)
	assert.NotNil(t, g.Dashboard())
	assert.Same(t, g.Dashboard(), g.Dashboard())
	assert.Len(t, *built, 1)
}

func TestLoginFailureKeepsCredentials(t *testing.T) {
	fake := gatewaytest.New()
	fake.AddAdmin("owner@utiibeauty.com", "s3cret")
	g, _ := newGuard(t, fake)
	g.Mount(context.Background())

	g.SetCredentials("owner@utiibeauty.com", "wrong")
	g.Login(context.Background())

	form := g.Form()
	assert.Equal(t, ViewLogin, g.View())
	assert.Equal(t, "invalid login credentials", form.Error)
	assert.Equal(t, "owner@utiibeauty.com", form.Email)
	assert.Equal(t, "wrong", form.Password)

	g.SetCredentials("owner@utiibeauty.com", "s3cret")
	g.Login(context.Background())
	assert.Empty(t, g.Form().Error)
	assert.Equal(t, ViewDashboard, g.View())
}

func TestLoginRequiresBothFields(t *testing.T) {
	fake := gatewaytest.New()
	g, _ := newGuard(t, fake)
	g.Mount(context.Background())

	g.SetCredentials("owner@utiibeauty.com", "")
	g.Login(context.Background())

	assert.Equal(t, "Email and password are required.", g.Form().Error)
	assert.Zero(t, fake.Calls(gateway.OpSignIn))
}

func TestMountRestoresExistingSession(t *testing.T) {
	fake := gatewaytest.New()
	fake.AddAdmin("owner@utiibeauty.com", "s3cret")
	_, err := fake.SignIn(context.Background(), "owner@utiibeauty.com", "s3cret")
	require.NoError(t, err)

	g, _ := newGuard(t, fake)
	g.Mount(context.Background())
	assert.Equal(t, ViewDashboard, g.View())
}

func TestMountLookupFailureFallsBackToLogin(t *testing.T) {
	fake := gatewaytest.New()
	fake.Fail(gateway.OpCurrentSession, errors.New("connection refused"))
	g, _ := newGuard(t, fake)
	g.Mount(context.Background())
	assert.Equal(t, ViewLogin, g.View())
}

func TestSessionLossClosesDashboard(t *testing.T) {
	fake := gatewaytest.New()
	fake.AddAdmin("owner@utiibeauty.com", "s3cret")
	g, built := newGuard(t, fake)
	g.Mount(context.Background())
	g.SetCredentials("owner@utiibeauty.com", "s3cret")
	g.Login(context.Background())
	require.NotNil(t, g.Dashboard())

	fake.ExpireSession()

	assert.Equal(t, ViewLogin, g.View())
	assert.Nil(t, g.Dashboard())
	require.Len(t, *built, 1)
	assert.Equal(t, 1, (*built)[0].closed)
}

func TestLogoutReturnsToLogin(t *testing.T) {
	fake := gatewaytest.New()
	fake.AddAdmin("owner@utiibeauty.com", "s3cret")
	g, _ := newGuard(t, fake)
	g.Mount(context.Background())
	g.SetCredentials("owner@utiibeauty.com", "s3cret")
	g.Login(context.Background())

	require.NoError(t, g.Logout(context.Background()))
	assert.Equal(t, ViewLogin, g.View())
	assert.Empty(t, g.Form().Password)
}

func TestViewsAreExclusiveAcrossTransitions(t *testing.T) {
	fake := gatewaytest.New()
	fake.AddAdmin("owner@utiibeauty.com", "s3cret")
	g, _ := newGuard(t, fake)

	views := []View{g.View()}
	g.Mount(context.Background())
	views = append(views, g.View())
	g.SetCredentials("owner@utiibeauty.com", "s3cret")
	g.Login(context.Background())
	views = append(views, g.View())
	require.NoError(t, g.Logout(context.Background()))
	views = append(views, g.View())

	assert.Equal(t, []View{ViewLoading, ViewLogin, ViewDashboard, ViewLogin}, views)
}

func TestUnmountDropsListenerOnce(t *testing.T) {
	fake := gatewaytest.New()
	g, _ := newGuard(t, fake)
	g.Mount(context.Background())
	assert.Equal(t, 1, fake.SessionListeners())

	g.Unmount()
	g.Unmount()
	assert.Zero(t, fake.SessionListeners())
}
