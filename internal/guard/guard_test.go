package guard_test

import (
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"yallapost/internal/guard"
)

func newNavigator(authenticated *atomic.Bool) *guard.Navigator {
	return guard.NewNavigator(
		guard.NewRouter(guard.DefaultRoutes...),
		authenticated.Load,
		slog.New(slog.DiscardHandler),
	)
}

func TestGuards(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		guard         guard.Guard
		authenticated bool
		redirect      string
	}{
		{"auth only, anonymous", guard.AuthOnly{}, false, guard.LoginPath},
		{"auth only, authenticated", guard.AuthOnly{}, true, ""},
		{"guest only, anonymous", guard.GuestOnly{}, false, ""},
		{"guest only, authenticated", guard.GuestOnly{}, true, guard.HomePath},
		{"public, anonymous", guard.Public{}, false, ""},
		{"public, authenticated", guard.Public{}, true, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			decision := tc.guard.Decide(tc.authenticated)
			require.Equal(t, tc.redirect, decision.Redirect)
			require.Equal(t, tc.redirect == "", decision.Allowed())
		})
	}
}

func TestRouter_Match(t *testing.T) {
	t.Parallel()

	router := guard.NewRouter(guard.DefaultRoutes...)

	match := router.Match("/posts/66a1?page=2")
	require.Equal(t, "post", match.Route.Name)
	require.Equal(t, "66a1", match.Param("id"))
	require.Equal(t, "2", match.Query.Get("page"))

	require.Equal(t, "posts", router.Match("/posts").Route.Name)
	require.Equal(t, "home", router.Match("/").Route.Name)
	require.Equal(t, "not-found", router.Match("/nope").Route.Name)
	require.Equal(t, "not-found", router.Match("/posts/1/comments").Route.Name)
	require.Len(t, router.Routes(), len(guard.DefaultRoutes))
}

func TestNavigator(t *testing.T) {
	t.Parallel()

	t.Run("anonymous sees login", func(t *testing.T) {
		t.Parallel()

		var authenticated atomic.Bool
		nav := newNavigator(&authenticated)

		location, err := nav.Navigate("/login")
		require.NoError(t, err)
		require.Equal(t, "login", location.Route.Name)
		require.Empty(t, location.RedirectedFrom)

		location, err = nav.Navigate("/posts/p1")
		require.NoError(t, err)
		require.Equal(t, guard.LoginPath, location.Path)
		require.Equal(t, "/posts/p1", location.RedirectedFrom)
	})

	t.Run("authenticated is sent home from login", func(t *testing.T) {
		t.Parallel()

		var authenticated atomic.Bool
		authenticated.Store(true)
		nav := newNavigator(&authenticated)

		location, err := nav.Navigate("/login")
		require.NoError(t, err)
		require.Equal(t, guard.HomePath, location.Path)
		require.Equal(t, "home", nav.Current().Route.Name)

		location, err = nav.Navigate("/register")
		require.NoError(t, err)
		require.Equal(t, guard.HomePath, location.Path)
	})

	t.Run("not found is public", func(t *testing.T) {
		t.Parallel()

		var authenticated atomic.Bool
		nav := newNavigator(&authenticated)

		location, err := nav.Navigate("/missing")
		require.NoError(t, err)
		require.Equal(t, "not-found", location.Route.Name)
	})

	t.Run("refresh after logout", func(t *testing.T) {
		t.Parallel()

		var authenticated atomic.Bool
		authenticated.Store(true)
		nav := newNavigator(&authenticated)

		var seen []string
		unsubscribe := nav.Subscribe(func(l guard.Location) { seen = append(seen, l.Path) })
		defer unsubscribe()

		_, err := nav.Navigate("/profile")
		require.NoError(t, err)

		authenticated.Store(false)
		location, err := nav.Refresh()
		require.NoError(t, err)
		require.Equal(t, guard.LoginPath, location.Path)
		require.Len(t, nav.History(), 1)
		require.Equal(t, []string{"/profile", "/login"}, seen)
	})

	t.Run("replace keeps history length", func(t *testing.T) {
		t.Parallel()

		var authenticated atomic.Bool
		authenticated.Store(true)
		nav := newNavigator(&authenticated)

		_, err := nav.Navigate("/")
		require.NoError(t, err)
		_, err = nav.Navigate("/posts/p1")
		require.NoError(t, err)

		authenticated.Store(false)
		_, err = nav.Replace(guard.LoginPath)
		require.NoError(t, err)

		history := nav.History()
		require.Len(t, history, 2)
		require.Equal(t, guard.LoginPath, history[1].Path)
	})
}
