package flows_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"yallapost/internal/core"
	"yallapost/internal/fake"
	"yallapost/internal/flows"
	"yallapost/internal/guard"
	"yallapost/internal/query"
	"yallapost/internal/session"
	"yallapost/internal/storage"
	"yallapost/internal/validation"
	"yallapost/internal/views"
	"yallapost/pkg/yalla"
)

const password = "Secret1!"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type notes struct {
	mu   sync.Mutex
	list []core.Notification
}

func (n *notes) Notify(_ context.Context, notification core.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.list = append(n.list, notification)
}

func (n *notes) all() []core.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]core.Notification(nil), n.list...)
}

func (n *notes) last() core.Notification {
	all := n.all()
	if len(all) == 0 {
		return core.Notification{}
	}
	return all[len(all)-1]
}

type harness struct {
	backend  *fake.Backend
	session  *session.Store
	cache    *query.Cache
	nav      *guard.Navigator
	views    *views.Views
	flows    *flows.Flows
	notes    *notes
	answer   atomic.Bool
	confirms atomic.Int32
}

// newHarness signs in as mona when signedIn is set, bob also exists.
func newHarness(t *testing.T, signedIn bool) *harness {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	h := &harness{backend: fake.NewBackend(), notes: &notes{}}

	token := h.backend.AddUser(yalla.User{ID: "u1", Name: "Mona", Email: "mona@example.com"}, password)
	h.backend.AddUser(yalla.User{ID: "u2", Name: "Bob", Email: "bob@example.com"}, password)
	if !signedIn {
		token = ""
	}

	h.session = session.New(storage.NewMemory(token), h.backend, logger)
	h.backend.Tokens = h.session
	require.NoError(t, h.session.Initialize(t.Context()))
	if signedIn {
		require.NoError(t, h.session.RefreshProfile(t.Context(), token))
	}

	h.cache = query.New(logger)
	h.nav = guard.NewNavigator(guard.NewRouter(guard.DefaultRoutes...), h.session.IsAuthenticated, logger)
	h.views = views.New(h.backend, h.session, h.cache)
	h.flows = flows.New(flows.Deps{
		Logger:    logger,
		Backend:   h.backend,
		Session:   h.session,
		Cache:     h.cache,
		Navigator: h.nav,
		Validator: validation.New(nil),
		Notifier:  h.notes,
		Confirmer: core.ConfirmFunc(func(context.Context, string) (bool, error) {
			h.confirms.Add(1)
			return h.answer.Load(), nil
		}),
		LogoutDelay: 20 * time.Millisecond,
	})

	t.Cleanup(func() {
		h.flows.Close()
		h.session.Wait()
		h.cache.Close()
	})
	return h
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, false)
		_, err := h.nav.Navigate(guard.LoginPath)
		require.NoError(t, err)

		require.NoError(t, h.flows.Login(t.Context(), validation.LoginForm{Email: "mona@example.com", Password: password}))
		require.Equal(t, 1, h.backend.Calls("Signin"))
		require.True(t, h.session.IsAuthenticated())
		require.Equal(t, guard.HomePath, h.nav.Current().Path)

		user, err := h.session.AwaitProfile(t.Context())
		require.NoError(t, err)
		require.Equal(t, "u1", user.ID)
		require.Equal(t, 1, h.backend.Calls("ProfileData"))
	})

	t.Run("invalid form", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, false)

		err := h.flows.Login(t.Context(), validation.LoginForm{Email: "not-an-email", Password: "short"})

		var fields validation.FieldErrors
		require.ErrorAs(t, err, &fields)
		require.ElementsMatch(t, []string{"email", "password"}, fields.Fields())
		require.Zero(t, h.backend.TotalCalls())
		require.Empty(t, h.notes.all())
	})

	t.Run("rejected credentials", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, false)

		err := h.flows.Login(t.Context(), validation.LoginForm{Email: "mona@example.com", Password: "Wrong1!x"})

		var failure *flows.Failure
		require.ErrorAs(t, err, &failure)
		require.Equal(t, "incorrect email or password", failure.Message)
		require.ErrorIs(t, err, yalla.ErrApplication)
		require.False(t, h.session.IsAuthenticated())
		require.Equal(t, core.Notification{Level: core.LevelError, Message: "incorrect email or password"}, h.notes.last())
	})

	t.Run("transport failure uses generic message", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, false)
		h.backend.Fail("Signin", yalla.ErrTransport)

		var failure *flows.Failure
		require.ErrorAs(t, h.flows.Login(t.Context(), validation.LoginForm{Email: "mona@example.com", Password: password}), &failure)
		require.Equal(t, "Login Failed", failure.Message)
	})
}

func TestRegister(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false)

	err := h.flows.Register(t.Context(), validation.RegisterForm{
		Name:        "Nour",
		Email:       "nour@example.com",
		Password:    password,
		RePassword:  password,
		DateOfBirth: "2000-01-01",
		Gender:      "female",
	})
	require.NoError(t, err)
	require.Equal(t, core.Notification{Level: core.LevelSuccess, Message: "Register Success"}, h.notes.last())
	require.Equal(t, guard.LoginPath, h.nav.Current().Path)
	require.False(t, h.session.IsAuthenticated())

	err = h.flows.Register(t.Context(), validation.RegisterForm{
		Name:        "Nour",
		Email:       "nour@example.com",
		Password:    password,
		RePassword:  "Secret2!",
		DateOfBirth: "2000-01-01",
		Gender:      "female",
	})
	var fields validation.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Equal(t, []string{"rePassword"}, fields.Fields())
	require.Equal(t, 1, h.backend.Calls("Signup"))
}

func TestLogout(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	_, err := h.nav.Navigate(guard.ProfilePath)
	require.NoError(t, err)

	require.NoError(t, h.flows.Logout(t.Context()))
	require.False(t, h.session.IsAuthenticated())
	require.Nil(t, h.session.User())
	require.Equal(t, guard.LoginPath, h.nav.Current().Path)
	require.Len(t, h.nav.History(), 1)
}

func TestCreatePost(t *testing.T) {
	t.Parallel()

	t.Run("invalidates listings", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, true)

		feed, err := h.views.LoadFeed(t.Context(), 1)
		require.NoError(t, err)
		require.Empty(t, feed.Posts)
		_, err = h.views.LoadUserPosts(t.Context(), 1)
		require.NoError(t, err)

		require.NoError(t, h.flows.CreatePost(t.Context(), validation.PostForm{
			Body:  "hello yalla",
			Image: &yalla.File{Name: "a.png", ContentType: "image/png", Data: pngHeader},
		}))
		require.Equal(t, core.Notification{Level: core.LevelSuccess, Message: "Post Created Successfully!"}, h.notes.last())

		require.True(t, query.Peek[*yalla.PostPage](h.cache, query.AllPostsKey(1)).Stale)
		require.True(t, query.Peek[*yalla.PostPage](h.cache, query.UserPostsKey("u1", 1)).Stale)

		feed, err = h.views.LoadFeed(t.Context(), 1)
		require.NoError(t, err)
		require.Len(t, feed.Posts, 1)
		require.Equal(t, "hello yalla", feed.Posts[0].Body)
		require.NotEmpty(t, feed.Posts[0].Image)
		require.Equal(t, 2, h.backend.Calls("ListPosts"))

		mine, err := h.views.LoadUserPosts(t.Context(), 1)
		require.NoError(t, err)
		require.Len(t, mine.Posts, 1)
		require.Equal(t, 2, h.backend.Calls("UserPosts"))
	})

	t.Run("validation blocks the call", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, true)
		calls := h.backend.TotalCalls()

		for _, body := range []string{"hi", "<script>alert(1)</script>"} {
			var fields validation.FieldErrors
			require.ErrorAs(t, h.flows.CreatePost(t.Context(), validation.PostForm{Body: body}), &fields)
		}
		require.Equal(t, calls, h.backend.TotalCalls())
		require.Empty(t, h.notes.all())
	})

	t.Run("failure leaves cache untouched", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, true)
		_, err := h.views.LoadFeed(t.Context(), 1)
		require.NoError(t, err)

		h.backend.Fail("CreatePost", &yalla.APIError{Status: 400, Message: "body too spicy", Kind: yalla.ErrApplication})

		var failure *flows.Failure
		require.ErrorAs(t, h.flows.CreatePost(t.Context(), validation.PostForm{Body: "hello yalla"}), &failure)
		require.Equal(t, "body too spicy", failure.Message)
		require.False(t, query.Peek[*yalla.PostPage](h.cache, query.AllPostsKey(1)).Stale)
		require.Equal(t, core.LevelError, h.notes.last().Level)
	})

	t.Run("generic failure message", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, true)
		h.backend.Fail("CreatePost", errors.New("boom"))

		var failure *flows.Failure
		require.ErrorAs(t, h.flows.CreatePost(t.Context(), validation.PostForm{Body: "hello yalla"}), &failure)
		require.Equal(t, "Post Creation Failed", failure.Message)
	})

	t.Run("rejected token expires the session", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, true)
		h.backend.Fail("CreatePost", &yalla.APIError{Status: 401, Message: "invalid token", Kind: yalla.ErrUnauthorized})

		require.ErrorIs(t, h.flows.CreatePost(t.Context(), validation.PostForm{Body: "hello yalla"}), yalla.ErrUnauthorized)
		require.False(t, h.session.IsAuthenticated())
	})

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, false)

		require.ErrorIs(t, h.flows.CreatePost(t.Context(), validation.PostForm{Body: "hello yalla"}), core.ErrNotAuthenticated)
		require.Zero(t, h.backend.TotalCalls())
	})
}

func TestPendingGuard(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	release := h.backend.Hold("CreatePost")

	errs := make(chan error, 1)
	go func() {
		errs <- h.flows.CreatePost(context.Background(), validation.PostForm{Body: "first post"})
	}()

	require.Eventually(t, func() bool {
		return h.flows.Pending(flows.FormCreatePost)
	}, time.Second, time.Millisecond)

	require.ErrorIs(t, h.flows.CreatePost(t.Context(), validation.PostForm{Body: "second post"}), core.ErrPending)

	release()
	require.NoError(t, <-errs)
	require.False(t, h.flows.Pending(flows.FormCreatePost))
	require.Equal(t, 1, h.backend.Calls("CreatePost"))
}

func TestEditPost(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	post := h.backend.AddPost("u1", "original body")

	details, err := h.views.LoadPostDetails(t.Context(), post.ID)
	require.NoError(t, err)
	require.Equal(t, "original body", details.Body)

	require.NoError(t, h.flows.EditPost(t.Context(), post.ID, validation.PostForm{Body: "edited body"}))
	require.Equal(t, "Post Updated Successfully", h.notes.last().Message)

	details, err = h.views.LoadPostDetails(t.Context(), post.ID)
	require.NoError(t, err)
	require.Equal(t, "edited body", details.Body)
	require.Equal(t, 2, h.backend.Calls("GetPost"))
}

func TestEditPost_NotOwner(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	post := h.backend.AddPost("u2", "bob's post")

	require.False(t, flows.CanModify(h.session.User(), post.User.ID))

	var failure *flows.Failure
	require.ErrorAs(t, h.flows.EditPost(t.Context(), post.ID, validation.PostForm{Body: "hijacked"}), &failure)
	require.Equal(t, "you are not allowed to do this", failure.Message)

	stored, ok := h.backend.Post(post.ID)
	require.True(t, ok)
	require.Equal(t, "bob's post", stored.Body)
}

func TestDeletePost(t *testing.T) {
	t.Parallel()

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, true)
		post := h.backend.AddPost("u1", "keep me")
		h.answer.Store(false)

		require.ErrorIs(t, h.flows.DeletePost(t.Context(), post.ID), core.ErrCancelled)
		require.Equal(t, int32(1), h.confirms.Load())
		require.Zero(t, h.backend.Calls("DeletePost"))
		require.Empty(t, h.notes.all())

		feed, err := h.views.LoadFeed(t.Context(), 1)
		require.NoError(t, err)
		require.Len(t, feed.Posts, 1)
	})

	t.Run("confirmed", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, true)
		post := h.backend.AddPost("u1", "delete me")
		_, err := h.views.LoadFeed(t.Context(), 1)
		require.NoError(t, err)
		h.answer.Store(true)

		require.NoError(t, h.flows.DeletePost(t.Context(), post.ID))
		require.Equal(t, "Post Deleted Successfully", h.notes.last().Message)

		feed, err := h.views.LoadFeed(t.Context(), 1)
		require.NoError(t, err)
		require.Empty(t, feed.Posts)
	})

	t.Run("confirmer error", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, true)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		f := flows.New(flows.Deps{
			Logger:    slog.New(slog.DiscardHandler),
			Backend:   h.backend,
			Session:   h.session,
			Cache:     h.cache,
			Navigator: h.nav,
			Validator: validation.New(nil),
			Notifier:  h.notes,
			Confirmer: core.ConfirmFunc(func(ctx context.Context, _ string) (bool, error) {
				return false, ctx.Err()
			}),
		})
		defer f.Close()

		require.ErrorIs(t, f.DeletePost(ctx, "p1"), context.Canceled)
		require.Zero(t, h.backend.Calls("DeletePost"))
	})
}

func TestComments(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	post := h.backend.AddPost("u2", "bob's post")
	h.answer.Store(true)

	_, err := h.views.LoadPostDetails(t.Context(), post.ID)
	require.NoError(t, err)

	require.NoError(t, h.flows.AddComment(t.Context(), post.ID, validation.CommentForm{Content: "nice one 🔥"}))
	require.Equal(t, core.Notification{Level: core.LevelSuccess, Message: "Comment added! 💬"}, h.notes.last())

	details, err := h.views.LoadPostDetails(t.Context(), post.ID)
	require.NoError(t, err)
	require.Len(t, details.Comments, 1)
	comment := details.Comments[0]
	require.True(t, flows.CanModify(h.session.User(), comment.Creator.ID))

	require.NoError(t, h.flows.EditComment(t.Context(), post.ID, comment.ID, validation.CommentForm{Content: "edited"}))
	require.Equal(t, "Comment Updated Successfully", h.notes.last().Message)

	details, err = h.views.LoadPostDetails(t.Context(), post.ID)
	require.NoError(t, err)
	require.Equal(t, "edited", details.Comments[0].Content)

	var fields validation.FieldErrors
	require.ErrorAs(t, h.flows.AddComment(t.Context(), post.ID, validation.CommentForm{Content: "<b>"}), &fields)

	require.NoError(t, h.flows.DeleteComment(t.Context(), post.ID, comment.ID))
	require.Equal(t, "Comment Deleted Successfully", h.notes.last().Message)

	details, err = h.views.LoadPostDetails(t.Context(), post.ID)
	require.NoError(t, err)
	require.Empty(t, details.Comments)
	require.Equal(t, 4, h.backend.Calls("GetPost"))
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	t.Run("logs out after the delay", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, true)
		_, err := h.nav.Navigate(guard.ProfilePath)
		require.NoError(t, err)

		done, err := h.flows.ChangePassword(t.Context(), validation.ChangePasswordForm{Password: password, NewPassword: "Newpass1"})
		require.NoError(t, err)
		require.Equal(t, core.Notification{
			Level:   core.LevelInfo,
			Message: "Password changed! Your session has ended. Please login with your new password.",
		}, h.notes.last())
		require.True(t, h.session.IsAuthenticated())

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("session was not cleared")
		}
		require.False(t, h.session.IsAuthenticated())
		require.Equal(t, guard.LoginPath, h.nav.Current().Path)
	})

	t.Run("same password", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, true)

		_, err := h.flows.ChangePassword(t.Context(), validation.ChangePasswordForm{Password: "Newpass1", NewPassword: "Newpass1"})
		var fields validation.FieldErrors
		require.ErrorAs(t, err, &fields)
		require.Equal(t, []string{"newPassword"}, fields.Fields())
		require.Zero(t, h.backend.Calls("ChangePassword"))
	})

	t.Run("wrong current password", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, true)

		_, err := h.flows.ChangePassword(t.Context(), validation.ChangePasswordForm{Password: "Wrong1xx", NewPassword: "Newpass1"})
		var failure *flows.Failure
		require.ErrorAs(t, err, &failure)
		require.Equal(t, "current password is incorrect", failure.Message)
		require.True(t, h.session.IsAuthenticated())
	})
}

func TestUploadPhoto(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	before := h.session.User().Photo

	require.NoError(t, h.flows.UploadPhoto(t.Context(), validation.PhotoForm{
		Photos: []*yalla.File{{Name: "me.png", ContentType: "image/png", Data: pngHeader}},
	}))
	require.Equal(t, "Profile Photo Updated Successfully", h.notes.last().Message)

	after := h.session.User()
	require.NotEqual(t, before, after.Photo)
	require.True(t, after.HasCustomPhoto())

	var fields validation.FieldErrors
	require.ErrorAs(t, h.flows.UploadPhoto(t.Context(), validation.PhotoForm{}), &fields)
	require.Equal(t, 1, h.backend.Calls("UploadPhoto"))
}

func TestCanModify(t *testing.T) {
	t.Parallel()

	require.True(t, flows.CanModify(&yalla.User{ID: "u1"}, "u1"))
	require.False(t, flows.CanModify(&yalla.User{ID: "u1"}, "u2"))
	require.False(t, flows.CanModify(nil, "u1"))
	require.False(t, flows.CanModify(&yalla.User{}, ""))
}
