package yalla_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"yallapost/pkg/yalla"
)

func newTestClient(t *testing.T, handler http.Handler, token string) *yalla.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := yalla.NewClient(&yalla.ClientConfig{
		BaseURL: srv.URL,
		Timeout: time.Second,
		Tokens:  yalla.TokenFunc(func() string { return token }),
	})
	t.Cleanup(func() { client.Close() }) //nolint:errcheck

	return client
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

func TestClient_Signin(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var got yalla.Credentials
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/users/signin", r.URL.Path)
			require.Empty(t, r.Header.Get(yalla.TokenHeader))
			require.NotEmpty(t, r.Header.Get(yalla.RequestIDHeader))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			writeJSON(w, http.StatusOK, map[string]string{"message": "success", "token": "tok"})
		}), "")

		token, err := client.Signin(t.Context(), yalla.Credentials{Email: "a@b.co", Password: "Secret1!"})
		require.NoError(t, err)
		require.Equal(t, "tok", token)
		require.Equal(t, "a@b.co", got.Email)
	})

	t.Run("server error message", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "incorrect email or password"})
		}), "")

		_, err := client.Signin(t.Context(), yalla.Credentials{Email: "a@b.co", Password: "nope"})
		require.ErrorIs(t, err, yalla.ErrApplication)
		require.Equal(t, "incorrect email or password", yalla.Message(err))
	})

	t.Run("token without success message", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "account locked", "token": "tok"})
		}), "")

		token, err := client.Signin(t.Context(), yalla.Credentials{Email: "a@b.co", Password: "Secret1!"})
		require.ErrorIs(t, err, yalla.ErrApplication)
		require.Equal(t, "account locked", yalla.Message(err))
		require.Empty(t, token)
	})
}

func TestClient_ProfileData(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "explicit", r.Header.Get(yalla.TokenHeader))
			writeJSON(w, http.StatusOK, map[string]any{
				"message": "success",
				"user":    map[string]string{"_id": "u1", "name": "Mona", "gender": "female"},
			})
		}), "ignored")

		user, err := client.ProfileData(t.Context(), "explicit")
		require.NoError(t, err)
		require.Equal(t, "u1", user.ID)
		require.Equal(t, yalla.GenderFemale, user.Gender)
	})

	t.Run("error field in ok response", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"error": "user not found"})
		}), "")

		_, err := client.ProfileData(t.Context(), "tok")
		require.ErrorIs(t, err, yalla.ErrApplication)
		require.Equal(t, "user not found", yalla.Message(err))
	})

	t.Run("message is not success", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "pending"})
		}), "")

		_, err := client.ProfileData(t.Context(), "tok")
		require.ErrorIs(t, err, yalla.ErrApplication)
	})

	t.Run("rejected token", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}), "")

		_, err := client.ProfileData(t.Context(), "tok")
		require.ErrorIs(t, err, yalla.ErrUnauthorized)
	})
}

func TestClient_MissingToken(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{"message": "success"})
	}), "")

	_, err := client.ListPosts(t.Context(), 1)
	require.ErrorIs(t, err, yalla.ErrUnauthorized)
	require.ErrorIs(t, client.DeletePost(t.Context(), "p1"), yalla.ErrUnauthorized)
	require.Zero(t, calls.Load())
}

func TestClient_ListPosts(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/posts", r.URL.Path)
		require.Equal(t, "tok", r.Header.Get(yalla.TokenHeader))
		require.Equal(t, "40", r.URL.Query().Get("limit"))
		require.Equal(t, "-createdAt", r.URL.Query().Get("sort"))
		require.Equal(t, "2", r.URL.Query().Get("page"))

		writeJSON(w, http.StatusOK, map[string]any{
			"message":        "success",
			"paginationInfo": map[string]int{"currentPage": 2, "numberOfPages": 3, "limit": 40, "total": 100},
			"posts":          []map[string]any{{"_id": "p1", "body": "hello", "user": map[string]string{"_id": "u1"}}},
		})
	}), "tok")

	page, err := client.ListPosts(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	require.Equal(t, "u1", page.Posts[0].User.ID)
	require.Equal(t, 100, page.Pagination.Total)
	require.True(t, page.HasNext())
}

func TestClient_UserPosts(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/u1/posts", r.URL.Path)
		require.Equal(t, "1", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, map[string]any{"message": "success", "posts": []any{}})
	}), "tok")

	page, err := client.UserPosts(t.Context(), "u1", 0)
	require.NoError(t, err)
	require.Empty(t, page.Posts)
	require.Equal(t, 1, page.Pagination.CurrentPage)
}

func TestClient_CreatePost(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "hello world", r.FormValue("body"))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "cat.png", header.Filename)
		require.Equal(t, []byte("png-bytes"), data)

		writeJSON(w, http.StatusCreated, map[string]any{"message": "success", "post": map[string]string{"_id": "p1"}})
	}), "tok")

	post, err := client.CreatePost(t.Context(), yalla.PostInput{
		Body:  "hello world",
		Image: &yalla.File{Name: "cat.png", ContentType: "image/png", Data: []byte("png-bytes")},
	})
	require.NoError(t, err)
	require.Equal(t, "p1", post.ID)
}

func TestClient_Comments(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var input yalla.CommentInput
		switch r.Method {
		case http.MethodPost:
			require.Equal(t, "/comments/", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
			require.Equal(t, "p1", input.Post)
		case http.MethodPut:
			require.Equal(t, "/comments/c1", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
			require.Empty(t, input.Post)
		case http.MethodDelete:
			require.Equal(t, "/comments/c1", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "success", "comment": map[string]string{"_id": "c1", "content": input.Content}})
	}), "tok")

	created, err := client.CreateComment(t.Context(), "p1", "nice one")
	require.NoError(t, err)
	require.Equal(t, "nice one", created.Content)

	updated, err := client.UpdateComment(t.Context(), "c1", "edited")
	require.NoError(t, err)
	require.Equal(t, "edited", updated.Content)

	require.NoError(t, client.DeleteComment(t.Context(), "c1"))
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := yalla.NewClient(&yalla.ClientConfig{
		BaseURL: srv.URL,
		Timeout: 20 * time.Millisecond,
		Tokens:  yalla.TokenFunc(func() string { return "tok" }),
	})
	defer client.Close() //nolint:errcheck

	_, err := client.GetPost(t.Context(), "p1")
	require.ErrorIs(t, err, yalla.ErrTimeout)
	require.True(t, yalla.IsRetryable(err))
}
