package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"yallapost/internal/guard"
)

const (
	sessionPath        = "/session"
	logoutPath         = "/logout"
	commentsPath       = "/posts/{id}/comments"
	commentPath        = "/posts/{id}/comments/{commentID}"
	passwordPath       = "/account/password"
	photoPath          = "/account/photo"
	maxMultipartMemory = 8 << 20
	multipartOverhead  = 64 << 10
)

func (s *Server) routes(r chi.Router) {
	r.Get(sessionPath, s.getSession)

	r.Group(func(r chi.Router) {
		r.Use(s.guarded(guard.GuestOnly{}))

		r.Get(guard.LoginPath, s.page)
		r.Get(guard.RegisterPath, s.page)
		r.Post(guard.LoginPath, s.login)
		r.Post(guard.RegisterPath, s.register)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.guarded(guard.AuthOnly{}))

		r.Get(guard.HomePath, s.feed)
		r.Get(guard.PostsPath, s.feed)
		r.Get(guard.PostPath, s.postDetails)
		r.Get(guard.ProfilePath, s.profile)

		r.Post(logoutPath, s.logout)

		r.Post(guard.PostsPath, s.createPost)
		r.Put(guard.PostPath, s.editPost)
		r.Delete(guard.PostPath, s.deletePost)

		r.Post(commentsPath, s.addComment)
		r.Put(commentPath, s.editComment)
		r.Delete(commentPath, s.deleteComment)

		r.Patch(passwordPath, s.changePassword)
		r.Put(photoPath, s.uploadPhoto)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, response{Error: "not found"})
	})
}

// guarded redirects requests the guard does not let through.
func (s *Server) guarded(g guard.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := g.Decide(s.App.Authenticated())
			if !decision.Allowed() {
				requestLogger(r.Context()).Debug("guard redirect", "to", decision.Redirect)
				http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// visit moves the session navigator to the requested page.
func (s *Server) visit(r *http.Request) {
	if _, err := s.App.Navigator.Navigate(r.URL.RequestURI()); err != nil {
		requestLogger(r.Context()).Warn("failed to navigate", "error", err)
	}
}
