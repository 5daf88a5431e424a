package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"yallapost/internal/validation"
	"yallapost/pkg/yalla"
)

var (
	errBadRequest = errors.New("bad request")
	errTooLarge   = errors.New("request body too large")
)

type sessionView struct {
	Authenticated bool        `json:"authenticated"`
	State         string      `json:"state"`
	User          *yalla.User `json:"user,omitempty"`
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	snapshot := s.App.Session.Snapshot()
	s.ok(w, r, http.StatusOK, sessionView{
		Authenticated: snapshot.Token != "",
		State:         snapshot.State.String(),
		User:          snapshot.User,
	})
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	s.visit(r)
	s.ok(w, r, http.StatusOK, nil)
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return max(page, 1)
}

func (s *Server) feed(w http.ResponseWriter, r *http.Request) {
	s.visit(r)

	page, err := s.App.Views.LoadFeed(r.Context(), pageParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, renderPage(page, s.App.Session.User(), time.Now()))
}

func (s *Server) postDetails(w http.ResponseWriter, r *http.Request) {
	s.visit(r)

	post, err := s.App.Views.LoadPostDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, renderPost(post, s.App.Session.User(), time.Now()))
}

type profileView struct {
	User  *yalla.User `json:"user"`
	Posts pageView    `json:"posts"`
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	s.visit(r)

	page, err := s.App.Views.LoadUserPosts(r.Context(), pageParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	user := s.App.Session.User()
	s.ok(w, r, http.StatusOK, profileView{User: user, Posts: renderPage(page, user, time.Now())})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var form validation.LoginForm
	if err := decode(r, &form); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.App.Flows.Login(r.Context(), form); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, nil)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var form validation.RegisterForm
	if err := decode(r, &form); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.App.Flows.Register(r.Context(), form); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, http.StatusCreated, nil)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.App.Flows.Logout(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, nil)
}

func readFile(header *multipart.FileHeader) (*yalla.File, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	// the declared part type is ignored, validation judges the bytes
	return &yalla.File{Name: header.Filename, ContentType: mimetype.Detect(data).String(), Data: data}, nil
}

// readFiles parses a multipart body of at most limit bytes of files plus the
// form fields and returns the files of field.
func readFiles(w http.ResponseWriter, r *http.Request, field string, limit int) ([]*yalla.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(limit)+multipartOverhead)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit is %d bytes", errTooLarge, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}

	files := make([]*yalla.File, 0, len(r.MultipartForm.File[field]))
	for _, header := range r.MultipartForm.File[field] {
		file, err := readFile(header)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errBadRequest, err)
		}
		files = append(files, file)
	}
	return files, nil
}

func postForm(w http.ResponseWriter, r *http.Request) (validation.PostForm, error) {
	images, err := readFiles(w, r, "image", validation.MaxPostImageSize)
	if err != nil {
		return validation.PostForm{}, err
	}

	form := validation.PostForm{Body: r.FormValue("body")}
	if len(images) > 0 {
		form.Image = images[0]
	}
	return form, nil
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	form, err := postForm(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.App.Flows.CreatePost(r.Context(), form); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, http.StatusCreated, nil)
}

func (s *Server) editPost(w http.ResponseWriter, r *http.Request) {
	form, err := postForm(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.App.Flows.EditPost(r.Context(), chi.URLParam(r, "id"), form); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, nil)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.App.Flows.DeletePost(withConfirmation(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, nil)
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	var form validation.CommentForm
	if err := decode(r, &form); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.App.Flows.AddComment(r.Context(), chi.URLParam(r, "id"), form); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, http.StatusCreated, nil)
}

func (s *Server) editComment(w http.ResponseWriter, r *http.Request) {
	var form validation.CommentForm
	if err := decode(r, &form); err != nil {
		s.fail(w, r, err)
		return
	}

	err := s.App.Flows.EditComment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "commentID"), form)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, nil)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	err := s.App.Flows.DeleteComment(withConfirmation(r), chi.URLParam(r, "id"), chi.URLParam(r, "commentID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, nil)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var form validation.ChangePasswordForm
	if err := decode(r, &form); err != nil {
		s.fail(w, r, err)
		return
	}

	if _, err := s.App.Flows.ChangePassword(r.Context(), form); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, http.StatusAccepted, nil)
}

func (s *Server) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	photos, err := readFiles(w, r, "photo", validation.MaxPhotoSize)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.App.Flows.UploadPhoto(r.Context(), validation.PhotoForm{Photos: photos}); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, s.App.Session.User())
}
