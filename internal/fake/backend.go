// Package fake provides an in-memory backend for tests.
package fake

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"yallapost/pkg/yalla"
)

// TokenSource reads the token the client would attach to a request.
type TokenSource interface {
	Token() string
}

// Backend mimics the REST API: posts and comments are owned by the user of
// the attached token and every call is counted.
type Backend struct {
	Tokens TokenSource

	mu       sync.Mutex
	calls    map[string]int
	users    map[string]*yalla.User
	sessions map[string]string
	password map[string]string
	posts    []*yalla.Post
	nextID   int
	failures map[string]error
	gates    map[string]chan struct{}
	photos   map[string]*yalla.File
}

func NewBackend() *Backend {
	return &Backend{
		calls:    map[string]int{},
		users:    map[string]*yalla.User{},
		sessions: map[string]string{},
		password: map[string]string{},
		failures: map[string]error{},
		gates:    map[string]chan struct{}{},
		photos:   map[string]*yalla.File{},
	}
}

// AddUser registers a user and returns a valid token for it.
func (b *Backend) AddUser(user yalla.User, password string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if user.Photo == "" {
		user.Photo = yalla.DefaultPhoto
	}
	b.users[user.ID] = &user
	b.password[user.Email] = password
	return b.issueToken(user.ID)
}

func (b *Backend) issueToken(userID string) string {
	b.nextID++
	token := "token-" + userID + "-" + strconv.Itoa(b.nextID)
	b.sessions[token] = userID
	return token
}

// AddPost stores a post authored by userID.
func (b *Backend) AddPost(userID, body string) *yalla.Post {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.addPost(userID, body, "")
}

func (b *Backend) addPost(userID, body, image string) *yalla.Post {
	b.nextID++
	post := &yalla.Post{
		ID:        "post-" + strconv.Itoa(b.nextID),
		Body:      body,
		Image:     image,
		User:      b.author(userID),
		CreatedAt: time.Now(),
		Comments:  []*yalla.Comment{},
	}
	b.posts = append([]*yalla.Post{post}, b.posts...)
	return post
}

func (b *Backend) author(userID string) yalla.Author {
	user := b.users[userID]
	if user == nil {
		return yalla.Author{ID: userID}
	}
	return yalla.Author{ID: user.ID, Name: user.Name, Photo: user.Photo}
}

// Fail makes the next calls of method fail with err until cleared with nil.
func (b *Backend) Fail(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		delete(b.failures, method)
		return
	}
	b.failures[method] = err
}

// Hold blocks calls of method until the returned func is called.
func (b *Backend) Hold(method string) func() {
	gate := make(chan struct{})

	b.mu.Lock()
	b.gates[method] = gate
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.gates, method)
		b.mu.Unlock()
		close(gate)
	}
}

func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.calls[method]
}

func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for _, n := range b.calls {
		total += n
	}
	return total
}

func (b *Backend) Post(id string) (*yalla.Post, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	post := b.findPost(id)
	return post, post != nil
}

// enter counts the call, waits on a held gate and returns a configured failure.
func (b *Backend) enter(ctx context.Context, method string) error {
	b.mu.Lock()
	b.calls[method]++
	gate, err := b.gates[method], b.failures[method]
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// authorize resolves token to a user id. b.mu must be held.
func (b *Backend) authorize(token string) (string, error) {
	userID, ok := b.sessions[token]
	if !ok {
		return "", &yalla.APIError{Status: http.StatusUnauthorized, Message: "invalid token", Kind: yalla.ErrUnauthorized}
	}
	return userID, nil
}

func (b *Backend) token() string {
	if b.Tokens == nil {
		return ""
	}
	return b.Tokens.Token()
}

func (b *Backend) findPost(id string) *yalla.Post {
	for _, post := range b.posts {
		if post.ID == id {
			return post
		}
	}
	return nil
}

func (b *Backend) findComment(id string) (*yalla.Post, int) {
	for _, post := range b.posts {
		for i, comment := range post.Comments {
			if comment.ID == id {
				return post, i
			}
		}
	}
	return nil, -1
}

func notFound(what, id string) error {
	return &yalla.APIError{Status: http.StatusNotFound, Message: fmt.Sprintf("%s %s not found", what, id), Kind: yalla.ErrApplication}
}

func forbidden() error {
	return &yalla.APIError{Status: http.StatusForbidden, Message: "you are not allowed to do this", Kind: yalla.ErrApplication}
}

func (b *Backend) Signin(ctx context.Context, credentials yalla.Credentials) (string, error) {
	if err := b.enter(ctx, "Signin"); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if password, ok := b.password[credentials.Email]; !ok || password != credentials.Password {
		return "", &yalla.APIError{Status: http.StatusBadRequest, Message: "incorrect email or password", Kind: yalla.ErrApplication}
	}
	for _, user := range b.users {
		if user.Email == credentials.Email {
			return b.issueToken(user.ID), nil
		}
	}
	return "", notFound("user", credentials.Email)
}

func (b *Backend) Signup(ctx context.Context, registration yalla.Registration) error {
	if err := b.enter(ctx, "Signup"); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.password[registration.Email]; ok {
		return &yalla.APIError{Status: http.StatusConflict, Message: "user already exists", Kind: yalla.ErrApplication}
	}

	b.nextID++
	id := "user-" + strconv.Itoa(b.nextID)
	b.users[id] = &yalla.User{
		ID:          id,
		Name:        registration.Name,
		Email:       registration.Email,
		Photo:       yalla.DefaultPhoto,
		Gender:      registration.Gender,
		DateOfBirth: registration.DateOfBirth,
		CreatedAt:   time.Now(),
	}
	b.password[registration.Email] = registration.Password
	return nil
}

func (b *Backend) ProfileData(ctx context.Context, token string) (*yalla.User, error) {
	if err := b.enter(ctx, "ProfileData"); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	userID, err := b.authorize(token)
	if err != nil {
		return nil, err
	}
	user := *b.users[userID]
	return &user, nil
}

// ChangePassword revokes every token of the user and issues a new one.
func (b *Backend) ChangePassword(ctx context.Context, change yalla.PasswordChange) (string, error) {
	if err := b.enter(ctx, "ChangePassword"); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	userID, err := b.authorize(b.token())
	if err != nil {
		return "", err
	}

	user := b.users[userID]
	if b.password[user.Email] != change.Password {
		return "", &yalla.APIError{Status: http.StatusBadRequest, Message: "current password is incorrect", Kind: yalla.ErrApplication}
	}
	b.password[user.Email] = change.NewPassword

	for token, id := range b.sessions {
		if id == userID {
			delete(b.sessions, token)
		}
	}
	return b.issueToken(userID), nil
}

func (b *Backend) UploadPhoto(ctx context.Context, photo *yalla.File) error {
	if err := b.enter(ctx, "UploadPhoto"); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	userID, err := b.authorize(b.token())
	if err != nil {
		return err
	}

	b.nextID++
	b.users[userID].Photo = fmt.Sprintf("https://cdn.example.com/%d-%s", b.nextID, photo.Name)
	b.photos[userID] = photo
	return nil
}

// UploadedPhoto returns the last photo file uploaded by the user.
func (b *Backend) UploadedPhoto(userID string) (*yalla.File, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	photo, ok := b.photos[userID]
	return photo, ok
}

func (b *Backend) page(posts []*yalla.Post, page int) *yalla.PostPage {
	const limit = yalla.DefaultPageSize

	page = max(page, 1)
	pages := max((len(posts)+limit-1)/limit, 1)
	start := min((page-1)*limit, len(posts))
	end := min(start+limit, len(posts))

	return &yalla.PostPage{
		Posts: slices.Clone(posts[start:end]),
		Pagination: yalla.PaginationInfo{
			CurrentPage:   page,
			NumberOfPages: pages,
			Limit:         limit,
			Total:         len(posts),
		},
	}
}

func (b *Backend) ListPosts(ctx context.Context, page int) (*yalla.PostPage, error) {
	if err := b.enter(ctx, "ListPosts"); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.authorize(b.token()); err != nil {
		return nil, err
	}
	return b.page(b.posts, page), nil
}

func (b *Backend) UserPosts(ctx context.Context, userID string, page int) (*yalla.PostPage, error) {
	if err := b.enter(ctx, "UserPosts"); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.authorize(b.token()); err != nil {
		return nil, err
	}

	var posts []*yalla.Post
	for _, post := range b.posts {
		if post.User.ID == userID {
			posts = append(posts, post)
		}
	}
	return b.page(posts, page), nil
}

func (b *Backend) GetPost(ctx context.Context, id string) (*yalla.Post, error) {
	if err := b.enter(ctx, "GetPost"); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.authorize(b.token()); err != nil {
		return nil, err
	}

	post := b.findPost(id)
	if post == nil {
		return nil, notFound("post", id)
	}
	copied := *post
	copied.Comments = slices.Clone(post.Comments)
	return &copied, nil
}

func (b *Backend) CreatePost(ctx context.Context, input yalla.PostInput) (*yalla.Post, error) {
	if err := b.enter(ctx, "CreatePost"); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	userID, err := b.authorize(b.token())
	if err != nil {
		return nil, err
	}

	var image string
	if input.Image != nil {
		image = "https://cdn.example.com/" + input.Image.Name
	}
	return b.addPost(userID, input.Body, image), nil
}

func (b *Backend) UpdatePost(ctx context.Context, id string, input yalla.PostInput) (*yalla.Post, error) {
	if err := b.enter(ctx, "UpdatePost"); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	userID, err := b.authorize(b.token())
	if err != nil {
		return nil, err
	}

	post := b.findPost(id)
	if post == nil {
		return nil, notFound("post", id)
	}
	if post.User.ID != userID {
		return nil, forbidden()
	}

	post.Body = input.Body
	if input.Image != nil {
		post.Image = "https://cdn.example.com/" + input.Image.Name
	}
	return post, nil
}

func (b *Backend) DeletePost(ctx context.Context, id string) error {
	if err := b.enter(ctx, "DeletePost"); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	userID, err := b.authorize(b.token())
	if err != nil {
		return err
	}

	post := b.findPost(id)
	if post == nil {
		return notFound("post", id)
	}
	if post.User.ID != userID {
		return forbidden()
	}

	b.posts = slices.DeleteFunc(b.posts, func(p *yalla.Post) bool { return p.ID == id })
	return nil
}

func (b *Backend) CreateComment(ctx context.Context, postID, content string) (*yalla.Comment, error) {
	if err := b.enter(ctx, "CreateComment"); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	userID, err := b.authorize(b.token())
	if err != nil {
		return nil, err
	}

	post := b.findPost(postID)
	if post == nil {
		return nil, notFound("post", postID)
	}

	b.nextID++
	comment := &yalla.Comment{
		ID:        "comment-" + strconv.Itoa(b.nextID),
		Content:   content,
		Creator:   b.author(userID),
		Post:      postID,
		CreatedAt: time.Now(),
	}
	post.Comments = append(post.Comments, comment)
	return comment, nil
}

func (b *Backend) UpdateComment(ctx context.Context, id, content string) (*yalla.Comment, error) {
	if err := b.enter(ctx, "UpdateComment"); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	userID, err := b.authorize(b.token())
	if err != nil {
		return nil, err
	}

	post, i := b.findComment(id)
	if post == nil {
		return nil, notFound("comment", id)
	}
	comment := post.Comments[i]
	if comment.Creator.ID != userID {
		return nil, forbidden()
	}
	comment.Content = content
	return comment, nil
}

func (b *Backend) DeleteComment(ctx context.Context, id string) error {
	if err := b.enter(ctx, "DeleteComment"); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	userID, err := b.authorize(b.token())
	if err != nil {
		return err
	}

	post, i := b.findComment(id)
	if post == nil {
		return notFound("comment", id)
	}
	if post.Comments[i].Creator.ID != userID {
		return forbidden()
	}
	post.Comments = slices.Delete(post.Comments, i, i+1)
	return nil
}
