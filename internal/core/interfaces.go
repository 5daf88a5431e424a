package core

import (
	"context"

	"yallapost/pkg/yalla"
)

// TokenStore is the durable home of the session token. Get returns an empty
// string when no token is stored.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Put(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// HealthChecker is implemented by token stores backed by a remote connection.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type ProfileFetcher interface {
	ProfileData(ctx context.Context, token string) (*yalla.User, error)
}

// Backend is the remote REST API as seen by the views and mutation flows.
type Backend interface {
	ProfileFetcher

	Signin(ctx context.Context, credentials yalla.Credentials) (string, error)
	Signup(ctx context.Context, registration yalla.Registration) error
	ChangePassword(ctx context.Context, change yalla.PasswordChange) (string, error)
	UploadPhoto(ctx context.Context, photo *yalla.File) error

	ListPosts(ctx context.Context, page int) (*yalla.PostPage, error)
	UserPosts(ctx context.Context, userID string, page int) (*yalla.PostPage, error)
	GetPost(ctx context.Context, id string) (*yalla.Post, error)
	CreatePost(ctx context.Context, input yalla.PostInput) (*yalla.Post, error)
	UpdatePost(ctx context.Context, id string, input yalla.PostInput) (*yalla.Post, error)
	DeletePost(ctx context.Context, id string) error

	CreateComment(ctx context.Context, postID, content string) (*yalla.Comment, error)
	UpdateComment(ctx context.Context, id, content string) (*yalla.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// Notifier surfaces transient messages to the user.
type Notifier interface {
	Notify(ctx context.Context, notification Notification)
}

// Confirmer asks the user a blocking yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}
