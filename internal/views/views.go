package views

import (
	"context"

	"yallapost/internal/core"
	"yallapost/internal/query"
	"yallapost/internal/session"
	"yallapost/pkg/yalla"
)

// Views declares the readable server data of the application as queries.
type Views struct {
	backend core.Backend
	session *session.Store
	cache   *query.Cache
}

func New(backend core.Backend, session *session.Store, cache *query.Cache) *Views {
	return &Views{backend: backend, session: session, cache: cache}
}

// Feed is the global listing, newest first.
func (v *Views) Feed(page int) query.Query[*yalla.PostPage] {
	page = max(page, 1)

	return query.Query[*yalla.PostPage]{
		Key:     query.AllPostsKey(page),
		Enabled: v.session.IsAuthenticated(),
		Fetch: func(ctx context.Context) (*yalla.PostPage, error) {
			return v.backend.ListPosts(ctx, page)
		},
	}
}

// UserPosts lists the posts of the session user and stays disabled until
// the profile is known.
func (v *Views) UserPosts(page int) query.Query[*yalla.PostPage] {
	page = max(page, 1)

	user := v.session.User()
	if user == nil || user.ID == "" {
		return query.Query[*yalla.PostPage]{Key: query.UserPostsKey("", page)}
	}

	return query.Query[*yalla.PostPage]{
		Key:     query.UserPostsKey(user.ID, page),
		Enabled: v.session.IsAuthenticated(),
		Fetch: func(ctx context.Context) (*yalla.PostPage, error) {
			return v.backend.UserPosts(ctx, user.ID, page)
		},
	}
}

func (v *Views) PostDetails(id string) query.Query[*yalla.Post] {
	return query.Query[*yalla.Post]{
		Key:     query.PostDetailsKey(id),
		Enabled: v.session.IsAuthenticated() && id != "",
		Fetch: func(ctx context.Context) (*yalla.Post, error) {
			return v.backend.GetPost(ctx, id)
		},
	}
}

func (v *Views) ReadFeed(page int) query.Result[*yalla.PostPage] {
	return query.Read(v.cache, v.Feed(page))
}

func (v *Views) ReadUserPosts(page int) query.Result[*yalla.PostPage] {
	return query.Read(v.cache, v.UserPosts(page))
}

func (v *Views) ReadPostDetails(id string) query.Result[*yalla.Post] {
	return query.Read(v.cache, v.PostDetails(id))
}

func (v *Views) LoadFeed(ctx context.Context, page int) (*yalla.PostPage, error) {
	return query.Load(ctx, v.cache, v.Feed(page))
}

// LoadUserPosts waits for the profile before listing the user's posts.
func (v *Views) LoadUserPosts(ctx context.Context, page int) (*yalla.PostPage, error) {
	if _, err := v.session.AwaitProfile(ctx); err != nil {
		return nil, err
	}
	return query.Load(ctx, v.cache, v.UserPosts(page))
}

func (v *Views) LoadPostDetails(ctx context.Context, id string) (*yalla.Post, error) {
	return query.Load(ctx, v.cache, v.PostDetails(id))
}
