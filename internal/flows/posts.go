package flows

import (
	"context"

	"yallapost/internal/query"
	"yallapost/internal/validation"
)

const (
	FormCreatePost = "post:create"
	FormEditPost   = "post:edit:"
	FormDeletePost = "post:delete:"
)

func (f *Flows) CreatePost(ctx context.Context, form validation.PostForm) error {
	if err := f.requireSession(); err != nil {
		return err
	}

	return f.run(ctx, mutation{
		form:    FormCreatePost,
		input:   form,
		success: "Post Created Successfully!",
		failure: "Post Creation Failed",
		invalidate: func() []query.Matcher {
			return []query.Matcher{query.AllPosts(), f.ownListing()}
		},
	}, func(ctx context.Context) error {
		_, err := f.backend.CreatePost(ctx, form.Input())
		return err
	})
}

func (f *Flows) EditPost(ctx context.Context, id string, form validation.PostForm) error {
	if err := f.requireSession(); err != nil {
		return err
	}

	return f.run(ctx, mutation{
		form:    FormEditPost + id,
		input:   form,
		success: "Post Updated Successfully",
		failure: "Post Edit Failed",
		invalidate: func() []query.Matcher {
			return []query.Matcher{query.AllPosts(), f.ownListing(), query.PostDetails(id)}
		},
	}, func(ctx context.Context) error {
		_, err := f.backend.UpdatePost(ctx, id, form.Input())
		return err
	})
}

// DeletePost asks for confirmation first, declining makes no call.
func (f *Flows) DeletePost(ctx context.Context, id string) error {
	if err := f.requireSession(); err != nil {
		return err
	}
	if err := f.confirm(ctx, "Delete this post? You won't be able to revert this!"); err != nil {
		return err
	}

	return f.run(ctx, mutation{
		form:    FormDeletePost + id,
		success: "Post Deleted Successfully",
		failure: "Post Deleting Failed",
		invalidate: func() []query.Matcher {
			return []query.Matcher{query.AllPosts(), f.ownListing(), query.PostDetails(id)}
		},
	}, func(ctx context.Context) error {
		return f.backend.DeletePost(ctx, id)
	})
}
