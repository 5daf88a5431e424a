package flows

import (
	"context"

	"yallapost/internal/query"
	"yallapost/internal/validation"
)

const (
	FormAddComment    = "comment:add:"
	FormEditComment   = "comment:edit:"
	FormDeleteComment = "comment:delete:"
)

func commentMatchers(f *Flows, postID string) func() []query.Matcher {
	return func() []query.Matcher {
		return []query.Matcher{query.PostDetails(postID), query.AllPosts(), f.ownListing()}
	}
}

func (f *Flows) AddComment(ctx context.Context, postID string, form validation.CommentForm) error {
	if err := f.requireSession(); err != nil {
		return err
	}

	return f.run(ctx, mutation{
		form:       FormAddComment + postID,
		input:      form,
		success:    "Comment added! 💬",
		failure:    "Failed to add comment",
		invalidate: commentMatchers(f, postID),
	}, func(ctx context.Context) error {
		_, err := f.backend.CreateComment(ctx, postID, form.Content)
		return err
	})
}

// EditComment updates commentID of postID, the post is needed to refresh its details.
func (f *Flows) EditComment(ctx context.Context, postID, commentID string, form validation.CommentForm) error {
	if err := f.requireSession(); err != nil {
		return err
	}

	return f.run(ctx, mutation{
		form:       FormEditComment + commentID,
		input:      form,
		success:    "Comment Updated Successfully",
		failure:    "Comment Edit Failed",
		invalidate: commentMatchers(f, postID),
	}, func(ctx context.Context) error {
		_, err := f.backend.UpdateComment(ctx, commentID, form.Content)
		return err
	})
}

func (f *Flows) DeleteComment(ctx context.Context, postID, commentID string) error {
	if err := f.requireSession(); err != nil {
		return err
	}
	if err := f.confirm(ctx, "Delete this comment? You won't be able to revert this!"); err != nil {
		return err
	}

	return f.run(ctx, mutation{
		form:       FormDeleteComment + commentID,
		success:    "Comment Deleted Successfully",
		failure:    "Comment Deleting Failed",
		invalidate: commentMatchers(f, postID),
	}, func(ctx context.Context) error {
		return f.backend.DeleteComment(ctx, commentID)
	})
}
