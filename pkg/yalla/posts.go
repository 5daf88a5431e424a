package yalla

import (
	"context"
	"net/http"
	"strconv"

	"resty.dev/v3"
)

const (
	posts     = "/posts"
	post      = "/posts/{id}"
	userPosts = "/users/{id}/posts"

	newestFirst = "-createdAt"
)

// PostInput is the multipart payload of post create and edit.
type PostInput struct {
	Body  string
	Image *File
}

func (c *Client) ListPosts(ctx context.Context, page int) (*PostPage, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}

	env, err := c.do(req.SetQueryParams(map[string]string{
		"limit": strconv.Itoa(c.pageSize),
		"sort":  newestFirst,
		"page":  strconv.Itoa(max(page, 1)),
	}), http.MethodGet, posts)
	if err != nil {
		return nil, err
	}
	return toPage(env, page), nil
}

func (c *Client) UserPosts(ctx context.Context, userID string, page int) (*PostPage, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}

	env, err := c.do(req.
		SetPathParam("id", userID).
		SetQueryParam("page", strconv.Itoa(max(page, 1))), http.MethodGet, userPosts)
	if err != nil {
		return nil, err
	}
	return toPage(env, page), nil
}

func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}

	env, err := c.do(req.SetPathParam("id", id), http.MethodGet, post)
	if err != nil {
		return nil, err
	}
	if env.Post == nil {
		return nil, &APIError{Status: http.StatusOK, Message: "post missing from response", Kind: ErrApplication}
	}
	return env.Post, nil
}

func (c *Client) CreatePost(ctx context.Context, input PostInput) (*Post, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}

	env, err := c.do(multipartPost(req, input), http.MethodPost, posts)
	if err != nil {
		return nil, err
	}
	return env.Post, nil
}

func (c *Client) UpdatePost(ctx context.Context, id string, input PostInput) (*Post, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}

	env, err := c.do(multipartPost(req.SetPathParam("id", id), input), http.MethodPut, post)
	if err != nil {
		return nil, err
	}
	return env.Post, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	req, err := c.authed(ctx)
	if err != nil {
		return err
	}

	_, err = c.do(req.SetPathParam("id", id), http.MethodDelete, post)
	return err
}

func toPage(env *envelope, page int) *PostPage {
	result := &PostPage{Posts: env.Posts}
	if env.PaginationInfo != nil {
		result.Pagination = *env.PaginationInfo
	}
	if result.Pagination.CurrentPage == 0 {
		result.Pagination.CurrentPage = max(page, 1)
	}
	return result
}

func multipartPost(req *resty.Request, input PostInput) *resty.Request {
	req.SetMultipartFormData(map[string]string{"body": input.Body})
	if input.Image != nil {
		req.SetMultipartField("image", input.Image.Name, input.Image.ContentType, input.Image.reader())
	}
	return req
}
