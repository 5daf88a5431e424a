package yalla

import (
	"context"
	"net/http"
)

const (
	comments = "/comments/"
	comment  = "/comments/{id}"
)

type CommentInput struct {
	Content string `json:"content"`
	Post    string `json:"post,omitempty"`
}

func (c *Client) CreateComment(ctx context.Context, postID, content string) (*Comment, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}

	env, err := c.do(req.SetBody(CommentInput{Content: content, Post: postID}), http.MethodPost, comments)
	if err != nil {
		return nil, err
	}
	return env.Comment, nil
}

func (c *Client) UpdateComment(ctx context.Context, id, content string) (*Comment, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}

	env, err := c.do(req.
		SetPathParam("id", id).
		SetBody(CommentInput{Content: content}), http.MethodPut, comment)
	if err != nil {
		return nil, err
	}
	return env.Comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, id string) error {
	req, err := c.authed(ctx)
	if err != nil {
		return err
	}

	_, err = c.do(req.SetPathParam("id", id), http.MethodDelete, comment)
	return err
}
