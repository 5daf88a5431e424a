package yalla

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"resty.dev/v3"
)

const (
	// TokenHeader is sent verbatim, the backend does not use the bearer scheme.
	TokenHeader     = "token"
	RequestIDHeader = "X-Request-Id"

	messageSuccess = "success"
)

type Client struct {
	client *resty.Client

	tokens   TokenSource
	pageSize int
}

func NewClient(config *ClientConfig) *Client {
	client := resty.NewWithTransportSettings(config.TransportSettings).
		SetBaseURL(strings.TrimSuffix(config.BaseURL, "/")).
		SetHeader("Accept", "application/json")

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client.SetTimeout(timeout)

	client.AddRequestMiddleware(RequestID)
	for _, m := range config.RequestMiddlewares {
		client.AddRequestMiddleware(m)
	}
	for _, m := range config.ResponseMiddlewares {
		client.AddResponseMiddleware(m)
	}

	pageSize := config.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &Client{
		client:   client,
		tokens:   config.Tokens,
		pageSize: pageSize,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// RequestID tags every outgoing request with a fresh identifier.
func RequestID(_ *resty.Client, req *resty.Request) error {
	req.SetHeader(RequestIDHeader, uuid.NewString())
	return nil
}

type envelope struct {
	Message        string          `json:"message"`
	Error          json.RawMessage `json:"error,omitempty"`
	Token          string          `json:"token,omitempty"`
	User           *User           `json:"user,omitempty"`
	Post           *Post           `json:"post,omitempty"`
	Posts          []*Post         `json:"posts,omitempty"`
	Comment        *Comment        `json:"comment,omitempty"`
	PaginationInfo *PaginationInfo `json:"paginationInfo,omitempty"`
}

func (e *envelope) errorText() string {
	if e == nil || len(e.Error) == 0 || string(e.Error) == "null" {
		return ""
	}

	var text string
	if err := json.Unmarshal(e.Error, &text); err == nil {
		return text
	}
	return string(e.Error)
}

func (c *Client) r(ctx context.Context) *resty.Request {
	return c.client.R().
		WithContext(ctx).
		SetExpectResponseContentType("application/json").
		SetResult(&envelope{}).
		SetError(&envelope{})
}

// authed reads the token once so that every header attached reflects a single session state.
func (c *Client) authed(ctx context.Context) (*resty.Request, error) {
	var token string
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	return c.withToken(ctx, token)
}

func (c *Client) withToken(ctx context.Context, token string) (*resty.Request, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no session token", ErrUnauthorized)
	}
	return c.r(ctx).SetHeaderVerbatim(TokenHeader, token), nil
}

func (c *Client) do(req *resty.Request, method, path string) (*envelope, error) {
	res, err := req.Execute(method, path)
	if err != nil {
		if res != nil && res.StatusCode() >= http.StatusBadRequest {
			return nil, statusError(res.StatusCode(), "")
		}
		return nil, transportError(err)
	}

	if !res.IsSuccess() {
		env, _ := res.Error().(*envelope)
		message := env.errorText()
		if message == "" && env != nil {
			message = env.Message
		}
		return nil, statusError(res.StatusCode(), message)
	}

	env, _ := res.Result().(*envelope)
	if env == nil {
		env = &envelope{}
	}
	if text := env.errorText(); text != "" {
		return nil, &APIError{Status: res.StatusCode(), Message: text, Kind: ErrApplication}
	}
	return env, nil
}
