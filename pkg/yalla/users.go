package yalla

import (
	"context"
	"fmt"
	"net/http"
)

const (
	signin         = "/users/signin"
	signup         = "/users/signup"
	profileData    = "/users/profile-data"
	changePassword = "/users/change-password"
	uploadPhoto    = "/users/upload-photo"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	RePassword  string `json:"rePassword"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      Gender `json:"gender"`
}

type PasswordChange struct {
	Password    string `json:"password"`
	NewPassword string `json:"newPassword"`
}

// Signin exchanges credentials for a session token.
func (c *Client) Signin(ctx context.Context, credentials Credentials) (string, error) {
	env, err := c.do(c.r(ctx).SetBody(credentials), http.MethodPost, signin)
	if err != nil {
		return "", err
	}
	if env.Message != messageSuccess || env.Token == "" {
		return "", &APIError{Status: http.StatusOK, Message: env.Message, Kind: ErrApplication}
	}
	return env.Token, nil
}

func (c *Client) Signup(ctx context.Context, registration Registration) error {
	_, err := c.do(c.r(ctx).SetBody(registration), http.MethodPost, signup)
	return err
}

// ProfileData fetches the profile for an explicit token, independent of the token source.
func (c *Client) ProfileData(ctx context.Context, token string) (*User, error) {
	req, err := c.withToken(ctx, token)
	if err != nil {
		return nil, err
	}

	env, err := c.do(req, http.MethodGet, profileData)
	if err != nil {
		return nil, err
	}
	if env.Message != messageSuccess || env.User == nil {
		return nil, &APIError{
			Status:  http.StatusOK,
			Message: fmt.Sprintf("unexpected profile response %q", env.Message),
			Kind:    ErrApplication,
		}
	}
	return env.User, nil
}

// ChangePassword returns the replacement token when the backend issues one.
func (c *Client) ChangePassword(ctx context.Context, change PasswordChange) (string, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return "", err
	}

	env, err := c.do(req.SetBody(change), http.MethodPatch, changePassword)
	if err != nil {
		return "", err
	}
	return env.Token, nil
}

func (c *Client) UploadPhoto(ctx context.Context, photo *File) error {
	req, err := c.authed(ctx)
	if err != nil {
		return err
	}

	req.SetMultipartField("photo", photo.Name, photo.ContentType, photo.reader())
	_, err = c.do(req, http.MethodPut, uploadPhoto)
	return err
}
