package flows

import (
	"context"
	"fmt"

	"yallapost/internal/guard"
	"yallapost/internal/validation"
)

const (
	FormLogin    = "login"
	FormRegister = "register"
)

// Login exchanges credentials for a token, stores it and moves to the home route.
func (f *Flows) Login(ctx context.Context, form validation.LoginForm) error {
	var token string

	err := f.run(ctx, mutation{
		form:    FormLogin,
		input:   form,
		failure: "Login Failed",
	}, func(ctx context.Context) error {
		var err error
		token, err = f.backend.Signin(ctx, form.Credentials())
		return err
	})
	if err != nil {
		return err
	}

	if err := f.session.SetToken(ctx, token); err != nil {
		return err
	}

	if _, err := f.navigator.Navigate(guard.HomePath); err != nil {
		return fmt.Errorf("failed to navigate after login: %w", err)
	}
	return nil
}

// Register creates the account and sends the user to the login route.
func (f *Flows) Register(ctx context.Context, form validation.RegisterForm) error {
	err := f.run(ctx, mutation{
		form:    FormRegister,
		input:   form,
		success: "Register Success",
		failure: "Register Failed",
	}, func(ctx context.Context) error {
		return f.backend.Signup(ctx, form.Registration())
	})
	if err != nil {
		return err
	}

	if _, err := f.navigator.Navigate(guard.LoginPath); err != nil {
		return fmt.Errorf("failed to navigate after register: %w", err)
	}
	return nil
}

// Logout clears the session and replaces the current route with the login route.
func (f *Flows) Logout(ctx context.Context) error {
	if err := f.session.SetToken(ctx, ""); err != nil {
		return err
	}

	if _, err := f.navigator.Replace(guard.LoginPath); err != nil {
		return fmt.Errorf("failed to navigate after logout: %w", err)
	}
	return nil
}
