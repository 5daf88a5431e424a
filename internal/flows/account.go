package flows

import (
	"context"
	"time"

	"yallapost/internal/core"
	"yallapost/internal/query"
	"yallapost/internal/validation"
)

const (
	FormChangePassword = "password"
	FormUploadPhoto    = "photo"

	passwordChangedNotice = "Password changed! Your session has ended. Please login with your new password."
)

// ChangePassword changes the password and, since the backend revokes the
// old token, logs out after the logout delay. The returned channel is closed
// once the logout happened.
func (f *Flows) ChangePassword(ctx context.Context, form validation.ChangePasswordForm) (<-chan struct{}, error) {
	if err := f.requireSession(); err != nil {
		return nil, err
	}

	err := f.run(ctx, mutation{
		form:    FormChangePassword,
		input:   form,
		failure: "Failed to change password",
	}, func(ctx context.Context) error {
		_, err := f.backend.ChangePassword(ctx, form.PasswordChange())
		return err
	})
	if err != nil {
		return nil, err
	}

	f.notify(ctx, core.LevelInfo, passwordChangedNotice)
	return f.scheduleLogout(context.WithoutCancel(ctx)), nil
}

func (f *Flows) scheduleLogout(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	f.mu.Lock()
	defer f.mu.Unlock()

	f.wg.Add(1)
	timer := time.AfterFunc(f.logoutDelay, func() {
		defer f.wg.Done()
		defer close(done)

		if err := f.Logout(ctx); err != nil {
			f.logger.Error("failed to log out after password change", "error", err)
		}
	})
	f.timers = append(f.timers, timer)

	return done
}

// UploadPhoto replaces the profile photo and refreshes the session profile.
func (f *Flows) UploadPhoto(ctx context.Context, form validation.PhotoForm) error {
	if err := f.requireSession(); err != nil {
		return err
	}

	err := f.run(ctx, mutation{
		form:    FormUploadPhoto,
		input:   form,
		success: "Profile Photo Updated Successfully",
		failure: "Profile Photo Upload Failed",
		invalidate: func() []query.Matcher {
			return []query.Matcher{query.AllPosts(), f.ownListing()}
		},
	}, func(ctx context.Context) error {
		return f.backend.UploadPhoto(ctx, form.Photos[0])
	})
	if err != nil {
		return err
	}

	if err := f.session.RefreshProfile(ctx, f.session.Token()); err != nil {
		f.logger.Warn("failed to refresh profile after photo upload", "error", err)
	}
	return nil
}
