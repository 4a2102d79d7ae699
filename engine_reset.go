package authkit

import (
	"context"

	"github.com/goliatone/go-errors"
)

// ForgotPasswordRequest carries whichever identifier fields the enabled
// forgot-password channels accept.
type ForgotPasswordRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ForgotPasswordResult reports the outcome without leaking whether the
// identifier matched: callers are expected to show the same non-committal
// message either way.
type ForgotPasswordResult struct {
	// Matched is true when a reset token was issued and emailed.
	Matched bool
}

// ForgotPassword resolves an identity through the enabled forgot-password
// channels and emails it a reset token. When both channels are enabled the
// username-resolved and email-resolved identities must agree; any
// disagreement or miss yields Matched=false with no token issued and no email
// sent. A failed send on a match surfaces as ErrDeliveryFailed.
func (e *LifecycleEngine) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*ForgotPasswordResult, error) {
	if !e.config.EnableForgotPassword {
		return nil, ErrFeatureDisabled
	}

	var byUsername, byEmail *User
	var err error

	if e.config.ForgotPasswordByUsername {
		byUsername, err = e.store.FindByUsername(ctx, req.Username)
		if err != nil {
			return nil, err
		}
	}

	if e.config.ForgotPasswordByEmail {
		byEmail, err = e.store.FindByEmail(ctx, req.Email)
		if err != nil {
			return nil, err
		}
	}

	user := byUsername
	if user == nil {
		user = byEmail
	}

	// Dual-channel requests must resolve to one identity.
	if e.config.ForgotPasswordByUsername && e.config.ForgotPasswordByEmail {
		if byUsername == nil || byEmail == nil || byUsername.ID != byEmail.ID {
			user = nil
		}
	}

	if user == nil || user.Email == "" {
		return &ForgotPasswordResult{Matched: false}, nil
	}

	token, err := e.tokens.Issue(user.ID, PurposeResetPassword)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue reset token")
	}

	if err := e.send(ctx, e.resetPasswordMessage(user, token)); err != nil {
		return nil, err
	}

	e.emit(ctx, EventForgotPassword, user, nil)

	return &ForgotPasswordResult{Matched: true}, nil
}

// ResetPasswordRequest carries the reset form fields.
type ResetPasswordRequest struct {
	Token          string `json:"token"`
	Password       string `json:"password"`
	PasswordRetype string `json:"password_retype"`
	Remember       bool   `json:"remember"`
	Next           string `json:"next"`
}

// ResetPasswordResult reports a completed password reset.
type ResetPasswordResult struct {
	User     *User
	LoggedIn bool
	// NotificationError is the delivery failure of the "password changed"
	// notice, if any. The reset itself has already been persisted, so this is
	// reported alongside the result instead of failing the operation.
	NotificationError error
	RedirectTo        string
}

// ResetPassword verifies a reset token and sets a new password. Any existing
// session belonging to a different identity is terminated first. Token
// failures all collapse into ErrTokenInvalid.
func (e *LifecycleEngine) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*ResetPasswordResult, error) {
	if !e.config.EnableForgotPassword {
		return nil, ErrFeatureDisabled
	}

	id, ok := e.tokens.Verify(req.Token, PurposeResetPassword)
	if !ok {
		return nil, ErrTokenInvalid
	}

	user, err := e.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrTokenInvalid
	}

	current, err := e.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current != nil && current.ID != user.ID {
		if err := e.sessions.Terminate(ctx); err != nil {
			return nil, err
		}
	}

	if e.config.RequireRetypePassword && req.Password != req.PasswordRetype {
		return nil, ErrRetypeMismatch
	}

	if err := e.passwords.ValidateStrength(req.Password); err != nil {
		return nil, err
	}

	hash, err := e.passwords.Hash(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	user.PasswordHash = hash
	if err := e.store.Save(ctx, user); err != nil {
		return nil, err
	}
	if err := e.store.Commit(ctx); err != nil {
		return nil, err
	}

	result := &ResetPasswordResult{User: user}

	if e.config.SendPasswordChangedEmail {
		if err := e.send(ctx, e.passwordChangedMessage(user)); err != nil {
			e.logger.Warn("password changed email failed: %v (user=%d)", err, user.ID)
			result.NotificationError = err
		}
	}

	e.emit(ctx, EventResetPassword, user, nil)

	if e.config.AutoLoginAfterReset {
		if err := e.establishSession(ctx, user, req.Remember); err != nil {
			return nil, err
		}
		result.LoggedIn = true
		result.RedirectTo = e.safeNext(req.Next, e.config.AfterLoginURL)
	} else {
		result.RedirectTo = e.config.LoginURL
	}

	return result, nil
}
