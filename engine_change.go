package authkit

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

// ChangeResult reports a completed credential change.
type ChangeResult struct {
	User *User
	// NotificationError is the delivery failure of the corresponding
	// "changed" notice, if any. The change itself has been persisted.
	NotificationError error
}

// ChangePasswordRequest carries the change-password form fields.
type ChangePasswordRequest struct {
	OldPassword    string `json:"old_password"`
	Password       string `json:"password"`
	PasswordRetype string `json:"password_retype"`
}

// ChangePassword updates the current session's password. The old password is
// re-verified as a step-up check before anything changes.
func (e *LifecycleEngine) ChangePassword(ctx context.Context, req ChangePasswordRequest) (*ChangeResult, error) {
	if !e.config.EnableChangePassword {
		return nil, ErrFeatureDisabled
	}

	user, err := e.requireSession(ctx)
	if err != nil {
		return nil, err
	}

	if !e.passwords.Verify(req.OldPassword, user.PasswordHash) {
		return nil, ErrInvalidCredentials
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
	if err := e.saveAndCommit(ctx, user); err != nil {
		return nil, err
	}

	result := &ChangeResult{User: user}

	if e.config.SendPasswordChangedEmail {
		if err := e.send(ctx, e.passwordChangedMessage(user)); err != nil {
			e.logger.Warn("password changed email failed: %v (user=%d)", err, user.ID)
			result.NotificationError = err
		}
	}

	e.emit(ctx, EventChangedPassword, user, nil)

	return result, nil
}

// ChangeUsernameRequest carries the change-username form fields.
type ChangeUsernameRequest struct {
	Password    string `json:"password"`
	NewUsername string `json:"new_username"`
}

// ChangeUsername updates the current session's username after re-verifying
// the password and checking the new name's availability.
func (e *LifecycleEngine) ChangeUsername(ctx context.Context, req ChangeUsernameRequest) (*ChangeResult, error) {
	if !e.config.EnableChangeUsername {
		return nil, ErrFeatureDisabled
	}

	user, err := e.requireSession(ctx)
	if err != nil {
		return nil, err
	}

	if !e.passwords.Verify(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	newUsername := strings.TrimSpace(req.NewUsername)
	if err := validation.Validate(newUsername, validation.Required, validation.Length(1, 100)); err != nil {
		return nil, errors.Wrap(err, ErrInvalidRequest.Category, ErrInvalidRequest.Message).
			WithTextCode(ErrInvalidRequest.TextCode)
	}

	if !strings.EqualFold(newUsername, user.Username) {
		existing, err := e.store.FindByUsername(ctx, newUsername)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrUsernameTaken
		}
	}

	user.Username = newUsername
	if err := e.saveAndCommit(ctx, user); err != nil {
		return nil, err
	}

	result := &ChangeResult{User: user}

	if e.config.SendUsernameChangedEmail {
		if err := e.send(ctx, e.usernameChangedMessage(user)); err != nil {
			e.logger.Warn("username changed email failed: %v (user=%d)", err, user.ID)
			result.NotificationError = err
		}
	}

	e.emit(ctx, EventChangedUsername, user, nil)

	return result, nil
}

// ChangeEmailRequest carries the change-email form fields. OldEmail must
// match the current session's address.
type ChangeEmailRequest struct {
	OldEmail string `json:"old_email"`
	NewEmail string `json:"new_email"`
}

// ChangeEmail updates the current session's email address. The "changed"
// notice goes to both the old and the new address.
func (e *LifecycleEngine) ChangeEmail(ctx context.Context, req ChangeEmailRequest) (*ChangeResult, error) {
	if !e.config.EnableChangeEmail {
		return nil, ErrFeatureDisabled
	}

	user, err := e.requireSession(ctx)
	if err != nil {
		return nil, err
	}

	oldEmail := strings.TrimSpace(req.OldEmail)
	newEmail := strings.TrimSpace(req.NewEmail)

	if !strings.EqualFold(oldEmail, user.Email) {
		return nil, ErrInvalidCredentials
	}

	if err := validation.Validate(newEmail, validation.Required, is.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	if !strings.EqualFold(newEmail, user.Email) {
		existing, err := e.store.FindByEmail(ctx, newEmail)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrEmailTaken
		}
	}

	user.Email = newEmail
	if err := e.saveAndCommit(ctx, user); err != nil {
		return nil, err
	}

	result := &ChangeResult{User: user}

	if e.config.SendEmailChangedEmail {
		for _, to := range []string{oldEmail, newEmail} {
			if err := e.send(ctx, e.emailChangedMessage(to, user)); err != nil {
				e.logger.Warn("email changed notice failed: %v (to=%s user=%d)", err, to, user.ID)
				result.NotificationError = err
			}
		}
	}

	e.emit(ctx, EventChangedEmail, user, nil)

	return result, nil
}

// requireSession maps the guard decision for a plain session-gated operation
// onto the error taxonomy.
func (e *LifecycleEngine) requireSession(ctx context.Context) (*User, error) {
	decision, user, err := e.Guard(ctx)
	if err != nil {
		return nil, err
	}

	switch decision {
	case DecisionAllowed:
		return user, nil
	case DecisionNeedsConfirmation:
		return nil, ErrAccountUnconfirmed
	case DecisionUnauthorized:
		return nil, ErrUnauthorized
	default:
		return nil, ErrUnauthenticated
	}
}

func (e *LifecycleEngine) saveAndCommit(ctx context.Context, user *User) error {
	if err := e.store.Save(ctx, user); err != nil {
		return err
	}
	return e.store.Commit(ctx)
}
