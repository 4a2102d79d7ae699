package authkit

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

// RegisterRequest carries the registration form fields. Channel fields that
// are disabled in the resolved Config are ignored.
type RegisterRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	PasswordRetype string `json:"password_retype"`
	Locale         string `json:"locale"`
	Remember       bool   `json:"remember"`
	Next           string `json:"next"`
}

func (r RegisterRequest) validate(cfg Config) error {
	fields := []*validation.FieldRules{
		validation.Field(&r.Password, validation.Required),
	}
	if cfg.EnableUsername {
		fields = append(fields, validation.Field(&r.Username, validation.Required, validation.Length(1, 100)))
	}
	if cfg.EnableEmail {
		fields = append(fields, validation.Field(&r.Email, validation.Required, is.Email))
	}

	if err := validation.ValidateStruct(&r, fields...); err != nil {
		return errors.Wrap(err, ErrInvalidRequest.Category, ErrInvalidRequest.Message).
			WithTextCode(ErrInvalidRequest.TextCode)
	}

	if cfg.RequireRetypePassword && r.Password != r.PasswordRetype {
		return ErrRetypeMismatch
	}

	return nil
}

// RegisterResult reports what happened after a successful registration.
type RegisterResult struct {
	User *User
	// NeedsConfirmation is true when a confirmation email was sent and the
	// account cannot log in until confirmed.
	NeedsConfirmation bool
	// LoggedIn is true when the engine auto-established a session.
	LoggedIn   bool
	RedirectTo string
}

// Register creates a new identity. With account confirmation enabled it
// issues a confirmation token and emails it; if that delivery fails the newly
// created identity is deleted again and ErrDeliveryFailed is returned, so a
// failed registration never leaves an orphaned, un-confirmable account.
func (e *LifecycleEngine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if !e.config.EnableRegister {
		return nil, ErrFeatureDisabled
	}

	if !e.config.EnableUsername {
		req.Username = ""
	}
	if !e.config.EnableEmail {
		req.Email = ""
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := req.validate(e.config); err != nil {
		return nil, err
	}

	if err := e.passwords.ValidateStrength(req.Password); err != nil {
		return nil, err
	}

	if err := e.checkAvailability(ctx, req.Username, req.Email); err != nil {
		return nil, err
	}

	hash, err := e.passwords.Hash(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	now := e.now()
	user := &User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Active:       true,
		Locale:       req.Locale,
		FirstSeen:    &now,
	}

	// The store surfaces a concurrent duplicate as a typed conflict error;
	// the availability pre-check above only gives friendlier fast-path
	// failures.
	user, err = e.store.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := e.store.Commit(ctx); err != nil {
		return nil, err
	}

	result := &RegisterResult{User: user}

	if e.config.EnableConfirmAccount {
		if err := e.sendConfirmation(ctx, user); err != nil {
			e.rollbackRegistration(ctx, user)
			return nil, err
		}

		e.emit(ctx, EventRegistered, user, nil)
		result.NeedsConfirmation = true
		return result, nil
	}

	// Without confirmation the welcome email is best-effort: a failed send
	// does not roll back the registration.
	if e.config.SendWelcomeEmail {
		if err := e.send(ctx, e.welcomeMessage(user)); err != nil {
			e.logger.Warn("welcome email failed: %v (user=%d)", err, user.ID)
		}
	}

	e.emit(ctx, EventRegistered, user, nil)
	e.emit(ctx, EventWelcomed, user, nil)

	if e.config.AutoLoginAfterRegister {
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

// ConfirmResult reports the outcome of ConfirmAccount.
type ConfirmResult struct {
	User *User
	// AlreadyConfirmed is true when the token was valid but the account had
	// been confirmed before; the call is then a no-op.
	AlreadyConfirmed bool
	LoggedIn         bool
	RedirectTo       string
}

// ConfirmAccount verifies a confirmation token and marks the account
// verified. Re-confirming an already verified account is a harmless no-op:
// no state changes and no duplicate welcome notification.
func (e *LifecycleEngine) ConfirmAccount(ctx context.Context, token, next string) (*ConfirmResult, error) {
	if !e.config.EnableConfirmAccount {
		return nil, ErrFeatureDisabled
	}

	id, ok := e.tokens.Verify(token, PurposeConfirmAccount)
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

	if user.Verified {
		return &ConfirmResult{
			User:             user,
			AlreadyConfirmed: true,
			RedirectTo:       e.safeNext(next, e.config.LoginURL),
		}, nil
	}

	now := e.now()
	user.Verified = true
	user.VerifiedAt = &now

	if err := e.store.Save(ctx, user); err != nil {
		return nil, err
	}
	if err := e.store.Commit(ctx); err != nil {
		return nil, err
	}

	if e.config.SendWelcomeEmail {
		if err := e.send(ctx, e.welcomeMessage(user)); err != nil {
			e.logger.Warn("welcome email failed: %v (user=%d)", err, user.ID)
		}
	}

	e.emit(ctx, EventConfirmed, user, nil)
	e.emit(ctx, EventWelcomed, user, nil)

	result := &ConfirmResult{User: user}

	if e.config.AutoLoginAfterConfirm {
		if err := e.establishSession(ctx, user, false); err != nil {
			return nil, err
		}
		result.LoggedIn = true
		result.RedirectTo = e.safeNext(next, e.config.AfterLoginURL)
	} else {
		result.RedirectTo = e.config.LoginURL
	}

	return result, nil
}

// ResendConfirmation issues a fresh confirmation token for the identity
// matching identifier and resends the confirmation email. Already confirmed
// accounts short-circuit into a no-op. A failed send surfaces as
// ErrDeliveryFailed; there is nothing to roll back since no entity was
// created.
func (e *LifecycleEngine) ResendConfirmation(ctx context.Context, identifier string) error {
	if !e.config.EnableConfirmAccount {
		return ErrFeatureDisabled
	}

	user, err := e.lookupByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidCredentials
	}

	if user.Verified {
		return nil
	}

	return e.sendConfirmation(ctx, user)
}

func (e *LifecycleEngine) sendConfirmation(ctx context.Context, user *User) error {
	token, err := e.tokens.Issue(user.ID, PurposeConfirmAccount)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to issue confirmation token")
	}

	return e.send(ctx, e.confirmAccountMessage(user, token))
}

// rollbackRegistration is the compensating delete for a registration whose
// confirmation email could not be delivered.
func (e *LifecycleEngine) rollbackRegistration(ctx context.Context, user *User) {
	if err := e.store.Delete(ctx, user); err != nil {
		e.logger.Error("registration rollback delete failed: %v (user=%d)", err, user.ID)
		return
	}
	if err := e.store.Commit(ctx); err != nil {
		e.logger.Error("registration rollback commit failed: %v (user=%d)", err, user.ID)
	}
}

func (e *LifecycleEngine) checkAvailability(ctx context.Context, username, email string) error {
	if username != "" {
		existing, err := e.store.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrUsernameTaken
		}
	}

	if email != "" {
		existing, err := e.store.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailTaken
		}
	}

	return nil
}
