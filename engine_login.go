package authkit

import (
	"context"
)

// LoginRequest carries the login form fields. Identifier is matched against
// the username channel first, falling back to the email channel when both
// accept it.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	Remember   bool   `json:"remember"`
	Next       string `json:"next"`
}

// LoginResult reports a successful login.
type LoginResult struct {
	User       *User
	RedirectTo string
}

// Login authenticates an identifier/password pair and establishes a session.
//
// Failure outcomes follow the disclosure policy: with the Show*DoesNotExist
// flags off, an unknown identifier and a wrong password return the very same
// ErrInvalidCredentials, so responses cannot be used to enumerate accounts.
// An unconfirmed account (when confirmation is required) returns
// ErrAccountUnconfirmed instead, which callers should answer with a resend
// path; a disabled account returns ErrAccountDisabled.
func (e *LifecycleEngine) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := e.lookupByIdentifier(ctx, req.Identifier)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, e.identifierNotFoundErr()
	}

	if !e.passwords.Verify(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if e.config.EnableConfirmAccount && !e.config.AllowLoginWithoutConfirmed && !user.Verified {
		return nil, ErrAccountUnconfirmed
	}

	if !user.Active {
		return nil, ErrAccountDisabled
	}

	if err := e.establishSession(ctx, user, req.Remember); err != nil {
		return nil, err
	}

	return &LoginResult{
		User:       user,
		RedirectTo: e.safeNext(req.Next, e.config.AfterLoginURL),
	}, nil
}

// Logout terminates the current session and returns the post-logout redirect
// target. Logging out without a session is a no-op.
func (e *LifecycleEngine) Logout(ctx context.Context, next string) (string, error) {
	user, err := e.sessions.Current(ctx)
	if err != nil {
		return "", err
	}

	if err := e.sessions.Terminate(ctx); err != nil {
		return "", err
	}

	if user != nil {
		e.emit(ctx, EventLoggedOut, user, nil)
	}

	return e.safeNext(next, e.config.AfterLogoutURL), nil
}

// lookupByIdentifier resolves one input against the enabled login channels:
// username first, then the same input against email.
func (e *LifecycleEngine) lookupByIdentifier(ctx context.Context, identifier string) (*User, error) {
	if e.config.EnableLoginByUsername {
		user, err := e.store.FindByUsername(ctx, identifier)
		if err != nil || user != nil {
			return user, err
		}
	}

	if e.config.EnableLoginByEmail {
		return e.store.FindByEmail(ctx, identifier)
	}

	return nil, nil
}

// identifierNotFoundErr applies the disclosure policy for unknown
// identifiers.
func (e *LifecycleEngine) identifierNotFoundErr() error {
	if e.config.EnableLoginByUsername && e.config.ShowUsernameDoesNotExist {
		return ErrUsernameNotFound
	}
	if e.config.EnableLoginByEmail && e.config.ShowEmailDoesNotExist {
		return ErrEmailNotFound
	}
	return ErrInvalidCredentials
}

// establishSession signs the user in, stamps last-seen and emits the
// logged-in event.
func (e *LifecycleEngine) establishSession(ctx context.Context, user *User, remember bool) error {
	if !e.config.EnableRememberMe {
		remember = false
	}

	if err := e.sessions.Establish(ctx, user, remember); err != nil {
		return err
	}

	now := e.now()
	user.LastSeen = &now
	if err := e.store.Save(ctx, user); err != nil {
		return err
	}
	if err := e.store.Commit(ctx); err != nil {
		return err
	}

	e.emit(ctx, EventLoggedIn, user, nil)

	return nil
}
