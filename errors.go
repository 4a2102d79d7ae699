package authkit

import "github.com/goliatone/go-errors"

const (
	TextCodeConfigInvalid      = "auth_config_invalid"
	TextCodePasswordTooShort   = "auth_password_too_short"
	TextCodePasswordTooSimple  = "auth_password_too_simple"
	TextCodeUsernameTaken      = "auth_username_taken"
	TextCodeEmailTaken         = "auth_email_taken"
	TextCodeInvalidCredentials = "auth_invalid_credentials"
	TextCodeUsernameNotFound   = "auth_username_not_found"
	TextCodeEmailNotFound      = "auth_email_not_found"
	TextCodeAccountUnconfirmed = "auth_account_unconfirmed"
	TextCodeAccountDisabled    = "auth_account_disabled"
	TextCodeTokenInvalid       = "auth_token_invalid"
	TextCodeDeliveryFailed     = "auth_delivery_failed"
	TextCodeUnauthenticated    = "auth_unauthenticated"
	TextCodeUnauthorized       = "auth_unauthorized"
	TextCodeFeatureDisabled    = "auth_feature_disabled"
	TextCodeInvalidEmail       = "auth_invalid_email"
	TextCodeRetypeMismatch     = "auth_password_retype_mismatch"
	TextCodeInvalidRequest     = "auth_invalid_request"
)

// ErrConfigInvalid is returned by Config.Resolve for missing or malformed
// mandatory settings. It is the only error meant to abort startup.
var ErrConfigInvalid = errors.New("invalid auth configuration", errors.CategoryValidation).
	WithTextCode(TextCodeConfigInvalid).
	WithCode(errors.CodeBadRequest)

// ErrPasswordTooShort is returned when a candidate password fails the length rule.
var ErrPasswordTooShort = errors.New("password is too short", errors.CategoryValidation).
	WithTextCode(TextCodePasswordTooShort).
	WithCode(errors.CodeBadRequest)

// ErrPasswordTooSimple is returned when a candidate password fails the
// composition rule (lowercase, uppercase and digit required).
var ErrPasswordTooSimple = errors.New("password needs a lowercase letter, an uppercase letter and a digit", errors.CategoryValidation).
	WithTextCode(TextCodePasswordTooSimple).
	WithCode(errors.CodeBadRequest)

// ErrUsernameTaken is returned when registering or changing to a username
// that already exists (case-insensitive).
var ErrUsernameTaken = errors.New("username already in use", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameTaken).
	WithCode(errors.CodeConflict)

// ErrEmailTaken is returned when registering or changing to an email address
// that already exists (case-insensitive).
var ErrEmailTaken = errors.New("email already in use", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials is the generic authentication failure. Both "no such
// identifier" and "wrong password" collapse into this error whenever the
// disclosure flags are off, so callers render one message for both.
var ErrInvalidCredentials = errors.New("incorrect credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrUsernameNotFound is only returned when ShowUsernameDoesNotExist is on.
var ErrUsernameNotFound = errors.New("username does not exist", errors.CategoryAuth).
	WithTextCode(TextCodeUsernameNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrEmailNotFound is only returned when ShowEmailDoesNotExist is on.
var ErrEmailNotFound = errors.New("email does not exist", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrAccountUnconfirmed is returned when login requires a confirmed account
// and the account has not been confirmed. Distinct from ErrInvalidCredentials
// so callers can offer a resend path.
var ErrAccountUnconfirmed = errors.New("account has not been confirmed", errors.CategoryAuth).
	WithTextCode(TextCodeAccountUnconfirmed).
	WithCode(errors.CodeForbidden)

// ErrAccountDisabled is returned when the account exists but is not active.
var ErrAccountDisabled = errors.New("account has been disabled", errors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(errors.CodeForbidden)

// ErrTokenInvalid is the single outcome for every confirm/reset token failure
// (bad signature, wrong purpose, expired, malformed). The message never says
// which check failed.
var ErrTokenInvalid = errors.New("invalid or expired token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrDeliveryFailed is returned when a notification email could not be sent.
// During registration it also means the new account was rolled back.
var ErrDeliveryFailed = errors.New("notification could not be delivered", errors.CategoryOperation).
	WithTextCode(TextCodeDeliveryFailed).
	WithCode(errors.CodeInternal)

// ErrUnauthenticated is the guard outcome for a missing or invalid session.
var ErrUnauthenticated = errors.New("authentication required", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthorized is the guard outcome for a valid session lacking required
// roles. Never conflate it with ErrUnauthenticated.
var ErrUnauthorized = errors.New("insufficient permissions", errors.CategoryAuthz).
	WithTextCode(TextCodeUnauthorized).
	WithCode(errors.CodeForbidden)

// ErrFeatureDisabled is returned when an operation is invoked while its
// feature flag is resolved off.
var ErrFeatureDisabled = errors.New("feature is disabled", errors.CategoryOperation).
	WithTextCode(TextCodeFeatureDisabled).
	WithCode(errors.CodeNotFound)

// ErrInvalidEmail is returned for syntactically invalid email addresses.
var ErrInvalidEmail = errors.New("invalid email address", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidEmail).
	WithCode(errors.CodeBadRequest)

// ErrRetypeMismatch is returned when RequireRetypePassword is on and the
// retyped password does not match.
var ErrRetypeMismatch = errors.New("passwords do not match", errors.CategoryValidation).
	WithTextCode(TextCodeRetypeMismatch).
	WithCode(errors.CodeBadRequest)

// ErrInvalidRequest wraps field-level request validation failures. These are
// recoverable and meant for form re-display, never logged as system faults.
var ErrInvalidRequest = errors.New("invalid request", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidRequest).
	WithCode(errors.CodeBadRequest)
