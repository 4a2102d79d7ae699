package authkit

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

// minSigningSecretBytes is the minimum length of the process-wide secret used
// to sign confirmation and reset tokens.
const minSigningSecretBytes = 32

// Config is the explicit settings surface of the identity core. Build one
// from DefaultConfig, apply overrides, then call Resolve exactly once at
// startup. The resolved value is immutable and shared read-only by every
// request.
type Config struct {
	// AppName shows up in notification subjects and as the default sender name.
	AppName string `env:"APP_NAME"`

	// EmailSenderEmail is the address notifications are sent from. Mandatory.
	EmailSenderEmail string `env:"EMAIL_SENDER_EMAIL"`
	// EmailSenderName defaults to AppName when empty.
	EmailSenderName string `env:"EMAIL_SENDER_NAME"`

	// SigningSecret keys the symmetric signature on confirm/reset tokens.
	// Must be at least 32 bytes.
	SigningSecret string `env:"SIGNING_SECRET,unset"`

	// Identity channels.
	EnableEmail    bool `env:"ENABLE_EMAIL"`
	EnableUsername bool `env:"ENABLE_USERNAME"`

	// Registration. Requires at least one identity channel.
	EnableRegister         bool `env:"ENABLE_REGISTER"`
	AutoLoginAfterRegister bool `env:"AUTO_LOGIN_AFTER_REGISTER"`
	SendWelcomeEmail       bool `env:"SEND_WELCOME_EMAIL"`

	// Login channels. Each requires the corresponding identity channel.
	EnableLoginByUsername bool `env:"ENABLE_LOGIN_BY_USERNAME"`
	EnableLoginByEmail    bool `env:"ENABLE_LOGIN_BY_EMAIL"`
	EnableRememberMe      bool `env:"ENABLE_REMEMBER_ME"`

	// Credential changes. Each requires the corresponding identity channel;
	// the Send* flags additionally require the email channel.
	EnableChangeUsername     bool `env:"ENABLE_CHANGE_USERNAME"`
	EnableChangeEmail        bool `env:"ENABLE_CHANGE_EMAIL"`
	EnableChangePassword     bool `env:"ENABLE_CHANGE_PASSWORD"`
	SendUsernameChangedEmail bool `env:"SEND_USERNAME_CHANGED_EMAIL"`
	SendEmailChangedEmail    bool `env:"SEND_EMAIL_CHANGED_EMAIL"`
	SendPasswordChangedEmail bool `env:"SEND_PASSWORD_CHANGED_EMAIL"`

	// Account confirmation.
	EnableConfirmAccount       bool          `env:"ENABLE_CONFIRM_ACCOUNT"`
	AllowLoginWithoutConfirmed bool          `env:"ALLOW_LOGIN_WITHOUT_CONFIRMED"`
	AutoLoginAfterConfirm      bool          `env:"AUTO_LOGIN_AFTER_CONFIRM"`
	ConfirmAccountTTL          time.Duration `env:"CONFIRM_ACCOUNT_TTL"`

	// Forgot/reset password.
	EnableForgotPassword     bool          `env:"ENABLE_FORGOT_PASSWORD"`
	ForgotPasswordByUsername bool          `env:"FORGOT_PASSWORD_BY_USERNAME"`
	ForgotPasswordByEmail    bool          `env:"FORGOT_PASSWORD_BY_EMAIL"`
	AutoLoginAfterReset      bool          `env:"AUTO_LOGIN_AFTER_RESET"`
	ResetPasswordTTL         time.Duration `env:"RESET_PASSWORD_TTL"`

	// Disclosure policy. When off, "identifier not found" and "wrong
	// password" collapse into one generic failure to prevent enumeration.
	ShowUsernameDoesNotExist bool `env:"SHOW_USERNAME_DOES_NOT_EXIST"`
	ShowEmailDoesNotExist    bool `env:"SHOW_EMAIL_DOES_NOT_EXIST"`

	// Password policy.
	MinPasswordLength     int  `env:"MIN_PASSWORD_LENGTH"`
	RequireRetypePassword bool `env:"REQUIRE_RETYPE_PASSWORD"`

	// Link building for confirm/reset emails: BaseURL + path + ?token=...
	BaseURL           string `env:"BASE_URL"`
	ConfirmPath       string `env:"CONFIRM_PATH"`
	ResetPasswordPath string `env:"RESET_PASSWORD_PATH"`

	// Redirect targets handed back to the caller.
	AfterLoginURL  string `env:"AFTER_LOGIN_URL"`
	AfterLogoutURL string `env:"AFTER_LOGOUT_URL"`
	LoginURL       string `env:"LOGIN_URL"`

	// MailTimeout bounds every outbound notification call. A timeout counts
	// as a delivery failure.
	MailTimeout time.Duration `env:"MAIL_TIMEOUT"`

	resolved bool
}

// DefaultConfig returns the default settings. Every feature is on; callers
// flip off what they do not want and Resolve disables the dependents.
func DefaultConfig() Config {
	return Config{
		AppName:                    "AuthKit",
		EnableEmail:                true,
		EnableUsername:             true,
		EnableRegister:             true,
		AutoLoginAfterRegister:     true,
		SendWelcomeEmail:           true,
		EnableLoginByUsername:      true,
		EnableLoginByEmail:         true,
		EnableRememberMe:           true,
		EnableChangeUsername:       true,
		EnableChangeEmail:          true,
		EnableChangePassword:       true,
		SendUsernameChangedEmail:   true,
		SendEmailChangedEmail:      true,
		SendPasswordChangedEmail:   true,
		EnableConfirmAccount:       true,
		AllowLoginWithoutConfirmed: false,
		AutoLoginAfterConfirm:      true,
		ConfirmAccountTTL:          24 * time.Hour,
		EnableForgotPassword:       true,
		ForgotPasswordByUsername:   true,
		ForgotPasswordByEmail:      true,
		AutoLoginAfterReset:        true,
		ResetPasswordTTL:           24 * time.Hour,
		MinPasswordLength:          8,
		RequireRetypePassword:      true,
		ConfirmPath:                "/auth/confirm",
		ResetPasswordPath:          "/auth/reset_password",
		AfterLoginURL:              "/",
		AfterLogoutURL:             "/",
		LoginURL:                   "/auth/login",
		MailTimeout:                10 * time.Second,
	}
}

// Resolve validates mandatory settings and applies the feature dependency
// closure, returning a new Config. It is pure and idempotent: resolving an
// already resolved Config changes nothing.
func (c Config) Resolve() (Config, error) {
	if err := c.validate(); err != nil {
		return Config{}, err
	}

	if c.EmailSenderName == "" {
		c.EmailSenderName = c.AppName
	}

	// Dependency closure, fixed order. Each rule only ever turns flags off,
	// so a second pass is a no-op.
	if !c.EnableUsername && !c.EnableEmail {
		c.EnableRegister = false
	}

	if !c.EnableRegister {
		c.AutoLoginAfterRegister = false
	}

	if !c.EnableEmail {
		c.EnableLoginByEmail = false
		c.EnableChangeEmail = false
		c.ShowEmailDoesNotExist = false
		c.ForgotPasswordByEmail = false
		c.SendWelcomeEmail = false
	}

	if !c.EnableUsername {
		c.EnableLoginByUsername = false
		c.EnableChangeUsername = false
		c.ShowUsernameDoesNotExist = false
		c.ForgotPasswordByUsername = false
	}

	if !c.EnableChangeUsername || !c.EnableEmail {
		c.SendUsernameChangedEmail = false
	}

	if !c.EnableChangeEmail {
		c.SendEmailChangedEmail = false
	}

	if !c.EnableChangePassword || !c.EnableEmail {
		c.SendPasswordChangedEmail = false
	}

	if !c.EnableConfirmAccount {
		c.AllowLoginWithoutConfirmed = false
		c.AutoLoginAfterConfirm = false
	}

	if !c.EnableForgotPassword {
		c.ForgotPasswordByUsername = false
		c.ForgotPasswordByEmail = false
		c.AutoLoginAfterReset = false
	}

	c.resolved = true

	return c, nil
}

// Resolved reports whether this Config came out of Resolve.
func (c Config) Resolved() bool {
	return c.resolved
}

func (c Config) validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.EmailSenderEmail, validation.Required, is.Email),
	)
	if err != nil {
		return errors.Wrap(err, ErrConfigInvalid.Category, "EmailSenderEmail is missing or malformed").
			WithTextCode(ErrConfigInvalid.TextCode)
	}

	if len(c.SigningSecret) < minSigningSecretBytes {
		return ErrConfigInvalid.Clone().WithMetadata(map[string]any{
			"reason":    "SigningSecret shorter than 32 bytes",
			"min_bytes": minSigningSecretBytes,
		})
	}

	return nil
}
