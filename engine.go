package authkit

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// LifecycleEngine orchestrates the account lifecycle state machine. It holds
// no mutable in-process state beyond the resolved Config and the signing
// secret, both read-only, so one engine serves all requests concurrently.
// All mutable state lives behind the IdentityStore.
type LifecycleEngine struct {
	config    Config
	store     IdentityStore
	mail      EmailGateway
	sessions  SessionHost
	passwords *PasswordPolicy
	tokens    *TokenService
	roles     *RoleEvaluator
	listeners []Listener
	logger    Logger
	now       func() time.Time
}

// NewLifecycleEngine wires the engine from its collaborators. cfg may be
// resolved or not; an unresolved Config is resolved here and resolution
// failures abort construction.
func NewLifecycleEngine(cfg Config, store IdentityStore, mail EmailGateway, sessions SessionHost) (*LifecycleEngine, error) {
	if !cfg.Resolved() {
		resolved, err := cfg.Resolve()
		if err != nil {
			return nil, err
		}
		cfg = resolved
	}

	if store == nil {
		return nil, errors.New("identity store is required", errors.CategoryBadInput)
	}
	if mail == nil {
		return nil, errors.New("email gateway is required", errors.CategoryBadInput)
	}
	if sessions == nil {
		return nil, errors.New("session host is required", errors.CategoryBadInput)
	}

	logger := defLogger{}

	tokens, err := NewTokenService([]byte(cfg.SigningSecret), cfg.ConfirmAccountTTL, cfg.ResetPasswordTTL, logger)
	if err != nil {
		return nil, err
	}

	return &LifecycleEngine{
		config:    cfg,
		store:     store,
		mail:      mail,
		sessions:  sessions,
		passwords: NewPasswordPolicy(cfg.MinPasswordLength),
		tokens:    tokens,
		roles:     NewRoleEvaluator(store),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// WithLogger overrides the default logger.
func (e *LifecycleEngine) WithLogger(logger Logger) *LifecycleEngine {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// WithListener registers a lifecycle event listener.
func (e *LifecycleEngine) WithListener(listener Listener) *LifecycleEngine {
	if listener != nil {
		e.listeners = append(e.listeners, listener)
	}
	return e
}

// WithPasswordPolicy swaps the whole password policy (strength + schemes).
func (e *LifecycleEngine) WithPasswordPolicy(policy *PasswordPolicy) *LifecycleEngine {
	if policy != nil {
		e.passwords = policy
	}
	return e
}

// WithClock injects a custom time source (useful for tests).
func (e *LifecycleEngine) WithClock(clock func() time.Time) *LifecycleEngine {
	if clock != nil {
		e.now = clock
		e.tokens.WithClock(clock)
	}
	return e
}

// Config returns the resolved configuration the engine runs with.
func (e *LifecycleEngine) Config() Config {
	return e.config
}

// Tokens exposes the token service, e.g. for link building in templates.
func (e *LifecycleEngine) Tokens() *TokenService {
	return e.tokens
}

// Passwords exposes the password policy.
func (e *LifecycleEngine) Passwords() *PasswordPolicy {
	return e.passwords
}

// Roles exposes the role evaluator for the authorization layer.
func (e *LifecycleEngine) Roles() *RoleEvaluator {
	return e.roles
}

// send delivers one notification within the configured timeout. A timeout is
// a delivery failure like any other.
func (e *LifecycleEngine) send(ctx context.Context, msg *Message) error {
	if e.config.MailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.MailTimeout)
		defer cancel()
	}

	if err := e.mail.Send(ctx, msg); err != nil {
		return errors.Wrap(err, ErrDeliveryFailed.Category, ErrDeliveryFailed.Message).
			WithTextCode(ErrDeliveryFailed.TextCode)
	}

	return nil
}

// safeNext resolves a caller supplied "next" parameter to a same-origin
// relative URL, falling back to def.
func (e *LifecycleEngine) safeNext(next, def string) string {
	if next == "" {
		return def
	}
	return MakeSafeURL(next)
}
