package authkit

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface the engine needs. Adapters for
// structured loggers live in subpackages (see zerologger).
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// IdentityStore is the persistence boundary. Implementations own transactional
// guarantees: Create must surface a uniqueness violation on normalized
// username/email as ErrUsernameTaken/ErrEmailTaken rather than silently
// creating a duplicate. Username and email lookups are case-insensitive.
type IdentityStore interface {
	// FindByUsername returns (nil, nil) when no user matches.
	FindByUsername(ctx context.Context, username string) (*User, error)
	// FindByEmail returns (nil, nil) when no user matches.
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByID returns (nil, nil) when no user matches.
	FindByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	Save(ctx context.Context, user *User) error
	Delete(ctx context.Context, user *User) error
	Commit(ctx context.Context) error
	RolesOf(ctx context.Context, user *User) ([]string, error)
	// AddRole creates the role on first reference.
	AddRole(ctx context.Context, user *User, role string) error
}

// EmailGateway delivers outbound notifications. Any non-nil error is a
// delivery failure; during registration it triggers the compensating delete.
type EmailGateway interface {
	Send(ctx context.Context, msg *Message) error
}

// Message is a single outbound notification. HTMLBody is optional.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// SessionHost owns session persistence (cookies, server-side store, ...).
// The engine only instructs it to establish or terminate a session.
type SessionHost interface {
	Establish(ctx context.Context, user *User, remember bool) error
	Terminate(ctx context.Context) error
	// Current returns (nil, nil) when no session is established.
	Current(ctx context.Context) (*User, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHKIT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHKIT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHKIT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHKIT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
