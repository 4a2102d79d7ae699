package authkit

import "context"

// Decision is the tagged outcome of Guard. Callers map it to a response;
// protected operations are never invoked without going through Guard first.
type Decision int

const (
	// DecisionUnauthenticated means no valid session exists.
	DecisionUnauthenticated Decision = iota
	// DecisionNeedsConfirmation means the session is valid but the account
	// is unconfirmed and the operation does not allow unconfirmed access.
	DecisionNeedsConfirmation
	// DecisionUnauthorized means the session is valid but lacks required
	// roles. Distinct from DecisionUnauthenticated.
	DecisionUnauthorized
	// DecisionAllowed means the operation may proceed.
	DecisionAllowed
)

// String renders the decision tag.
func (d Decision) String() string {
	switch d {
	case DecisionAllowed:
		return "allowed"
	case DecisionNeedsConfirmation:
		return "needs-confirmation"
	case DecisionUnauthorized:
		return "unauthorized"
	default:
		return "unauthenticated"
	}
}

type allowUnconfirmedKey struct{}

// AllowUnconfirmed marks the returned context so Guard accepts an
// unconfirmed account. The allowance only lives on the derived context, so
// it cannot leak past the request that created it.
func AllowUnconfirmed(ctx context.Context) context.Context {
	return context.WithValue(ctx, allowUnconfirmedKey{}, true)
}

func unconfirmedAllowed(ctx context.Context) bool {
	allowed, _ := ctx.Value(allowUnconfirmedKey{}).(bool)
	return allowed
}

// ScopeUnconfirmed runs fn with the unconfirmed allowance enabled for exactly
// the duration of the call. The allowance is scoped to the derived context
// handed to fn, so it is gone on every exit path, including errors and
// panics.
func ScopeUnconfirmed(ctx context.Context, fn func(context.Context) error) error {
	return fn(AllowUnconfirmed(ctx))
}

// Guard is the single enforced entry point for protected operations:
//
//	allowed = session valid
//	      AND (confirmed OR confirmation not required OR allowance in ctx)
//	      AND identity satisfies every role requirement
//
// It returns the matched user alongside DecisionAllowed. The error return is
// reserved for collaborator failures (store, session host); policy failures
// are decisions, not errors.
func (e *LifecycleEngine) Guard(ctx context.Context, requirements ...RoleRequirement) (Decision, *User, error) {
	user, err := e.sessions.Current(ctx)
	if err != nil {
		return DecisionUnauthenticated, nil, err
	}
	if user == nil {
		return DecisionUnauthenticated, nil, nil
	}

	confirmed := user.Verified || !e.config.EnableConfirmAccount || unconfirmedAllowed(ctx)
	if !confirmed {
		return DecisionNeedsConfirmation, nil, nil
	}

	ok, err := e.roles.HasRoles(ctx, user, requirements)
	if err != nil {
		return DecisionUnauthorized, nil, err
	}
	if !ok {
		return DecisionUnauthorized, nil, nil
	}

	return DecisionAllowed, user, nil
}
