package authkit

import "context"

// RoleRequirement is an OR-set of role names: it is satisfied when the
// identity has at least one of the listed roles. A requirements list is
// AND-joined, so
//
//	[]RoleRequirement{Role("a"), AnyOf("b", "c"), Role("d")}
//
// requires role a AND (role b OR role c) AND role d.
type RoleRequirement []string

// Role builds a single-role requirement.
func Role(name string) RoleRequirement {
	return RoleRequirement{name}
}

// AnyOf builds an OR-set requirement.
func AnyOf(names ...string) RoleRequirement {
	return RoleRequirement(names)
}

// RequireAll shapes names into AND-joined single-role requirements:
// the identity must hold every one.
func RequireAll(names ...string) []RoleRequirement {
	reqs := make([]RoleRequirement, 0, len(names))
	for _, name := range names {
		reqs = append(reqs, Role(name))
	}
	return reqs
}

// AcceptAny collapses names into one OR-set: the identity must hold at least
// one.
func AcceptAny(names ...string) []RoleRequirement {
	if len(names) == 0 {
		return nil
	}
	return []RoleRequirement{AnyOf(names...)}
}

// RoleEvaluator evaluates role requirement expressions against the role set
// of an identity. Membership is fetched once per call through the store;
// nothing is cached across calls.
type RoleEvaluator struct {
	store IdentityStore
}

// NewRoleEvaluator returns an evaluator backed by the given store.
func NewRoleEvaluator(store IdentityStore) *RoleEvaluator {
	return &RoleEvaluator{store: store}
}

// HasRoles reports whether the user satisfies every requirement. An empty
// requirements list is vacuously true and skips the membership lookup.
func (e *RoleEvaluator) HasRoles(ctx context.Context, user *User, requirements []RoleRequirement) (bool, error) {
	if len(requirements) == 0 {
		return true, nil
	}

	names, err := e.store.RolesOf(ctx, user)
	if err != nil {
		return false, err
	}

	held := make(map[string]struct{}, len(names))
	for _, name := range names {
		held[name] = struct{}{}
	}

	for _, requirement := range requirements {
		satisfied := false
		for _, name := range requirement {
			if _, ok := held[name]; ok {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false, nil
		}
	}

	return true, nil
}
