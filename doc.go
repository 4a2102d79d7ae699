// Package authkit is a pluggable identity core: it adds account lifecycle
// management (registration, confirmation, login, logout, password reset,
// credential changes) and role-based authorization to a host application.
//
// Configuration:
//   - Config is an explicit, statically typed settings struct. Resolve applies
//     the feature dependency closure once at startup (a flag whose prerequisite
//     is off is forced off) and validates mandatory settings. The resolved
//     Config is immutable and safe for concurrent reads.
//
// Lifecycle:
//   - LifecycleEngine orchestrates the account state machine. It is composed
//     from collaborator interfaces (IdentityStore, EmailGateway, SessionHost)
//     injected at construction, plus a PasswordPolicy, a TokenService and a
//     RoleEvaluator. A registration whose confirmation email cannot be
//     delivered is rolled back with a compensating delete.
//
// Authorization:
//   - Guard is the single entry point for protecting operations. It returns a
//     tagged Decision (Allowed, Unauthenticated, Unauthorized,
//     NeedsConfirmation) that the caller maps to a response. Role requirements
//     compose as AND-of-OR-sets via HasRoles.
//
// Events:
//   - Listeners registered on the engine receive lifecycle events (registered,
//     confirmed, logged in, ...) synchronously and fire-and-forget; listener
//     errors are logged, never propagated.
package authkit
