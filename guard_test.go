package authkit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authkit "github.com/jandrikus/go-authkit"
)

func TestGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("no session", func(t *testing.T) {
		h := newHarness(t, nil)

		decision, user, err := h.engine.Guard(ctx)
		require.NoError(t, err)
		assert.Equal(t, authkit.DecisionUnauthenticated, decision)
		assert.Nil(t, user)
	})

	t.Run("confirmed session allowed", func(t *testing.T) {
		h, seeded := loggedInHarness(t, nil)

		decision, user, err := h.engine.Guard(ctx)
		require.NoError(t, err)
		assert.Equal(t, authkit.DecisionAllowed, decision)
		assert.Equal(t, seeded.ID, user.ID)
	})

	t.Run("unconfirmed session needs confirmation", func(t *testing.T) {
		h := newHarness(t, nil)
		h.sessions.current = seedUser(t, h, "alice", "alice@example.com", false)

		decision, user, err := h.engine.Guard(ctx)
		require.NoError(t, err)
		assert.Equal(t, authkit.DecisionNeedsConfirmation, decision)
		assert.Nil(t, user)
	})

	t.Run("unconfirmed allowed when confirmation is off", func(t *testing.T) {
		h := newHarness(t, func(cfg *authkit.Config) {
			cfg.EnableConfirmAccount = false
		})
		h.sessions.current = seedUser(t, h, "alice", "alice@example.com", false)

		decision, _, err := h.engine.Guard(ctx)
		require.NoError(t, err)
		assert.Equal(t, authkit.DecisionAllowed, decision)
	})

	t.Run("missing role unauthorized", func(t *testing.T) {
		h, _ := loggedInHarness(t, nil)

		decision, user, err := h.engine.Guard(ctx, authkit.Role("admin"))
		require.NoError(t, err)
		assert.Equal(t, authkit.DecisionUnauthorized, decision)
		assert.Nil(t, user)
	})

	t.Run("held role allowed", func(t *testing.T) {
		h, seeded := loggedInHarness(t, nil)
		require.NoError(t, h.store.AddRole(ctx, seeded, "admin"))

		decision, user, err := h.engine.Guard(ctx, authkit.Role("admin"))
		require.NoError(t, err)
		assert.Equal(t, authkit.DecisionAllowed, decision)
		assert.Equal(t, seeded.ID, user.ID)
	})

	t.Run("and of or-sets", func(t *testing.T) {
		h, seeded := loggedInHarness(t, nil)
		require.NoError(t, h.store.AddRole(ctx, seeded, "editor"))
		require.NoError(t, h.store.AddRole(ctx, seeded, "support"))

		decision, _, err := h.engine.Guard(ctx,
			authkit.Role("editor"),
			authkit.AnyOf("admin", "support"),
		)
		require.NoError(t, err)
		assert.Equal(t, authkit.DecisionAllowed, decision)
	})

	t.Run("role store failure surfaces", func(t *testing.T) {
		h, _ := loggedInHarness(t, nil)
		h.store.rolesErr = assert.AnError

		decision, _, err := h.engine.Guard(ctx, authkit.Role("admin"))
		assert.Error(t, err)
		assert.Equal(t, authkit.DecisionUnauthorized, decision)
	})
}

func TestAllowUnconfirmed(t *testing.T) {
	h := newHarness(t, nil)
	h.sessions.current = seedUser(t, h, "alice", "alice@example.com", false)

	ctx := context.Background()

	decision, _, err := h.engine.Guard(ctx)
	require.NoError(t, err)
	require.Equal(t, authkit.DecisionNeedsConfirmation, decision)

	t.Run("allowance on derived context only", func(t *testing.T) {
		allowed := authkit.AllowUnconfirmed(ctx)

		decision, user, err := h.engine.Guard(allowed)
		require.NoError(t, err)
		assert.Equal(t, authkit.DecisionAllowed, decision)
		assert.NotNil(t, user)

		decision, _, err = h.engine.Guard(ctx)
		require.NoError(t, err)
		assert.Equal(t, authkit.DecisionNeedsConfirmation, decision, "parent context unaffected")
	})

	t.Run("scoped to the callback", func(t *testing.T) {
		err := authkit.ScopeUnconfirmed(ctx, func(scoped context.Context) error {
			decision, _, err := h.engine.Guard(scoped)
			require.NoError(t, err)
			assert.Equal(t, authkit.DecisionAllowed, decision)
			return nil
		})
		require.NoError(t, err)

		decision, _, err := h.engine.Guard(ctx)
		require.NoError(t, err)
		assert.Equal(t, authkit.DecisionNeedsConfirmation, decision, "allowance gone after the call")
	})
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allowed", authkit.DecisionAllowed.String())
	assert.Equal(t, "needs-confirmation", authkit.DecisionNeedsConfirmation.String())
	assert.Equal(t, "unauthorized", authkit.DecisionUnauthorized.String())
	assert.Equal(t, "unauthenticated", authkit.DecisionUnauthenticated.String())
}
