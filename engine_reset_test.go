package authkit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authkit "github.com/jandrikus/go-authkit"
)

func TestForgotPassword(t *testing.T) {
	t.Run("match sends a reset email", func(t *testing.T) {
		h := newHarness(t, nil)
		seedUser(t, h, "alice", "alice@example.com", true)

		result, err := h.engine.ForgotPassword(context.Background(), authkit.ForgotPasswordRequest{
			Username: "alice",
			Email:    "alice@example.com",
		})
		require.NoError(t, err)

		assert.True(t, result.Matched)
		require.Len(t, h.gateway.sent, 1)
		assert.Equal(t, "alice@example.com", h.gateway.sent[0].To)
		assert.Contains(t, h.gateway.sent[0].TextBody, "token=")
		assert.Equal(t, 1, h.events.countOf(authkit.EventForgotPassword))
	})

	t.Run("miss is silent", func(t *testing.T) {
		h := newHarness(t, nil)

		result, err := h.engine.ForgotPassword(context.Background(), authkit.ForgotPasswordRequest{
			Username: "nobody",
			Email:    "nobody@example.com",
		})
		require.NoError(t, err, "a miss is not an error")

		assert.False(t, result.Matched)
		assert.Empty(t, h.gateway.sent)
		assert.Empty(t, h.events.typesSeen())
	})

	t.Run("dual-channel disagreement issues nothing", func(t *testing.T) {
		h := newHarness(t, nil)
		seedUser(t, h, "alice", "alice@example.com", true)
		seedUser(t, h, "bob", "bob@example.com", true)

		result, err := h.engine.ForgotPassword(context.Background(), authkit.ForgotPasswordRequest{
			Username: "alice",
			Email:    "bob@example.com",
		})
		require.NoError(t, err)

		assert.False(t, result.Matched)
		assert.Empty(t, h.gateway.sent)
	})

	t.Run("single channel by email", func(t *testing.T) {
		h := newHarness(t, func(cfg *authkit.Config) {
			cfg.ForgotPasswordByUsername = false
		})
		seedUser(t, h, "alice", "alice@example.com", true)

		result, err := h.engine.ForgotPassword(context.Background(), authkit.ForgotPasswordRequest{
			Email: "alice@example.com",
		})
		require.NoError(t, err)
		assert.True(t, result.Matched)
	})

	t.Run("match without email address is a miss", func(t *testing.T) {
		h := newHarness(t, func(cfg *authkit.Config) {
			cfg.EnableEmail = false
		})
		seedUser(t, h, "alice", "", true)

		result, err := h.engine.ForgotPassword(context.Background(), authkit.ForgotPasswordRequest{
			Username: "alice",
		})
		require.NoError(t, err)

		assert.False(t, result.Matched)
		assert.Empty(t, h.gateway.sent)
	})

	t.Run("delivery failure surfaces", func(t *testing.T) {
		h := newHarness(t, nil)
		seedUser(t, h, "alice", "alice@example.com", true)
		h.gateway.failErr = assert.AnError

		_, err := h.engine.ForgotPassword(context.Background(), authkit.ForgotPasswordRequest{
			Username: "alice",
			Email:    "alice@example.com",
		})
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("feature disabled", func(t *testing.T) {
		h := newHarness(t, func(cfg *authkit.Config) {
			cfg.EnableForgotPassword = false
		})

		_, err := h.engine.ForgotPassword(context.Background(), authkit.ForgotPasswordRequest{})
		assert.ErrorIs(t, err, authkit.ErrFeatureDisabled)
	})
}

func TestResetPassword(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	user := seedUser(t, h, "alice", "alice@example.com", true)

	token, err := h.engine.Tokens().Issue(user.ID, authkit.PurposeResetPassword)
	require.NoError(t, err)

	const newPassword = "N3wsecret!"

	result, err := h.engine.ResetPassword(ctx, authkit.ResetPasswordRequest{
		Token:          token,
		Password:       newPassword,
		PasswordRetype: newPassword,
	})
	require.NoError(t, err)

	assert.True(t, h.engine.Passwords().Verify(newPassword, result.User.PasswordHash))
	assert.False(t, h.engine.Passwords().Verify(testPassword, result.User.PasswordHash))

	assert.True(t, result.LoggedIn, "auto-login after reset is on by default")
	assert.NoError(t, result.NotificationError)
	require.Len(t, h.gateway.sent, 1, "password changed notice")
	assert.Equal(t, 1, h.events.countOf(authkit.EventResetPassword))
	assert.Equal(t, 1, h.events.countOf(authkit.EventLoggedIn))
}

func TestResetPasswordTokenFailures(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	user := seedUser(t, h, "alice", "alice@example.com", true)

	t.Run("garbage token", func(t *testing.T) {
		_, err := h.engine.ResetPassword(ctx, authkit.ResetPasswordRequest{
			Token:          "nope",
			Password:       "N3wsecret!",
			PasswordRetype: "N3wsecret!",
		})
		assert.ErrorIs(t, err, authkit.ErrTokenInvalid)
	})

	t.Run("confirmation token rejected", func(t *testing.T) {
		token, err := h.engine.Tokens().Issue(user.ID, authkit.PurposeConfirmAccount)
		require.NoError(t, err)

		_, err = h.engine.ResetPassword(ctx, authkit.ResetPasswordRequest{
			Token:          token,
			Password:       "N3wsecret!",
			PasswordRetype: "N3wsecret!",
		})
		assert.ErrorIs(t, err, authkit.ErrTokenInvalid)
	})
}

func TestResetPasswordValidation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	user := seedUser(t, h, "alice", "alice@example.com", true)

	token, err := h.engine.Tokens().Issue(user.ID, authkit.PurposeResetPassword)
	require.NoError(t, err)

	t.Run("retype mismatch", func(t *testing.T) {
		_, err := h.engine.ResetPassword(ctx, authkit.ResetPasswordRequest{
			Token:          token,
			Password:       "N3wsecret!",
			PasswordRetype: "other",
		})
		assert.ErrorIs(t, err, authkit.ErrRetypeMismatch)
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := h.engine.ResetPassword(ctx, authkit.ResetPasswordRequest{
			Token:          token,
			Password:       "weak",
			PasswordRetype: "weak",
		})
		assert.Error(t, err)
	})

	assert.True(t, h.engine.Passwords().Verify(testPassword, user.PasswordHash),
		"password unchanged after failed attempts")
}

func TestResetPasswordTerminatesForeignSession(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	user := seedUser(t, h, "alice", "alice@example.com", true)
	other := seedUser(t, h, "bob", "bob@example.com", true)
	h.sessions.current = other

	token, err := h.engine.Tokens().Issue(user.ID, authkit.PurposeResetPassword)
	require.NoError(t, err)

	result, err := h.engine.ResetPassword(ctx, authkit.ResetPasswordRequest{
		Token:          token,
		Password:       "N3wsecret!",
		PasswordRetype: "N3wsecret!",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, h.sessions.terminated, "other identity's session is closed first")
	require.NotNil(t, h.sessions.current)
	assert.Equal(t, user.ID, h.sessions.current.ID, "reset identity logged in afterwards")
	assert.Equal(t, user.ID, result.User.ID)
}

func TestResetPasswordNoticeFailureDoesNotFail(t *testing.T) {
	h := newHarness(t, nil)
	user := seedUser(t, h, "alice", "alice@example.com", true)

	token, err := h.engine.Tokens().Issue(user.ID, authkit.PurposeResetPassword)
	require.NoError(t, err)

	h.gateway.failErr = assert.AnError

	result, err := h.engine.ResetPassword(context.Background(), authkit.ResetPasswordRequest{
		Token:          token,
		Password:       "N3wsecret!",
		PasswordRetype: "N3wsecret!",
	})
	require.NoError(t, err, "the reset is already persisted")

	assert.Error(t, result.NotificationError)
	assert.True(t, h.engine.Passwords().Verify("N3wsecret!", user.PasswordHash))
}
