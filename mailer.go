package authkit

import (
	"fmt"
	"net/url"
	"strings"
)

// Notification composition. The engine builds the subjects and bodies;
// the EmailGateway only transports them.

func (e *LifecycleEngine) confirmAccountMessage(user *User, token string) *Message {
	link := e.linkTo(e.config.ConfirmPath, token)
	return &Message{
		To:      user.Email,
		Subject: fmt.Sprintf("%s - Confirm your account", e.config.AppName),
		TextBody: fmt.Sprintf(
			"Hello,\n\nPlease confirm your %s account by following this link:\n\n%s\n\nIf you did not create this account, you can ignore this email.\n",
			e.config.AppName, link),
		HTMLBody: fmt.Sprintf(
			`<p>Hello,</p><p>Please confirm your %s account: <a href="%s">Confirm account</a></p><p>If you did not create this account, you can ignore this email.</p>`,
			e.config.AppName, link),
	}
}

func (e *LifecycleEngine) welcomeMessage(user *User) *Message {
	return &Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Welcome to %s", e.config.AppName),
		TextBody: fmt.Sprintf(
			"Welcome to %s!\n\nYour account is ready. You can sign in at %s.\n",
			e.config.AppName, e.config.LoginURL),
		HTMLBody: fmt.Sprintf(
			`<p>Welcome to %s!</p><p>Your account is ready. You can <a href="%s">sign in</a>.</p>`,
			e.config.AppName, e.config.LoginURL),
	}
}

func (e *LifecycleEngine) resetPasswordMessage(user *User, token string) *Message {
	link := e.linkTo(e.config.ResetPasswordPath, token)
	return &Message{
		To:      user.Email,
		Subject: fmt.Sprintf("%s - Reset your password", e.config.AppName),
		TextBody: fmt.Sprintf(
			"Hello,\n\nA password reset was requested for your %s account. Follow this link to choose a new password:\n\n%s\n\nIf you did not request a reset, you can ignore this email.\n",
			e.config.AppName, link),
		HTMLBody: fmt.Sprintf(
			`<p>Hello,</p><p>A password reset was requested for your %s account: <a href="%s">Reset password</a></p><p>If you did not request a reset, you can ignore this email.</p>`,
			e.config.AppName, link),
	}
}

func (e *LifecycleEngine) passwordChangedMessage(user *User) *Message {
	return &Message{
		To:      user.Email,
		Subject: fmt.Sprintf("%s - Your password has been changed", e.config.AppName),
		TextBody: fmt.Sprintf(
			"Hello,\n\nThe password for your %s account has been changed.\n\nIf you did not make this change, reset your password immediately.\n",
			e.config.AppName),
	}
}

func (e *LifecycleEngine) usernameChangedMessage(user *User) *Message {
	return &Message{
		To:      user.Email,
		Subject: fmt.Sprintf("%s - Your username has been changed", e.config.AppName),
		TextBody: fmt.Sprintf(
			"Hello,\n\nThe username for your %s account is now '%s'.\n\nIf you did not make this change, contact support.\n",
			e.config.AppName, user.Username),
	}
}

func (e *LifecycleEngine) emailChangedMessage(to string, user *User) *Message {
	return &Message{
		To:      to,
		Subject: fmt.Sprintf("%s - Your email address has been changed", e.config.AppName),
		TextBody: fmt.Sprintf(
			"Hello,\n\nThe email address for your %s account is now '%s'.\n\nIf you did not make this change, contact support.\n",
			e.config.AppName, user.Email),
	}
}

// linkTo joins base URL, path and the URL-safe token into a clickable link.
func (e *LifecycleEngine) linkTo(path, token string) string {
	base := strings.TrimRight(e.config.BaseURL, "/")
	return base + path + "?token=" + url.QueryEscape(token)
}
