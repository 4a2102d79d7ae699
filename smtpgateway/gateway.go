// Package smtpgateway implements authkit.EmailGateway over SMTP using
// go-mail. Plain text and HTML bodies are sent as multipart alternatives.
package smtpgateway

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	authkit "github.com/jandrikus/go-authkit"
)

// TLSMode selects how the SMTP connection is secured.
type TLSMode string

const (
	// TLSAuto lets go-mail negotiate STARTTLS when the server offers it.
	TLSAuto TLSMode = "auto"
	// TLSImplicit dials with TLS from the start (SMTPS).
	TLSImplicit TLSMode = "ssl"
	// TLSNone disables TLS. Only for local development relays.
	TLSNone TLSMode = "none"
)

// Gateway sends notifications through an SMTP relay.
type Gateway struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	senderName string
	tlsMode    TLSMode
	dial       func(m *mail.Message) error
}

// New builds a Gateway. from is the sender address (Config.EmailSenderEmail);
// senderName is prepended as a display name when non-empty.
func New(host string, port int, username, password, from, senderName string) *Gateway {
	g := &Gateway{
		host:       host,
		port:       port,
		username:   username,
		password:   password,
		from:       from,
		senderName: senderName,
		tlsMode:    TLSAuto,
	}
	g.dial = g.dialAndSend
	return g
}

// WithTLSMode overrides the default STARTTLS negotiation.
func (g *Gateway) WithTLSMode(mode TLSMode) *Gateway {
	g.tlsMode = mode
	return g
}

// Send implements authkit.EmailGateway. The context deadline set by the
// engine bounds the whole dial-and-send; a deadline hit reports as a
// delivery failure.
func (g *Gateway) Send(ctx context.Context, msg *authkit.Message) error {
	m := g.build(msg)

	done := make(chan error, 1)
	go func() {
		done <- g.dial(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

func (g *Gateway) build(msg *authkit.Message) *mail.Message {
	m := mail.NewMessage()

	if g.senderName != "" {
		m.SetAddressHeader("From", g.from, g.senderName)
	} else {
		m.SetHeader("From", g.from)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)

	if msg.TextBody != "" {
		m.SetBody("text/plain", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		if msg.TextBody == "" {
			m.SetBody("text/html", msg.HTMLBody)
		} else {
			m.AddAlternative("text/html", msg.HTMLBody)
		}
	}

	return m
}

func (g *Gateway) dialAndSend(m *mail.Message) error {
	d := mail.NewDialer(g.host, g.port, g.username, g.password)
	d.TLSConfig = &tls.Config{ServerName: g.host}

	switch g.tlsMode {
	case TLSImplicit:
		d.SSL = true
	case TLSNone:
		d.TLSConfig = nil
	}

	return d.DialAndSend(m)
}

var _ authkit.EmailGateway = (*Gateway)(nil)
