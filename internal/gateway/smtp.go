package gateway

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/go-gomail/gomail"
)

var _ Sender = (*SMTP)(nil)

// defaultSessionTimeout bounds a session when ctx carries no deadline.
const defaultSessionTimeout = time.Minute

// SMTP delivers through an SMTP relay. gomail composes the message; the
// session runs over a connection whose deadline follows ctx, so a hung relay
// ends the call instead of leaking it.
type SMTP struct {
	dialer *gomail.Dialer
	from   string

	// SessionTimeout applies when ctx has no deadline.
	SessionTimeout time.Duration
}

func NewSMTP(host string, port int, username, password, from string) *SMTP {
	return &SMTP{
		dialer:         gomail.NewDialer(host, port, username, password),
		from:           from,
		SessionTimeout: defaultSessionTimeout,
	}
}

func (s *SMTP) Send(ctx context.Context, subject, body, to string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.session(ctx, m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func (s *SMTP) session(ctx context.Context, m *gomail.Message) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(s.SessionTimeout)
	}

	addr := net.JoinHostPort(s.dialer.Host, strconv.Itoa(s.dialer.Port))
	conn, err := (&net.Dialer{Deadline: deadline}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}
	// cancellation closes the connection so blocked reads return at once
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if s.dialer.SSL {
		conn = tls.Client(conn, s.tlsConfig())
	}
	c, err := smtp.NewClient(conn, s.dialer.Host)
	if err != nil {
		return err
	}
	defer c.Close()

	if !s.dialer.SSL {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(s.tlsConfig()); err != nil {
				return err
			}
		}
	}
	if s.dialer.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", s.dialer.Username, s.dialer.Password, s.dialer.Host)); err != nil {
				return err
			}
		}
	}

	send := gomail.SendFunc(func(from string, to []string, msg io.WriterTo) error {
		if err := c.Mail(from); err != nil {
			return err
		}
		for _, addr := range to {
			if err := c.Rcpt(addr); err != nil {
				return err
			}
		}
		w, err := c.Data()
		if err != nil {
			return err
		}
		if _, err := msg.WriteTo(w); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	})
	if err := gomail.Send(send, m); err != nil {
		return err
	}
	return c.Quit()
}

func (s *SMTP) tlsConfig() *tls.Config {
	if s.dialer.TLSConfig != nil {
		return s.dialer.TLSConfig
	}
	return &tls.Config{ServerName: s.dialer.Host}
}
