// Package preflight verifies mailbox credentials from this machine before
// they are sent to the backend.
package preflight

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/client"
	gomail "gopkg.in/gomail.v2"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

const dialTimeout = 15 * time.Second

// Checker dials IMAP and SMTP servers. The zero value is ready to use.
type Checker struct {
	// IMAP and SMTP override the real dialers in tests.
	IMAP func(ctx context.Context, host string, port int, user, pass string) error
	SMTP func(ctx context.Context, host string, port int, user, pass string) error
}

// Check logs in to the IMAP and SMTP servers of m. The result has the shape
// of the backend's test-connection response. A protocol without a host is
// left nil.
func (c *Checker) Check(ctx context.Context, m domain.MailboxCreate) domain.ConnectionTestResult {
	m.ApplyPreset()
	imapFn, smtpFn := c.IMAP, c.SMTP
	if imapFn == nil {
		imapFn = checkIMAP
	}
	if smtpFn == nil {
		smtpFn = checkSMTP
	}

	var res domain.ConnectionTestResult
	if m.IMAPHost != "" {
		res.IMAP = result("IMAP", imapFn(ctx, m.IMAPHost, m.IMAPPort, m.EmailAddress, m.Password))
	}
	if m.SMTPHost != "" {
		res.SMTP = result("SMTP", smtpFn(ctx, m.SMTPHost, m.SMTPPort, m.EmailAddress, m.Password))
	}
	return res
}

// Check runs a Checker with the real dialers.
func Check(ctx context.Context, m domain.MailboxCreate) domain.ConnectionTestResult {
	var c Checker
	return c.Check(ctx, m)
}

func result(proto string, err error) *domain.CheckResult {
	if err != nil {
		return &domain.CheckResult{Success: false, Message: fmt.Sprintf("%s connection failed: %v", proto, err)}
	}
	return &domain.CheckResult{Success: true, Message: proto + " connection successful"}
}

// run calls fn in a goroutine so a hung dial does not outlive ctx.
func run(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, 2*dialTimeout)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// checkIMAP uses implicit TLS on 993 and STARTTLS on any other port.
func checkIMAP(ctx context.Context, host string, port int, user, pass string) error {
	return run(ctx, func() error {
		addr := net.JoinHostPort(host, fmt.Sprint(port))
		tlsConfig := &tls.Config{ServerName: host}
		dialer := &net.Dialer{Timeout: dialTimeout}

		var c *client.Client
		var err error
		if port == domain.DefaultIMAPPort {
			c, err = client.DialWithDialerTLS(dialer, addr, tlsConfig)
		} else {
			c, err = client.DialWithDialer(dialer, addr)
			if err == nil {
				if ok, _ := c.SupportStartTLS(); ok {
					err = c.StartTLS(tlsConfig)
				}
			}
		}
		if err != nil {
			if c != nil {
				_ = c.Logout()
			}
			return fmt.Errorf("failed to connect to %s: %w", addr, err)
		}
		defer c.Logout()

		c.Timeout = dialTimeout
		if err := c.Login(user, pass); err != nil {
			return fmt.Errorf("failed to login: %w", err)
		}
		return nil
	})
}

// checkSMTP uses implicit TLS on 465 and STARTTLS otherwise.
func checkSMTP(ctx context.Context, host string, port int, user, pass string) error {
	return run(ctx, func() error {
		d := gomail.NewDialer(host, port, user, pass)
		d.SSL = port == 465
		d.TLSConfig = &tls.Config{ServerName: host}
		sc, err := d.Dial()
		if err != nil {
			return fmt.Errorf("failed to connect to %s:%d: %w", host, port, err)
		}
		return sc.Close()
	})
}
