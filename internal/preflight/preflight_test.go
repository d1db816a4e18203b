package preflight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func TestCheck_AppliesPresetAndReports(t *testing.T) {
	var imapHost, smtpHost string
	var imapPort, smtpPort int
	c := &Checker{
		IMAP: func(_ context.Context, host string, port int, user, pass string) error {
			imapHost, imapPort = host, port
			if user != "me@gmail.com" || pass != "app-pass" {
				t.Errorf("IMAP credentials = %q/%q", user, pass)
			}
			return nil
		},
		SMTP: func(_ context.Context, host string, port int, _, _ string) error {
			smtpHost, smtpPort = host, port
			return errors.New("535 authentication failed")
		},
	}

	res := c.Check(context.Background(), domain.MailboxCreate{
		EmailAddress: "me@gmail.com",
		Password:     "app-pass",
		Provider:     "gmail",
	})

	if imapHost != "imap.gmail.com" || imapPort != 993 {
		t.Errorf("IMAP dialed %s:%d", imapHost, imapPort)
	}
	if smtpHost != "smtp.gmail.com" || smtpPort != 587 {
		t.Errorf("SMTP dialed %s:%d", smtpHost, smtpPort)
	}
	if res.IMAP == nil || !res.IMAP.Success {
		t.Errorf("IMAP result = %+v, want success", res.IMAP)
	}
	if res.SMTP == nil || res.SMTP.Success {
		t.Fatalf("SMTP result = %+v, want failure", res.SMTP)
	}
	if !strings.Contains(res.SMTP.Message, "535") {
		t.Errorf("SMTP message = %q", res.SMTP.Message)
	}
	if res.OK() {
		t.Error("OK() = true with a failed protocol")
	}
}

func TestCheck_SkipsMissingHosts(t *testing.T) {
	called := false
	c := &Checker{
		IMAP: func(context.Context, string, int, string, string) error { called = true; return nil },
		SMTP: func(context.Context, string, int, string, string) error { called = true; return nil },
	}

	res := c.Check(context.Background(), domain.MailboxCreate{EmailAddress: "a@b.c", Provider: "custom"})
	if called {
		t.Error("dialer called without a host")
	}
	if res.IMAP != nil || res.SMTP != nil {
		t.Errorf("result = %+v, want empty", res)
	}
	if res.OK() {
		t.Error("OK() = true with nothing tested")
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	block := make(chan struct{})
	defer close(block)

	err := run(ctx, func() error { <-block; return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("run() error = %v, want context.Canceled", err)
	}
}
