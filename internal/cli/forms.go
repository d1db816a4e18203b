package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

var errAborted = errors.New("aborted")

// interactive reports whether stdin is a terminal a form can run on.
func interactive() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func runForm(f *huh.Form) error {
	if err := f.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errAborted
		}
		return fmt.Errorf("form failed: %w", err)
	}
	return nil
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validatePort(s string) error {
	if s == "" {
		return nil
	}
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

// loginForm asks for whatever part of the credentials is missing.
func loginForm(email, password *string) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(email).
			Validate(validateRequired("Email")))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(validateRequired("Password")))
	}
	if len(fields) == 0 {
		return nil
	}
	return runForm(huh.NewForm(huh.NewGroup(fields...)))
}

// mailboxForm fills the missing fields of m. Hosts are prefilled from the
// provider preset after the provider is chosen.
func mailboxForm(m *domain.MailboxCreate) error {
	if m.Provider == "" {
		m.Provider = "gmail"
	}
	options := make([]huh.Option[string], 0, len(domain.Providers()))
	for _, p := range domain.Providers() {
		options = append(options, huh.NewOption(p, p))
	}

	first := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email address").
				Placeholder("support@example.com").
				Value(&m.EmailAddress).
				Validate(validateRequired("Email address")),
			huh.NewSelect[string]().
				Title("Provider").
				Description("Gmail and Outlook fill in server settings").
				Options(options...).
				Value(&m.Provider),
			huh.NewInput().
				Title("Password").
				Description("Account password or app password").
				EchoMode(huh.EchoModePassword).
				Value(&m.Password).
				Validate(validateRequired("Password")),
		),
	)
	if err := runForm(first); err != nil {
		return err
	}
	if m.Provider != "custom" {
		m.ApplyPreset()
		return nil
	}

	imapPort, smtpPort := portString(m.IMAPPort), portString(m.SMTPPort)
	servers := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("IMAP Host").
				Placeholder("imap.example.com").
				Value(&m.IMAPHost).
				Validate(validateRequired("IMAP Host")),
			huh.NewInput().
				Title("IMAP Port").
				Placeholder(strconv.Itoa(domain.DefaultIMAPPort)).
				Value(&imapPort).
				Validate(validatePort),
			huh.NewInput().
				Title("SMTP Host").
				Placeholder("smtp.example.com").
				Value(&m.SMTPHost).
				Validate(validateRequired("SMTP Host")),
			huh.NewInput().
				Title("SMTP Port").
				Placeholder(strconv.Itoa(domain.DefaultSMTPPort)).
				Value(&smtpPort).
				Validate(validatePort),
		),
	)
	if err := runForm(servers); err != nil {
		return err
	}
	m.IMAPPort, _ = strconv.Atoi(imapPort)
	m.SMTPPort, _ = strconv.Atoi(smtpPort)
	m.ApplyPreset()
	return nil
}

func portString(p int) string {
	if p == 0 {
		return ""
	}
	return strconv.Itoa(p)
}

// confirm asks a yes/no question. Without a terminal it refuses unless yes
// was passed on the command line.
func confirm(title string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if !interactive() {
		return false, fmt.Errorf("%s: pass --yes to confirm non-interactively", title)
	}
	var ok bool
	err := runForm(huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)))
	return ok, err
}

// readSecret reads a single line, such as a password, from r.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readBody returns s, or all of stdin when s is "-".
func readBody(s string) (string, error) {
	if s != "-" {
		return s, nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read body from stdin: %w", err)
	}
	return string(b), nil
}
