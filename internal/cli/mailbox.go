package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/preflight"
)

func newMailboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mailbox",
		Aliases: []string{"mailboxes"},
		Short:   "Manage connected IMAP/SMTP mailboxes",
	}
	cmd.AddCommand(newMailboxListCmd())
	cmd.AddCommand(newMailboxAddCmd())
	cmd.AddCommand(newMailboxTestCmd())
	cmd.AddCommand(newMailboxSyncCmd())
	cmd.AddCommand(newMailboxRemoveCmd())
	cmd.AddCommand(newMailboxUpdateCmd())
	return cmd
}

// mailboxFlags are the connection settings shared by add and test.
type mailboxFlags struct {
	email, provider    string
	imapHost, smtpHost string
	imapPort, smtpPort int
	passwordStdin      bool
}

func (f *mailboxFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "mailbox email address")
	cmd.Flags().StringVar(&f.provider, "provider", "", "gmail, outlook or custom")
	cmd.Flags().StringVar(&f.imapHost, "imap-host", "", "IMAP server (preset for gmail/outlook)")
	cmd.Flags().IntVar(&f.imapPort, "imap-port", 0, "IMAP port (default 993)")
	cmd.Flags().StringVar(&f.smtpHost, "smtp-host", "", "SMTP server (preset for gmail/outlook)")
	cmd.Flags().IntVar(&f.smtpPort, "smtp-port", 0, "SMTP port (default 587)")
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "read the mailbox password from stdin")
}

// resolve builds the mailbox settings from flags, running the interactive
// form when required values are missing.
func (f *mailboxFlags) resolve() (domain.MailboxCreate, error) {
	m := domain.MailboxCreate{
		EmailAddress: f.email,
		Provider:     f.provider,
		IMAPHost:     f.imapHost,
		IMAPPort:     f.imapPort,
		SMTPHost:     f.smtpHost,
		SMTPPort:     f.smtpPort,
	}
	if f.passwordStdin {
		pw, err := readSecret(os.Stdin)
		if err != nil {
			return m, err
		}
		m.Password = pw
	}

	if m.EmailAddress == "" || m.Password == "" {
		if !interactive() {
			return m, errors.New("--email and --password-stdin are required without a terminal")
		}
		if err := mailboxForm(&m); err != nil {
			return m, err
		}
	}
	m.ApplyPreset()
	if m.IMAPHost == "" || m.SMTPHost == "" {
		return m, errors.New("--imap-host and --smtp-host are required for custom providers")
	}
	return m, nil
}

func newMailboxListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List mailboxes",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := cmd.Context()
			if _, err := e.require(ctx, ""); err != nil {
				return err
			}

			boxes, err := e.client.ListMailboxes(ctx)
			if err != nil {
				return err
			}
			return render(boxes, func(w io.Writer) error {
				if len(boxes) == 0 {
					fmt.Fprintln(w, "No mailboxes. Run 'smartmail mailbox add' to connect one.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tEMAIL\tPROVIDER\tACTIVE\tMESSAGES\tUNREAD\tLAST SYNC")
				for _, b := range boxes {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
						b.ID, b.EmailAddress, b.Provider, yesNo(b.IsActive),
						b.TotalMessages, b.UnreadMessages, b.LastSyncedAt.Short(),
					)
				}
				return tw.Flush()
			})
		},
	}
}

func newMailboxAddCmd() *cobra.Command {
	var flags mailboxFlags
	var skipTest bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Connect a mailbox",
		Long: "Connect an IMAP/SMTP mailbox. Missing settings are asked for interactively;\n" +
			"gmail and outlook fill in server hosts automatically.",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.resolve()
			if err != nil {
				return err
			}

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := cmd.Context()
			if _, err := e.require(ctx, ""); err != nil {
				return err
			}

			if !skipTest {
				res, err := e.client.TestConnection(ctx, m)
				if err != nil {
					return err
				}
				if !res.OK() {
					printConnectionResult(os.Stderr, res)
					return errors.New("connection test failed; fix the settings or pass --skip-test")
				}
			}

			box, err := e.client.CreateMailbox(ctx, m)
			if err != nil {
				return err
			}
			return render(box, func(w io.Writer) error {
				fmt.Fprintf(w, "Mailbox added: %s (id %d)\n", box.EmailAddress, box.ID)
				return nil
			})
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&skipTest, "skip-test", false, "do not test the connection before saving")
	return cmd
}

func newMailboxTestCmd() *cobra.Command {
	var flags mailboxFlags
	var localFlag bool

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test IMAP and SMTP credentials",
		Long: "Test mailbox credentials through the backend, or with --local from this\n" +
			"machine so the password never leaves it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.resolve()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var res domain.ConnectionTestResult
			if localFlag {
				res = preflight.Check(ctx, m)
			} else {
				e, err := newEnv(cmd)
				if err != nil {
					return err
				}
				defer e.Close()
				if _, err := e.require(ctx, ""); err != nil {
					return err
				}
				out, err := e.client.TestConnection(ctx, m)
				if err != nil {
					return err
				}
				res = *out
			}

			if err := render(res, func(w io.Writer) error {
				printConnectionResult(w, &res)
				return nil
			}); err != nil {
				return err
			}
			if !res.OK() {
				return errors.New("connection test failed")
			}
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&localFlag, "local", false, "test from this machine instead of the backend")
	return cmd
}

func printConnectionResult(w io.Writer, res *domain.ConnectionTestResult) {
	for _, c := range []struct {
		name string
		r    *domain.CheckResult
	}{{"IMAP", res.IMAP}, {"SMTP", res.SMTP}} {
		if c.r == nil {
			continue
		}
		mark := "ok  "
		if !c.r.Success {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", mark, c.name, c.r.Message)
	}
}

func newMailboxSyncCmd() *cobra.Command {
	var waitFlag bool

	cmd := &cobra.Command{
		Use:   "sync <mailbox-id>",
		Short: "Fetch new mail for a mailbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := cmd.Context()
			if _, err := e.require(ctx, ""); err != nil {
				return err
			}

			res, err := e.flows.SyncMailbox(ctx, id, waitFlag, progress(fmt.Sprintf("sync %d", id)))
			if err != nil {
				return err
			}
			return render(jobAction("sync", res.Ref, res.Job), func(w io.Writer) error {
				if res.Job == nil {
					fmt.Fprintf(w, "Sync queued (job %d). Follow it with 'smartmail jobs wait %d'.\n", res.Ref.JobID, res.Ref.JobID)
					return nil
				}
				for _, b := range res.Mailboxes {
					if b.ID == id {
						fmt.Fprintf(w, "Sync complete: %s has %d messages (%d unread).\n", b.EmailAddress, b.TotalMessages, b.UnreadMessages)
						return nil
					}
				}
				fmt.Fprintln(w, "Sync complete.")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&waitFlag, "wait", false, "wait for the sync job to finish")
	return cmd
}

func newMailboxRemoveCmd() *cobra.Command {
	var yesFlag bool

	cmd := &cobra.Command{
		Use:   "remove <mailbox-id>",
		Short: "Disconnect a mailbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ok, err := confirm(fmt.Sprintf("Delete mailbox %d and its stored mail?", id), yesFlag)
			if err != nil || !ok {
				return err
			}

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := cmd.Context()
			if _, err := e.require(ctx, ""); err != nil {
				return err
			}

			if err := e.client.DeleteMailbox(ctx, id); err != nil {
				return err
			}
			return render(jsonAction{OK: true, Action: "mailbox_remove", ID: id}, func(w io.Writer) error {
				fmt.Fprintf(w, "Mailbox %d removed.\n", id)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newMailboxUpdateCmd() *cobra.Command {
	var flags mailboxFlags
	var activeFlag bool

	cmd := &cobra.Command{
		Use:   "update <mailbox-id>",
		Short: "Change mailbox settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var upd domain.MailboxUpdate
			changed := cmd.Flags().Changed
			if changed("email") {
				upd.EmailAddress = &flags.email
			}
			if changed("provider") {
				upd.Provider = &flags.provider
			}
			if changed("imap-host") {
				upd.IMAPHost = &flags.imapHost
			}
			if changed("imap-port") {
				upd.IMAPPort = &flags.imapPort
			}
			if changed("smtp-host") {
				upd.SMTPHost = &flags.smtpHost
			}
			if changed("smtp-port") {
				upd.SMTPPort = &flags.smtpPort
			}
			if changed("active") {
				upd.IsActive = &activeFlag
			}
			if flags.passwordStdin {
				pw, err := readSecret(os.Stdin)
				if err != nil {
					return err
				}
				upd.Password = &pw
			}
			if upd == (domain.MailboxUpdate{}) {
				return errors.New("nothing to update; pass at least one setting flag")
			}

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := cmd.Context()
			if _, err := e.require(ctx, ""); err != nil {
				return err
			}

			box, err := e.client.UpdateMailbox(ctx, id, upd)
			if err != nil {
				return err
			}
			return render(box, func(w io.Writer) error {
				fmt.Fprintf(w, "Mailbox %d updated (%s, active: %s).\n", box.ID, box.EmailAddress, yesNo(box.IsActive))
				return nil
			})
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&activeFlag, "active", true, "enable or disable syncing")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
