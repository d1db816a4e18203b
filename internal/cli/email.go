package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/k3a/html2text"
	"github.com/spf13/cobra"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func newEmailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "email",
		Aliases: []string{"emails"},
		Short:   "Browse and organize synced email",
	}
	cmd.AddCommand(newEmailListCmd())
	cmd.AddCommand(newEmailShowCmd())
	cmd.AddCommand(newEmailAssignCmd())
	cmd.AddCommand(newEmailTagCmd())
	cmd.AddCommand(newEmailBulkTagCmd())
	return cmd
}

func newEmailListCmd() *cobra.Command {
	var (
		pageFlag, sizeFlag int
		mailboxFlag        int64
		folderFlag         string
		unreadFlag         bool
		readFlag           bool
		queryFlag          string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			if unreadFlag && readFlag {
				return errors.New("--unread and --read are mutually exclusive")
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

			f := domain.EmailFilter{
				Page:      pageFlag,
				Size:      sizeFlag,
				MailboxID: mailboxFlag,
				Folder:    folderFlag,
				Query:     queryFlag,
			}
			if f.Size <= 0 {
				f.Size = e.cfg.UI.PageSize
			}
			if unreadFlag || readFlag {
				f.IsRead = &readFlag
			}

			page, err := e.client.ListEmails(ctx, f)
			if err != nil {
				return err
			}
			return render(toJSONEmailPage(page), func(w io.Writer) error {
				if len(page.Items) == 0 {
					fmt.Fprintln(w, "No messages found.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "UNREAD\tID\tFROM\tSUBJECT\tDATE\tTAGS")
				for _, m := range page.Items {
					unread := " "
					if !m.IsRead {
						unread = "*"
					}
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
						unread, m.ID,
						truncate(domain.SenderName(m.Sender), 30),
						truncate(m.Subject, 50),
						m.ReceivedAt.Short(),
						tagNames(m.Tags),
					)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(w, "\nPage %d of %d (%d emails)\n", max(page.Page, 1), page.Pages(), page.Total)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&pageFlag, "page", 1, "page number")
	cmd.Flags().IntVar(&sizeFlag, "size", 0, "page size (defaults to ui.page_size)")
	cmd.Flags().Int64Var(&mailboxFlag, "mailbox", 0, "only emails from this mailbox id")
	cmd.Flags().StringVar(&folderFlag, "folder", "", "folder name, e.g. INBOX")
	cmd.Flags().BoolVar(&unreadFlag, "unread", false, "only unread emails")
	cmd.Flags().BoolVar(&readFlag, "read", false, "only read emails")
	cmd.Flags().StringVarP(&queryFlag, "query", "q", "", "search subject, sender and body")
	return cmd
}

func newEmailShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <email-id>",
		Short: "Show an email",
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

			m, err := e.client.GetEmail(ctx, id)
			if err != nil {
				return err
			}
			return render(m, func(w io.Writer) error {
				fmt.Fprintf(w, "Subject: %s\n", m.Subject)
				fmt.Fprintf(w, "From: %s\n", m.Sender)
				fmt.Fprintf(w, "Date: %s\n", m.ReceivedAt.Short())
				fmt.Fprintf(w, "Folder: %s   Mailbox: %d   Email ID: %d\n", m.Folder, m.MailboxID, m.ID)
				if len(m.Tags) > 0 {
					fmt.Fprintf(w, "Tags: %s\n", tagNames(m.Tags))
				}
				if m.AssignedUserID != nil {
					fmt.Fprintf(w, "Assigned to: user %d\n", *m.AssignedUserID)
				}
				for _, a := range m.Attachments {
					fmt.Fprintf(w, "Attachment: %s (%s, %d bytes)\n", a.Filename, a.ContentType, a.Size)
				}
				fmt.Fprintln(w, strings.Repeat("─", 60))
				fmt.Fprintln(w, emailBody(m))
				return nil
			})
		},
	}
}

// emailBody prefers the plain-text part and renders HTML otherwise.
func emailBody(m *domain.EmailDetail) string {
	if strings.TrimSpace(m.BodyText) != "" {
		return m.BodyText
	}
	if m.BodyHTML != "" {
		return html2text.HTML2Text(m.BodyHTML)
	}
	return "(no content)"
}

func tagNames(tags []domain.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return strings.Join(names, ",")
}

func newEmailAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <email-id> <user-id>",
		Short: "Assign an email to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			userID, err := parseID(args[1])
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

			if err := e.client.AssignEmail(ctx, id, userID); err != nil {
				return err
			}
			return render(jsonAction{OK: true, Action: "assign", ID: id}, func(w io.Writer) error {
				fmt.Fprintf(w, "Email %d assigned to user %d.\n", id, userID)
				return nil
			})
		},
	}
}

func newEmailTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Add or remove email tags",
	}
	cmd.AddCommand(newEmailTagAddCmd())
	cmd.AddCommand(newEmailTagRemoveCmd())
	return cmd
}

func newEmailTagAddCmd() *cobra.Command {
	var colorFlag string

	cmd := &cobra.Command{
		Use:   "add <email-id> <tag>",
		Short: "Tag an email",
		Args:  cobra.ExactArgs(2),
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

			tag, err := e.client.AddTag(ctx, id, args[1], colorFlag)
			if err != nil {
				return err
			}
			return render(tag, func(w io.Writer) error {
				fmt.Fprintf(w, "Tagged email %d with %q (tag id %d).\n", id, tag.Name, tag.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&colorFlag, "color", "", "tag color, e.g. #3b82f6")
	return cmd
}

func newEmailTagRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <email-id> <tag>",
		Short: "Remove a tag from an email",
		Long:  "Remove a tag by id or by name.",
		Args:  cobra.ExactArgs(2),
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

			tagID, err := parseID(args[1])
			if err != nil {
				m, err := e.client.GetEmail(ctx, id)
				if err != nil {
					return err
				}
				for _, t := range m.Tags {
					if strings.EqualFold(t.Name, args[1]) {
						tagID = t.ID
						break
					}
				}
				if tagID == 0 {
					return fmt.Errorf("email %d has no tag %q", id, args[1])
				}
			}

			if err := e.client.RemoveTag(ctx, id, tagID); err != nil {
				return err
			}
			return render(jsonAction{OK: true, Action: "untag", ID: id}, func(w io.Writer) error {
				fmt.Fprintf(w, "Removed tag %d from email %d.\n", tagID, id)
				return nil
			})
		},
	}
}

func newEmailBulkTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bulk-tag <tag> <email-id>...",
		Short: "Tag many emails at once",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[1:])
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

			if err := e.client.BulkTag(ctx, ids, args[0]); err != nil {
				return err
			}
			return render(jsonAction{OK: true, Action: "bulk_tag", Message: args[0]}, func(w io.Writer) error {
				fmt.Fprintf(w, "Tagged %d emails with %q.\n", len(ids), args[0])
				return nil
			})
		},
	}
}

// parseIDs parses ids given as separate arguments or comma-separated.
func parseIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, a := range args {
		for _, s := range strings.Split(a, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			id, err := parseID(s)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("no email ids given")
	}
	return ids, nil
}
