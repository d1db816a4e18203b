package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func newGmailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gmail",
		Short: "Work with the connected Gmail account",
	}
	cmd.AddCommand(newGmailInboxCmd())
	cmd.AddCommand(newGmailShowCmd())
	cmd.AddCommand(newGmailStatsCmd())
	cmd.AddCommand(newGmailReplyCmd())
	cmd.AddCommand(newGmailSendReplyCmd())
	return cmd
}

func newGmailInboxCmd() *cobra.Command {
	var maxFlag int
	var pageTokenFlag string

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List Gmail inbox messages",
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

			inbox, err := e.client.GmailInbox(ctx, maxFlag, pageTokenFlag)
			if err != nil {
				return err
			}
			return render(inbox, func(w io.Writer) error {
				if len(inbox.Messages) == 0 {
					fmt.Fprintln(w, "No messages found.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "UNREAD\tFROM\tSUBJECT\tDATE\tID")
				for _, m := range inbox.Messages {
					unread := " "
					if !m.IsRead {
						unread = "*"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						unread,
						truncate(domain.SenderName(m.Sender), 30),
						truncate(m.Subject, 50),
						truncate(m.Date, 25),
						m.ID,
					)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				if inbox.NextPageToken != "" {
					fmt.Fprintf(w, "\nMore: smartmail gmail inbox --page-token %s\n", inbox.NextPageToken)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&maxFlag, "max", 20, "max messages to fetch")
	cmd.Flags().StringVar(&pageTokenFlag, "page-token", "", "continue from a previous page")
	return cmd
}

func newGmailShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <message-id>",
		Short: "Show a Gmail message",
		Args:  cobra.ExactArgs(1),
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

			m, err := e.client.GmailMessage(ctx, args[0])
			if err != nil {
				return err
			}
			return render(m, func(w io.Writer) error {
				printGmailMessage(w, m)
				return nil
			})
		},
	}
}

func printGmailMessage(w io.Writer, m *domain.GmailMessage) {
	fmt.Fprintf(w, "Subject: %s\n", m.Subject)
	fmt.Fprintf(w, "From: %s\n", m.Sender)
	if m.To != "" {
		fmt.Fprintf(w, "To: %s\n", m.To)
	}
	fmt.Fprintf(w, "Date: %s\n", m.Date)
	if len(m.Labels) > 0 {
		fmt.Fprintf(w, "Labels: %s\n", strings.Join(m.Labels, ", "))
	}
	fmt.Fprintln(w, strings.Repeat("─", 60))
	body := m.Body
	if body == "" {
		body = m.Snippet
	}
	fmt.Fprintln(w, body)
}

func newGmailStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show Gmail connection status",
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

			s, err := e.client.GmailStats(ctx)
			if err != nil {
				return err
			}
			return render(s, func(w io.Writer) error {
				if !s.Connected {
					fmt.Fprintln(w, "Gmail is not connected. Run 'smartmail login --google'.")
					if s.Error != "" {
						fmt.Fprintf(w, "Reason: %s\n", s.Error)
					}
					return nil
				}
				fmt.Fprintf(w, "Connected: %s\n", s.UserEmail)
				fmt.Fprintf(w, "Unread:    %d\n", s.UnreadCount)
				return nil
			})
		},
	}
}

func newGmailReplyCmd() *cobra.Command {
	var toneFlag, instructionsFlag, subjectFlag string
	var forceFlag, sendFlag bool

	cmd := &cobra.Command{
		Use:   "reply <message-id>",
		Short: "Generate an AI reply to a Gmail message",
		Long: "Generate a reply with the chosen tone. Replies are cached for cache.reply_ttl,\n" +
			"so asking again with the same tone and instructions is instant. --send sends it.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !domain.ValidTone(toneFlag) {
				return fmt.Errorf("unknown tone %q", toneFlag)
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

			msg, err := e.client.GmailMessage(ctx, args[0])
			if err != nil {
				return err
			}
			replier := e.autoReplier()
			reply, err := replier.Generate(ctx, msg, domain.Tone(toneFlag), instructionsFlag, forceFlag)
			if err != nil {
				return err
			}

			if !sendFlag {
				return render(reply, func(w io.Writer) error {
					header := fmt.Sprintf("Reply to %q (%s)", msg.Subject, reply.Tone)
					if reply.FromCache {
						header += " (cached)"
					}
					fmt.Fprintln(w, header)
					fmt.Fprintln(w, strings.Repeat("─", 60))
					fmt.Fprintln(w, reply.Text)
					return nil
				})
			}

			res, err := replier.Send(ctx, reply, subjectFlag)
			if err != nil {
				return err
			}
			return render(res, func(w io.Writer) error {
				fmt.Fprintf(w, "Reply sent to %s.\n", res.To)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&toneFlag, "tone", string(domain.ToneProfessional), toneFlagUsage())
	cmd.Flags().StringVarP(&instructionsFlag, "instructions", "i", "", "guidance for the reply")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "regenerate even if a cached reply exists")
	cmd.Flags().BoolVar(&sendFlag, "send", false, "send the generated reply")
	cmd.Flags().StringVar(&subjectFlag, "subject", "", "subject when sending (defaults to Re: original)")
	return cmd
}

func newGmailSendReplyCmd() *cobra.Command {
	var bodyFlag, subjectFlag string

	cmd := &cobra.Command{
		Use:   "send-reply <message-id>",
		Short: "Send a reply you wrote to a Gmail message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(bodyFlag)
			if err != nil {
				return err
			}
			if strings.TrimSpace(body) == "" {
				return errors.New("--body is required (use '-' to read from stdin)")
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

			res, err := e.client.SendReply(ctx, args[0], body, subjectFlag)
			if err != nil {
				return err
			}
			return render(res, func(w io.Writer) error {
				fmt.Fprintf(w, "Reply sent to %s.\n", res.To)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bodyFlag, "body", "", "reply text (use '-' to read from stdin)")
	cmd.Flags().StringVar(&subjectFlag, "subject", "", "subject (defaults to Re: original)")
	return cmd
}
