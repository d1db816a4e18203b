package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func newQuarantineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quarantine",
		Aliases: []string{"q"},
		Short:   "Review quarantined email",
	}
	cmd.AddCommand(newQuarantineQueueCmd())
	cmd.AddCommand(newQuarantineStatsCmd())
	cmd.AddCommand(newQuarantineReleaseCmd())
	cmd.AddCommand(newQuarantineConfirmCmd())
	cmd.AddCommand(newQuarantineDeleteCmd())
	return cmd
}

func newQuarantineQueueCmd() *cobra.Command {
	var mailboxFlag int64
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List quarantine entries",
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

			entries, err := e.client.QuarantineQueue(ctx, mailboxFlag, statusFlag)
			if err != nil {
				return err
			}
			return render(entries, func(w io.Writer) error {
				if len(entries) == 0 {
					fmt.Fprintln(w, "Quarantine is empty.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tEMAIL\tMAILBOX\tSCORE\tLABEL\tSTATUS\tQUARANTINED\tREASONS")
				for _, q := range entries {
					fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
						q.ID, q.EmailID, q.MailboxID, q.SpamScore, q.SpamLabel, q.Status,
						q.QuarantinedAt.Short(), truncate(q.Reasons, 50))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().Int64Var(&mailboxFlag, "mailbox", 0, "only entries from this mailbox id")
	cmd.Flags().StringVar(&statusFlag, "status", domain.QuarantineStatusQuarantined,
		"entry status: quarantined, released, confirmed_spam, deleted")
	return cmd
}

func newQuarantineStatsCmd() *cobra.Command {
	var mailboxFlag int64
	var daysFlag int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show quarantine statistics",
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

			s, err := e.client.QuarantineStats(ctx, mailboxFlag, daysFlag)
			if err != nil {
				return err
			}
			return render(s, func(w io.Writer) error {
				fmt.Fprintf(w, "Last %d days\n", daysFlag)
				tw := newTable(w)
				fmt.Fprintf(tw, "Total\t%d\n", s.Total)
				fmt.Fprintf(tw, "Pending\t%d\n", s.Pending)
				fmt.Fprintf(tw, "Released\t%d\n", s.Released)
				fmt.Fprintf(tw, "Confirmed spam\t%d\n", s.ConfirmedSpam)
				fmt.Fprintf(tw, "Deleted\t%d\n", s.Deleted)
				fmt.Fprintf(tw, "Average score\t%.1f\n", s.AvgScore)
				labels := make([]string, 0, len(s.ByLabel))
				for l := range s.ByLabel {
					labels = append(labels, l)
				}
				sort.Strings(labels)
				for _, l := range labels {
					fmt.Fprintf(tw, "Label %s\t%d\n", l, s.ByLabel[l])
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().Int64Var(&mailboxFlag, "mailbox", 0, "only this mailbox id")
	cmd.Flags().IntVar(&daysFlag, "days", 30, "period in days")
	return cmd
}

func newQuarantineReleaseCmd() *cobra.Command {
	var notesFlag string
	var allowlistFlag bool

	cmd := &cobra.Command{
		Use:   "release <entry-id>",
		Short: "Release an email back to the inbox",
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

			res, err := e.client.Release(ctx, id, notesFlag, allowlistFlag)
			if err != nil {
				return err
			}
			return render(res, func(w io.Writer) error {
				printQuarantineResult(w, res)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notesFlag, "notes", "", "review notes")
	cmd.Flags().BoolVar(&allowlistFlag, "allowlist", false, "also allow the sender in future")
	return cmd
}

func newQuarantineConfirmCmd() *cobra.Command {
	var notesFlag string
	var blocklistFlag bool

	cmd := &cobra.Command{
		Use:   "confirm <entry-id>",
		Short: "Confirm an email as spam",
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

			res, err := e.client.ConfirmSpam(ctx, id, notesFlag, blocklistFlag)
			if err != nil {
				return err
			}
			return render(res, func(w io.Writer) error {
				printQuarantineResult(w, res)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notesFlag, "notes", "", "review notes")
	cmd.Flags().BoolVar(&blocklistFlag, "blocklist", false, "also block the sender in future")
	return cmd
}

func newQuarantineDeleteCmd() *cobra.Command {
	var yesFlag bool

	cmd := &cobra.Command{
		Use:   "delete <entry-id>",
		Short: "Delete a quarantined email permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ok, err := confirm(fmt.Sprintf("Permanently delete quarantined email %d?", id), yesFlag)
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

			res, err := e.client.DeleteQuarantined(ctx, id)
			if err != nil {
				return err
			}
			return render(res, func(w io.Writer) error {
				printQuarantineResult(w, res)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func printQuarantineResult(w io.Writer, res *domain.QuarantineResult) {
	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf("Entry %d updated.", res.EntryID)
	}
	fmt.Fprintln(w, msg)
	if res.AddedToAllowlist {
		fmt.Fprintln(w, "Sender added to the allowlist.")
	}
	if res.AddedToBlocklist {
		fmt.Fprintln(w, "Sender added to the blocklist.")
	}
}
