package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/smartmail/internal/bulk"
	"github.com/lu-zhengda/smartmail/internal/domain"
)

func newBulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Draft and send replies for many emails",
	}
	cmd.AddCommand(newBulkDraftCmd())
	cmd.AddCommand(newBulkPreviewCmd())
	cmd.AddCommand(newBulkSendCmd())
	return cmd
}

func newBulkDraftCmd() *cobra.Command {
	var instructionsFlag, toneFlag string
	var waitFlag bool

	cmd := &cobra.Command{
		Use:   "draft <email-id>...",
		Short: "Queue draft generation for many emails",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
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

			ref, err := e.bulkService().GenerateDrafts(ctx, ids, instructionsFlag, domain.Tone(toneFlag))
			if err != nil {
				return err
			}
			e.flows.Track(ctx, ref, domain.JobBulkDraft, fmt.Sprintf("%d emails", len(ids)))

			var job *domain.Job
			if waitFlag {
				if job, err = e.flows.Wait(ctx, ref, progress("bulk draft")); err != nil {
					return err
				}
			}
			return render(jobAction("bulk_draft", ref, job), func(w io.Writer) error {
				if job == nil {
					fmt.Fprintf(w, "Drafting queued for %d emails (job %d).\n", len(ids), ref.JobID)
				} else {
					fmt.Fprintf(w, "Drafts generated for %d emails. Review them with 'smartmail bulk preview'.\n", len(ids))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&instructionsFlag, "instructions", "i", "", "guidance applied to every draft (required)")
	cmd.Flags().StringVar(&toneFlag, "tone", string(domain.ToneProfessional), toneFlagUsage())
	cmd.Flags().BoolVar(&waitFlag, "wait", false, "wait for the bulk job to finish")
	return cmd
}

func newBulkPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <email-id>...",
		Short: "Show which emails have a draft ready to send",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
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

			items, err := e.bulkService().Preview(ctx, ids)
			if err != nil {
				return err
			}
			return render(toJSONPreviews(items), func(w io.Writer) error {
				printPreview(w, items)
				return nil
			})
		},
	}
}

func printPreview(w io.Writer, items []bulk.PreviewItem) {
	tw := newTable(w)
	fmt.Fprintln(tw, "EMAIL\tDRAFT\tSTATUS")
	for _, it := range items {
		draft := "-"
		if it.Draft != nil {
			draft = fmt.Sprint(it.Draft.ID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", it.EmailID, draft, it.Message)
	}
	tw.Flush()

	counts := bulk.Counts(items)
	fmt.Fprintf(w, "\n%d ready, %d awaiting approval, %d rejected, %d without draft\n",
		counts[domain.ReadinessReady], counts[domain.ReadinessPendingApproval],
		counts[domain.ReadinessBlocked], counts[domain.ReadinessNoDraft])
}

func newBulkSendCmd() *cobra.Command {
	var yesFlag bool

	cmd := &cobra.Command{
		Use:   "send <email-id>...",
		Short: "Send every ready draft",
		Long: "Send the latest draft of each email that is ready. Emails without a draft,\n" +
			"awaiting approval or rejected are skipped. Sends are spaced by bulk.send_delay.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
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

			svc := e.bulkService()
			previews, err := svc.Preview(ctx, ids)
			if err != nil {
				return err
			}
			ready := bulk.Counts(previews)[domain.ReadinessReady]
			if ready == 0 {
				return errors.New("no drafts are ready to send")
			}
			if !structured() {
				printPreview(os.Stderr, previews)
			}
			ok, err := confirm(fmt.Sprintf("Send %d replies?", ready), yesFlag)
			if err != nil || !ok {
				return err
			}

			report := func(done, total int, it *bulk.Item) {
				if structured() || it.Status == bulk.StatusSending {
					return
				}
				line := fmt.Sprintf("[%d/%d] email %d: %s", done, total, it.EmailID, it.Status)
				if it.Error != "" {
					line += " (" + it.Error + ")"
				}
				fmt.Fprintln(os.Stderr, line)
			}
			items, summary, err := svc.SendReady(ctx, previews, report)
			if err != nil && items == nil {
				return err
			}
			if rerr := render(toJSONSendResult(items, summary), func(w io.Writer) error {
				fmt.Fprintf(w, "Sent %d, failed %d.\n", summary.Sent, summary.Failed)
				return nil
			}); rerr != nil {
				return rerr
			}
			if err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d sends failed", summary.Failed, summary.Sent+summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
