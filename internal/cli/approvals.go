package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func newApprovalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "approvals",
		Aliases: []string{"approval"},
		Short:   "Review drafts waiting for approval (admin)",
	}
	cmd.AddCommand(newApprovalsPendingCmd())
	cmd.AddCommand(newApprovalsApproveCmd())
	cmd.AddCommand(newApprovalsRejectCmd())
	return cmd
}

func newApprovalsPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List drafts waiting for approval",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := cmd.Context()
			if _, err := e.require(ctx, domain.RoleAdmin); err != nil {
				return err
			}

			pending, err := e.client.PendingApprovals(ctx)
			if err != nil {
				return err
			}
			return render(pending, func(w io.Writer) error {
				if len(pending) == 0 {
					fmt.Fprintln(w, "Nothing to approve.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "DRAFT\tEMAIL\tCONFIDENCE\tCREATED\tPREVIEW")
				for _, d := range pending {
					conf := "-"
					if d.ConfidenceScore != nil {
						conf = fmt.Sprintf("%.0f%%", *d.ConfidenceScore*100)
					}
					fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
						d.ID, d.EmailID, conf, d.CreatedAt.Short(),
						truncate(strings.Join(strings.Fields(d.Content), " "), 60))
				}
				return tw.Flush()
			})
		},
	}
}

func newApprovalsApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <draft-id>",
		Short: "Approve a draft for sending",
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
			if _, err := e.require(ctx, domain.RoleAdmin); err != nil {
				return err
			}

			if err := e.client.ApproveDraft(ctx, id); err != nil {
				return err
			}
			return render(jsonAction{OK: true, Action: "approve", ID: id}, func(w io.Writer) error {
				fmt.Fprintf(w, "Draft %d approved.\n", id)
				return nil
			})
		},
	}
}

func newApprovalsRejectCmd() *cobra.Command {
	var reasonFlag string

	cmd := &cobra.Command{
		Use:   "reject <draft-id>",
		Short: "Reject a draft",
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
			if _, err := e.require(ctx, domain.RoleAdmin); err != nil {
				return err
			}

			if err := e.client.RejectDraft(ctx, id, reasonFlag); err != nil {
				return err
			}
			return render(jsonAction{OK: true, Action: "reject", ID: id, Message: reasonFlag}, func(w io.Writer) error {
				fmt.Fprintf(w, "Draft %d rejected.\n", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reasonFlag, "reason", "", "why the draft was rejected")
	return cmd
}
