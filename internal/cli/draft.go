package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func newDraftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "draft",
		Aliases: []string{"drafts"},
		Short:   "Generate, edit and send AI reply drafts",
	}
	cmd.AddCommand(newDraftGenerateCmd())
	cmd.AddCommand(newDraftListCmd())
	cmd.AddCommand(newDraftShowCmd())
	cmd.AddCommand(newDraftSaveCmd())
	cmd.AddCommand(newDraftSendCmd())
	return cmd
}

func toneFlagUsage() string {
	names := make([]string, len(domain.Tones))
	for i, t := range domain.Tones {
		names[i] = string(t)
	}
	return "reply tone: " + strings.Join(names, ", ")
}

func newDraftGenerateCmd() *cobra.Command {
	var instructionsFlag, toneFlag string
	var waitFlag bool

	cmd := &cobra.Command{
		Use:   "generate <email-id>",
		Short: "Queue AI draft generation for an email",
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

			tone := domain.Tone(toneFlag)
			if !waitFlag {
				ref, err := e.flows.SubmitDraft(ctx, id, instructionsFlag, tone, "")
				if err != nil {
					return err
				}
				return render(jobAction("draft", ref, nil), func(w io.Writer) error {
					fmt.Fprintf(w, "Draft generation queued (job %d).\n", ref.JobID)
					return nil
				})
			}

			res, err := e.flows.GenerateDraft(ctx, id, instructionsFlag, tone, progress("draft"))
			if err != nil {
				return err
			}
			return render(res.Draft, func(w io.Writer) error {
				printDraft(w, res.Draft)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&instructionsFlag, "instructions", "i", "", "guidance for the draft")
	cmd.Flags().StringVar(&toneFlag, "tone", string(domain.ToneProfessional), toneFlagUsage())
	cmd.Flags().BoolVar(&waitFlag, "wait", false, "wait for the draft and print it")
	return cmd
}

func printDraft(w io.Writer, d *domain.Draft) {
	if d == nil {
		fmt.Fprintln(w, "No draft was produced.")
		return
	}
	fmt.Fprintf(w, "Draft %d for email %d", d.ID, d.EmailID)
	if d.ApprovalStatus != "" {
		fmt.Fprintf(w, " [%s]", d.ApprovalStatus)
	}
	if d.ConfidenceScore != nil {
		fmt.Fprintf(w, " confidence %.0f%%", *d.ConfidenceScore*100)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintln(w, d.Content)
}

func newDraftListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <email-id>",
		Short: "List draft versions of an email",
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

			drafts, err := e.client.ListDrafts(ctx, id)
			if err != nil {
				return err
			}
			return render(drafts, func(w io.Writer) error {
				if len(drafts) == 0 {
					fmt.Fprintf(w, "No drafts for email %d. Run 'smartmail draft generate %d'.\n", id, id)
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tCREATED\tACCEPTED\tAPPROVAL\tPREVIEW")
				for _, d := range drafts {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
						d.ID, d.CreatedAt.Short(), yesNo(d.IsAccepted), d.ApprovalStatus,
						truncate(strings.Join(strings.Fields(d.Content), " "), 60),
					)
				}
				return tw.Flush()
			})
		},
	}
}

func newDraftShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <draft-id>",
		Short: "Show a draft",
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

			d, err := e.client.GetDraft(ctx, id)
			if err != nil {
				return err
			}
			return render(d, func(w io.Writer) error {
				printDraft(w, d)
				return nil
			})
		},
	}
}

func newDraftSaveCmd() *cobra.Command {
	var contentFlag string
	var acceptFlag bool

	cmd := &cobra.Command{
		Use:   "save <draft-id>",
		Short: "Replace a draft's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			content, err := readBody(contentFlag)
			if err != nil {
				return err
			}
			if strings.TrimSpace(content) == "" {
				return errors.New("--content is required (use '-' to read from stdin)")
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

			upd := domain.DraftUpdate{Content: content}
			if cmd.Flags().Changed("accept") {
				upd.IsAccepted = &acceptFlag
			}
			d, err := e.client.UpdateDraft(ctx, id, upd)
			if err != nil {
				return err
			}
			return render(d, func(w io.Writer) error {
				fmt.Fprintf(w, "Draft %d saved.\n", d.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&contentFlag, "content", "", "new draft text (use '-' to read from stdin)")
	cmd.Flags().BoolVar(&acceptFlag, "accept", false, "mark the draft accepted")
	return cmd
}

func newDraftSendCmd() *cobra.Command {
	var draftFlag int64
	var bodyFlag, toFlag, subjectFlag string
	var waitFlag bool

	cmd := &cobra.Command{
		Use:   "send <email-id>",
		Short: "Send a reply to an email",
		Long: "Send the latest draft of an email, a specific --draft, or a --body.\n" +
			"The recipient defaults to the original sender and the subject to \"Re: <subject>\".",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			body, err := readBody(bodyFlag)
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

			email, err := e.client.GetEmail(ctx, id)
			if err != nil {
				return err
			}
			if body == "" {
				body, err = draftContent(cmd, e, id, draftFlag)
				if err != nil {
					return err
				}
			}

			ref, err := e.flows.SendDraft(ctx, email, body, toFlag, subjectFlag)
			if err != nil {
				return err
			}
			var job *domain.Job
			if waitFlag {
				job, err = e.flows.Wait(ctx, ref, progress("send"))
				if err != nil {
					return err
				}
			}
			return render(jobAction("send", ref, job), func(w io.Writer) error {
				if job == nil {
					fmt.Fprintf(w, "Reply queued (job %d).\n", ref.JobID)
				} else {
					fmt.Fprintln(w, "Reply sent.")
				}
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&draftFlag, "draft", 0, "draft id to send (defaults to the latest draft)")
	cmd.Flags().StringVar(&bodyFlag, "body", "", "reply text instead of a draft (use '-' to read from stdin)")
	cmd.Flags().StringVar(&toFlag, "to", "", "recipient (defaults to the original sender)")
	cmd.Flags().StringVar(&subjectFlag, "subject", "", "subject (defaults to Re: original subject)")
	cmd.Flags().BoolVar(&waitFlag, "wait", false, "wait until the send job finishes")
	cmd.MarkFlagsMutuallyExclusive("draft", "body")
	return cmd
}

// draftContent returns the text of draftID, or of the latest draft when
// draftID is zero. Drafts that still need approval or were rejected are
// refused.
func draftContent(cmd *cobra.Command, e *env, emailID, draftID int64) (string, error) {
	drafts, err := e.client.ListDrafts(cmd.Context(), emailID)
	if err != nil {
		return "", err
	}
	d := domain.LatestDraft(drafts)
	if draftID != 0 {
		d = domain.FindDraft(drafts, draftID)
		if d == nil {
			return "", fmt.Errorf("draft %d does not belong to email %d", draftID, emailID)
		}
	}
	if r := domain.DraftReadiness(d); r != domain.ReadinessReady {
		return "", fmt.Errorf("cannot send email %d: %s", emailID, r.Message())
	}
	return d.Content, nil
}
