package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func newSpamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spam",
		Short: "Score email and manage spam rules",
	}
	cmd.AddCommand(newSpamAnalyzeCmd())
	cmd.AddCommand(newSpamScanCmd())
	cmd.AddCommand(newSpamRulesCmd())
	return cmd
}

func newSpamAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <email-id>",
		Short: "Score one email for spam",
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

			a, err := e.client.AnalyzeSpam(ctx, id)
			if err != nil {
				return err
			}
			return render(a, func(w io.Writer) error {
				fmt.Fprintf(w, "Email %d: score %d (%s)\n", a.EmailID, a.Score, a.Label)
				for _, r := range a.Reasons {
					fmt.Fprintf(w, "  - %s\n", r)
				}
				return nil
			})
		},
	}
}

func newSpamScanCmd() *cobra.Command {
	var autoFlag bool

	cmd := &cobra.Command{
		Use:   "scan <mailbox-id>",
		Short: "Score every email in a mailbox",
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

			res, err := e.client.ScanMailbox(ctx, id, autoFlag)
			if err != nil {
				return err
			}
			return render(res, func(w io.Writer) error {
				fmt.Fprintf(w, "Scanned %d emails: %d spam, %d suspicious, %d clean.\n",
					res.Scanned, res.SpamCount, res.SuspiciousCount, res.CleanCount)
				if len(res.Spam) > 0 {
					fmt.Fprintf(w, "Spam: %s\n", scoredIDs(res.Spam))
				}
				if len(res.Suspicious) > 0 {
					fmt.Fprintf(w, "Suspicious: %s\n", scoredIDs(res.Suspicious))
				}
				if res.AutoQuarantine && res.SpamCount > 0 {
					fmt.Fprintln(w, "Spam was moved to quarantine.")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&autoFlag, "auto-quarantine", false, "quarantine spam that is found")
	return cmd
}

func scoredIDs(list []domain.ScoredEmail) string {
	parts := make([]string, len(list))
	for i, s := range list {
		parts[i] = fmt.Sprintf("%d (%d)", s.ID, s.Score)
	}
	return strings.Join(parts, ", ")
}

func newSpamRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage allow, block and keyword rules",
	}
	cmd.AddCommand(newSpamRulesListCmd())
	cmd.AddCommand(newSpamRulesAddCmd())
	cmd.AddCommand(newSpamRulesRemoveCmd())
	return cmd
}

func newSpamRulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List spam rules",
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

			rules, err := e.client.ListSpamRules(ctx)
			if err != nil {
				return err
			}
			return render(rules, func(w io.Writer) error {
				if len(rules) == 0 {
					fmt.Fprintln(w, "No spam rules.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tTYPE\tVALUE\tWEIGHT\tMAILBOX\tACTIVE")
				for _, r := range rules {
					mailbox := "all"
					if r.MailboxID != nil {
						mailbox = fmt.Sprint(*r.MailboxID)
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
						r.ID, r.RuleType, r.Value, r.Weight, mailbox, yesNo(r.IsActive))
				}
				return tw.Flush()
			})
		},
	}
}

func newSpamRulesAddCmd() *cobra.Command {
	var typeFlag, valueFlag string
	var weightFlag int
	var mailboxFlag int64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a spam rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !domain.ValidSpamRuleType(typeFlag) {
				return fmt.Errorf("unknown rule type %q (want one of %s)",
					typeFlag, strings.Join(domain.SpamRuleTypes, ", "))
			}
			if strings.TrimSpace(valueFlag) == "" {
				return fmt.Errorf("--value is required")
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

			in := domain.SpamRuleCreate{RuleType: typeFlag, Value: valueFlag, Weight: weightFlag}
			if mailboxFlag != 0 {
				in.MailboxID = &mailboxFlag
			}
			rule, err := e.client.CreateSpamRule(ctx, in)
			if err != nil {
				return err
			}
			return render(rule, func(w io.Writer) error {
				fmt.Fprintf(w, "Rule %d added: %s %s.\n", rule.ID, rule.RuleType, rule.Value)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "", "rule type: "+strings.Join(domain.SpamRuleTypes, ", "))
	cmd.Flags().StringVar(&valueFlag, "value", "", "address, domain or keyword")
	cmd.Flags().IntVar(&weightFlag, "weight", 0, "score weight for keyword rules")
	cmd.Flags().Int64Var(&mailboxFlag, "mailbox", 0, "limit the rule to one mailbox")
	cmd.MarkFlagRequired("type")
	return cmd
}

func newSpamRulesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <rule-id>",
		Short: "Remove a spam rule",
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

			if err := e.client.DeleteSpamRule(ctx, id); err != nil {
				return err
			}
			return render(jsonAction{OK: true, Action: "remove_rule", ID: id}, func(w io.Writer) error {
				fmt.Fprintf(w, "Rule %d removed.\n", id)
				return nil
			})
		},
	}
}
