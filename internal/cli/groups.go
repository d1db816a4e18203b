package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func newGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group"},
		Short:   "Find similar emails and act on them together",
	}
	cmd.AddCommand(newGroupsSuggestCmd())
	cmd.AddCommand(newGroupsSimilarCmd())
	cmd.AddCommand(newGroupsClusterCmd())
	cmd.AddCommand(newGroupsAcceptCmd())
	return cmd
}

func newGroupsSuggestCmd() *cobra.Command {
	var mailboxFlag int64
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest groups of related emails",
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

			groups, err := e.client.SuggestGroups(ctx, mailboxFlag, limitFlag)
			if err != nil {
				return err
			}
			return render(groups, func(w io.Writer) error {
				if len(groups) == 0 {
					fmt.Fprintln(w, "No groups found.")
					return nil
				}
				for _, g := range groups {
					fmt.Fprintf(w, "[%d] %s (%d emails, tag %q)\n",
						g.ClusterID, g.Topic, g.EmailCount, domain.TopicTag(g.Topic))
					for _, s := range g.SampleSubjects {
						fmt.Fprintf(w, "    %s\n", truncate(s, 70))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&mailboxFlag, "mailbox", 0, "only this mailbox id")
	cmd.Flags().IntVar(&limitFlag, "limit", 50, "emails to consider")
	return cmd
}

func newGroupsSimilarCmd() *cobra.Command {
	var thresholdFlag float64
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "similar <email-id>",
		Short: "Find emails similar to one email",
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

			similar, err := e.client.SimilarEmails(ctx, id, thresholdFlag, limitFlag)
			if err != nil {
				return err
			}
			return render(similar, func(w io.Writer) error {
				if len(similar) == 0 {
					fmt.Fprintln(w, "No similar emails.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tSCORE\tFROM\tSUBJECT")
				for _, s := range similar {
					fmt.Fprintf(tw, "%d\t%.2f\t%s\t%s\n",
						s.EmailID, s.SimilarityScore,
						truncate(domain.SenderName(s.Sender), 30), truncate(s.Subject, 50))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().Float64Var(&thresholdFlag, "threshold", 0.5, "minimum similarity score")
	cmd.Flags().IntVar(&limitFlag, "limit", 10, "max results")
	return cmd
}

func newGroupsClusterCmd() *cobra.Command {
	var clustersFlag int

	cmd := &cobra.Command{
		Use:   "cluster <email-id>...",
		Short: "Cluster the given emails",
		Args:  cobra.MinimumNArgs(2),
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

			res, err := e.client.ClusterEmails(ctx, ids, clustersFlag)
			if err != nil {
				return err
			}
			return render(res, func(w io.Writer) error {
				fmt.Fprintf(w, "%d clusters\n", res.NumClusters)
				for i, c := range res.Clusters {
					fmt.Fprintf(w, "  %d: %v\n", i+1, c)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&clustersFlag, "clusters", 0, "number of clusters (0 lets the backend choose)")
	return cmd
}

func newGroupsAcceptCmd() *cobra.Command {
	var mailboxFlag int64
	var instructionsFlag, toneFlag string

	cmd := &cobra.Command{
		Use:   "accept <cluster-id>",
		Short: "Tag a suggested group and optionally draft replies for it",
		Long: "Tag every email of a suggested group with its topic. With -i, a bulk draft\n" +
			"job is queued for the group using those instructions.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clusterID, err := parseID(args[0])
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

			groups, err := e.client.SuggestGroups(ctx, mailboxFlag, 0)
			if err != nil {
				return err
			}
			var group *domain.GroupSuggestion
			for i := range groups {
				if groups[i].ClusterID == clusterID {
					group = &groups[i]
					break
				}
			}
			if group == nil {
				return fmt.Errorf("no suggested group %d", clusterID)
			}

			svc := e.bulkService()
			tag, ids, err := svc.AcceptGroup(ctx, *group)
			if err != nil {
				return err
			}
			out := jsonAction{OK: true, Action: "accept_group", ID: clusterID, Message: tag}
			var ref *domain.JobRef
			if strings.TrimSpace(instructionsFlag) != "" {
				ref, err = svc.GenerateDrafts(ctx, ids, instructionsFlag, domain.Tone(toneFlag))
				if err != nil {
					return err
				}
				e.flows.Track(ctx, ref, domain.JobBulkDraft, group.Topic)
				out.JobID = ref.JobID
			}
			return render(out, func(w io.Writer) error {
				fmt.Fprintf(w, "Tagged %d emails with %q.\n", len(ids), tag)
				if ref != nil {
					fmt.Fprintf(w, "Drafting queued (job %d).\n", ref.JobID)
				}
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&mailboxFlag, "mailbox", 0, "mailbox the suggestion came from")
	cmd.Flags().StringVarP(&instructionsFlag, "instructions", "i", "", "also draft replies with these instructions")
	cmd.Flags().StringVar(&toneFlag, "tone", string(domain.ToneProfessional), toneFlagUsage())
	return cmd
}
