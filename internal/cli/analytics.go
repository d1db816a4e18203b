package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func newAnalyticsCmd() *cobra.Command {
	var daysFlag int

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show response-time and AI usage analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(domain.AnalyticsPeriods, daysFlag) {
				return fmt.Errorf("--days must be one of %v", domain.AnalyticsPeriods)
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

			d, err := e.client.Dashboard(ctx, daysFlag)
			if err != nil {
				return err
			}
			return render(d, func(w io.Writer) error {
				printDashboard(w, d)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&daysFlag, "days", 7, "period in days: 7, 30 or 90")
	return cmd
}

func printDashboard(w io.Writer, d *domain.DashboardSummary) {
	fmt.Fprintf(w, "Last %d days\n\n", d.PeriodDays)

	tw := newTable(w)
	fmt.Fprintln(tw, "RESPONSE\t")
	fmt.Fprintf(tw, "Received\t%d\n", d.SLA.TotalReceived)
	fmt.Fprintf(tw, "Backlog\t%d (%.1f%%)\n", d.SLA.Backlog, d.SLA.BacklogRate)
	fmt.Fprintf(tw, "Avg response\t%.1fh\n", d.SLA.AvgResponseTimeHours)
	fmt.Fprintf(tw, "Under 1h / 4h / 24h\t%d / %d / %d\n",
		d.SLA.ResponsesUnder1h, d.SLA.ResponsesUnder4h, d.SLA.ResponsesUnder24h)
	fmt.Fprintln(tw, "\t")
	fmt.Fprintln(tw, "AI USAGE\t")
	fmt.Fprintf(tw, "Drafts generated\t%d\n", d.AIUsage.TotalDraftsGenerated)
	fmt.Fprintf(tw, "Accepted\t%d (%.1f%%)\n", d.AIUsage.DraftsAccepted, d.AIUsage.AcceptanceRate)
	fmt.Fprintf(tw, "Emails sent\t%d\n", d.AIUsage.TotalEmailsSent)
	fmt.Fprintf(tw, "Edit rate\t%.1f%%\n", d.AIUsage.EditRate)
	fmt.Fprintf(tw, "Generation jobs\t%d ok, %d failed (%.1f%%)\n",
		d.AIUsage.GenerationJobs.Completed, d.AIUsage.GenerationJobs.Failed, d.AIUsage.GenerationJobs.SuccessRate)
	tw.Flush()

	h := d.Highlights
	if h.BacklogStatus != "" || h.ResponseTimeStatus != "" || h.AIAdoption != "" {
		fmt.Fprintf(w, "\nBacklog %s, response time %s, AI adoption %s\n",
			h.BacklogStatus, h.ResponseTimeStatus, h.AIAdoption)
	}
}
