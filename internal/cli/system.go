package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/logging"
)

func newAuditCmd() *cobra.Command {
	var typeFlag string
	var limitFlag, skipFlag int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit log",
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

			logs, err := e.client.ListAuditLogs(ctx, typeFlag, skipFlag, limitFlag)
			if err != nil {
				return err
			}
			return render(logs, func(w io.Writer) error {
				if len(logs) == 0 {
					fmt.Fprintln(w, "No audit events.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tTIME\tEVENT\tUSER\tDETAILS")
				for _, l := range logs {
					user := "-"
					if l.UserID != nil {
						user = fmt.Sprint(*l.UserID)
					}
					details := ""
					if len(l.Details) > 0 {
						b, _ := json.Marshal(l.Details)
						details = string(b)
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
						l.ID, l.Timestamp.Short(), l.EventType, user, truncate(details, 60))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "", "only events of this type, e.g. email_sent")
	cmd.Flags().IntVar(&limitFlag, "limit", 50, "max events")
	cmd.Flags().IntVar(&skipFlag, "skip", 0, "events to skip")
	return cmd
}

// healthResult is the --json shape of the health command.
type healthResult struct {
	Health *domain.HealthReport    `json:"health,omitempty"`
	Ready  *domain.ReadinessReport `json:"ready,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check backend health",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := cmd.Context()

			h, herr := e.client.Health(ctx)
			if h == nil {
				return herr
			}
			res := healthResult{Health: h}
			if herr != nil {
				res.Error = herr.Error()
			}
			if rr, err := e.client.Ready(ctx); err == nil {
				res.Ready = rr
			} else {
				e.logger.Debug("readiness check failed", logging.Err(err))
			}

			if rerr := render(res, func(w io.Writer) error {
				printHealth(w, e.client.BaseURL(), res)
				return nil
			}); rerr != nil {
				return rerr
			}
			return herr
		},
	}
}

func printHealth(w io.Writer, baseURL string, res healthResult) {
	fmt.Fprintf(w, "%s: %s\n", baseURL, res.Health.Status)
	names := make([]string, 0, len(res.Health.Checks))
	for n := range res.Health.Checks {
		names = append(names, n)
	}
	sort.Strings(names)

	tw := newTable(w)
	for _, n := range names {
		c := res.Health.Checks[n]
		detail := c.Message
		if c.Error != "" {
			detail = c.Error
		}
		latency := ""
		if c.LatencyMS != nil {
			latency = fmt.Sprintf("%.0fms", *c.LatencyMS)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", n, c.Status, latency, detail)
	}
	tw.Flush()

	if res.Ready != nil {
		line := "Ready: " + res.Ready.Status
		if res.Ready.Reason != "" {
			line += " (" + res.Ready.Reason + ")"
		}
		fmt.Fprintln(w, line)
	}
}

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show backend job, email and user counts",
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

			m, err := e.client.SystemMetrics(ctx)
			if err != nil {
				return err
			}
			return render(m, func(w io.Writer) error {
				tw := newTable(w)
				fmt.Fprintf(tw, "Jobs\t%d total, %d pending, %d completed, %d failed\n",
					m.JobsTotal, m.JobsPending, m.JobsCompleted, m.JobsFailed)
				fmt.Fprintf(tw, "Emails\t%d total, %d unread\n", m.EmailsTotal, m.EmailsUnread)
				fmt.Fprintf(tw, "Users\t%d\n", m.UsersTotal)
				fmt.Fprintf(tw, "Audit events (24h)\t%d\n", m.AuditEvents24h)
				return tw.Flush()
			})
		},
	}
}
