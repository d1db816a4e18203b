package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/logging"
	"github.com/lu-zhengda/smartmail/internal/store"
)

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "Inspect background jobs",
	}
	cmd.AddCommand(newJobsListCmd())
	cmd.AddCommand(newJobsStatusCmd())
	cmd.AddCommand(newJobsWaitCmd())
	cmd.AddCommand(newJobsWatchCmd())
	return cmd
}

func newJobsListCmd() *cobra.Command {
	var limitFlag int
	var localFlag bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		Long:  "List recent backend jobs. --local lists jobs submitted from this machine instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := cmd.Context()

			if localFlag {
				tracked, err := e.tracker.Recent(ctx, limitFlag)
				if err != nil {
					return err
				}
				return render(tracked, func(w io.Writer) error {
					return printTracked(w, tracked)
				})
			}

			if _, err := e.require(ctx, ""); err != nil {
				return err
			}
			list, err := e.client.ListJobs(ctx, 0, limitFlag)
			if err != nil {
				return err
			}
			return render(list, func(w io.Writer) error {
				return printJobs(w, list)
			})
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 50, "max jobs to show")
	cmd.Flags().BoolVar(&localFlag, "local", false, "only jobs submitted from this machine")
	return cmd
}

func printJobs(w io.Writer, list []domain.Job) error {
	if len(list) == 0 {
		fmt.Fprintln(w, "No jobs.")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tATTEMPTS\tCREATED\tERROR")
	for _, j := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			j.ID, j.Type, j.Status, j.Attempts, j.CreatedAt.Short(), truncate(j.Error, 40))
	}
	return tw.Flush()
}

func printTracked(w io.Writer, tracked []store.TrackedJob) error {
	if len(tracked) == 0 {
		fmt.Fprintln(w, "No tracked jobs.")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tKIND\tSTATUS\tSUBJECT\tSUBMITTED")
	for _, j := range tracked {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			j.JobID, j.Kind, j.Status, truncate(j.Subject, 40),
			j.SubmittedAt.Local().Format("Jan 02 15:04"))
	}
	return tw.Flush()
}

func newJobsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a job",
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

			job, err := e.client.GetJob(ctx, id)
			if err != nil {
				return err
			}
			if job.Status.IsTerminal() {
				e.flows.Resolve(ctx, job)
			}
			return render(job, func(w io.Writer) error {
				printJob(w, job)
				return nil
			})
		},
	}
}

func printJob(w io.Writer, j *domain.Job) {
	fmt.Fprintf(w, "Job %d (%s): %s\n", j.ID, j.Type, j.Status)
	fmt.Fprintf(w, "Attempts:  %d\n", j.Attempts)
	fmt.Fprintf(w, "Created:   %s\n", j.CreatedAt.Short())
	if !j.CompletedAt.IsZero() {
		fmt.Fprintf(w, "Completed: %s\n", j.CompletedAt.Short())
	}
	if j.Error != "" {
		fmt.Fprintf(w, "Error:     %s\n", j.Error)
	}
	for k, v := range j.Result {
		fmt.Fprintf(w, "Result %s: %v\n", k, v)
	}
}

func newJobsWaitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wait <job-id>",
		Short: "Wait for a job to finish",
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

			job, err := e.flows.Wait(ctx, &domain.JobRef{JobID: id}, progress(fmt.Sprintf("job %d", id)))
			if job == nil {
				return err
			}
			if rerr := render(job, func(w io.Writer) error {
				printJob(w, job)
				return nil
			}); rerr != nil {
				return rerr
			}
			return err
		},
	}
}

func newJobsWatchCmd() *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the job list until interrupted",
		Long: "Refresh the job list every poll.monitor_interval. Jobs submitted from this\n" +
			"machine that were still running are followed until they finish.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			if _, err := e.require(cmd.Context(), ""); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pending, err := e.tracker.Pending(ctx)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			for _, t := range pending {
				g.Go(func() error {
					job, err := e.flows.Wait(gctx, &domain.JobRef{JobID: t.JobID}, nil)
					if job != nil && job.Status.IsTerminal() {
						fmt.Fprintf(os.Stderr, "Tracked job %d (%s) %s\n", t.JobID, t.Kind, job.Status)
					}
					if err != nil && gctx.Err() == nil {
						e.logger.Debug("tracked job wait ended", logging.KeyJobID, t.JobID, logging.Err(err))
					}
					return nil
				})
			}

			g.Go(func() error {
				return e.monitor(limitFlag).Run(gctx, func(list []domain.Job, err error) {
					if err != nil {
						fmt.Fprintf(os.Stderr, "Warning: failed to refresh jobs: %v\n", err)
						return
					}
					if structured() {
						frender(os.Stdout, list, nil)
						return
					}
					fmt.Fprintf(os.Stdout, "\n%s\n", time.Now().Format("15:04:05"))
					printJobs(os.Stdout, list)
				})
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "max jobs to show")
	return cmd
}
