package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"createmovie/internal/history"
	"createmovie/internal/logging"
	"createmovie/internal/publish"
	"createmovie/internal/services"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived allocation runs",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsPruneCommand(ctx))
	runsCmd.AddCommand(newRunsWatchCommand(ctx))
	return runsCmd
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	store, err := c.openHistory()
	if err != nil {
		return err
	}
	if store == nil {
		return services.Wrap(services.ErrConfiguration, "runs", "", "run history is disabled (history.enabled = false)", nil)
	}
	defer store.Close()
	return fn(store)
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if runs == nil {
						runs = []history.Run{}
					}
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs archived")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.RunID,
						run.StartedAt.Local().Format(time.DateTime),
						run.Strategy,
						fmt.Sprintf("%d/%d", run.Usage.Used, run.Usage.Total),
						run.Usage.Percentage,
						fmt.Sprintf("%d", run.GenerationCount),
						yesNo(run.Validation.Valid),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Started", "Strategy", "Used", "Rate", "Generate", "Valid"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one archived run with its usage report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, run)
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintf(out, "Run:        %s\n", run.RunID)
				fmt.Fprintf(out, "Strategy:   %s\n", run.Strategy)
				if run.ProjectPath != "" {
					fmt.Fprintf(out, "Project:    %s\n", run.ProjectPath)
				}
				fmt.Fprintf(out, "Started:    %s\n", run.StartedAt.Local().Format(time.DateTime))
				fmt.Fprintf(out, "Duration:   %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
				fmt.Fprintln(out)

				rows := make([][]string, 0, len(run.Cuts))
				for _, cut := range run.Cuts {
					file, score := "-", "-"
					if cut.MaterialID != "" {
						file = cut.Filename
						score = fmt.Sprintf("%.2f", cut.Confidence)
					} else if cut.GenerationRequired {
						file = "(generate)"
					}
					rows = append(rows, []string{fmt.Sprintf("%d", cut.CutID), truncate(cut.SceneDescription, 48), file, score})
				}
				fmt.Fprintln(out, renderTable([]string{"Cut", "Scene", "Material", "Score"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight}))
				fmt.Fprintln(out)

				if run.Report != nil {
					printReport(out, *run.Report, colorize)
				}
				printValidation(out, run.Validation, colorize)
				return nil
			})
		},
	}
}

func newRunsPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s), kept at most %d\n", removed, keep)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 50, "Number of newest runs to keep")
	return cmd
}

func newRunsWatchCommand(ctx *commandContext) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow run events published to Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Publish.Enabled {
				return services.Wrap(services.ErrConfiguration, "runs", "watch", "publishing is disabled (publish.enabled = false)", nil)
			}
			pub, err := publish.NewFromConfig(cfg.Publish)
			if err != nil {
				return err
			}
			defer pub.Close()

			sub, err := pub.Subscribe(cmd.Context())
			if err != nil {
				return err
			}
			defer sub.Close()

			out := cmd.OutOrStdout()
			errs := sub.Errors()
			seen := 0
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					ctx.log().Warn("skipping run event", logging.Error(err))
				case event, ok := <-sub.Events():
					if !ok {
						return errors.New("event stream closed")
					}
					if ctx.jsonOutput() {
						if err := writeJSON(cmd, event); err != nil {
							return err
						}
					} else {
						fmt.Fprintf(out, "%s %s %s used %d/%d (%s) generate=%d valid=%s\n",
							event.Timestamp.Local().Format(time.TimeOnly), event.RunID, event.Strategy,
							event.Usage.Used, event.Usage.Total, event.Usage.Percentage,
							event.GenerationCount, yesNo(event.Valid))
					}
					seen++
					if count > 0 && seen >= count {
						return nil
					}
				}
			}
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many events (0 to run until interrupted)")
	return cmd
}
