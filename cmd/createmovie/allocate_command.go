package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"createmovie/internal/allocation"
	"createmovie/internal/config"
	"createmovie/internal/fileutil"
	"createmovie/internal/history"
	"createmovie/internal/logging"
	"createmovie/internal/material"
	"createmovie/internal/publish"
	"createmovie/internal/usage"
)

const (
	explainAlternatives = 3
	publishTimeout      = 5 * time.Second
)

// allocationOutput is the JSON document written by allocate.
type allocationOutput struct {
	*allocation.Result
	Validation usage.Validation `json:"validation"`
	Report     *usage.Report    `json:"report,omitempty"`
}

func newAllocateCommand(ctx *commandContext) *cobra.Command {
	var flags inputFlags
	var strict bool
	var explain bool
	var writeBack bool
	var reportOut string

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Assign materials to storyboard cuts",
		Long: "Run the allocation engine over a project's material pool and storyboard.\n" +
			"Cuts with no suitable material are marked for image generation unless --strict is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			in, err := loadInputs(flags)
			if err != nil {
				return err
			}

			var opts []allocation.Option
			if strict {
				opts = append(opts, allocation.WithAllowGeneration(false))
			}
			if explain {
				opts = append(opts, allocation.WithAlternatives(explainAlternatives))
			}
			engine, err := ctx.newEngine(flags, in, opts...)
			if err != nil {
				return err
			}

			res, err := engine.Run(cmd.Context(), in.pool, in.cuts)
			if err != nil {
				return err
			}
			report := res.Report(in.pool)
			validation := res.Validate(in.project, in.pool)

			ctx.archiveRun(cmd.Context(), history.Entry{
				Result:      res,
				ProjectPath: in.projectPath,
				Report:      report,
				Validation:  validation,
			})
			ctx.publishRun(cmd.Context(), cfg, res, validation)

			if writeBack {
				if err := material.SavePool(in.metadataPath, in.pool); err != nil {
					return err
				}
			}
			if strings.TrimSpace(reportOut) != "" {
				if err := writeReportFile(reportOut, allocationOutput{Result: res, Validation: validation, Report: &report}); err != nil {
					return err
				}
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, allocationOutput{Result: res, Validation: validation})
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			printAllocation(out, res, colorize)
			if explain {
				printAlternatives(out, res)
			}
			printValidation(out, validation, colorize)
			if writeBack {
				fmt.Fprintf(out, "Assignments written to %s\n", in.metadataPath)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when a cut has no candidate instead of requesting generation")
	cmd.Flags().BoolVar(&explain, "explain", false, "Show runner-up candidates for each cut")
	cmd.Flags().BoolVar(&writeBack, "write-back", false, "Write assigned_to values back into the metadata file")
	cmd.Flags().StringVar(&reportOut, "report-out", "", "Write the full run with its usage report as JSON to this path")
	return cmd
}

// archiveRun records the run when history is enabled. Failures are logged
// and do not fail the command.
func (c *commandContext) archiveRun(ctx context.Context, entry history.Entry) {
	store, err := c.openHistory()
	if err != nil {
		logging.WarnWithContext(c.log(), "run history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldRunID, entry.Result.RunID),
			logging.String(logging.FieldErrorHint, "check history.path or delete an archive with an old schema"),
			logging.String(logging.FieldImpact, "run not archived"),
		)
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	if err := store.Record(ctx, entry); err != nil {
		logging.WarnWithContext(c.log(), "failed to archive run", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldRunID, entry.Result.RunID),
			logging.String(logging.FieldImpact, "run not archived"),
		)
		return
	}
	c.log().Debug("run archived", logging.String(logging.FieldRunID, entry.Result.RunID), logging.String("path", store.Path()))
}

// publishRun mirrors the run into Redis when publishing is enabled.
func (c *commandContext) publishRun(ctx context.Context, cfg *config.Config, res *allocation.Result, validation usage.Validation) {
	if !cfg.Publish.Enabled {
		return
	}
	pub, err := publish.NewFromConfig(cfg.Publish)
	if err != nil {
		logging.WarnWithContext(c.log(), "publisher unavailable", "publish_setup_failed", logging.Error(err))
		return
	}
	defer pub.Close()

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := pub.PublishRun(ctx, res, validation); err != nil {
		logging.WarnWithContext(c.log(), "failed to publish run", "publish_failed",
			logging.Error(err),
			logging.String(logging.FieldRunID, res.RunID),
			logging.String(logging.FieldErrorHint, "check publish.redis_addr"),
			logging.String(logging.FieldImpact, "run not published"),
		)
		return
	}
	c.log().Info("run published",
		logging.String(logging.FieldRunID, res.RunID),
		logging.String("namespace", pub.Namespace()),
	)
}

func writeReportFile(path string, v any) error {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return fileutil.WriteFileAtomic(expanded, append(data, '\n'), 0o644)
}

func printAllocation(out io.Writer, res *allocation.Result, colorize bool) {
	for _, line := range renderSectionHeader(fmt.Sprintf("Run %s (%s)", res.RunID, res.Strategy), colorize) {
		fmt.Fprintln(out, line)
	}

	rows := make([][]string, 0, len(res.Cuts))
	for _, cut := range res.Cuts {
		file, category, score := "-", "-", "-"
		if cut.Source != nil {
			file = cut.Source.Filename
			category = cut.Source.Category
			score = fmt.Sprintf("%.2f", cut.Source.Confidence)
		} else if cut.GenerationRequired {
			file = "(generate)"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", cut.CutID),
			truncate(cut.SceneDescription, 48),
			file,
			category,
			score,
			fmt.Sprintf("%d", cut.UsedAfter),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Cut", "Scene", "Material", "Category", "Score", "Used"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	))
	fmt.Fprintf(out, "Materials used: %d/%d (%s)\n", res.Usage.Used, res.Usage.Total, res.Usage.Percentage)
	if n := res.GenerationCount(); n > 0 {
		fmt.Fprintf(out, "Cuts needing generation: %d\n", n)
	}
}

func printAlternatives(out io.Writer, res *allocation.Result) {
	for _, cut := range res.Cuts {
		if len(cut.Alternatives) == 0 {
			continue
		}
		parts := make([]string, 0, len(cut.Alternatives))
		for _, alt := range cut.Alternatives {
			parts = append(parts, fmt.Sprintf("%s %.2f (base %.2f + bonus %.2f)", alt.MaterialID, alt.Score, alt.Base, alt.Bonus))
		}
		fmt.Fprintf(out, "  cut %d alternatives: %s\n", cut.CutID, strings.Join(parts, "; "))
	}
}

func printValidation(out io.Writer, v usage.Validation, colorize bool) {
	if v.Valid && len(v.Warnings) == 0 {
		fmt.Fprintln(out, renderStatusLine("Validation", statusOK, "requirements met", colorize))
		return
	}
	if v.Valid {
		fmt.Fprintln(out, renderStatusLine("Validation", statusWarn, fmt.Sprintf("%d warning(s)", len(v.Warnings)), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Validation", statusError, fmt.Sprintf("%d error(s)", len(v.Errors)), colorize))
	}
	for _, e := range v.Errors {
		fmt.Fprintln(out, renderStatusLine("error", statusError, e, colorize))
	}
	for _, w := range v.Warnings {
		fmt.Fprintln(out, renderStatusLine("warning", statusWarn, w, colorize))
	}
}

func truncate(s string, limit int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= limit {
		return string(r)
	}
	return string(r[:limit-1]) + "…"
}
