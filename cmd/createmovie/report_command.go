package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"createmovie/internal/usage"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var flags inputFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the detailed material usage report for a storyboard",
		Long:  "Run an allocation without archiving it and report per-category usage, unused materials with reasons, and score statistics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := loadInputs(flags)
			if err != nil {
				return err
			}
			engine, err := ctx.newEngine(flags, in)
			if err != nil {
				return err
			}
			res, err := engine.Run(cmd.Context(), in.pool, in.cuts)
			if err != nil {
				return err
			}
			report := res.Report(in.pool)
			if ctx.jsonOutput() {
				return writeJSON(cmd, report)
			}
			printReport(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printReport(out io.Writer, report usage.Report, colorize bool) {
	title := cases.Title(language.Und)

	for _, line := range renderSectionHeader("Summary", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Materials used: %d/%d (%s)\n", report.Summary.Used, report.Summary.Total, report.Summary.Percentage)
	if s := report.ScoreStats; s.Count > 0 {
		fmt.Fprintf(out, "Match scores: n=%d mean=%.2f median=%.2f stddev=%.2f min=%.2f max=%.2f\n",
			s.Count, s.Mean, s.Median, s.StdDev, s.Min, s.Max)
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("By category", colorize) {
		fmt.Fprintln(out, line)
	}
	rows := make([][]string, 0, len(report.ByCategory))
	for _, name := range report.Categories() {
		stats := report.ByCategory[name]
		rows = append(rows, []string{
			title.String(strings.ReplaceAll(name, "_", " ")),
			fmt.Sprintf("%d", stats.Used),
			fmt.Sprintf("%d", stats.Total),
			stats.Percentage,
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Category", "Used", "Total", "Rate"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight}))
	fmt.Fprintln(out)

	if len(report.UsedMaterials) > 0 {
		for _, line := range renderSectionHeader("Used materials", colorize) {
			fmt.Fprintln(out, line)
		}
		rows = rows[:0]
		for _, u := range report.UsedMaterials {
			rows = append(rows, []string{fmt.Sprintf("%d", u.CutID), u.Filename, u.Category, fmt.Sprintf("%.2f", u.MatchScore)})
		}
		fmt.Fprintln(out, renderTable([]string{"Cut", "File", "Category", "Score"}, rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight}))
		fmt.Fprintln(out)
	}

	if len(report.UnusedMaterials) == 0 {
		fmt.Fprintln(out, renderStatusLine("Unused materials", statusOK, "none", colorize))
		return
	}
	for _, line := range renderSectionHeader("Unused materials", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, u := range report.UnusedMaterials {
		fmt.Fprintf(out, "- %s [%s] %s\n", u.Filename, u.Category, u.Reason)
		for _, s := range u.Suggestions {
			fmt.Fprintf(out, "    suggestion: %s\n", s)
		}
	}
}
