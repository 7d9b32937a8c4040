package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"createmovie/internal/config"
	"createmovie/internal/knowledge"
)

func newKnowledgeCommand(ctx *commandContext) *cobra.Command {
	var path string

	knowledgeCmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Query the research knowledge base",
	}
	knowledgeCmd.PersistentFlags().StringVarP(&path, "knowledge", "k", "", "Knowledge base YAML (default: allocation.knowledge_base)")

	load := func() (*knowledge.Database, error) {
		target := strings.TrimSpace(path)
		if target == "" {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return nil, err
			}
			target = cfg.Allocation.KnowledgeBase
		}
		if target == "" {
			return nil, errors.New("no knowledge base: pass --knowledge or set allocation.knowledge_base")
		}
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return nil, err
		}
		return knowledge.Load(expanded)
	}

	knowledgeCmd.AddCommand(newKnowledgeSuggestCommand(ctx, load))
	knowledgeCmd.AddCommand(newKnowledgeLocationsCommand(ctx, load))
	return knowledgeCmd
}

func newKnowledgeSuggestCommand(ctx *commandContext, load func() (*knowledge.Database, error)) *cobra.Command {
	var mood, timeOfDay string

	cmd := &cobra.Command{
		Use:   "suggest <scene description>",
		Short: "Rank researched locations for a scene",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := load()
			if err != nil {
				return err
			}
			scene := strings.Join(args, " ")
			suggestions := db.RankLocations(scene, mood, timeOfDay)
			if ctx.jsonOutput() {
				return writeJSON(cmd, suggestions)
			}
			out := cmd.OutOrStdout()
			if len(suggestions) == 0 {
				fmt.Fprintln(out, "No locations match this scene")
				return nil
			}
			rows := make([][]string, 0, len(suggestions))
			for i, s := range suggestions {
				priority := ""
				if db.IsPriority(s.Name) {
					priority = "key visual"
				}
				rows = append(rows, []string{fmt.Sprintf("%d", i+1), s.Name, s.ID, fmt.Sprintf("%.0f", s.Score), priority})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Location", "ID", "Score", "Priority"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
	cmd.Flags().StringVar(&mood, "mood", "", "Scene mood")
	cmd.Flags().StringVar(&timeOfDay, "time", "", "Scene time of day")
	return cmd
}

func newKnowledgeLocationsCommand(ctx *commandContext, load func() (*knowledge.Database, error)) *cobra.Command {
	var category, locationType string

	cmd := &cobra.Command{
		Use:   "locations [keyword...]",
		Short: "List researched locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := load()
			if err != nil {
				return err
			}
			locations := db.SearchLocations(category, locationType, args)
			if ctx.jsonOutput() {
				return writeJSON(cmd, locations)
			}
			rows := make([][]string, 0, len(locations))
			for _, loc := range locations {
				rows = append(rows, []string{loc.ID, loc.Name, loc.Category, loc.Type, loc.FilmingTips.BestTime.String()})
			}
			out := cmd.OutOrStdout()
			if project := db.Project(); project.Name != "" {
				fmt.Fprintf(out, "%s\n", project.Name)
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Name", "Category", "Type", "Best time"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only locations in this category")
	cmd.Flags().StringVar(&locationType, "type", "", "Only locations of this type")
	return cmd
}
